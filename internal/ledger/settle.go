package ledger

import (
	"context"
	"math"

	"smart-vault-backend/internal/models"
)

func settlementAccounts(vaults ...models.Address) []models.Address {
	return append([]models.Address{models.PauseConfigAddress(), models.HouseAddress()}, vaults...)
}

// ownerVault loads owner's vault and rejects a record stored under someone
// else's name.
func (tx *Tx) ownerVault(owner models.Identity) (*models.Account, error) {
	acct, err := tx.vault(models.VaultAddress(owner))
	if err != nil {
		return nil, err
	}
	if acct.Vault.Owner != owner {
		return nil, ErrInvalidAccount.withf("vault owner mismatch")
	}
	return acct, nil
}

// settlementGate runs the checks shared by every settlement call: the caller
// is the settlement authority and the pause gate is clear.
func (tx *Tx) settlementGate() (*models.Account, error) {
	house, err := tx.settlementAuthority()
	if err != nil {
		return nil, err
	}
	if err := tx.requireActive(); err != nil {
		return nil, err
	}
	return house, nil
}

func validateMetadata(meta models.BetMetadata) error {
	if len(meta.GameData) != models.GameDataSize {
		return ErrInvalidMetadata.withf("game data must be %d bytes, got %d", models.GameDataSize, len(meta.GameData))
	}
	if meta.BetID == "" {
		return ErrInvalidMetadata.withf("bet id is empty")
	}
	return nil
}

// PlaceBet opens a two-phase bet: the stake is locked against the vault and
// moved into the house pool until SettleGame reports the outcome.
func (e *Engine) PlaceBet(ctx context.Context, call Call, owner models.Identity, stake uint64) error {
	if stake == 0 {
		return ErrInvalidAmount
	}
	return e.invoke(ctx, call, settlementAccounts(models.VaultAddress(owner)), func(tx *Tx) error {
		house, err := tx.settlementGate()
		if err != nil {
			return err
		}
		vault, err := tx.ownerVault(owner)
		if err != nil {
			return err
		}

		v := vault.Vault
		if available := v.Available(vault.Lamports); available < stake {
			return ErrInsufficientFunds.withf("available %d, stake %d", available, stake)
		}
		locked, err := checkedAdd(v.LockedAmount, stake)
		if err != nil {
			return err
		}
		if v.ActiveGames == math.MaxUint32 {
			return ErrOverflow
		}
		if err := tx.transfer(vault, house, stake, ErrInsufficientFunds); err != nil {
			return err
		}
		v.LockedAmount = locked
		v.ActiveGames++
		tx.touch(vault)

		tx.emit(&models.SettlementEvent{
			ID:      models.NewEventID(),
			Kind:    models.SettlementPlaceBet,
			Owner:   owner,
			Vault:   vault.Address,
			Stake:   stake,
			Outcome: models.OutcomeLoss,
			Slot:    tx.Slot(),
		})
		e.logger.Info("bet placed", "owner", owner, "stake", stake, "locked", v.LockedAmount, "active_games", v.ActiveGames)
		return nil
	})
}

// SettleGame closes a bet opened by PlaceBet. The stake already sits in the
// house pool, so only a non-zero payout moves funds.
func (e *Engine) SettleGame(ctx context.Context, call Call, owner models.Identity, stake, payout uint64) error {
	if stake == 0 {
		return ErrInvalidAmount
	}
	return e.invoke(ctx, call, settlementAccounts(models.VaultAddress(owner)), func(tx *Tx) error {
		house, err := tx.settlementGate()
		if err != nil {
			return err
		}
		vault, err := tx.ownerVault(owner)
		if err != nil {
			return err
		}

		v := vault.Vault
		if v.ActiveGames == 0 {
			return ErrNoActiveGame
		}
		if v.LockedAmount < stake {
			return ErrSettlementMismatch.withf("locked %d, stake %d", v.LockedAmount, stake)
		}
		if err := tx.transfer(house, vault, payout, ErrHouseInsufficient); err != nil {
			return err
		}
		v.LockedAmount -= stake
		v.ActiveGames--
		tx.touch(vault)

		tx.emit(&models.SettlementEvent{
			ID:      models.NewEventID(),
			Kind:    models.SettlementSettleGame,
			Owner:   owner,
			Vault:   vault.Address,
			Stake:   stake,
			Payout:  payout,
			Outcome: models.OutcomeOf(stake, payout),
			Slot:    tx.Slot(),
		})
		e.logger.Info("game settled", "owner", owner, "stake", stake, "payout", payout, "active_games", v.ActiveGames)
		return nil
	})
}

// applyNetSettlement settles one round without touching the lock. A zero
// stake means the stake was taken earlier and payout is paid in full.
func applyNetSettlement(tx *Tx, vault, house *models.Account, stake, payout uint64) error {
	if stake == 0 {
		return tx.transfer(house, vault, payout, ErrHouseInsufficient)
	}
	if vault.Lamports < stake {
		return ErrInsufficientFunds.withf("balance %d, stake %d", vault.Lamports, stake)
	}
	volume, err := checkedAdd(house.House.TotalVolume, stake)
	if err != nil {
		return err
	}
	house.House.TotalVolume = volume
	tx.touch(house)

	switch {
	case payout > stake:
		return tx.transfer(house, vault, payout-stake, ErrHouseInsufficient)
	case payout < stake:
		return tx.transfer(vault, house, stake-payout, ErrInsufficientFunds)
	}
	return nil
}

// BetAndSettle places and settles a round in one invocation. With a
// multiplier the stake also feeds the reward counter.
func (e *Engine) BetAndSettle(ctx context.Context, call Call, req models.BetAndSettleRequest) error {
	if err := validateMetadata(req.Metadata); err != nil {
		return err
	}
	if req.Multiplier != nil {
		if !validMultiplier(*req.Multiplier) {
			return ErrInvalidMultiplier
		}
		if req.Stake == 0 {
			return ErrInvalidAmount.withf("rewards need a non-zero stake")
		}
	}

	return e.invoke(ctx, call, settlementAccounts(models.VaultAddress(req.Owner)), func(tx *Tx) error {
		house, err := tx.settlementGate()
		if err != nil {
			return err
		}
		vault, err := tx.ownerVault(req.Owner)
		if err != nil {
			return err
		}
		if err := applyNetSettlement(tx, vault, house, req.Stake, req.Payout); err != nil {
			return err
		}

		meta := req.Metadata
		tx.emit(&models.SettlementEvent{
			ID:       models.NewEventID(),
			Kind:     models.SettlementBetAndSettle,
			Owner:    req.Owner,
			Vault:    vault.Address,
			Stake:    req.Stake,
			Payout:   req.Payout,
			Outcome:  models.OutcomeOf(req.Stake, req.Payout),
			Metadata: &meta,
			Slot:     tx.Slot(),
		})
		e.logger.Info("bet settled", "owner", req.Owner, "bet_id", meta.BetID, "game_id", meta.GameID,
			"stake", req.Stake, "payout", req.Payout)

		if req.Multiplier != nil {
			return e.awardGems(tx, vault, req.Stake, *req.Multiplier)
		}
		return nil
	})
}
