package ledger

import (
	"context"
	"errors"

	"smart-vault-backend/internal/models"
)

// InitializeHouse creates the single house pool. The caller pays its storage
// deposit; the authorities become ledger state, rotated only by ChangeAuthority.
func (e *Engine) InitializeHouse(ctx context.Context, call Call, primary, secondary models.Identity) error {
	if primary.IsZero() || secondary.IsZero() {
		return ErrInvalidAccount.withf("house authorities must be set")
	}
	accounts := []models.Address{models.HouseAddress(), models.WalletAddress(call.Signer)}

	return e.invoke(ctx, call, accounts, func(tx *Tx) error {
		payer, err := tx.wallet(tx.Signer())
		if err != nil {
			return err
		}
		acct, err := tx.create(models.HouseAddress(), models.AccountKindHouse, payer)
		if err != nil {
			return err
		}
		acct.House = &models.HousePool{
			PrimaryAuthority:   primary,
			SecondaryAuthority: secondary,
			Version:            models.CurrentVersion,
		}
		e.logger.Info("house pool initialized", "primary", primary, "secondary", secondary)
		return nil
	})
}

// settlementAuthority checks the signer against the house pool's secondary
// authority, the identity trusted to report game outcomes.
func (tx *Tx) settlementAuthority() (*models.Account, error) {
	house, err := tx.house()
	if err != nil {
		return nil, err
	}
	if tx.Signer() != house.House.SecondaryAuthority {
		return nil, ErrUnauthorized
	}
	return house, nil
}

// ChangeAuthority rotates either authority. Only the current primary may call
// it; the pause config, when present, is kept in step with the house pool.
func (e *Engine) ChangeAuthority(ctx context.Context, call Call, newPrimary, newSecondary *models.Identity) error {
	if (newPrimary != nil && newPrimary.IsZero()) || (newSecondary != nil && newSecondary.IsZero()) {
		return ErrInvalidAccount.withf("authority cannot be empty")
	}
	accounts := []models.Address{models.HouseAddress(), models.PauseConfigAddress()}

	return e.invoke(ctx, call, accounts, func(tx *Tx) error {
		house, err := tx.house()
		if err != nil {
			return err
		}
		if tx.Signer() != house.House.PrimaryAuthority {
			return ErrUnauthorized
		}
		pause, err := tx.pauseConfig()
		if err != nil && !errors.Is(err, ErrAccountNotFound) {
			return err
		}

		if newPrimary != nil {
			house.House.PrimaryAuthority = *newPrimary
			if pause != nil {
				pause.Pause.PrimaryAuthority = *newPrimary
			}
			e.logger.Info("primary authority updated", "authority", *newPrimary)
		}
		if newSecondary != nil {
			house.House.SecondaryAuthority = *newSecondary
			if pause != nil {
				pause.Pause.SecondaryAuthority = *newSecondary
			}
			e.logger.Info("secondary authority updated", "authority", *newSecondary)
		}
		tx.touch(house)
		if pause != nil {
			tx.touch(pause)
		}
		return nil
	})
}

// FundHouse tops up the house pool from the caller's wallet. Anyone may fund
// it; only settlements and adjustments take funds back out.
func (e *Engine) FundHouse(ctx context.Context, call Call, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	accounts := []models.Address{models.HouseAddress(), models.WalletAddress(call.Signer)}

	return e.invoke(ctx, call, accounts, func(tx *Tx) error {
		house, err := tx.house()
		if err != nil {
			return err
		}
		wallet, err := tx.wallet(tx.Signer())
		if err != nil {
			return err
		}
		if err := tx.transfer(wallet, house, amount, ErrInsufficientFunds); err != nil {
			return err
		}
		e.logger.Info("house funded", "funder", tx.Signer(), "amount", models.FormatAmount(amount), "balance", house.Lamports)
		return nil
	})
}
