package ledger

import (
	"context"

	"smart-vault-backend/internal/models"
)

// CreditWin pays amount from the house pool to owner's vault outside the
// bet lifecycle. Lock and active game counters are left untouched.
func (e *Engine) CreditWin(ctx context.Context, call Call, owner models.Identity, amount uint64) error {
	return e.adjust(ctx, call, models.AdjustmentCreditWin, owner, amount)
}

// DebitLoss takes amount from owner's vault into the house pool.
func (e *Engine) DebitLoss(ctx context.Context, call Call, owner models.Identity, amount uint64) error {
	return e.adjust(ctx, call, models.AdjustmentDebitLoss, owner, amount)
}

func (e *Engine) adjust(ctx context.Context, call Call, kind models.AdjustmentKind, owner models.Identity, amount uint64) error {
	if amount == 0 {
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

		switch kind {
		case models.AdjustmentCreditWin:
			err = tx.transfer(house, vault, amount, ErrHouseInsufficient)
		default:
			err = tx.transfer(vault, house, amount, ErrInsufficientFunds)
		}
		if err != nil {
			return err
		}

		tx.emit(&models.AdjustmentEvent{
			ID:        models.NewEventID(),
			Kind:      kind,
			Owner:     owner,
			Vault:     vault.Address,
			Amount:    amount,
			Authority: tx.Signer(),
			Slot:      tx.Slot(),
			CreatedAt: tx.Now().UTC(),
		})
		e.logger.Warn("balance adjusted", "kind", kind, "owner", owner, "amount", models.FormatAmount(amount), "authority", tx.Signer())
		return nil
	})
}
