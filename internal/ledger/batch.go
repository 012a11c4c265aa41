package ledger

import (
	"context"

	"smart-vault-backend/internal/models"
)

func (e *Engine) validateBatch(req models.BatchSettleRequest) error {
	n := len(req.Stakes)
	if n == 0 {
		return ErrBatchEmpty
	}
	if n > e.settings.MaxBatchSize {
		return ErrBatchTooLarge.withf("%d entries, limit %d", n, e.settings.MaxBatchSize)
	}
	if len(req.Payouts) != n || len(req.Metadata) != n || len(req.Vaults) != n {
		return ErrLengthMismatch.withf("stakes %d, payouts %d, metadata %d, vaults %d",
			n, len(req.Payouts), len(req.Metadata), len(req.Vaults))
	}
	for i, meta := range req.Metadata {
		if err := validateMetadata(meta); err != nil {
			return batchEntryError(i, err)
		}
	}
	return nil
}

// BatchSettle settles up to MaxBatchSize rounds in list order, pairing the
// i-th stake and payout with the i-th vault. Any failing entry aborts the
// whole batch.
func (e *Engine) BatchSettle(ctx context.Context, call Call, req models.BatchSettleRequest) error {
	if err := e.validateBatch(req); err != nil {
		return err
	}

	return e.invoke(ctx, call, settlementAccounts(req.Vaults...), func(tx *Tx) error {
		house, err := tx.settlementGate()
		if err != nil {
			return err
		}

		for i, addr := range req.Vaults {
			vault, err := tx.vault(addr)
			if err != nil {
				return batchEntryError(i, err)
			}
			stake, payout := req.Stakes[i], req.Payouts[i]
			if err := applyNetSettlement(tx, vault, house, stake, payout); err != nil {
				return batchEntryError(i, err)
			}
			meta := req.Metadata[i]
			tx.emit(&models.SettlementEvent{
				ID:       models.NewEventID(),
				Kind:     models.SettlementBatch,
				Owner:    vault.Vault.Owner,
				Vault:    addr,
				Stake:    stake,
				Payout:   payout,
				Outcome:  models.OutcomeOf(stake, payout),
				Index:    i,
				Metadata: &meta,
				Slot:     tx.Slot(),
			})
		}
		e.logger.Info("batch settled", "entries", len(req.Vaults), "slot", tx.Slot())
		return nil
	})
}

func batchEntryError(i int, err error) error {
	if le, ok := AsError(err); ok {
		return le.withf("batch entry %d", i)
	}
	return err
}
