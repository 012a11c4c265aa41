package ledger

import (
	"context"
	"fmt"
	"time"

	"smart-vault-backend/internal/models"
)

func maintenanceRemaining(cfg *models.PauseConfig, now time.Time) time.Duration {
	window := time.Duration(cfg.MaintenanceDurationHours) * time.Hour
	elapsed := now.Sub(time.Unix(cfg.MaintenanceStartTime, 0))
	if elapsed >= window {
		return 0
	}
	return window - elapsed
}

// EvaluatePause resolves the effective state at now. Emergency wins over
// maintenance; a maintenance window that has run its course counts as active.
func EvaluatePause(cfg *models.PauseConfig, now time.Time) (models.PauseState, time.Duration) {
	if cfg.EmergencyPause {
		return models.PauseStateEmergency, 0
	}
	if cfg.MaintenancePause {
		if remaining := maintenanceRemaining(cfg, now); remaining > 0 {
			return models.PauseStateMaintenance, remaining
		}
	}
	return models.PauseStateActive, 0
}

// requireActive gates every balance-moving operation. A lapsed maintenance
// window is cleared in storage as part of the same invocation.
func (tx *Tx) requireActive() error {
	acct, err := tx.pauseConfig()
	if err != nil {
		return err
	}
	cfg := acct.Pause
	if cfg.MaintenancePause && maintenanceRemaining(cfg, tx.now) == 0 {
		cfg.MaintenancePause = false
		cfg.MaintenanceStartTime = 0
		tx.touch(acct)
	}

	state, remaining := EvaluatePause(cfg, tx.now)
	switch state {
	case models.PauseStateEmergency:
		return ErrEmergencyPaused
	case models.PauseStateMaintenance:
		return ErrMaintenancePaused.withf("resumes in %s", remaining.Round(time.Second))
	}
	return nil
}

func isAuthority(signer models.Identity, cfg *models.PauseConfig) bool {
	return signer == cfg.PrimaryAuthority || signer == cfg.SecondaryAuthority
}

// InitializePauseConfig creates the global pause switch, inheriting the
// house pool's authorities. durationHours of zero selects the default window.
func (e *Engine) InitializePauseConfig(ctx context.Context, call Call, durationHours uint8) error {
	if durationHours == 0 {
		durationHours = e.settings.DefaultMaintenanceHours
	}
	accounts := []models.Address{models.HouseAddress(), models.PauseConfigAddress(), models.WalletAddress(call.Signer)}

	return e.invoke(ctx, call, accounts, func(tx *Tx) error {
		house, err := tx.house()
		if err != nil {
			return err
		}
		if tx.Signer() != house.House.PrimaryAuthority && tx.Signer() != house.House.SecondaryAuthority {
			return ErrUnauthorized
		}
		payer, err := tx.wallet(tx.Signer())
		if err != nil {
			return err
		}
		acct, err := tx.create(models.PauseConfigAddress(), models.AccountKindPauseConfig, payer)
		if err != nil {
			return err
		}
		acct.Pause = &models.PauseConfig{
			PrimaryAuthority:         house.House.PrimaryAuthority,
			SecondaryAuthority:       house.House.SecondaryAuthority,
			MaintenanceDurationHours: durationHours,
		}
		e.logger.Info("pause config initialized", "maintenance_hours", durationHours, "slot", tx.Slot())
		return nil
	})
}

// ClosePauseConfig deletes the pause config and refunds its storage to the
// calling authority.
func (e *Engine) ClosePauseConfig(ctx context.Context, call Call) error {
	accounts := []models.Address{models.PauseConfigAddress(), models.WalletAddress(call.Signer)}

	return e.invoke(ctx, call, accounts, func(tx *Tx) error {
		acct, err := tx.pauseConfig()
		if err != nil {
			return err
		}
		if !isAuthority(tx.Signer(), acct.Pause) {
			return ErrUnauthorized
		}
		recipient, err := tx.wallet(tx.Signer())
		if err != nil {
			return err
		}
		refund := acct.Lamports + acct.StorageDeposit
		if err := tx.close(acct, recipient); err != nil {
			return err
		}
		e.logger.Warn("pause config closed", "authority", tx.Signer(), "refund", models.FormatAmount(refund))
		return nil
	})
}

func (e *Engine) StartMaintenancePause(ctx context.Context, call Call) error {
	return e.invoke(ctx, call, []models.Address{models.PauseConfigAddress()}, func(tx *Tx) error {
		acct, err := tx.pauseConfig()
		if err != nil {
			return err
		}
		if !isAuthority(tx.Signer(), acct.Pause) {
			return ErrUnauthorized
		}
		acct.Pause.MaintenancePause = true
		acct.Pause.MaintenanceStartTime = tx.Now().Unix()
		tx.touch(acct)
		e.logger.Info("maintenance pause started", "start", acct.Pause.MaintenanceStartTime, "hours", acct.Pause.MaintenanceDurationHours)
		return nil
	})
}

func (e *Engine) EmergencyPause(ctx context.Context, call Call) error {
	return e.invoke(ctx, call, []models.Address{models.PauseConfigAddress()}, func(tx *Tx) error {
		acct, err := tx.pauseConfig()
		if err != nil {
			return err
		}
		if tx.Signer() != acct.Pause.PrimaryAuthority {
			return ErrUnauthorized
		}
		acct.Pause.EmergencyPause = true
		acct.Pause.MaintenancePause = false
		tx.touch(acct)
		e.logger.Warn("emergency pause activated", "authority", tx.Signer())
		return nil
	})
}

func (e *Engine) Unpause(ctx context.Context, call Call) error {
	return e.invoke(ctx, call, []models.Address{models.PauseConfigAddress()}, func(tx *Tx) error {
		acct, err := tx.pauseConfig()
		if err != nil {
			return err
		}
		if tx.Signer() != acct.Pause.PrimaryAuthority {
			return ErrUnauthorized
		}
		acct.Pause.EmergencyPause = false
		acct.Pause.MaintenancePause = false
		acct.Pause.MaintenanceStartTime = 0
		tx.touch(acct)
		e.logger.Info("all pauses deactivated", "authority", tx.Signer())
		return nil
	})
}

// PauseStatus is read-only: a lapsed maintenance window is reported as
// active but not written back.
func (e *Engine) PauseStatus(ctx context.Context, now time.Time) (*models.PauseStatus, error) {
	addr := models.PauseConfigAddress()
	accounts, err := e.host.Load(ctx, addr)
	if err != nil {
		return nil, err
	}
	acct := accounts[addr]
	if acct == nil || acct.Pause == nil {
		return nil, ErrAccountNotFound.withf("pause config not initialized")
	}
	return describePause(acct.Pause, now), nil
}

func describePause(cfg *models.PauseConfig, now time.Time) *models.PauseStatus {
	state, remaining := EvaluatePause(cfg, now)
	status := &models.PauseStatus{
		State:            state,
		EmergencyPause:   state == models.PauseStateEmergency,
		MaintenancePause: state == models.PauseStateMaintenance,
	}
	switch state {
	case models.PauseStateEmergency:
		status.ResumeTime = "indefinite"
		status.Message = "Emergency pause active - no operations allowed"
	case models.PauseStateMaintenance:
		status.RemainingSeconds = int64(remaining / time.Second)
		status.RemainingHours = int64((remaining + time.Hour - 1) / time.Hour)
		status.ResumeTime = fmt.Sprintf("%d hours", status.RemainingHours)
		status.Message = fmt.Sprintf("Maintenance in progress - will resume in %d hours", status.RemainingHours)
	default:
		status.ResumeTime = "now"
		if cfg.MaintenancePause {
			status.Message = "Maintenance complete - operations restored"
		} else {
			status.Message = "All operations active"
		}
	}
	return status
}
