package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/models"
)

func TestEmergencyPauseBlocksEverything(t *testing.T) {
	f := newFixture(t)
	owner := f.player(1000)

	require.NoError(t, f.engine.StartMaintenancePause(f.ctx, f.call(f.settler)))
	require.NoError(t, f.engine.EmergencyPause(f.ctx, f.call(f.primary)))

	assert.ErrorIs(t, f.engine.Deposit(f.ctx, f.call(owner), 1), ledger.ErrEmergencyPaused)
	assert.ErrorIs(t, f.engine.Withdraw(f.ctx, f.call(owner), 1), ledger.ErrEmergencyPaused)
	assert.ErrorIs(t, f.engine.PlaceBet(f.ctx, f.call(f.settler), owner, 1), ledger.ErrEmergencyPaused)

	// Long after any maintenance window would have lapsed.
	f.now = f.now.Add(72 * time.Hour)
	req := models.BetAndSettleRequest{Owner: owner, Stake: 10, Metadata: metadata("x")}
	assert.ErrorIs(t, f.engine.BetAndSettle(f.ctx, f.call(f.settler), req), ledger.ErrEmergencyPaused)
	assert.ErrorIs(t, f.engine.CreditWin(f.ctx, f.call(f.settler), owner, 1), ledger.ErrEmergencyPaused)

	status, err := f.engine.PauseStatus(f.ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, models.PauseStateEmergency, status.State)
	assert.Equal(t, "indefinite", status.ResumeTime)

	require.NoError(t, f.engine.Unpause(f.ctx, f.call(f.primary)))
	require.NoError(t, f.engine.Withdraw(f.ctx, f.call(owner), 1))

	cfg := f.pauseConfig()
	assert.False(t, cfg.EmergencyPause)
	assert.False(t, cfg.MaintenancePause)
	assert.Zero(t, cfg.MaintenanceStartTime)
}

func TestMaintenancePauseExpires(t *testing.T) {
	f := newFixture(t)
	owner := f.player(1000)

	require.NoError(t, f.engine.StartMaintenancePause(f.ctx, f.call(f.primary)))
	assert.ErrorIs(t, f.engine.Deposit(f.ctx, f.call(owner), 1), ledger.ErrMaintenancePaused)

	f.now = f.now.Add(90 * time.Minute)
	status, err := f.engine.PauseStatus(f.ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, models.PauseStateMaintenance, status.State)
	assert.Equal(t, int64(150*60), status.RemainingSeconds)
	assert.Equal(t, int64(3), status.RemainingHours)

	f.now = f.now.Add(150 * time.Minute)
	status, err = f.engine.PauseStatus(f.ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, models.PauseStateActive, status.State)
	assert.True(t, f.pauseConfig().MaintenancePause, "status queries never write")

	require.NoError(t, f.engine.Withdraw(f.ctx, f.call(owner), 1))
	cfg := f.pauseConfig()
	assert.False(t, cfg.MaintenancePause)
	assert.Zero(t, cfg.MaintenanceStartTime)
}

func TestExpiredMaintenanceClearedOnlyOnCommit(t *testing.T) {
	f := newFixture(t)
	owner := f.player(1000)

	require.NoError(t, f.engine.StartMaintenancePause(f.ctx, f.call(f.primary)))
	f.now = f.now.Add(5 * time.Hour)

	// The withdraw fails after the gate, so nothing from it commits.
	assert.ErrorIs(t, f.engine.Withdraw(f.ctx, f.call(owner), 5000), ledger.ErrInsufficientFunds)
	assert.True(t, f.pauseConfig().MaintenancePause)
}

func TestPauseAuthorityRules(t *testing.T) {
	f := newFixture(t)
	outsider := newIdentity(t)

	assert.ErrorIs(t, f.engine.StartMaintenancePause(f.ctx, f.call(outsider)), ledger.ErrUnauthorized)
	assert.ErrorIs(t, f.engine.EmergencyPause(f.ctx, f.call(f.settler)), ledger.ErrUnauthorized)
	assert.ErrorIs(t, f.engine.Unpause(f.ctx, f.call(f.settler)), ledger.ErrUnauthorized)

	require.NoError(t, f.engine.EmergencyPause(f.ctx, f.call(f.primary)))
	cfg := f.pauseConfig()
	assert.True(t, cfg.EmergencyPause)
	assert.False(t, cfg.MaintenancePause)
}

func TestMissingPauseConfigFailsClosed(t *testing.T) {
	f := newFixture(t)
	owner := f.player(1000)
	walletBefore := f.walletBalance(f.settler)

	require.NoError(t, f.engine.ClosePauseConfig(f.ctx, f.call(f.settler)))
	assert.Equal(t, walletBefore+models.StorageDeposit(models.AccountKindPauseConfig), f.walletBalance(f.settler))

	assert.ErrorIs(t, f.engine.Deposit(f.ctx, f.call(owner), 1), ledger.ErrAccountNotFound)
	assert.ErrorIs(t, f.engine.PlaceBet(f.ctx, f.call(f.settler), owner, 1), ledger.ErrAccountNotFound)
	_, err := f.engine.PauseStatus(f.ctx, f.now)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	require.NoError(t, f.engine.InitializePauseConfig(f.ctx, f.call(f.settler), 2))
	assert.Equal(t, uint8(2), f.pauseConfig().MaintenanceDurationHours)
	require.NoError(t, f.engine.Deposit(f.ctx, f.call(owner), 1))
}

func TestPauseConfigLifecycle(t *testing.T) {
	f := newFixture(t)

	err := f.engine.InitializePauseConfig(f.ctx, f.call(f.primary), 0)
	assert.ErrorIs(t, err, ledger.ErrAccountExists)

	cfg := f.pauseConfig()
	assert.Equal(t, uint8(ledger.DefaultMaintenanceHours), cfg.MaintenanceDurationHours)
	assert.Equal(t, f.primary, cfg.PrimaryAuthority)
	assert.Equal(t, f.settler, cfg.SecondaryAuthority)

	assert.ErrorIs(t, f.engine.ClosePauseConfig(f.ctx, f.call(newIdentity(t))), ledger.ErrUnauthorized)
}

func TestEvaluatePause(t *testing.T) {
	now := time.Unix(10_000, 0)
	cfg := &models.PauseConfig{MaintenancePause: true, MaintenanceStartTime: now.Unix() - 3599, MaintenanceDurationHours: 1}

	state, remaining := ledger.EvaluatePause(cfg, now)
	assert.Equal(t, models.PauseStateMaintenance, state)
	assert.Equal(t, time.Second, remaining)

	state, _ = ledger.EvaluatePause(cfg, now.Add(time.Second))
	assert.Equal(t, models.PauseStateActive, state)

	cfg.EmergencyPause = true
	state, _ = ledger.EvaluatePause(cfg, now.Add(time.Second))
	assert.Equal(t, models.PauseStateEmergency, state)
}
