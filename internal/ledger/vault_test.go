package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/models"
)

func TestDepositThenWithdrawAll(t *testing.T) {
	f := newFixture(t)
	owner := f.player(0)
	walletBefore := f.walletBalance(owner)

	require.NoError(t, f.engine.Deposit(f.ctx, f.call(owner), 1_000_000))
	assert.Equal(t, uint64(1_000_000), f.vault(owner).Balance)
	assert.Equal(t, walletBefore-1_000_000, f.walletBalance(owner))

	require.NoError(t, f.engine.Withdraw(f.ctx, f.call(owner), 1_000_000))
	view := f.vault(owner)
	assert.Zero(t, view.Balance)
	assert.Zero(t, view.Available)
	assert.Equal(t, walletBefore, f.walletBalance(owner))
}

func TestInitializeVaultTwice(t *testing.T) {
	f := newFixture(t)
	owner := f.player(0)

	err := f.engine.InitializeVault(f.ctx, f.call(owner))
	assert.ErrorIs(t, err, ledger.ErrAccountExists)
}

func TestInitializeVaultChargesStorage(t *testing.T) {
	f := newFixture(t)
	owner := newIdentity(t)
	f.airdrop(owner, unit)

	require.NoError(t, f.engine.InitializeVault(f.ctx, f.call(owner)))
	assert.Equal(t, unit-models.StorageDeposit(models.AccountKindVault), f.walletBalance(owner))

	view := f.vault(owner)
	assert.Zero(t, view.Balance)
	assert.Equal(t, owner, view.Vault.Owner)
	assert.Equal(t, models.CurrentVersion, view.Vault.Version)
}

func TestInitializeVaultWithoutFunds(t *testing.T) {
	f := newFixture(t)
	owner := newIdentity(t)

	err := f.engine.InitializeVault(f.ctx, f.call(owner))
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	_, err = f.engine.Vault(f.ctx, owner)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestDepositValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.player(0)

	assert.ErrorIs(t, f.engine.Deposit(f.ctx, f.call(owner), 0), ledger.ErrInvalidAmount)
	assert.ErrorIs(t, f.engine.Deposit(f.ctx, f.call(owner), 100*unit), ledger.ErrInsufficientFunds)
	assert.Zero(t, f.vault(owner).Balance)

	stranger := newIdentity(t)
	f.airdrop(stranger, unit)
	assert.ErrorIs(t, f.engine.Deposit(f.ctx, f.call(stranger), 10), ledger.ErrAccountNotFound)
}

func TestWithdrawValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.player(1000)

	assert.ErrorIs(t, f.engine.Withdraw(f.ctx, f.call(owner), 0), ledger.ErrInvalidAmount)
	assert.ErrorIs(t, f.engine.Withdraw(f.ctx, f.call(owner), 1001), ledger.ErrInsufficientFunds)
	assert.Equal(t, uint64(1000), f.vault(owner).Balance)
}

func TestWithdrawBlockedByActiveGames(t *testing.T) {
	f := newFixture(t)
	owner := f.player(1000)

	require.NoError(t, f.engine.PlaceBet(f.ctx, f.call(f.settler), owner, 400))

	err := f.engine.Withdraw(f.ctx, f.call(owner), 100)
	assert.ErrorIs(t, err, ledger.ErrGamesInProgress)

	require.NoError(t, f.engine.SettleGame(f.ctx, f.call(f.settler), owner, 400, 0))
	require.NoError(t, f.engine.Withdraw(f.ctx, f.call(owner), 600))
	assert.Zero(t, f.vault(owner).Balance)
}
