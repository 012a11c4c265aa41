package services_test

import (
	"context"
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/models"
	"smart-vault-backend/internal/services"
)

func newIdentity(t *testing.T) models.Identity {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	id, err := models.IdentityFromPublicKey(pub)
	require.NoError(t, err)
	return id
}

func TestMemoryHostAirdrop(t *testing.T) {
	ctx := context.Background()
	host := services.NewMemoryHost()
	owner := newIdentity(t)
	addr := models.WalletAddress(owner)

	require.NoError(t, host.Airdrop(ctx, owner, 100))
	require.NoError(t, host.Airdrop(ctx, owner, 50))

	accounts, err := host.Load(ctx, addr)
	require.NoError(t, err)
	require.Contains(t, accounts, addr)
	assert.Equal(t, uint64(150), accounts[addr].Lamports)
	assert.Equal(t, models.AccountKindWallet, accounts[addr].Kind)

	assert.ErrorIs(t, host.Airdrop(ctx, owner, ^uint64(0)), ledger.ErrOverflow)
}

func TestMemoryHostLoadReturnsCopies(t *testing.T) {
	ctx := context.Background()
	host := services.NewMemoryHost()
	owner := newIdentity(t)
	addr := models.WalletAddress(owner)
	require.NoError(t, host.Airdrop(ctx, owner, 100))

	accounts, err := host.Load(ctx, addr)
	require.NoError(t, err)
	accounts[addr].Lamports = 0

	again, err := host.Load(ctx, addr, models.HouseAddress())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), again[addr].Lamports)
	assert.NotContains(t, again, models.HouseAddress())
}

func TestMemoryHostPropagatesInvocationError(t *testing.T) {
	ctx := context.Background()
	host := services.NewMemoryHost()
	owner := newIdentity(t)
	require.NoError(t, host.Airdrop(ctx, owner, unitDeposit()+500))

	engine := ledger.NewEngine(host, ledger.DefaultSettings())
	call := ledger.Call{Signer: owner}

	require.NoError(t, engine.InitializeVault(ctx, call))
	_, err := engine.Vault(ctx, owner)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = host.Invoke(ctx, ledger.Invocation{Signer: owner, Accounts: []models.Address{models.WalletAddress(owner)}},
		func(tx *ledger.Tx) error {
			return boom
		})
	assert.ErrorIs(t, err, boom)

	accounts, err := host.Load(ctx, models.WalletAddress(owner))
	require.NoError(t, err)
	assert.Equal(t, uint64(500), accounts[models.WalletAddress(owner)].Lamports)
}

func TestMemoryHostSlotsAndClock(t *testing.T) {
	ctx := context.Background()
	host := services.NewMemoryHost()
	fixed := time.Unix(1_700_000_000, 0)
	host.SetClock(func() time.Time { return fixed })

	var slots []uint64
	for i := 0; i < 3; i++ {
		err := host.Invoke(ctx, ledger.Invocation{}, func(tx *ledger.Tx) error {
			slots = append(slots, tx.Slot())
			assert.Equal(t, fixed, tx.Now())
			return nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, []uint64{1, 2, 3}, slots)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := host.Invoke(cancelled, ledger.Invocation{}, func(*ledger.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func unitDeposit() uint64 {
	return models.StorageDeposit(models.AccountKindVault)
}
