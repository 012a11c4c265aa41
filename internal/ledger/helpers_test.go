package ledger_test

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/models"
	"smart-vault-backend/internal/services"
)

const unit = models.LamportsPerUnit

type recordingSink struct {
	mu     sync.Mutex
	events []models.Event
}

func (s *recordingSink) Publish(_ context.Context, events []models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

func (s *recordingSink) ofType(kind string) []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Event
	for _, evt := range s.events {
		if evt.EventType() == kind {
			out = append(out, evt)
		}
	}
	return out
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	host    *services.MemoryHost
	engine  *ledger.Engine
	sink    *recordingSink
	now     time.Time
	primary models.Identity
	settler models.Identity
}

func newIdentity(t *testing.T) models.Identity {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	id, err := models.IdentityFromPublicKey(pub)
	require.NoError(t, err)
	return id
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, ledger.DefaultSettings())
}

// newFixtureWith boots a house pool and pause config on a fresh memory host.
func newFixtureWith(t *testing.T, settings ledger.Settings) *fixture {
	t.Helper()

	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		host:    services.NewMemoryHost(),
		sink:    &recordingSink{},
		now:     time.Unix(1_700_000_000, 0).UTC(),
		primary: newIdentity(t),
		settler: newIdentity(t),
	}
	f.host.SetClock(func() time.Time { return f.now })
	f.engine = ledger.NewEngine(f.host, settings, f.sink)

	f.airdrop(f.primary, 10*unit)
	f.airdrop(f.settler, 10*unit)
	require.NoError(t, f.engine.InitializeHouse(f.ctx, f.call(f.primary), f.primary, f.settler))
	require.NoError(t, f.engine.InitializePauseConfig(f.ctx, f.call(f.primary), 0))
	return f
}

func (f *fixture) call(signer models.Identity) ledger.Call {
	return ledger.Call{Signer: signer, Data: signer[:]}
}

func (f *fixture) airdrop(to models.Identity, amount uint64) {
	f.t.Helper()
	require.NoError(f.t, f.host.Airdrop(f.ctx, to, amount))
}

// player creates a funded vault holding balance lamports.
func (f *fixture) player(balance uint64) models.Identity {
	f.t.Helper()
	id := newIdentity(f.t)
	f.airdrop(id, unit+balance)
	require.NoError(f.t, f.engine.InitializeVault(f.ctx, f.call(id)))
	if balance > 0 {
		require.NoError(f.t, f.engine.Deposit(f.ctx, f.call(id), balance))
	}
	return id
}

func (f *fixture) fundHouse(amount uint64) {
	f.t.Helper()
	f.airdrop(f.primary, amount)
	require.NoError(f.t, f.engine.FundHouse(f.ctx, f.call(f.primary), amount))
}

func (f *fixture) vault(owner models.Identity) *models.VaultView {
	f.t.Helper()
	view, err := f.engine.Vault(f.ctx, owner)
	require.NoError(f.t, err)
	return view
}

func (f *fixture) house() *models.HouseView {
	f.t.Helper()
	view, err := f.engine.House(f.ctx)
	require.NoError(f.t, err)
	return view
}

func (f *fixture) walletBalance(owner models.Identity) uint64 {
	f.t.Helper()
	addr := models.WalletAddress(owner)
	accounts, err := f.host.Load(f.ctx, addr)
	require.NoError(f.t, err)
	if acct := accounts[addr]; acct != nil {
		return acct.Lamports
	}
	return 0
}

func (f *fixture) pauseConfig() *models.PauseConfig {
	f.t.Helper()
	addr := models.PauseConfigAddress()
	accounts, err := f.host.Load(f.ctx, addr)
	require.NoError(f.t, err)
	acct := accounts[addr]
	require.NotNil(f.t, acct)
	return acct.Pause
}

func metadata(betID string) models.BetMetadata {
	return models.BetMetadata{BetID: betID, GameID: 7, GameData: models.GameData{1, 2, 3, 4, 5, 6, 7}}
}
