package ledger

import (
	"context"
	"log/slog"

	"smart-vault-backend/internal/models"
)

// Host is the execution environment the engine runs inside. Invoke must give
// fn exclusive access to inv.Accounts and commit tx.Changes atomically when
// fn returns nil; on error nothing may be written.
type Host interface {
	Invoke(ctx context.Context, inv Invocation, fn func(tx *Tx) error) error
	Load(ctx context.Context, addrs ...models.Address) (map[models.Address]*models.Account, error)
}

// EventSink receives events of committed invocations.
type EventSink interface {
	Publish(ctx context.Context, events []models.Event)
}

// Call identifies the verified caller and carries the raw call bytes.
type Call struct {
	Signer models.Identity
	Data   []byte
}

type Settings struct {
	RewardThreshold         uint64
	MaxRollsPerCall         uint32
	MaxBatchSize            int
	DefaultMaintenanceHours uint8
}

const (
	DefaultRewardThreshold  = 100_000_000
	DefaultMaxRollsPerCall  = 100
	DefaultMaxBatchSize     = 10
	DefaultMaintenanceHours = 4
)

func DefaultSettings() Settings {
	return Settings{
		RewardThreshold:         DefaultRewardThreshold,
		MaxRollsPerCall:         DefaultMaxRollsPerCall,
		MaxBatchSize:            DefaultMaxBatchSize,
		DefaultMaintenanceHours: DefaultMaintenanceHours,
	}
}

type Engine struct {
	host     Host
	settings Settings
	sinks    []EventSink
	logger   *slog.Logger
}

func NewEngine(host Host, settings Settings, sinks ...EventSink) *Engine {
	defaults := DefaultSettings()
	if settings.RewardThreshold == 0 {
		settings.RewardThreshold = defaults.RewardThreshold
	}
	if settings.MaxRollsPerCall == 0 {
		settings.MaxRollsPerCall = defaults.MaxRollsPerCall
	}
	if settings.MaxBatchSize <= 0 {
		settings.MaxBatchSize = defaults.MaxBatchSize
	}
	if settings.DefaultMaintenanceHours == 0 {
		settings.DefaultMaintenanceHours = defaults.DefaultMaintenanceHours
	}
	return &Engine{
		host:     host,
		settings: settings,
		sinks:    sinks,
		logger:   slog.Default().With("component", "ledger"),
	}
}

func (e *Engine) Settings() Settings {
	return e.settings
}

// AddSink registers a sink for events of later invocations.
func (e *Engine) AddSink(sink EventSink) {
	e.sinks = append(e.sinks, sink)
}

func (e *Engine) invoke(ctx context.Context, call Call, accounts []models.Address, fn func(tx *Tx) error) error {
	inv := Invocation{Signer: call.Signer, Accounts: accounts, Data: call.Data}

	var events []models.Event
	err := e.host.Invoke(ctx, inv, func(tx *Tx) error {
		events = nil
		if err := fn(tx); err != nil {
			return err
		}
		events = tx.Events()
		return nil
	})
	if err != nil {
		return err
	}

	if len(events) > 0 {
		for _, sink := range e.sinks {
			sink.Publish(ctx, events)
		}
	}
	return nil
}

// Vault reports an owner's vault and its host-held balance.
func (e *Engine) Vault(ctx context.Context, owner models.Identity) (*models.VaultView, error) {
	addr := models.VaultAddress(owner)
	accounts, err := e.host.Load(ctx, addr)
	if err != nil {
		return nil, err
	}
	acct := accounts[addr]
	if acct == nil || acct.Vault == nil {
		return nil, ErrAccountNotFound.withf("no vault for %s", owner)
	}
	return &models.VaultView{
		Address:   addr,
		Balance:   acct.Lamports,
		Available: acct.Vault.Available(acct.Lamports),
		Vault:     *acct.Vault,
	}, nil
}

func (e *Engine) House(ctx context.Context) (*models.HouseView, error) {
	addr := models.HouseAddress()
	accounts, err := e.host.Load(ctx, addr)
	if err != nil {
		return nil, err
	}
	acct := accounts[addr]
	if acct == nil || acct.House == nil {
		return nil, ErrAccountNotFound.withf("house pool not initialized")
	}
	return &models.HouseView{Address: addr, Balance: acct.Lamports, House: *acct.House}, nil
}
