package services

import (
	"context"
	"sync"
	"time"

	"smart-vault-backend/internal/ledger"
	"smart-vault-backend/internal/models"
)

// MemoryHost keeps every account in process. One mutex serialises all
// invocations, which trivially satisfies the exclusive-access contract.
type MemoryHost struct {
	mu       sync.Mutex
	accounts map[models.Address]*models.Account
	slot     uint64
	clock    func() time.Time
}

func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		accounts: make(map[models.Address]*models.Account),
		clock:    time.Now,
	}
}

// SetClock replaces the time source handed to invocations.
func (h *MemoryHost) SetClock(clock func() time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clock = clock
}

func (h *MemoryHost) Invoke(ctx context.Context, inv ledger.Invocation, fn func(tx *ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.slot++
	loaded := make(map[models.Address]*models.Account, len(inv.Accounts))
	for _, addr := range inv.Accounts {
		if acct, ok := h.accounts[addr]; ok {
			loaded[addr] = acct
		}
	}

	tx := ledger.NewTx(inv, h.slot, h.clock(), loaded)
	if err := fn(tx); err != nil {
		return err
	}

	updated, closed := tx.Changes()
	for _, acct := range updated {
		h.accounts[acct.Address] = acct.Clone()
	}
	for _, addr := range closed {
		delete(h.accounts, addr)
	}
	return nil
}

func (h *MemoryHost) Load(ctx context.Context, addrs ...models.Address) (map[models.Address]*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[models.Address]*models.Account, len(addrs))
	for _, addr := range addrs {
		if acct, ok := h.accounts[addr]; ok {
			out[addr] = acct.Clone()
		}
	}
	return out, nil
}

// Airdrop mints amount into recipient's wallet. Development and tests only.
func (h *MemoryHost) Airdrop(ctx context.Context, recipient models.Identity, amount uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	addr := models.WalletAddress(recipient)
	acct, ok := h.accounts[addr]
	if !ok {
		acct = models.NewWalletAccount(recipient)
		h.accounts[addr] = acct
	}
	credited, err := creditLamports(acct, amount)
	if err != nil {
		return err
	}
	acct.Lamports = credited
	return nil
}

func creditLamports(acct *models.Account, amount uint64) (uint64, error) {
	if acct.Kind != models.AccountKindWallet {
		return 0, ledger.ErrInvalidAccount
	}
	sum := acct.Lamports + amount
	if sum < acct.Lamports {
		return 0, ledger.ErrOverflow
	}
	return sum, nil
}
