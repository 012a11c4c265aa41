package ledger

import (
	"time"

	"smart-vault-backend/internal/models"
)

// Invocation names everything a call may touch. The host locks exactly these
// accounts and hands the raw call bytes through as entropy.
type Invocation struct {
	Signer   models.Identity
	Accounts []models.Address
	Data     []byte
}

// Tx is the staged view of one invocation. Hosts build it from the accounts
// they loaded, run the operation, then persist Changes only if it succeeded.
type Tx struct {
	inv      Invocation
	slot     uint64
	now      time.Time
	declared map[models.Address]bool
	accounts map[models.Address]*models.Account
	dirty    map[models.Address]bool
	closed   map[models.Address]bool
	events   []models.Event
}

// NewTx stages clones of loaded; addresses missing from loaded are treated
// as not yet created.
func NewTx(inv Invocation, slot uint64, now time.Time, loaded map[models.Address]*models.Account) *Tx {
	tx := &Tx{
		inv:      inv,
		slot:     slot,
		now:      now,
		declared: make(map[models.Address]bool, len(inv.Accounts)),
		accounts: make(map[models.Address]*models.Account, len(loaded)),
		dirty:    make(map[models.Address]bool),
		closed:   make(map[models.Address]bool),
	}
	for _, addr := range inv.Accounts {
		tx.declared[addr] = true
	}
	for addr, acct := range loaded {
		if acct != nil && tx.declared[addr] {
			tx.accounts[addr] = acct.Clone()
		}
	}
	return tx
}

func (tx *Tx) Signer() models.Identity { return tx.inv.Signer }
func (tx *Tx) Slot() uint64            { return tx.slot }
func (tx *Tx) Now() time.Time          { return tx.now }
func (tx *Tx) Entropy() []byte         { return tx.inv.Data }

// Changes reports the accounts to write back and the ones to delete, in
// declaration order.
func (tx *Tx) Changes() (updated []*models.Account, closed []models.Address) {
	seen := make(map[models.Address]bool, len(tx.inv.Accounts))
	for _, addr := range tx.inv.Accounts {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		switch {
		case tx.closed[addr]:
			closed = append(closed, addr)
		case tx.dirty[addr]:
			updated = append(updated, tx.accounts[addr])
		}
	}
	return updated, closed
}

func (tx *Tx) Events() []models.Event {
	return tx.events
}

func (tx *Tx) emit(evt models.Event) {
	tx.events = append(tx.events, evt)
}

func (tx *Tx) touch(acct *models.Account) {
	tx.dirty[acct.Address] = true
}

func (tx *Tx) lookup(addr models.Address) (*models.Account, error) {
	if !tx.declared[addr] {
		return nil, ErrUndeclaredAccount.withf("%s", addr)
	}
	acct, ok := tx.accounts[addr]
	if !ok || tx.closed[addr] {
		return nil, ErrAccountNotFound.withf("%s", addr)
	}
	return acct, nil
}

func (tx *Tx) vault(addr models.Address) (*models.Account, error) {
	acct, err := tx.lookup(addr)
	if err != nil {
		return nil, err
	}
	if acct.Kind != models.AccountKindVault || acct.Vault == nil {
		return nil, ErrInvalidAccount.withf("%s is a %s account, not a vault", addr, acct.Kind)
	}
	return acct, nil
}

func (tx *Tx) house() (*models.Account, error) {
	acct, err := tx.lookup(models.HouseAddress())
	if err != nil {
		return nil, err
	}
	if acct.Kind != models.AccountKindHouse || acct.House == nil {
		return nil, ErrInvalidAccount.withf("house address holds a %s account", acct.Kind)
	}
	return acct, nil
}

func (tx *Tx) pauseConfig() (*models.Account, error) {
	acct, err := tx.lookup(models.PauseConfigAddress())
	if err != nil {
		return nil, err
	}
	if acct.Kind != models.AccountKindPauseConfig || acct.Pause == nil {
		return nil, ErrInvalidAccount.withf("pause config address holds a %s account", acct.Kind)
	}
	return acct, nil
}

// wallet returns the signer-side system account, materialising an empty one
// the first time it is referenced.
func (tx *Tx) wallet(owner models.Identity) (*models.Account, error) {
	addr := models.WalletAddress(owner)
	if !tx.declared[addr] {
		return nil, ErrUndeclaredAccount.withf("%s", addr)
	}
	acct, ok := tx.accounts[addr]
	if !ok || tx.closed[addr] {
		acct = models.NewWalletAccount(owner)
		tx.accounts[addr] = acct
		delete(tx.closed, addr)
	}
	if acct.Kind != models.AccountKindWallet {
		return nil, ErrInvalidAccount.withf("%s is not a wallet", addr)
	}
	return acct, nil
}

// create allocates a program account at addr, charging its storage deposit
// to payer.
func (tx *Tx) create(addr models.Address, kind models.AccountKind, payer *models.Account) (*models.Account, error) {
	if !tx.declared[addr] {
		return nil, ErrUndeclaredAccount.withf("%s", addr)
	}
	if _, exists := tx.accounts[addr]; exists && !tx.closed[addr] {
		return nil, ErrAccountExists.withf("%s", addr)
	}
	deposit := models.StorageDeposit(kind)
	if payer.Lamports < deposit {
		return nil, ErrInsufficientFunds.withf("storage deposit needs %d, payer has %d", deposit, payer.Lamports)
	}
	payer.Lamports -= deposit
	tx.touch(payer)

	acct := &models.Account{Address: addr, Kind: kind, StorageDeposit: deposit}
	tx.accounts[addr] = acct
	delete(tx.closed, addr)
	tx.touch(acct)
	return acct, nil
}

// close removes acct and refunds its lamports and deposit to recipient.
func (tx *Tx) close(acct, recipient *models.Account) error {
	refund, err := checkedAdd(acct.Lamports, acct.StorageDeposit)
	if err != nil {
		return err
	}
	if recipient.Lamports, err = checkedAdd(recipient.Lamports, refund); err != nil {
		return err
	}
	tx.touch(recipient)
	tx.closed[acct.Address] = true
	delete(tx.dirty, acct.Address)
	return nil
}

// transfer moves amount lamports, failing with shortfall when from cannot
// cover it.
func (tx *Tx) transfer(from, to *models.Account, amount uint64, shortfall *Error) error {
	if amount == 0 {
		return nil
	}
	if from.Lamports < amount {
		return shortfall.withf("have %d, need %d", from.Lamports, amount)
	}
	credited, err := checkedAdd(to.Lamports, amount)
	if err != nil {
		return err
	}
	from.Lamports -= amount
	to.Lamports = credited
	tx.touch(from)
	tx.touch(to)
	return nil
}
