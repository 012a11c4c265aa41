package models

type AccountKind string

const (
	AccountKindWallet      AccountKind = "wallet"
	AccountKindVault       AccountKind = "vault"
	AccountKindHouse       AccountKind = "house"
	AccountKindPauseConfig AccountKind = "pause_config"
)

// Record sizes of the persisted layouts, discriminator included. They only
// price the storage deposit taken when an account is created.
const (
	VaultRecordSize       = 8 + 32 + 1 + 8 + 4 + 8 + 1
	HouseRecordSize       = 8 + 1 + 32 + 32 + 8 + 1
	PauseConfigRecordSize = 8 + 32 + 32 + 1 + 8 + 1 + 1 + 1

	accountOverhead        = 128
	depositLamportsPerByte = 6960
)

type Account struct {
	Address        Address      `json:"address"`
	Kind           AccountKind  `json:"kind"`
	Lamports       uint64       `json:"lamports"`
	StorageDeposit uint64       `json:"storage_deposit,omitempty"`
	Vault          *UserVault   `json:"vault,omitempty"`
	House          *HousePool   `json:"house,omitempty"`
	Pause          *PauseConfig `json:"pause,omitempty"`
}

func NewWalletAccount(owner Identity) *Account {
	return &Account{Address: WalletAddress(owner), Kind: AccountKindWallet}
}

// Clone returns a deep copy so staged changes never alias committed state.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	if a.Vault != nil {
		v := *a.Vault
		out.Vault = &v
	}
	if a.House != nil {
		h := *a.House
		out.House = &h
	}
	if a.Pause != nil {
		p := *a.Pause
		out.Pause = &p
	}
	return &out
}

// StorageDeposit is the lamports an account of the given kind must carry
// beyond its balance for as long as it exists.
func StorageDeposit(kind AccountKind) uint64 {
	var size uint64
	switch kind {
	case AccountKindVault:
		size = VaultRecordSize
	case AccountKindHouse:
		size = HouseRecordSize
	case AccountKindPauseConfig:
		size = PauseConfigRecordSize
	default:
		return 0
	}
	return (accountOverhead + size) * depositLamportsPerByte
}
