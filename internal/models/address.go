package models

import "golang.org/x/crypto/sha3"

const (
	SeedVault       = "vault"
	SeedHouse       = "house_vault"
	SeedPauseConfig = "pause_config"

	addressDomain = "smart-vault"
)

// DeriveAddress maps seeds to a fixed arena slot. The same seeds always
// produce the same address, so no index of records is kept.
func DeriveAddress(seeds ...[]byte) Address {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(addressDomain))
	for _, seed := range seeds {
		h.Write(seed)
	}
	var addr Address
	copy(addr[:], h.Sum(nil))
	return addr
}

func VaultAddress(owner Identity) Address {
	return DeriveAddress([]byte(SeedVault), owner[:])
}

func HouseAddress() Address {
	return DeriveAddress([]byte(SeedHouse))
}

func PauseConfigAddress() Address {
	return DeriveAddress([]byte(SeedPauseConfig))
}

func WalletAddress(id Identity) Address {
	return Address(id)
}
