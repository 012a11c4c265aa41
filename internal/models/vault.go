package models

const CurrentVersion uint8 = 2

type UserVault struct {
	Owner        Identity `json:"owner"`
	LockedAmount uint64   `json:"locked_amount"`
	ActiveGames  uint32   `json:"active_games"`
	AccumWager   uint64   `json:"accum_wager"`
	Version      uint8    `json:"version"`
}

// Available is the part of balance not reserved for unsettled bets.
func (v *UserVault) Available(balance uint64) uint64 {
	if balance < v.LockedAmount {
		return 0
	}
	return balance - v.LockedAmount
}

type VaultView struct {
	Address   Address   `json:"address"`
	Balance   uint64    `json:"balance"`
	Available uint64    `json:"available"`
	Vault     UserVault `json:"vault"`
}
