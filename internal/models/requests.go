package models

import "encoding/json"

const GameDataSize = 7

// GameData is opaque per-round data recorded with a settlement. It travels
// as a JSON array of small integers rather than base64.
type GameData []byte

func (d GameData) MarshalJSON() ([]byte, error) {
	values := make([]uint16, len(d))
	for i, b := range d {
		values[i] = uint16(b)
	}
	return json.Marshal(values)
}

func (d *GameData) UnmarshalJSON(data []byte) error {
	var raw []byte
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = raw
	return nil
}

type BetMetadata struct {
	BetID    string   `json:"bet_id"`
	GameID   uint64   `json:"game_id"`
	GameData GameData `json:"game_data"`
}

type AmountRequest struct {
	Amount uint64 `json:"amount"`
}

type OwnerAmountRequest struct {
	Owner  Identity `json:"owner"`
	Amount uint64   `json:"amount"`
}

type PlaceBetRequest struct {
	Owner Identity `json:"owner"`
	Stake uint64   `json:"stake"`
}

type SettleGameRequest struct {
	Owner  Identity `json:"owner"`
	Stake  uint64   `json:"stake"`
	Payout uint64   `json:"payout"`
}

type BetAndSettleRequest struct {
	Owner      Identity    `json:"owner"`
	Stake      uint64      `json:"stake"`
	Payout     uint64      `json:"payout"`
	Multiplier *uint16     `json:"multiplier,omitempty"`
	Metadata   BetMetadata `json:"metadata"`
}

type BatchSettleRequest struct {
	Vaults   []Address     `json:"vaults"`
	Stakes   []uint64      `json:"stakes"`
	Payouts  []uint64      `json:"payouts"`
	Metadata []BetMetadata `json:"metadata"`
}

type InitializeHouseRequest struct {
	PrimaryAuthority   Identity `json:"primary_authority"`
	SecondaryAuthority Identity `json:"secondary_authority"`
}

type InitializePauseConfigRequest struct {
	MaintenanceDurationHours *uint8 `json:"maintenance_duration_hours,omitempty"`
}

type ChangeAuthorityRequest struct {
	NewPrimary   *Identity `json:"new_primary,omitempty"`
	NewSecondary *Identity `json:"new_secondary,omitempty"`
}

type AirdropRequest struct {
	Recipient Identity `json:"recipient"`
	Amount    uint64   `json:"amount"`
}
