package models

type HousePool struct {
	PrimaryAuthority   Identity `json:"primary_authority"`
	SecondaryAuthority Identity `json:"secondary_authority"`
	TotalVolume        uint64   `json:"total_volume"`
	Version            uint8    `json:"version"`
}

type HouseView struct {
	Address Address   `json:"address"`
	Balance uint64    `json:"balance"`
	House   HousePool `json:"house"`
}
