package models

import (
	"math/big"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LamportsPerUnit = 1_000_000_000
	UnitDecimals    = 9
)

func NewEventID() string {
	return uuid.New().String()
}

// FormatAmount renders lamports in whole base units, e.g. 100000000 -> "0.1".
func FormatAmount(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -UnitDecimals).String()
}
