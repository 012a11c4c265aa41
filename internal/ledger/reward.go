package ledger

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"smart-vault-backend/internal/models"
)

const (
	MinMultiplier = 50
	MaxMultiplier = 300

	rollSpace      = 1000
	baseAwardRolls = 300
	awardSpace     = 300
	entropyPrefix  = 32
)

// Cumulative breakpoints inside the 300-wide award window, one per gem tier.
var gemBreakpoints = [...]uint64{150, 230, 270, 290, 297, 299, 300}

// RewardSeed fixes the randomness of one call: the first 32 bytes of the call
// data (zero padded), the host slot and the wager, hashed together.
func RewardSeed(entropy []byte, slot, wager uint64) [32]byte {
	var head [entropyPrefix]byte
	copy(head[:], entropy)

	var buf [8]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(head[:])
	binary.LittleEndian.PutUint64(buf[:], slot)
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], wager)
	h.Write(buf[:])

	var seed [32]byte
	copy(seed[:], h.Sum(nil))
	return seed
}

// RollValue is the index-th draw from seed, in [0, 1000).
func RollValue(seed [32]byte, index uint32) uint64 {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], index)

	h := sha3.NewLegacyKeccak256()
	h.Write(seed[:])
	h.Write(buf[:])
	digest := h.Sum(nil)
	return binary.LittleEndian.Uint64(digest[:8]) % rollSpace
}

// ClassifyRoll maps a draw to a gem. The award window is the top
// min(1000, 300*multiplier/100) values; anything below it awards nothing.
func ClassifyRoll(roll uint64, multiplier uint16) (models.GemType, bool) {
	effective := baseAwardRolls * uint64(multiplier) / 100
	if effective > rollSpace {
		effective = rollSpace
	}
	if effective == 0 {
		return 0, false
	}
	nothing := rollSpace - effective
	if roll < nothing {
		return 0, false
	}

	award := (roll - nothing) * awardSpace / effective
	for tier, bound := range gemBreakpoints {
		if award < bound {
			return models.GemType(tier), true
		}
	}
	return models.GemDiamond, true
}

type RewardDraw struct {
	Gems  []models.GemType
	Rolls uint32
}

// DeriveRewards spends accum in threshold-sized units, one roll per unit,
// stopping at maxRolls. The unspent remainder is returned.
func DeriveRewards(accum, threshold uint64, maxRolls uint32, seed [32]byte, multiplier uint16) (uint64, RewardDraw) {
	var draw RewardDraw
	if threshold == 0 {
		return accum, draw
	}
	for accum >= threshold && draw.Rolls < maxRolls {
		accum -= threshold
		if gem, ok := ClassifyRoll(RollValue(seed, draw.Rolls), multiplier); ok {
			draw.Gems = append(draw.Gems, gem)
		}
		draw.Rolls++
	}
	return accum, draw
}

func validMultiplier(multiplier uint16) bool {
	return multiplier >= MinMultiplier && multiplier <= MaxMultiplier
}

// awardGems credits wager toward the vault's reward counter and emits one
// GemsAwarded event when any roll hits.
func (e *Engine) awardGems(tx *Tx, vault *models.Account, wager uint64, multiplier uint16) error {
	accum, err := checkedAdd(vault.Vault.AccumWager, wager)
	if err != nil {
		return err
	}

	seed := RewardSeed(tx.Entropy(), tx.Slot(), wager)
	remaining, draw := DeriveRewards(accum, e.settings.RewardThreshold, e.settings.MaxRollsPerCall, seed, multiplier)
	vault.Vault.AccumWager = remaining
	tx.touch(vault)

	if len(draw.Gems) == 0 {
		return nil
	}
	tx.emit(&models.GemsAwardedEvent{
		ID:            models.NewEventID(),
		Owner:         vault.Vault.Owner,
		Gems:          draw.Gems,
		ThresholdUnit: e.settings.RewardThreshold,
		NumRolls:      draw.Rolls,
		Multiplier:    multiplier,
		Slot:          tx.Slot(),
	})
	e.logger.Info("gems awarded", "owner", vault.Vault.Owner, "gems", len(draw.Gems), "rolls", draw.Rolls, "multiplier", multiplier)
	return nil
}
