package models

import (
	"encoding/json"
	"time"
)

const (
	EventGemsAwarded = "GEMS_AWARDED"
	EventSettlement  = "SETTLEMENT"
	EventAdjustment  = "ADJUSTMENT"
)

// Event is emitted inside an invocation and delivered only after it commits.
type Event interface {
	EventType() string
	EventOwner() Identity
}

type GemsAwardedEvent struct {
	ID            string    `json:"id"`
	Owner         Identity  `json:"owner"`
	Gems          []GemType `json:"gems"`
	ThresholdUnit uint64    `json:"effective_wager_per_roll"`
	NumRolls      uint32    `json:"num_rolls"`
	Multiplier    uint16    `json:"multiplier_applied"`
	Slot          uint64    `json:"slot"`
}

func (e *GemsAwardedEvent) EventType() string    { return EventGemsAwarded }
func (e *GemsAwardedEvent) EventOwner() Identity { return e.Owner }

type SettlementKind string

const (
	SettlementPlaceBet     SettlementKind = "place_bet"
	SettlementSettleGame   SettlementKind = "settle_game"
	SettlementBetAndSettle SettlementKind = "bet_and_settle"
	SettlementBatch        SettlementKind = "batch_settle"
)

type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
	OutcomeDraw Outcome = "DRAW"
)

func OutcomeOf(stake, payout uint64) Outcome {
	switch {
	case payout > stake:
		return OutcomeWin
	case payout < stake:
		return OutcomeLoss
	default:
		return OutcomeDraw
	}
}

type SettlementEvent struct {
	ID       string         `json:"id"`
	Kind     SettlementKind `json:"kind"`
	Owner    Identity       `json:"owner"`
	Vault    Address        `json:"vault"`
	Stake    uint64         `json:"stake"`
	Payout   uint64         `json:"payout"`
	Outcome  Outcome        `json:"outcome"`
	Index    int            `json:"index"`
	Metadata *BetMetadata   `json:"metadata,omitempty"`
	Slot     uint64         `json:"slot"`
}

func (e *SettlementEvent) EventType() string    { return EventSettlement }
func (e *SettlementEvent) EventOwner() Identity { return e.Owner }

type AdjustmentKind string

const (
	AdjustmentCreditWin AdjustmentKind = "credit_win"
	AdjustmentDebitLoss AdjustmentKind = "debit_loss"
)

type AdjustmentEvent struct {
	ID        string         `json:"id"`
	Kind      AdjustmentKind `json:"kind"`
	Owner     Identity       `json:"owner"`
	Vault     Address        `json:"vault"`
	Amount    uint64         `json:"amount"`
	Authority Identity       `json:"authority"`
	Slot      uint64         `json:"slot"`
	CreatedAt time.Time      `json:"created_at"`
}

func (e *AdjustmentEvent) EventType() string    { return EventAdjustment }
func (e *AdjustmentEvent) EventOwner() Identity { return e.Owner }

// EventEnvelope is the wire form pushed to subscribers.
type EventEnvelope struct {
	Type  string          `json:"type"`
	Owner Identity        `json:"owner"`
	Data  json.RawMessage `json:"data"`
}

func NewEventEnvelope(evt Event) (*EventEnvelope, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	return &EventEnvelope{Type: evt.EventType(), Owner: evt.EventOwner(), Data: data}, nil
}
