package services

import (
	"context"
	"log/slog"

	"smart-vault-backend/internal/models"
)

type Broadcaster interface {
	BroadcastEvent(env *models.EventEnvelope)
}

// BroadcastSink forwards committed ledger events to a Broadcaster.
type BroadcastSink struct {
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewBroadcastSink(b Broadcaster) *BroadcastSink {
	return &BroadcastSink{broadcaster: b, logger: slog.Default().With("component", "broadcast")}
}

func (s *BroadcastSink) Publish(_ context.Context, events []models.Event) {
	for _, evt := range events {
		env, err := models.NewEventEnvelope(evt)
		if err != nil {
			s.logger.Error("failed to encode event", "type", evt.EventType(), "error", err)
			continue
		}
		s.broadcaster.BroadcastEvent(env)
	}
}
