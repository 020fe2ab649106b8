package consumer

import (
	"context"

	"go.uber.org/zap"

	"github.com/Domenick1991/handybook/internal/events"
)

type Handler func(ctx context.Context, ev events.Envelope) error

type Markers interface {
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
}

// Shell wraps event handlers with the shared intake policy: poison
// messages (unparseable body, missing envelope fields) are dropped,
// replayed event ids are skipped via the dedup ledger, and events with
// no registered handler are ignored.
type Shell struct {
	markers  Markers
	handlers map[string]Handler
	log      *zap.Logger
}

func NewShell(markers Markers, log *zap.Logger) *Shell {
	return &Shell{markers: markers, handlers: make(map[string]Handler), log: log}
}

func (s *Shell) On(eventType string, h Handler) *Shell {
	s.handlers[eventType] = h
	return s
}

// Handle processes one raw bus message body. The returned error is only
// ever a handler failure; drop decisions are made here and reported as
// success so the caller acks them.
func (s *Shell) Handle(ctx context.Context, body []byte) error {
	ev, err := events.Parse(body)
	if err != nil {
		// No requeue: an unparseable body will never parse on redelivery.
		s.log.Warn("dropping poison message", zap.Error(err))
		return nil
	}

	handler, ok := s.handlers[ev.EventType]
	if !ok {
		return nil
	}

	first, err := s.markers.MarkProcessed(ctx, ev.EventID)
	if err != nil {
		return err
	}
	if !first {
		s.log.Debug("skipping already-processed event",
			zap.String("event_id", ev.EventID),
			zap.String("event_type", ev.EventType))
		return nil
	}

	return handler(ctx, ev)
}
