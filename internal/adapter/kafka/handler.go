package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/heartmarshall/ranking-backend/internal/domain"
	"github.com/heartmarshall/ranking-backend/internal/service/reactor"
)

const (
	initialRetryInterval = 100 * time.Millisecond
	maxRetryInterval     = 5 * time.Second
)

type eventReactor interface {
	Handle(ctx context.Context, ev domain.EngagementEvent) (reactor.Outcome, error)
}

// EventHandler feeds engagement messages to the reactor one at a time, in
// partition order. A message is marked only after it has been applied,
// skipped as unresolvable or rejected as malformed; transient failures are
// retried until the session ends so the offset is never committed past an
// unapplied event.
type EventHandler struct {
	reactor eventReactor
	log     *slog.Logger
}

func NewEventHandler(log *slog.Logger, r eventReactor) *EventHandler {
	return &EventHandler{reactor: r, log: log.With("component", "kafka_consumer")}
}

func (h *EventHandler) Setup(sarama.ConsumerGroupSession) error {
	h.log.Info("engagement consumer setup")
	return nil
}

func (h *EventHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.log.Info("engagement consumer cleanup")
	return nil
}

func (h *EventHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if !h.process(session.Context(), msg) {
				return nil
			}
			session.MarkMessage(msg, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// process handles msg and reports whether it may be marked. It returns false
// only when ctx ended before the message could be applied.
func (h *EventHandler) process(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	ev, err := decodeEvent(msg.Value)
	if err != nil {
		h.log.ErrorContext(ctx, "dropping malformed engagement message",
			slog.String("topic", msg.Topic),
			slog.Int("partition", int(msg.Partition)),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		return true
	}

	interval := initialRetryInterval
	for {
		_, err := h.reactor.Handle(ctx, ev)
		if err == nil {
			return true
		}
		if errors.Is(err, domain.ErrValidation) {
			h.log.ErrorContext(ctx, "dropping invalid engagement event",
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
			return true
		}

		h.log.ErrorContext(ctx, "process engagement event",
			slog.String("kind", string(ev.Kind)),
			slog.Int64("offset", msg.Offset),
			slog.Duration("retry_in", interval),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}

		interval *= 2
		if interval > maxRetryInterval {
			interval = maxRetryInterval
		}
	}
}
