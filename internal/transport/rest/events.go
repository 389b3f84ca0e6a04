package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/ranking-backend/internal/domain"
	"github.com/heartmarshall/ranking-backend/internal/service/reactor"
)

type eventReactor interface {
	Handle(ctx context.Context, ev domain.EngagementEvent) (reactor.Outcome, error)
}

// EventsHandler accepts engagement events pushed over HTTP by the content
// store. It is the synchronous counterpart of the Kafka consumer.
type EventsHandler struct {
	reactor eventReactor
	log     *slog.Logger
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(r eventReactor, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{reactor: r, log: logger.With("handler", "events")}
}

type eventRequest struct {
	EventID     *uuid.UUID `json:"event_id,omitempty"`
	Kind        string     `json:"kind"`
	Action      string     `json:"action"`
	ActorUserID uuid.UUID  `json:"actor_user_id"`
	TargetID    uuid.UUID  `json:"target_id"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// Ingest handles POST /internal/events. A skipped event (target gone) is
// still a 202: the producer must not retry it.
func (h *EventsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	outcome, err := h.reactor.Handle(r.Context(), domain.EngagementEvent{
		EventID:     req.EventID,
		Kind:        domain.EngagementKind(req.Kind),
		Action:      domain.EventAction(req.Action),
		ActorUserID: req.ActorUserID,
		TargetID:    req.TargetID,
		OccurredAt:  req.OccurredAt,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"outcome": string(outcome)})
}
