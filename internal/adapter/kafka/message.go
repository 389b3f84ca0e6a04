package kafka

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/heartmarshall/ranking-backend/internal/domain"
)

// eventMessage is the JSON payload published by the content store whenever a
// like, comment or follow is created or deleted.
type eventMessage struct {
	EventID     *uuid.UUID `json:"event_id,omitempty"`
	Kind        string     `json:"kind"`
	Action      string     `json:"action"`
	ActorUserID uuid.UUID  `json:"actor_user_id"`
	TargetID    uuid.UUID  `json:"target_id"`
	OccurredAt  time.Time  `json:"occurred_at"`
}

// decodeEvent parses and validates one message value.
func decodeEvent(value []byte) (domain.EngagementEvent, error) {
	var m eventMessage
	if err := json.Unmarshal(value, &m); err != nil {
		return domain.EngagementEvent{}, fmt.Errorf("decode engagement event: %w", err)
	}

	ev := domain.EngagementEvent{
		EventID:     m.EventID,
		Kind:        domain.EngagementKind(m.Kind),
		Action:      domain.EventAction(m.Action),
		ActorUserID: m.ActorUserID,
		TargetID:    m.TargetID,
		OccurredAt:  m.OccurredAt,
	}
	if err := ev.Validate(); err != nil {
		return domain.EngagementEvent{}, err
	}
	return ev, nil
}

// EncodeEvent renders ev in the wire format the consumer reads.
func EncodeEvent(ev domain.EngagementEvent) ([]byte, error) {
	return json.Marshal(eventMessage{
		EventID:     ev.EventID,
		Kind:        string(ev.Kind),
		Action:      string(ev.Action),
		ActorUserID: ev.ActorUserID,
		TargetID:    ev.TargetID,
		OccurredAt:  ev.OccurredAt,
	})
}
