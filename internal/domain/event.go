package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventAction says whether an engagement appeared or disappeared.
type EventAction string

const (
	ActionCreated EventAction = "created"
	ActionDeleted EventAction = "deleted"
)

func (a EventAction) IsValid() bool {
	return a == ActionCreated || a == ActionDeleted
}

// Sign returns the ledger delta direction for the action.
func (a EventAction) Sign() Sign {
	if a == ActionDeleted {
		return SignRemove
	}
	return SignAdd
}

// EngagementEvent is a notification from the content store that a like,
// comment or follow was created or deleted.
//
// TargetID is the post for likes and comments, and the followed user for
// follows. EventID, when set, is kept as the UpdateLog source reference.
type EngagementEvent struct {
	EventID     *uuid.UUID
	Kind        EngagementKind
	Action      EventAction
	ActorUserID uuid.UUID
	TargetID    uuid.UUID
	OccurredAt  time.Time
}

// Validate checks all fields and collects all errors.
func (e EngagementEvent) Validate() error {
	var errs []FieldError

	if !e.Kind.IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "must be like, comment or follow"})
	}
	if !e.Action.IsValid() {
		errs = append(errs, FieldError{Field: "action", Message: "must be created or deleted"})
	}
	if e.TargetID == uuid.Nil {
		errs = append(errs, FieldError{Field: "target_id", Message: "required"})
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
