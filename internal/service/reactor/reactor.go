// Package reactor turns engagement notifications from the content store into
// ranking pipeline calls: it resolves who earned the points and in which
// field, and skips events whose target has disappeared.
package reactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/ranking-backend/internal/domain"
	"github.com/heartmarshall/ranking-backend/internal/service/ranking"
)

type resolver interface {
	PostOwner(ctx context.Context, postID uuid.UUID) (uuid.UUID, string, error)
	UserFieldOfInterest(ctx context.Context, userID uuid.UUID) (string, error)
}

type pipeline interface {
	ApplyEngagement(ctx context.Context, in ranking.DeltaInput) (ranking.DeltaResult, error)
}

type recorder interface {
	ObserveEvent(kind, outcome string)
	ObserveSkip(kind, reason string)
}

// Outcome is what happened to one event.
type Outcome string

const (
	OutcomeApplied Outcome = "applied" // ledger changed, ranks recomputed, update logged
	OutcomeNoOp    Outcome = "noop"    // valid event with nothing to change
	OutcomeSkipped Outcome = "skipped" // target gone, nothing touched
)

const skipReasonTargetMissing = "target_missing"

// Reactor dispatches engagement events to the ranking pipeline.
type Reactor struct {
	resolver resolver
	pipeline pipeline
	metrics  recorder
	log      *slog.Logger
}

// NewReactor creates a new Reactor.
func NewReactor(log *slog.Logger, resolver resolver, pipeline pipeline, metrics recorder) *Reactor {
	return &Reactor{
		resolver: resolver,
		pipeline: pipeline,
		metrics:  metrics,
		log:      log.With("service", "reactor"),
	}
}

// Handle applies one event. Invalid events return a validation error; events
// whose post or user no longer exists are skipped without error.
func (r *Reactor) Handle(ctx context.Context, ev domain.EngagementEvent) (Outcome, error) {
	if err := ev.Validate(); err != nil {
		r.metrics.ObserveEvent(string(ev.Kind), "invalid")
		return "", err
	}

	owner, rawField, err := r.resolve(ctx, ev)
	if errors.Is(err, domain.ErrResolution) {
		r.metrics.ObserveSkip(string(ev.Kind), skipReasonTargetMissing)
		r.metrics.ObserveEvent(string(ev.Kind), string(OutcomeSkipped))
		r.log.WarnContext(ctx, "engagement target missing, event skipped",
			slog.String("kind", string(ev.Kind)),
			slog.String("action", string(ev.Action)),
			slog.String("target_id", ev.TargetID.String()),
			slog.String("error", err.Error()),
		)
		return OutcomeSkipped, nil
	}
	if err != nil {
		r.metrics.ObserveEvent(string(ev.Kind), "failed")
		return "", err
	}

	res, err := r.pipeline.ApplyEngagement(ctx, ranking.DeltaInput{
		UserID:    owner,
		Field:     domain.FieldFromCategory(rawField),
		Kind:      ev.Kind,
		Sign:      ev.Action.Sign(),
		Reason:    domain.ReasonForKind(ev.Kind),
		SourceRef: sourceRef(ev),
	})
	if err != nil {
		r.metrics.ObserveEvent(string(ev.Kind), "failed")
		return "", err
	}

	outcome := OutcomeNoOp
	if res.Applied {
		outcome = OutcomeApplied
	}
	r.metrics.ObserveEvent(string(ev.Kind), string(outcome))
	return outcome, nil
}

// resolve finds the user credited by ev and the raw field text. Likes and
// comments credit the post author in the post's category; follows credit the
// followed user in their declared field of interest.
func (r *Reactor) resolve(ctx context.Context, ev domain.EngagementEvent) (uuid.UUID, string, error) {
	switch ev.Kind {
	case domain.EngagementLike, domain.EngagementComment:
		owner, category, err := r.resolver.PostOwner(ctx, ev.TargetID)
		if err != nil {
			return uuid.Nil, "", resolutionError(err, "post", ev.TargetID)
		}
		return owner, category, nil
	case domain.EngagementFollow:
		field, err := r.resolver.UserFieldOfInterest(ctx, ev.TargetID)
		if err != nil {
			return uuid.Nil, "", resolutionError(err, "user", ev.TargetID)
		}
		return ev.TargetID, field, nil
	}
	return uuid.Nil, "", domain.NewValidationError("kind", "must be like, comment or follow")
}

func resolutionError(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("resolve %s %s: %w: %w", entity, id, domain.ErrResolution, err)
	}
	return fmt.Errorf("resolve %s %s: %w", entity, id, err)
}

// sourceRef prefers the producer's event id and falls back to the post for
// likes and comments.
func sourceRef(ev domain.EngagementEvent) *uuid.UUID {
	if ev.EventID != nil {
		return ev.EventID
	}
	if ev.Kind == domain.EngagementFollow {
		return nil
	}
	id := ev.TargetID
	return &id
}
