package reactor

//go:generate moq -out resolver_mock_test.go -pkg reactor . resolver
//go:generate moq -out pipeline_mock_test.go -pkg reactor . pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/ranking-backend/internal/adapter/memory"
	"github.com/heartmarshall/ranking-backend/internal/adapter/metrics"
	"github.com/heartmarshall/ranking-backend/internal/domain"
	"github.com/heartmarshall/ranking-backend/internal/service/ranking"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMetrics() *metrics.RankingMetrics {
	return metrics.NewRankingMetrics(prometheus.NewRegistry())
}

func appliedPipeline() *pipelineMock {
	return &pipelineMock{
		ApplyEngagementFunc: func(ctx context.Context, in ranking.DeltaInput) (ranking.DeltaResult, error) {
			return ranking.DeltaResult{Applied: true, UserID: in.UserID, Field: in.Field}, nil
		},
	}
}

func event(kind domain.EngagementKind, action domain.EventAction, target uuid.UUID) domain.EngagementEvent {
	return domain.EngagementEvent{Kind: kind, Action: action, ActorUserID: uuid.New(), TargetID: target, OccurredAt: time.Now()}
}

// ---------------------------------------------------------------------------
// Resolution (mocks)
// ---------------------------------------------------------------------------

func TestHandle_LikeCreditsPostOwnerInCategory(t *testing.T) {
	t.Parallel()

	owner, postID := uuid.New(), uuid.New()
	res := &resolverMock{
		PostOwnerFunc: func(ctx context.Context, id uuid.UUID) (uuid.UUID, string, error) {
			return owner, " Arts ", nil
		},
	}
	pipe := appliedPipeline()
	r := NewReactor(discardLogger(), res, pipe, newMetrics())

	outcome, err := r.Handle(context.Background(), event(domain.EngagementLike, domain.ActionCreated, postID))

	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	require.Len(t, pipe.ApplyEngagementCalls(), 1)

	in := pipe.ApplyEngagementCalls()[0].In
	assert.Equal(t, owner, in.UserID)
	assert.Equal(t, domain.FieldArt, in.Field)
	assert.Equal(t, domain.SignAdd, in.Sign)
	assert.Equal(t, domain.ReasonLike, in.Reason)
	require.NotNil(t, in.SourceRef)
	assert.Equal(t, postID, *in.SourceRef)
}

func TestHandle_CommentDeleteSubtracts(t *testing.T) {
	t.Parallel()

	res := &resolverMock{
		PostOwnerFunc: func(ctx context.Context, id uuid.UUID) (uuid.UUID, string, error) {
			return uuid.New(), "sports", nil
		},
	}
	pipe := appliedPipeline()
	r := NewReactor(discardLogger(), res, pipe, newMetrics())

	eventID := uuid.New()
	ev := event(domain.EngagementComment, domain.ActionDeleted, uuid.New())
	ev.EventID = &eventID

	_, err := r.Handle(context.Background(), ev)
	require.NoError(t, err)

	in := pipe.ApplyEngagementCalls()[0].In
	assert.Equal(t, domain.SignRemove, in.Sign)
	assert.Equal(t, domain.FieldSports, in.Field)
	assert.Equal(t, domain.ReasonComment, in.Reason)
	assert.Equal(t, &eventID, in.SourceRef)
}

func TestHandle_FollowCreditsFollowedUserInFieldOfInterest(t *testing.T) {
	t.Parallel()

	followed := uuid.New()
	res := &resolverMock{
		UserFieldOfInterestFunc: func(ctx context.Context, id uuid.UUID) (string, error) {
			return "", nil
		},
	}
	pipe := appliedPipeline()
	r := NewReactor(discardLogger(), res, pipe, newMetrics())

	_, err := r.Handle(context.Background(), event(domain.EngagementFollow, domain.ActionCreated, followed))
	require.NoError(t, err)

	require.Len(t, res.UserFieldOfInterestCalls(), 1)
	assert.Empty(t, res.PostOwnerCalls())

	in := pipe.ApplyEngagementCalls()[0].In
	assert.Equal(t, followed, in.UserID)
	assert.Equal(t, domain.FieldOther, in.Field, "empty field of interest falls back to other")
	assert.Equal(t, domain.ReasonFollow, in.Reason)
	assert.Nil(t, in.SourceRef)
}

func TestHandle_InvalidEvent(t *testing.T) {
	t.Parallel()

	r := NewReactor(discardLogger(), &resolverMock{}, &pipelineMock{}, newMetrics())

	_, err := r.Handle(context.Background(), domain.EngagementEvent{Kind: "share", Action: domain.ActionCreated, TargetID: uuid.New()})

	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestHandle_ResolverFailureIsReturned(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	res := &resolverMock{
		PostOwnerFunc: func(ctx context.Context, id uuid.UUID) (uuid.UUID, string, error) {
			return uuid.Nil, "", boom
		},
	}
	pipe := &pipelineMock{}
	r := NewReactor(discardLogger(), res, pipe, newMetrics())

	_, err := r.Handle(context.Background(), event(domain.EngagementLike, domain.ActionCreated, uuid.New()))

	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrResolution)
	assert.Empty(t, pipe.ApplyEngagementCalls())
}

func TestHandle_PipelineConflictIsReturned(t *testing.T) {
	t.Parallel()

	res := &resolverMock{
		PostOwnerFunc: func(ctx context.Context, id uuid.UUID) (uuid.UUID, string, error) {
			return uuid.New(), "music", nil
		},
	}
	pipe := &pipelineMock{
		ApplyEngagementFunc: func(ctx context.Context, in ranking.DeltaInput) (ranking.DeltaResult, error) {
			return ranking.DeltaResult{}, fmt.Errorf("failed after 5 attempts: %w", domain.ErrConflict)
		},
	}
	m := newMetrics()
	r := NewReactor(discardLogger(), res, pipe, m)

	_, err := r.Handle(context.Background(), event(domain.EngagementLike, domain.ActionCreated, uuid.New()))

	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("like", "failed")))
}

func TestHandle_NoOpOutcome(t *testing.T) {
	t.Parallel()

	res := &resolverMock{
		PostOwnerFunc: func(ctx context.Context, id uuid.UUID) (uuid.UUID, string, error) {
			return uuid.New(), "music", nil
		},
	}
	pipe := &pipelineMock{
		ApplyEngagementFunc: func(ctx context.Context, in ranking.DeltaInput) (ranking.DeltaResult, error) {
			return ranking.DeltaResult{Applied: false}, nil
		},
	}
	r := NewReactor(discardLogger(), res, pipe, newMetrics())

	outcome, err := r.Handle(context.Background(), event(domain.EngagementLike, domain.ActionDeleted, uuid.New()))

	require.NoError(t, err)
	assert.Equal(t, OutcomeNoOp, outcome)
}

// ---------------------------------------------------------------------------
// End to end over the in-memory store
// ---------------------------------------------------------------------------

func newEngine(t *testing.T) (*Reactor, *memory.Store, *metrics.RankingMetrics) {
	t.Helper()

	store := memory.NewStore()
	m := newMetrics()
	svc := ranking.NewService(discardLogger(), store, store, store, store, m,
		clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)),
		ranking.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, DefaultLimit: 10, MaxLimit: 50})
	return NewReactor(discardLogger(), store, svc, m), store, m
}

func TestHandle_MissingPostIsSkippedWithoutMutation(t *testing.T) {
	t.Parallel()
	r, store, m := newEngine(t)

	outcome, err := r.Handle(context.Background(), event(domain.EngagementLike, domain.ActionCreated, uuid.New()))

	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Empty(t, store.Ledgers())
	assert.Empty(t, store.Updates())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsSkipped.WithLabelValues("like", skipReasonTargetMissing)))
}

func TestHandle_DeletedPostBeforeUnlikeIsSkipped(t *testing.T) {
	t.Parallel()
	r, store, m := newEngine(t)

	owner, postID := uuid.New(), uuid.New()
	store.AddUser(owner, "author", "music")
	store.AddPost(postID, owner, "music")

	_, err := r.Handle(context.Background(), event(domain.EngagementLike, domain.ActionCreated, postID))
	require.NoError(t, err)

	store.DeletePost(postID)
	outcome, err := r.Handle(context.Background(), event(domain.EngagementLike, domain.ActionDeleted, postID))

	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Len(t, store.Updates(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("like", string(OutcomeApplied))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("like", string(OutcomeSkipped))))
}

func TestHandle_EndToEndScoring(t *testing.T) {
	t.Parallel()
	r, store, _ := newEngine(t)

	author := uuid.New()
	store.AddUser(author, "author", "Technology")
	postID := uuid.New()
	store.AddPost(postID, author, "tech")

	ctx := context.Background()
	for _, ev := range []domain.EngagementEvent{
		event(domain.EngagementLike, domain.ActionCreated, postID),
		event(domain.EngagementComment, domain.ActionCreated, postID),
		event(domain.EngagementFollow, domain.ActionCreated, author),
	} {
		outcome, err := r.Handle(ctx, ev)
		require.NoError(t, err)
		require.Equal(t, OutcomeApplied, outcome)
	}

	l, err := store.GetByUserField(ctx, author, domain.FieldTechnology)
	require.NoError(t, err)
	assert.Equal(t, 8, l.AllTimeScore)
	assert.Equal(t, 1, l.Rank)
	assert.Len(t, store.Updates(), 3)
}
