package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/ranking-backend/internal/domain"
	"github.com/heartmarshall/ranking-backend/pkg/ctxutil"
)

// DeltaResult reports what one engagement did to a ledger.
// Applied is false when nothing changed (delete on a missing ledger or on a
// zero counter); in that case no rank was recomputed and nothing was logged.
type DeltaResult struct {
	LedgerID      uuid.UUID
	UserID        uuid.UUID
	Field         domain.Field
	Applied       bool
	ScoreDelta    int
	PreviousScore int
	NewScore      int
	PreviousRank  int
	NewRank       int
}

// ApplyEngagement runs the pipeline for one engagement: look up or create the
// ledger, roll stale windows over, apply the delta, recompute the field's
// ranks and append the update log entry. All of it commits together.
func (s *Service) ApplyEngagement(ctx context.Context, in DeltaInput) (DeltaResult, error) {
	if err := in.Validate(); err != nil {
		return DeltaResult{}, err
	}

	var res DeltaResult
	err := s.withFieldLock(ctx, in.Field, func(ctx context.Context) error {
		var err error
		res, err = s.applyLocked(ctx, in)
		return err
	})
	if err != nil {
		return DeltaResult{}, fmt.Errorf("apply %s to %s/%s: %w", in.Kind, in.UserID, in.Field, err)
	}

	if res.Applied {
		s.log.DebugContext(ctx, "engagement applied",
			slog.String("user_id", in.UserID.String()),
			slog.String("field", string(in.Field)),
			slog.String("reason", string(in.Reason)),
			slog.Int("score_delta", res.ScoreDelta),
			slog.Int("previous_rank", res.PreviousRank),
			slog.Int("new_rank", res.NewRank),
		)
	}

	return res, nil
}

func (s *Service) applyLocked(ctx context.Context, in DeltaInput) (DeltaResult, error) {
	now := s.now()
	res := DeltaResult{UserID: in.UserID, Field: in.Field}

	l, err := s.ledgers.GetByUserField(ctx, in.UserID, in.Field)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if in.Sign == domain.SignRemove {
			return res, nil
		}
		l = domain.NewLedger(in.UserID, in.Field, now)
	case err != nil:
		return res, err
	}

	res.PreviousScore = l.AllTimeScore
	res.PreviousRank = l.Rank

	rolled := false
	for _, w := range domain.AllWindows() {
		if l.RolloverIfDue(w, now) {
			rolled = true
		}
	}

	delta := l.ApplyDelta(in.Kind, in.Sign)
	if delta == 0 && !rolled {
		res.LedgerID = l.ID
		res.NewScore = l.AllTimeScore
		res.NewRank = l.Rank
		return res, nil
	}

	l.UpdatedAt = now
	if err := s.ledgers.Upsert(ctx, l); err != nil {
		return res, err
	}

	res.LedgerID = l.ID
	res.NewScore = l.AllTimeScore
	res.NewRank = l.Rank
	if delta == 0 {
		return res, nil
	}

	_, ranks, err := s.recomputeLocked(ctx, in.Field)
	if err != nil {
		return res, err
	}
	res.NewRank = ranks[l.ID]

	update := domain.RankUpdate{
		LedgerID:     l.ID,
		UserID:       l.UserID,
		Field:        l.Field,
		PreviousRank: domain.RankPtr(res.PreviousRank),
		NewRank:      domain.RankPtr(res.NewRank),
		ScoreDelta:   delta,
		Reason:       in.Reason,
		SourceRef:    in.SourceRef,
		CreatedAt:    now,
	}
	if err := s.updates.Append(ctx, &update); err != nil {
		return res, err
	}

	res.Applied = true
	res.ScoreDelta = delta
	return res, nil
}

// Adjust applies a manual correction. Only administrators may call it; the
// update log records it with reason manual.
func (s *Service) Adjust(ctx context.Context, in AdjustInput) (DeltaResult, error) {
	if !ctxutil.IsAdminCtx(ctx) {
		return DeltaResult{}, domain.ErrForbidden
	}

	res, err := s.ApplyEngagement(ctx, DeltaInput{
		UserID: in.UserID,
		Field:  in.Field,
		Kind:   in.Kind,
		Sign:   in.Sign,
		Reason: domain.ReasonManual,
	})
	if err != nil {
		return DeltaResult{}, err
	}

	adminID, _ := ctxutil.UserIDFromCtx(ctx)
	s.log.InfoContext(ctx, "manual leaderboard adjustment",
		slog.String("admin_id", adminID.String()),
		slog.String("user_id", in.UserID.String()),
		slog.String("field", string(in.Field)),
		slog.Int("score_delta", res.ScoreDelta),
	)

	return res, nil
}
