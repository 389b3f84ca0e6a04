package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/ranking-backend/internal/domain"
)

// RolloverIfDue resets one ledger's window score if the window has elapsed.
// A missing ledger is not an error and reports false.
func (s *Service) RolloverIfDue(ctx context.Context, userID uuid.UUID, field domain.Field, kind domain.WindowKind) (bool, error) {
	if !field.IsValid() {
		return false, domain.NewValidationError("field", "unknown field")
	}
	if !kind.IsValid() {
		return false, domain.NewValidationError("window", "must be weekly or monthly")
	}

	var reset bool
	err := s.withFieldLock(ctx, field, func(ctx context.Context) error {
		reset = false

		l, err := s.ledgers.GetByUserField(ctx, userID, field)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		now := s.now()
		if !l.RolloverIfDue(kind, now) {
			return nil
		}
		l.UpdatedAt = now
		if err := s.ledgers.Upsert(ctx, l); err != nil {
			return err
		}
		reset = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rollover %s for %s/%s: %w", kind, userID, field, err)
	}

	if reset {
		s.metrics.ObserveWindowResets(string(kind), 1)
	}
	return reset, nil
}

// SweepWindows resets every due ledger of every field and returns the count.
func (s *Service) SweepWindows(ctx context.Context, kind domain.WindowKind) (int, error) {
	if !kind.IsValid() {
		return 0, domain.NewValidationError("window", "must be weekly or monthly")
	}

	n, err := s.sweepFields(ctx, kind, domain.AllFields())
	if err != nil {
		return 0, err
	}

	s.log.InfoContext(ctx, "window sweep finished",
		slog.String("window", string(kind)),
		slog.Int("reset", n),
	)
	return n, nil
}

func (s *Service) sweepFields(ctx context.Context, kind domain.WindowKind, fields []domain.Field) (int, error) {
	var total atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for _, field := range fields {
		g.Go(func() error {
			n, err := s.sweepField(gctx, field, kind)
			if err != nil {
				return err
			}
			total.Add(int64(n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	return int(total.Load()), nil
}

func (s *Service) sweepField(ctx context.Context, field domain.Field, kind domain.WindowKind) (int, error) {
	var reset int
	err := s.withFieldLock(ctx, field, func(ctx context.Context) error {
		reset = 0
		now := s.now()

		due, err := s.ledgers.ListDueForRollover(ctx, field, kind, kind.Cutoff(now))
		if err != nil {
			return err
		}

		for i := range due {
			l := &due[i]
			if !l.RolloverIfDue(kind, now) {
				continue
			}
			l.UpdatedAt = now
			if err := s.ledgers.Upsert(ctx, l); err != nil {
				return err
			}
			reset++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sweep %s window of %s: %w", kind, field, err)
	}

	s.metrics.ObserveWindowResets(string(kind), reset)
	return reset, nil
}
