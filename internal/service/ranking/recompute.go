package ranking

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/ranking-backend/internal/domain"
)

// Recompute reassigns ranks 1..N for every ledger of field and returns how
// many ranks changed. Running it twice with no delta in between returns 0.
func (s *Service) Recompute(ctx context.Context, field domain.Field) (int, error) {
	if !field.IsValid() {
		return 0, domain.NewValidationError("field", "unknown field")
	}

	var changed int
	err := s.withFieldLock(ctx, field, func(ctx context.Context) error {
		n, _, err := s.recomputeLocked(ctx, field)
		changed = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("recompute %s: %w", field, err)
	}

	return changed, nil
}

// RecomputeAll recomputes every field concurrently. Fields hold independent
// locks, so a slow field never delays another.
func (s *Service) RecomputeAll(ctx context.Context) (map[domain.Field]int, error) {
	var (
		mu      sync.Mutex
		changed = make(map[domain.Field]int)
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, field := range domain.AllFields() {
		g.Go(func() error {
			n, err := s.Recompute(gctx, field)
			if err != nil {
				return err
			}
			mu.Lock()
			changed[field] = n
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "full recompute finished", slog.Any("changed", changed))
	return changed, nil
}

// recomputeLocked must run under the field lock. It returns the number of
// rank writes and the resulting rank of every ledger in the field.
func (s *Service) recomputeLocked(ctx context.Context, field domain.Field) (int, map[uuid.UUID]int, error) {
	start := s.clock.Now()

	ledgers, err := s.ledgers.ListByField(ctx, field)
	if err != nil {
		return 0, nil, err
	}

	ranks, changes := assignRanks(ledgers)
	if err := s.ledgers.UpdateRanks(ctx, changes); err != nil {
		return 0, nil, err
	}

	s.metrics.ObserveRecompute(string(field), len(changes), s.clock.Since(start))
	return len(changes), ranks, nil
}

// compareForRank is the strict total order of a field's leaderboard:
// higher all-time score first, then the older ledger, then the lower user id.
func compareForRank(a, b domain.Ledger) int {
	if c := cmp.Compare(b.AllTimeScore, a.AllTimeScore); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.UserID.String(), b.UserID.String())
}

// assignRanks gives each ledger its 1-based position under compareForRank.
// It returns every ledger's rank and the subset whose stored rank differs.
func assignRanks(ledgers []domain.Ledger) (map[uuid.UUID]int, []domain.RankChange) {
	sorted := slices.Clone(ledgers)
	slices.SortFunc(sorted, compareForRank)

	ranks := make(map[uuid.UUID]int, len(sorted))
	var changes []domain.RankChange
	for i, l := range sorted {
		rank := i + 1
		ranks[l.ID] = rank
		if l.Rank != rank {
			changes = append(changes, domain.RankChange{LedgerID: l.ID, Rank: rank})
		}
	}

	return ranks, changes
}
