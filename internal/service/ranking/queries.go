package ranking

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/heartmarshall/ranking-backend/internal/domain"
)

// Leaderboard returns the all-time board of one field by stored rank.
// Unranked ledgers come last with rank 0.
func (s *Service) Leaderboard(ctx context.Context, in LeaderboardInput) ([]domain.LeaderboardEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	ledgers, err := s.ledgers.ListTop(ctx, in.Field, s.effectiveLimit(in.Limit))
	if err != nil {
		return nil, fmt.Errorf("leaderboard %s: %w", in.Field, err)
	}

	return s.toEntries(ctx, ledgers, func(i int, l domain.Ledger) (int, int) {
		return l.AllTimeScore, l.Rank
	})
}

// PeriodLeaders returns the weekly or monthly board. Stale windows of the
// requested fields are rolled over first, so an idle ledger never shows
// last period's score.
func (s *Service) PeriodLeaders(ctx context.Context, in PeriodInput) ([]domain.LeaderboardEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	fields := domain.AllFields()
	if in.Field != nil {
		fields = []domain.Field{*in.Field}
	}
	if _, err := s.sweepFields(ctx, in.Window, fields); err != nil {
		return nil, err
	}

	ledgers, err := s.ledgers.ListTopByWindow(ctx, in.Field, in.Window, s.effectiveLimit(in.Limit))
	if err != nil {
		return nil, fmt.Errorf("%s leaders: %w", in.Window, err)
	}

	// Rank on a period board is the position in the period ordering.
	return s.toEntries(ctx, ledgers, func(i int, l domain.Ledger) (int, int) {
		return l.WindowScore(in.Window), i + 1
	})
}

// TopByField returns the head of every field's board, in field order.
func (s *Service) TopByField(ctx context.Context, limit *int) ([]domain.FieldBoard, error) {
	if errs := validateLimit(nil, limit); len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}
	n := s.effectiveLimit(limit)

	boards := make([]domain.FieldBoard, 0, len(domain.AllFields()))
	var all []domain.Ledger
	for _, field := range domain.AllFields() {
		ledgers, err := s.ledgers.ListTop(ctx, field, n)
		if err != nil {
			return nil, fmt.Errorf("top of %s: %w", field, err)
		}
		all = append(all, ledgers...)
		boards = append(boards, domain.FieldBoard{Field: field, Entries: make([]domain.LeaderboardEntry, 0, len(ledgers))})
		for _, l := range ledgers {
			boards[len(boards)-1].Entries = append(boards[len(boards)-1].Entries, domain.LeaderboardEntry{
				UserID: l.UserID,
				Field:  l.Field,
				Score:  l.AllTimeScore,
				Rank:   l.Rank,
			})
		}
	}

	names, err := s.users.Usernames(ctx, userIDs(all))
	if err != nil {
		return nil, fmt.Errorf("resolve usernames: %w", err)
	}
	for i := range boards {
		for j := range boards[i].Entries {
			boards[i].Entries[j].Username = names[boards[i].Entries[j].UserID]
		}
	}

	return boards, nil
}

// UserStats summarizes a user's ledgers. AverageRank is the rounded mean over
// ranked ledgers only and 0 when none is ranked yet.
func (s *Service) UserStats(ctx context.Context, userID uuid.UUID) (domain.UserStats, error) {
	if userID == uuid.Nil {
		return domain.UserStats{}, domain.NewValidationError("user_id", "required")
	}

	ledgers, err := s.ledgers.ListByUser(ctx, userID)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("stats for %s: %w", userID, err)
	}

	stats := domain.UserStats{
		UserID:     userID,
		FieldCount: len(ledgers),
		Fields:     make([]domain.FieldStats, 0, len(ledgers)),
	}

	var rankSum, ranked int
	for _, l := range ledgers {
		stats.TotalScore += l.AllTimeScore
		if l.IsRanked() {
			rankSum += l.Rank
			ranked++
		}
		stats.Fields = append(stats.Fields, domain.FieldStats{
			Field:        l.Field,
			Score:        l.AllTimeScore,
			WeeklyScore:  l.WeeklyScore,
			MonthlyScore: l.MonthlyScore,
			Rank:         l.Rank,
			Likes:        l.Likes,
			Comments:     l.Comments,
			Follows:      l.Follows,
		})
	}
	if ranked > 0 {
		stats.AverageRank = int(math.Round(float64(rankSum) / float64(ranked)))
	}

	return stats, nil
}

// UpdateHistory returns update log entries, newest first. With no filter it
// lists recent updates across all users.
func (s *Service) UpdateHistory(ctx context.Context, in HistoryInput) ([]domain.RankUpdate, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	updates, err := s.updates.List(ctx, domain.RankUpdateFilter{
		UserID: in.UserID,
		Field:  in.Field,
		Limit:  s.effectiveLimit(in.Limit),
	})
	if err != nil {
		return nil, fmt.Errorf("update history: %w", err)
	}
	return updates, nil
}

func (s *Service) toEntries(ctx context.Context, ledgers []domain.Ledger, scoreAndRank func(i int, l domain.Ledger) (int, int)) ([]domain.LeaderboardEntry, error) {
	names, err := s.users.Usernames(ctx, userIDs(ledgers))
	if err != nil {
		return nil, fmt.Errorf("resolve usernames: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, len(ledgers))
	for i, l := range ledgers {
		score, rank := scoreAndRank(i, l)
		entries[i] = domain.LeaderboardEntry{
			UserID:   l.UserID,
			Username: names[l.UserID],
			Field:    l.Field,
			Score:    score,
			Rank:     rank,
		}
	}
	return entries, nil
}

func userIDs(ledgers []domain.Ledger) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ledgers))
	ids := make([]uuid.UUID, 0, len(ledgers))
	for _, l := range ledgers {
		if _, ok := seen[l.UserID]; ok {
			continue
		}
		seen[l.UserID] = struct{}{}
		ids = append(ids, l.UserID)
	}
	return ids
}
