package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/ranking-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeededUser is a row of the collaborator users table.
type SeededUser struct {
	ID              uuid.UUID
	Username        string
	FieldOfInterest string
}

// SeedUser inserts a collaborator user with the given field of interest
// (free text, may be empty).
func SeedUser(t *testing.T, pool *pgxpool.Pool, fieldOfInterest string) SeededUser {
	t.Helper()

	u := SeededUser{
		ID:              uuid.New(),
		Username:        "user-" + uniqueSuffix(),
		FieldOfInterest: fieldOfInterest,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, username, field_of_interest, created_at) VALUES ($1, $2, $3, now())`,
		u.ID, u.Username, u.FieldOfInterest,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser: %v", err)
	}

	return u
}

// SeedPost inserts a post owned by ownerID with a free-text category.
func SeedPost(t *testing.T, pool *pgxpool.Pool, ownerID uuid.UUID, category string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO posts (id, user_id, category, created_at) VALUES ($1, $2, $3, now())`,
		id, ownerID, category,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedPost: %v", err)
	}

	return id
}

// SeedLedger inserts a leaderboard row directly, bypassing the pipeline.
// Scores are derived from the counters so the row is internally consistent.
func SeedLedger(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, field domain.Field, likes, comments, follows int) domain.Ledger {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	l := domain.NewLedger(userID, field, now)
	l.Likes, l.Comments, l.Follows = likes, comments, follows
	l.AllTimeScore = l.ComputeScore()
	l.WeeklyScore = l.AllTimeScore
	l.MonthlyScore = l.AllTimeScore

	_, err := pool.Exec(context.Background(),
		`INSERT INTO leaderboards (id, user_id, field, likes, comments, follows,
		     all_time_score, weekly_score, monthly_score, rank, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $10)`,
		l.ID, l.UserID, string(l.Field), l.Likes, l.Comments, l.Follows,
		l.AllTimeScore, l.WeeklyScore, l.MonthlyScore, now,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLedger: %v", err)
	}

	return *l
}
