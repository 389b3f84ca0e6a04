package updatelog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/ranking-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/ranking-backend/internal/adapter/postgres/updatelog"
	"github.com/heartmarshall/ranking-backend/internal/domain"
)

func newRepo(t *testing.T) (*updatelog.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return updatelog.New(pool), pool
}

func appendUpdate(t *testing.T, repo *updatelog.Repo, l domain.Ledger, prev, next int, delta int) domain.RankUpdate {
	t.Helper()

	u := domain.RankUpdate{
		LedgerID:     l.ID,
		UserID:       l.UserID,
		Field:        l.Field,
		PreviousRank: domain.RankPtr(prev),
		NewRank:      domain.RankPtr(next),
		ScoreDelta:   delta,
		Reason:       domain.ReasonLike,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := repo.Append(context.Background(), &u); err != nil {
		t.Fatalf("Append: %v", err)
	}
	return u
}

func TestRepo_Append_AssignsIncreasingSeq(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)

	l := testhelper.SeedLedger(t, pool, uuid.New(), domain.FieldMusic, 1, 0, 0)

	first := appendUpdate(t, repo, l, 0, 1, 1)
	second := appendUpdate(t, repo, l, 1, 1, 1)

	if first.ID == uuid.Nil {
		t.Error("Append should assign an ID")
	}
	if second.Seq <= first.Seq {
		t.Errorf("seq not increasing: first=%d second=%d", first.Seq, second.Seq)
	}
}

func TestRepo_List_FilterByUserNewestFirst(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	l := testhelper.SeedLedger(t, pool, uuid.New(), domain.FieldDance, 1, 0, 0)
	other := testhelper.SeedLedger(t, pool, uuid.New(), domain.FieldDance, 1, 0, 0)

	appendUpdate(t, repo, l, 0, 2, 1)
	appendUpdate(t, repo, other, 0, 1, 1)
	last := appendUpdate(t, repo, l, 2, 1, 5)

	got, err := repo.List(ctx, domain.RankUpdateFilter{UserID: &l.UserID, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ID != last.ID {
		t.Errorf("expected newest entry first, got %s", got[0].ID)
	}
	if got[0].PreviousRank == nil || *got[0].PreviousRank != 2 || got[0].NewRank == nil || *got[0].NewRank != 1 {
		t.Errorf("ranks not round-tripped: %+v", got[0])
	}
	if got[1].PreviousRank != nil {
		t.Errorf("unranked previous rank should be nil, got %d", *got[1].PreviousRank)
	}
}

func TestRepo_List_FilterByUserAndField(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	userID := uuid.New()
	music := testhelper.SeedLedger(t, pool, userID, domain.FieldMusic, 1, 0, 0)
	art := testhelper.SeedLedger(t, pool, userID, domain.FieldArt, 1, 0, 0)

	appendUpdate(t, repo, music, 0, 1, 1)
	appendUpdate(t, repo, art, 0, 1, 1)

	field := domain.FieldArt
	got, err := repo.List(ctx, domain.RankUpdateFilter{UserID: &userID, Field: &field, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].Field != domain.FieldArt {
		t.Fatalf("expected one art entry, got %+v", got)
	}
}

func TestRepo_List_RespectsLimit(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)

	l := testhelper.SeedLedger(t, pool, uuid.New(), domain.FieldOther, 1, 0, 0)
	for i := 0; i < 3; i++ {
		appendUpdate(t, repo, l, 0, 1, 1)
	}

	got, err := repo.List(context.Background(), domain.RankUpdateFilter{UserID: &l.UserID, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
}
