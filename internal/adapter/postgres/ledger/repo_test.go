package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/ranking-backend/internal/adapter/postgres"
	"github.com/heartmarshall/ranking-backend/internal/adapter/postgres/ledger"
	"github.com/heartmarshall/ranking-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/ranking-backend/internal/domain"
)

func newRepo(t *testing.T) (*ledger.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return ledger.New(pool), pool
}

// only keeps ledgers that belong to the given users, preserving order.
func only(ledgers []domain.Ledger, users ...uuid.UUID) []domain.Ledger {
	keep := make(map[uuid.UUID]bool, len(users))
	for _, u := range users {
		keep[u] = true
	}
	var out []domain.Ledger
	for _, l := range ledgers {
		if keep[l.UserID] {
			out = append(out, l)
		}
	}
	return out
}

func TestRepo_Upsert_InsertThenUpdate(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	l := domain.NewLedger(uuid.New(), domain.FieldMusic, now)
	l.ApplyDelta(domain.EngagementLike, domain.SignAdd)

	if err := repo.Upsert(ctx, l); err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}

	l.ApplyDelta(domain.EngagementFollow, domain.SignAdd)
	l.UpdatedAt = now.Add(time.Minute)
	if err := repo.Upsert(ctx, l); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	got, err := repo.GetByUserField(ctx, l.UserID, domain.FieldMusic)
	if err != nil {
		t.Fatalf("GetByUserField: %v", err)
	}
	if got.ID != l.ID {
		t.Errorf("ID = %s, want %s", got.ID, l.ID)
	}
	if got.Likes != 1 || got.Follows != 1 || got.AllTimeScore != 6 {
		t.Errorf("got likes=%d follows=%d score=%d, want 1/1/6", got.Likes, got.Follows, got.AllTimeScore)
	}
	if got.Rank != 0 {
		t.Errorf("Rank = %d, want 0 before any recompute", got.Rank)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
}

func TestRepo_Upsert_ConflictKeepsStoredID(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	userID := uuid.New()
	first := domain.NewLedger(userID, domain.FieldArt, now)
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert first: %v", err)
	}

	second := domain.NewLedger(userID, domain.FieldArt, now)
	second.ApplyDelta(domain.EngagementComment, domain.SignAdd)
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert second: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("conflicting upsert should return stored ID %s, got %s", first.ID, second.ID)
	}
}

func TestRepo_GetByUserField_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.GetByUserField(context.Background(), uuid.New(), domain.FieldDance)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRepo_ListByField_TiebreakOrder(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	high := testhelper.SeedLedger(t, pool, uuid.New(), domain.FieldLeadership, 5, 0, 0)
	older := testhelper.SeedLedger(t, pool, uuid.New(), domain.FieldLeadership, 1, 0, 0)
	time.Sleep(2 * time.Millisecond)
	younger := testhelper.SeedLedger(t, pool, uuid.New(), domain.FieldLeadership, 1, 0, 0)

	all, err := repo.ListByField(ctx, domain.FieldLeadership)
	if err != nil {
		t.Fatalf("ListByField: %v", err)
	}

	got := only(all, high.UserID, older.UserID, younger.UserID)
	if len(got) != 3 {
		t.Fatalf("expected 3 seeded ledgers, got %d", len(got))
	}
	want := []uuid.UUID{high.UserID, older.UserID, younger.UserID}
	for i, l := range got {
		if l.UserID != want[i] {
			t.Errorf("position %d: got user %s, want %s", i, l.UserID, want[i])
		}
	}
}

func TestRepo_UpdateRanks_AndListTop(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	a := testhelper.SeedLedger(t, pool, uuid.New(), domain.FieldTechnology, 0, 0, 0)
	b := testhelper.SeedLedger(t, pool, uuid.New(), domain.FieldTechnology, 0, 0, 0)

	err := repo.UpdateRanks(ctx, []domain.RankChange{{LedgerID: a.ID, Rank: 1_000_002}, {LedgerID: b.ID, Rank: 1_000_001}})
	if err != nil {
		t.Fatalf("UpdateRanks: %v", err)
	}

	ledgers, err := repo.ListByUser(ctx, a.UserID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(ledgers) != 1 || ledgers[0].Rank != 1_000_002 {
		t.Fatalf("rank not persisted: %+v", ledgers)
	}

	top, err := repo.ListTop(ctx, domain.FieldTechnology, 10_000)
	if err != nil {
		t.Fatalf("ListTop: %v", err)
	}
	got := only(top, a.UserID, b.UserID)
	if len(got) != 2 || got[0].UserID != b.UserID {
		t.Fatalf("expected b before a by rank, got %+v", got)
	}
}

func TestRepo_UpdateRanks_MissingLedger(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	err := repo.UpdateRanks(context.Background(), []domain.RankChange{{LedgerID: uuid.New(), Rank: 1}})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRepo_ListTopByWindow_InvalidWindow(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.ListTopByWindow(context.Background(), nil, domain.WindowKind("daily"), 10)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got: %v", err)
	}
}

func TestRepo_ListDueForRollover(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	tm := postgres.NewTxManager(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	never := testhelper.SeedLedger(t, pool, uuid.New(), domain.FieldSports, 1, 0, 0)

	fresh := domain.NewLedger(uuid.New(), domain.FieldSports, now)
	fresh.RolloverIfDue(domain.WindowWeekly, now)
	if err := repo.Upsert(ctx, fresh); err != nil {
		t.Fatalf("Upsert fresh: %v", err)
	}

	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		due, err := repo.ListDueForRollover(ctx, domain.FieldSports, domain.WindowWeekly, domain.WindowWeekly.Cutoff(now))
		if err != nil {
			return err
		}
		got := only(due, never.UserID, fresh.UserID)
		if len(got) != 1 || got[0].UserID != never.UserID {
			t.Errorf("expected only the never-reset ledger to be due, got %+v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}
}

func TestRepo_LockField_RequiresTx(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	if err := repo.LockField(ctx, domain.FieldOther); err == nil {
		t.Fatal("expected error when locking outside a transaction")
	}

	tm := postgres.NewTxManager(pool)
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		return repo.LockField(ctx, domain.FieldOther)
	})
	if err != nil {
		t.Fatalf("LockField inside tx: %v", err)
	}
}

func TestRepo_LockField_SerializesWriters(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()
	tm := postgres.NewTxManager(pool)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- tm.RunInTx(ctx, func(ctx context.Context) error {
			if err := repo.LockField(ctx, domain.FieldAcademics); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()

	<-locked

	acquired := make(chan error, 1)
	go func() {
		acquired <- tm.RunInTx(ctx, func(ctx context.Context) error {
			return repo.LockField(ctx, domain.FieldAcademics)
		})
	}()

	select {
	case err := <-acquired:
		t.Fatalf("second writer acquired the field lock while it was held (err=%v)", err)
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first writer: %v", err)
	}
	if err := <-acquired; err != nil {
		t.Fatalf("second writer: %v", err)
	}
}
