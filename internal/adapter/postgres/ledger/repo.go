// Package ledger implements the leaderboard ledger repository using PostgreSQL.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/ranking-backend/internal/adapter/postgres"
	"github.com/heartmarshall/ranking-backend/internal/domain"
)

// Repo provides ledger persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new ledger repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// SQL
// ---------------------------------------------------------------------------

const ledgerColumns = `id, user_id, field, likes, comments, follows,
       all_time_score, weekly_score, monthly_score, rank,
       weekly_reset_at, monthly_reset_at, created_at, updated_at`

// rankOrder is the total order used by recompute: score, then age, then id.
const rankOrder = `all_time_score DESC, created_at ASC, user_id ASC`

const lockFieldSQL = `SELECT pg_advisory_xact_lock(hashtext('leaderboard:' || $1::text))`

const getByUserFieldSQL = `
SELECT ` + ledgerColumns + `
FROM leaderboards
WHERE user_id = $1 AND field = $2
FOR UPDATE`

const upsertSQL = `
INSERT INTO leaderboards (` + ledgerColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (user_id, field) DO UPDATE SET
    likes            = EXCLUDED.likes,
    comments         = EXCLUDED.comments,
    follows          = EXCLUDED.follows,
    all_time_score   = EXCLUDED.all_time_score,
    weekly_score     = EXCLUDED.weekly_score,
    monthly_score    = EXCLUDED.monthly_score,
    weekly_reset_at  = EXCLUDED.weekly_reset_at,
    monthly_reset_at = EXCLUDED.monthly_reset_at,
    updated_at       = EXCLUDED.updated_at
RETURNING id, created_at`

const listByFieldSQL = `
SELECT ` + ledgerColumns + `
FROM leaderboards
WHERE field = $1
ORDER BY ` + rankOrder

const listByUserSQL = `
SELECT ` + ledgerColumns + `
FROM leaderboards
WHERE user_id = $1
ORDER BY field`

// Unranked rows (rank 0) sort after every ranked row.
const listTopSQL = `
SELECT ` + ledgerColumns + `
FROM leaderboards
WHERE field = $1
ORDER BY rank = 0, rank ASC, ` + rankOrder + `
LIMIT $2`

const updateRankSQL = `UPDATE leaderboards SET rank = $2 WHERE id = $1`

// ---------------------------------------------------------------------------
// Locking
// ---------------------------------------------------------------------------

// LockField takes the transaction-scoped advisory lock that serializes all
// writers of a field's leaderboard across instances. It must run inside
// TxManager.RunInTx; the lock is released on commit or rollback.
func (r *Repo) LockField(ctx context.Context, field domain.Field) error {
	if !postgres.InTx(ctx) {
		return fmt.Errorf("lock leaderboard %s: advisory lock requires a transaction", field)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)
	if _, err := q.Exec(ctx, lockFieldSQL, string(field)); err != nil {
		return postgres.MapError(err, "leaderboard lock", field)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByUserField returns the ledger for (userID, field), locking the row for
// the rest of the transaction. Returns domain.ErrNotFound if none exists.
func (r *Repo) GetByUserField(ctx context.Context, userID uuid.UUID, field domain.Field) (*domain.Ledger, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	l, err := scanLedger(q.QueryRow(ctx, getByUserFieldSQL, userID, string(field)))
	if err != nil {
		return nil, postgres.MapError(err, "leaderboard", fmt.Sprintf("%s/%s", userID, field))
	}
	return &l, nil
}

// ListByField returns every ledger of a field in rank order.
func (r *Repo) ListByField(ctx context.Context, field domain.Field) ([]domain.Ledger, error) {
	return r.list(ctx, "list leaderboards by field", listByFieldSQL, string(field))
}

// ListByUser returns every ledger the user holds, one per field.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Ledger, error) {
	return r.list(ctx, "list leaderboards by user", listByUserSQL, userID)
}

// ListTop returns the first limit ledgers of a field by stored rank.
func (r *Repo) ListTop(ctx context.Context, field domain.Field, limit int) ([]domain.Ledger, error) {
	return r.list(ctx, "list top leaderboards", listTopSQL, string(field), limit)
}

// ListTopByWindow returns ledgers ordered by the window score. A nil field
// spans every field.
func (r *Repo) ListTopByWindow(ctx context.Context, field *domain.Field, kind domain.WindowKind, limit int) ([]domain.Ledger, error) {
	scoreCol, _, err := windowColumns(kind)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + ledgerColumns + ` FROM leaderboards`
	args := []any{}
	if field != nil {
		query += ` WHERE field = $1`
		args = append(args, string(*field))
	}
	query += fmt.Sprintf(` ORDER BY %s DESC, created_at ASC, user_id ASC LIMIT $%d`, scoreCol, len(args)+1)
	args = append(args, limit)

	return r.list(ctx, "list window leaders", query, args...)
}

// ListDueForRollover returns the ledgers of a field whose window has never
// been reset or was last reset at or before cutoff.
func (r *Repo) ListDueForRollover(ctx context.Context, field domain.Field, kind domain.WindowKind, cutoff time.Time) ([]domain.Ledger, error) {
	_, resetCol, err := windowColumns(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM leaderboards
WHERE field = $1 AND (%s IS NULL OR %s <= $2)
ORDER BY %s
FOR UPDATE`, ledgerColumns, resetCol, resetCol, rankOrder)

	return r.list(ctx, "list leaderboards due for rollover", query, string(field), cutoff)
}

func (r *Repo) list(ctx context.Context, op, query string, args ...any) ([]domain.Ledger, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "leaderboards", op)
	}
	defer rows.Close()

	ledgers := []domain.Ledger{}
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		ledgers = append(ledgers, l)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "leaderboards", op)
	}

	return ledgers, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Upsert writes counters, scores and window timestamps of l. Rank is left
// to UpdateRanks; a newly inserted row starts with l.Rank (normally 0).
// l.ID and l.CreatedAt are refreshed from the stored row.
func (r *Repo) Upsert(ctx context.Context, l *domain.Ledger) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	err := q.QueryRow(ctx, upsertSQL,
		l.ID, l.UserID, string(l.Field), l.Likes, l.Comments, l.Follows,
		l.AllTimeScore, l.WeeklyScore, l.MonthlyScore, l.Rank,
		l.WeeklyResetAt, l.MonthlyResetAt, l.CreatedAt, l.UpdatedAt,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return postgres.MapError(err, "leaderboard", l.ID)
	}
	return nil
}

// UpdateRanks writes the given ranks in one round trip.
func (r *Repo) UpdateRanks(ctx context.Context, changes []domain.RankChange) error {
	if len(changes) == 0 {
		return nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	batch := &pgx.Batch{}
	for _, c := range changes {
		batch.Queue(updateRankSQL, c.LedgerID, c.Rank)
	}

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	for _, c := range changes {
		tag, err := br.Exec()
		if err != nil {
			return postgres.MapError(err, "leaderboard", c.LedgerID)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("leaderboard %s: %w", c.LedgerID, domain.ErrNotFound)
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func windowColumns(kind domain.WindowKind) (score, resetAt string, err error) {
	switch kind {
	case domain.WindowWeekly:
		return "weekly_score", "weekly_reset_at", nil
	case domain.WindowMonthly:
		return "monthly_score", "monthly_reset_at", nil
	}
	return "", "", fmt.Errorf("window %q: %w", kind, domain.ErrValidation)
}

func scanLedger(row pgx.Row) (domain.Ledger, error) {
	var (
		l     domain.Ledger
		field string
	)

	err := row.Scan(
		&l.ID, &l.UserID, &field, &l.Likes, &l.Comments, &l.Follows,
		&l.AllTimeScore, &l.WeeklyScore, &l.MonthlyScore, &l.Rank,
		&l.WeeklyResetAt, &l.MonthlyResetAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return domain.Ledger{}, err
	}

	l.Field = domain.Field(field)
	return l, nil
}
