// Package updatelog implements the append-only leaderboard update log using PostgreSQL.
// Inserts use a static statement; listing builds its filter with squirrel.
package updatelog

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/ranking-backend/internal/adapter/postgres"
	"github.com/heartmarshall/ranking-backend/internal/domain"
)

// Repo provides update-log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new update-log repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const appendSQL = `
INSERT INTO leaderboard_updates
    (id, ledger_id, user_id, field, previous_rank, new_rank, score_delta, reason, source_ref, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING seq`

var listColumns = []string{
	"id", "seq", "ledger_id", "user_id", "field", "previous_rank", "new_rank",
	"score_delta", "reason", "source_ref", "created_at",
}

// Append inserts u and fills in the storage-assigned sequence number.
// The log is append-only; no update or delete exists.
func (r *Repo) Append(ctx context.Context, u *domain.RankUpdate) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	err := q.QueryRow(ctx, appendSQL,
		u.ID, u.LedgerID, u.UserID, string(u.Field),
		intPtrToPg(u.PreviousRank), intPtrToPg(u.NewRank),
		u.ScoreDelta, string(u.Reason), u.SourceRef, u.CreatedAt,
	).Scan(&u.Seq)
	if err != nil {
		return postgres.MapError(err, "leaderboard_update", u.ID)
	}
	return nil
}

// List returns entries matching filter, newest first. Limit must be positive.
func (r *Repo) List(ctx context.Context, filter domain.RankUpdateFilter) ([]domain.RankUpdate, error) {
	query := builder.
		Select(listColumns...).
		From("leaderboard_updates").
		OrderBy("seq DESC").
		Limit(uint64(filter.Limit))

	if filter.UserID != nil {
		query = query.Where(sq.Eq{"user_id": *filter.UserID})
	}
	if filter.Field != nil {
		query = query.Where(sq.Eq{"field": string(*filter.Field)})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build leaderboard_updates query: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, postgres.MapError(err, "leaderboard_updates", "list")
	}
	defer rows.Close()

	updates := []domain.RankUpdate{}
	for rows.Next() {
		var (
			u            domain.RankUpdate
			field        string
			reason       string
			previousRank pgtype.Int4
			newRank      pgtype.Int4
		)

		if err := rows.Scan(
			&u.ID, &u.Seq, &u.LedgerID, &u.UserID, &field, &previousRank, &newRank,
			&u.ScoreDelta, &reason, &u.SourceRef, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan leaderboard_update: %w", err)
		}

		u.Field = domain.Field(field)
		u.Reason = domain.UpdateReason(reason)
		u.PreviousRank = pgToIntPtr(previousRank)
		u.NewRank = pgToIntPtr(newRank)
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "leaderboard_updates", "list")
	}

	return updates, nil
}

func intPtrToPg(v *int) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*v), Valid: true}
}

func pgToIntPtr(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int32)
	return &n
}
