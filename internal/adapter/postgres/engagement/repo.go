// Package engagement reads the collaborator user and post tables the ranking
// engine needs to resolve an event to (owner, field).
package engagement

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/ranking-backend/internal/adapter/postgres"
)

// Repo is a read-only view over users and posts.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new engagement repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const postOwnerSQL = `SELECT user_id, category FROM posts WHERE id = $1`

const fieldOfInterestSQL = `SELECT field_of_interest FROM users WHERE id = $1`

const usernamesSQL = `SELECT id, username FROM users WHERE id = ANY($1)`

// PostOwner returns the author and free-text category of a post.
// Returns domain.ErrNotFound if the post no longer exists.
func (r *Repo) PostOwner(ctx context.Context, postID uuid.UUID) (uuid.UUID, string, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var (
		ownerID  uuid.UUID
		category string
	)
	if err := q.QueryRow(ctx, postOwnerSQL, postID).Scan(&ownerID, &category); err != nil {
		return uuid.Nil, "", postgres.MapError(err, "post", postID)
	}
	return ownerID, category, nil
}

// UserFieldOfInterest returns the free-text field a user declared.
// Returns domain.ErrNotFound if the user no longer exists.
func (r *Repo) UserFieldOfInterest(ctx context.Context, userID uuid.UUID) (string, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var field string
	if err := q.QueryRow(ctx, fieldOfInterestSQL, userID).Scan(&field); err != nil {
		return "", postgres.MapError(err, "user", userID)
	}
	return field, nil
}

// Usernames returns display names for the given users. Missing users are
// absent from the map.
func (r *Repo) Usernames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, usernamesSQL, ids)
	if err != nil {
		return nil, postgres.MapError(err, "users", "usernames")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   uuid.UUID
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, postgres.MapError(err, "users", "usernames")
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "users", "usernames")
	}

	return names, nil
}
