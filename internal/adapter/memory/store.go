// Package memory provides an in-process twin of the PostgreSQL adapters.
// It backs engine, reactor and transport tests; the server always runs on
// PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/ranking-backend/internal/domain"
)

type ledgerKey struct {
	UserID uuid.UUID
	Field  domain.Field
}

type post struct {
	Owner    uuid.UUID
	Category string
}

type user struct {
	Username        string
	FieldOfInterest string
}

type txCtxKey struct{}

// Store keeps ledgers, the update log and the collaborator tables in maps.
// RunInTx serializes transactions and restores a snapshot on error, so the
// atomicity the pipeline relies on holds here too.
type Store struct {
	txMu sync.Mutex

	mu      sync.Mutex
	ledgers map[ledgerKey]*domain.Ledger
	updates []domain.RankUpdate
	seq     int64
	users   map[uuid.UUID]user
	posts   map[uuid.UUID]post
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		ledgers: make(map[ledgerKey]*domain.Ledger),
		users:   make(map[uuid.UUID]user),
		posts:   make(map[uuid.UUID]post),
	}
}

// ---------------------------------------------------------------------------
// Transactions
// ---------------------------------------------------------------------------

type snapshot struct {
	ledgers map[ledgerKey]domain.Ledger
	updates int
	seq     int64
}

// RunInTx runs fn as one atomic unit. Nested calls join the outer unit.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txCtxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	defer func() {
		if r := recover(); r != nil {
			s.restore(snap)
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, txCtxKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledgers := make(map[ledgerKey]domain.Ledger, len(s.ledgers))
	for k, l := range s.ledgers {
		ledgers[k] = *l
	}
	return snapshot{ledgers: ledgers, updates: len(s.updates), seq: s.seq}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledgers = make(map[ledgerKey]*domain.Ledger, len(snap.ledgers))
	for k, l := range snap.ledgers {
		l := l
		s.ledgers[k] = &l
	}
	s.updates = s.updates[:snap.updates]
	s.seq = snap.seq
}

// ---------------------------------------------------------------------------
// Ledgers
// ---------------------------------------------------------------------------

// LockField is a no-op: RunInTx already serializes every writer.
func (s *Store) LockField(ctx context.Context, field domain.Field) error {
	if ctx.Value(txCtxKey{}) == nil {
		return fmt.Errorf("lock leaderboard %s: advisory lock requires a transaction", field)
	}
	return nil
}

func (s *Store) GetByUserField(_ context.Context, userID uuid.UUID, field domain.Field) (*domain.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.ledgers[ledgerKey{userID, field}]
	if !ok {
		return nil, fmt.Errorf("leaderboard %s/%s: %w", userID, field, domain.ErrNotFound)
	}
	cp := *l
	return &cp, nil
}

func (s *Store) Upsert(_ context.Context, l *domain.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ledgerKey{l.UserID, l.Field}
	if existing, ok := s.ledgers[key]; ok {
		l.ID = existing.ID
		l.CreatedAt = existing.CreatedAt
		l.Rank = existing.Rank
	}
	cp := *l
	s.ledgers[key] = &cp
	return nil
}

func (s *Store) UpdateRanks(_ context.Context, changes []domain.RankChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[uuid.UUID]*domain.Ledger, len(s.ledgers))
	for _, l := range s.ledgers {
		byID[l.ID] = l
	}
	for _, c := range changes {
		l, ok := byID[c.LedgerID]
		if !ok {
			return fmt.Errorf("leaderboard %s: %w", c.LedgerID, domain.ErrNotFound)
		}
		l.Rank = c.Rank
	}
	return nil
}

func (s *Store) ListByField(_ context.Context, field domain.Field) ([]domain.Ledger, error) {
	out := s.filter(func(l *domain.Ledger) bool { return l.Field == field })
	sortByScore(out)
	return out, nil
}

func (s *Store) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Ledger, error) {
	out := s.filter(func(l *domain.Ledger) bool { return l.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out, nil
}

func (s *Store) ListTop(_ context.Context, field domain.Field, limit int) ([]domain.Ledger, error) {
	out := s.filter(func(l *domain.Ledger) bool { return l.Field == field })
	sortByScore(out)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Rank, out[j].Rank
		if (ri == 0) != (rj == 0) {
			return rj == 0
		}
		return ri < rj
	})
	return truncate(out, limit), nil
}

func (s *Store) ListTopByWindow(_ context.Context, field *domain.Field, kind domain.WindowKind, limit int) ([]domain.Ledger, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("window %q: %w", kind, domain.ErrValidation)
	}
	out := s.filter(func(l *domain.Ledger) bool { return field == nil || l.Field == *field })
	sortByScore(out)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].WindowScore(kind) > out[j].WindowScore(kind)
	})
	return truncate(out, limit), nil
}

func (s *Store) ListDueForRollover(_ context.Context, field domain.Field, kind domain.WindowKind, cutoff time.Time) ([]domain.Ledger, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("window %q: %w", kind, domain.ErrValidation)
	}
	now := cutoff.Add(kind.Length())
	out := s.filter(func(l *domain.Ledger) bool { return l.Field == field && l.WindowDue(kind, now) })
	sortByScore(out)
	return out, nil
}

func (s *Store) filter(keep func(l *domain.Ledger) bool) []domain.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Ledger{}
	for _, l := range s.ledgers {
		if keep(l) {
			out = append(out, *l)
		}
	}
	return out
}

func sortByScore(ls []domain.Ledger) {
	sort.Slice(ls, func(i, j int) bool {
		a, b := ls[i], ls[j]
		if a.AllTimeScore != b.AllTimeScore {
			return a.AllTimeScore > b.AllTimeScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.UserID.String() < b.UserID.String()
	})
}

func truncate(ls []domain.Ledger, limit int) []domain.Ledger {
	if limit > 0 && len(ls) > limit {
		return ls[:limit]
	}
	return ls
}

// ---------------------------------------------------------------------------
// Update log
// ---------------------------------------------------------------------------

func (s *Store) Append(_ context.Context, u *domain.RankUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.seq++
	u.Seq = s.seq
	s.updates = append(s.updates, *u)
	return nil
}

func (s *Store) List(_ context.Context, filter domain.RankUpdateFilter) ([]domain.RankUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.RankUpdate{}
	for i := len(s.updates) - 1; i >= 0; i-- {
		u := s.updates[i]
		if filter.UserID != nil && u.UserID != *filter.UserID {
			continue
		}
		if filter.Field != nil && u.Field != *filter.Field {
			continue
		}
		out = append(out, u)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Updates returns every log entry in append order.
func (s *Store) Updates() []domain.RankUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.RankUpdate(nil), s.updates...)
}

// Ledgers returns a copy of every stored ledger.
func (s *Store) Ledgers() []domain.Ledger {
	return s.filter(func(*domain.Ledger) bool { return true })
}

// ---------------------------------------------------------------------------
// Collaborator tables
// ---------------------------------------------------------------------------

// AddUser registers a user with a free-text field of interest.
func (s *Store) AddUser(id uuid.UUID, username, fieldOfInterest string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = user{Username: username, FieldOfInterest: fieldOfInterest}
}

// AddPost registers a post owned by owner.
func (s *Store) AddPost(id, owner uuid.UUID, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[id] = post{Owner: owner, Category: category}
}

// DeletePost removes a post, as the content service would.
func (s *Store) DeletePost(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.posts, id)
}

func (s *Store) PostOwner(_ context.Context, postID uuid.UUID) (uuid.UUID, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return uuid.Nil, "", fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
	}
	return p.Owner, p.Category, nil
}

func (s *Store) UserFieldOfInterest(_ context.Context, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return "", fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return u.FieldOfInterest, nil
}

func (s *Store) Usernames(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			names[id] = u.Username
		}
	}
	return names, nil
}
