// Package ranking implements the incremental leaderboard engine: ledger
// deltas, rank recomputation, windowed score rollover and the read models
// built on top of them.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/ranking-backend/internal/domain"
	"github.com/heartmarshall/ranking-backend/pkg/retry"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type ledgerRepo interface {
	LockField(ctx context.Context, field domain.Field) error
	GetByUserField(ctx context.Context, userID uuid.UUID, field domain.Field) (*domain.Ledger, error)
	Upsert(ctx context.Context, l *domain.Ledger) error
	UpdateRanks(ctx context.Context, changes []domain.RankChange) error
	ListByField(ctx context.Context, field domain.Field) ([]domain.Ledger, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Ledger, error)
	ListTop(ctx context.Context, field domain.Field, limit int) ([]domain.Ledger, error)
	ListTopByWindow(ctx context.Context, field *domain.Field, kind domain.WindowKind, limit int) ([]domain.Ledger, error)
	ListDueForRollover(ctx context.Context, field domain.Field, kind domain.WindowKind, cutoff time.Time) ([]domain.Ledger, error)
}

type updateLog interface {
	Append(ctx context.Context, u *domain.RankUpdate) error
	List(ctx context.Context, filter domain.RankUpdateFilter) ([]domain.RankUpdate, error)
}

type userDirectory interface {
	Usernames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type recorder interface {
	ObserveRecompute(field string, changed int, took time.Duration)
	ObserveRetry(field string)
	ObserveWindowResets(window string, n int)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Config holds the engine's tunables.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	DefaultLimit   int
	MaxLimit       int
}

// Service implements the ranking pipeline. Every write to a field's
// ledgers runs under that field's lock and inside one transaction.
type Service struct {
	ledgers ledgerRepo
	updates updateLog
	users   userDirectory
	tx      txManager
	metrics recorder
	clock   clockwork.Clock
	locks   *fieldLocks
	cfg     Config
	log     *slog.Logger
}

// NewService creates a new ranking service.
func NewService(
	log *slog.Logger,
	ledgers ledgerRepo,
	updates updateLog,
	users userDirectory,
	tx txManager,
	metrics recorder,
	clock clockwork.Clock,
	cfg Config,
) *Service {
	return &Service{
		ledgers: ledgers,
		updates: updates,
		users:   users,
		tx:      tx,
		metrics: metrics,
		clock:   clock,
		locks:   newFieldLocks(),
		cfg:     cfg,
		log:     log.With("service", "ranking"),
	}
}

// ---------------------------------------------------------------------------
// Field serialization
// ---------------------------------------------------------------------------

// fieldLocks holds one mutex per known field. The set is fixed at startup,
// so the map is never written after construction.
type fieldLocks struct {
	m map[domain.Field]*sync.Mutex
}

func newFieldLocks() *fieldLocks {
	fl := &fieldLocks{m: make(map[domain.Field]*sync.Mutex)}
	for _, f := range domain.AllFields() {
		fl.m[f] = &sync.Mutex{}
	}
	return fl
}

func (fl *fieldLocks) lock(field domain.Field) (func(), error) {
	mu, ok := fl.m[field]
	if !ok {
		return nil, fmt.Errorf("lock field %q: %w", field, domain.ErrValidation)
	}
	mu.Lock()
	return mu.Unlock, nil
}

func classifyConflict(err error) retry.Action {
	if errors.Is(err, domain.ErrConflict) {
		return retry.Retry
	}
	return retry.Stop
}

// withFieldLock runs fn under the in-process field mutex, inside a
// transaction holding the field's advisory lock. Conflicts restart the whole
// unit with backoff; the mutex is released while waiting.
func (s *Service) withFieldLock(ctx context.Context, field domain.Field, fn func(ctx context.Context) error) error {
	policy := retry.Policy{
		MaxAttempts:    s.cfg.MaxAttempts,
		InitialBackoff: s.cfg.InitialBackoff,
		MaxBackoff:     s.cfg.MaxBackoff,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			s.metrics.ObserveRetry(string(field))
			s.log.WarnContext(ctx, "leaderboard write conflict, retrying",
				slog.String("field", string(field)),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff),
				slog.String("error", err.Error()),
			)
		},
	}

	err := retry.DoVoid(ctx, policy, classifyConflict, func() error {
		unlock, err := s.locks.lock(field)
		if err != nil {
			return err
		}
		defer unlock()

		return s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.ledgers.LockField(ctx, field); err != nil {
				return err
			}
			return fn(ctx)
		})
	})

	var perm *retry.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	return err
}

// now returns the service clock in UTC truncated to what PostgreSQL stores.
func (s *Service) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Microsecond)
}
