// Package app wires configuration, storage, the ranking engine and its
// transports into runnable processes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/ranking-backend/internal/adapter/kafka"
	"github.com/heartmarshall/ranking-backend/internal/adapter/metrics"
	"github.com/heartmarshall/ranking-backend/internal/adapter/postgres"
	"github.com/heartmarshall/ranking-backend/internal/adapter/postgres/engagement"
	"github.com/heartmarshall/ranking-backend/internal/adapter/postgres/ledger"
	"github.com/heartmarshall/ranking-backend/internal/adapter/postgres/updatelog"
	"github.com/heartmarshall/ranking-backend/internal/auth"
	"github.com/heartmarshall/ranking-backend/internal/config"
	"github.com/heartmarshall/ranking-backend/internal/domain"
	"github.com/heartmarshall/ranking-backend/internal/scheduler"
	"github.com/heartmarshall/ranking-backend/internal/service/ranking"
	"github.com/heartmarshall/ranking-backend/internal/service/reactor"
	"github.com/heartmarshall/ranking-backend/internal/transport/middleware"
	"github.com/heartmarshall/ranking-backend/internal/transport/rest"
)

// Version, Commit, and BuildTime are set via ldflags at build time.
// Example: go build -ldflags "-X github.com/heartmarshall/ranking-backend/internal/app.Version=1.0.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion returns a formatted version string for startup logs and health endpoints.
func BuildVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime)
}

// engine is the ranking core over Postgres, shared by the server and the
// one-shot sweep command.
type engine struct {
	ranking *ranking.Service
	reactor *reactor.Reactor
}

func newEngine(cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger, reg prometheus.Registerer, clock clockwork.Clock) *engine {
	users := engagement.New(pool)
	m := metrics.NewRankingMetrics(reg)

	svc := ranking.NewService(
		logger,
		ledger.New(pool),
		updatelog.New(pool),
		users,
		postgres.NewTxManager(pool),
		m,
		clock,
		ranking.Config{
			MaxAttempts:    cfg.Ranking.RetryMaxAttempts,
			InitialBackoff: cfg.Ranking.RetryInitialBackoff,
			MaxBackoff:     cfg.Ranking.RetryMaxBackoff,
			DefaultLimit:   cfg.Ranking.DefaultLimit,
			MaxLimit:       cfg.Ranking.MaxLimit,
		},
	)

	return &engine{
		ranking: svc,
		reactor: reactor.NewReactor(logger, users, svc, m),
	}
}

// Run starts the HTTP server, the maintenance scheduler and, when enabled,
// the Kafka consumer, and blocks until ctx is cancelled or one of them fails.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log, os.Stderr)
	logger.Info("starting ranking engine",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	clock := clockwork.NewRealClock()
	reg := metrics.NewRegistry()
	eng := newEngine(cfg, pool, logger, reg, clock)

	rateLimiter := middleware.NewRateLimiter(clock, time.Minute)
	defer rateLimiter.Stop()

	rt := routes{
		health:      rest.NewHealthHandler(Version, clock, rest.Check{Name: "database", Ping: pool.Ping}),
		leaderboard: rest.NewLeaderboardHandler(eng.ranking, logger),
		admin:       rest.NewAdminHandler(eng.ranking, logger),
		events:      rest.NewEventsHandler(eng.reactor, logger),
		auth:        middleware.Auth(auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, clock)),
		rateLimit:   rateLimiter.Limit(cfg.Server.RateLimit),
		accessLog:   middleware.Logger(logger),
		recovery:    middleware.Recovery(logger),
	}
	if cfg.Metrics.Enabled {
		rt.httpMetrics = metrics.NewHTTPMetrics(reg)
		rt.metrics = metrics.Handler(reg)
		rt.metricsPath = cfg.Metrics.Path
	}

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      newRouter(rt),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	var sched *scheduler.Manager
	if cfg.Scheduler.Enabled {
		sched = scheduler.NewManager(logger, eng.ranking, cfg.Scheduler)
		if err := sched.RegisterJobs(); err != nil {
			return err
		}
	}

	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		consumer, err = kafka.NewConsumer(cfg.Kafka, kafka.NewEventHandler(logger, eng.reactor), logger)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	if sched != nil {
		sched.Start()
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			sched.Stop(stopCtx)
			return nil
		})
	}

	if consumer != nil {
		g.Go(func() error { return consumer.Run(gctx) })
	}

	err = g.Wait()
	logger.Info("ranking engine stopped")
	return err
}

// RunSweep performs one maintenance pass for an external scheduler: it rolls
// over the given window ("weekly", "monthly" or "all") and, when recompute
// is set, re-ranks every field.
func RunSweep(ctx context.Context, window string, recompute bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := NewLogger(cfg.Log, os.Stderr)

	kinds, err := sweepKinds(window)
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	eng := newEngine(cfg, pool, logger, prometheus.NewRegistry(), clockwork.NewRealClock())

	for _, kind := range kinds {
		n, err := eng.ranking.SweepWindows(ctx, kind)
		if err != nil {
			return err
		}
		logger.Info("window sweep done", slog.String("window", kind.String()), slog.Int("reset", n))
	}

	if recompute {
		changed, err := eng.ranking.RecomputeAll(ctx)
		if err != nil {
			return err
		}
		for field, n := range changed {
			logger.Info("recompute done", slog.String("field", field.String()), slog.Int("ranks_changed", n))
		}
	}
	return nil
}

func sweepKinds(window string) ([]domain.WindowKind, error) {
	switch window {
	case "all":
		return []domain.WindowKind{domain.WindowWeekly, domain.WindowMonthly}, nil
	case "none", "":
		return nil, nil
	}
	kind := domain.WindowKind(window)
	if !kind.IsValid() {
		return nil, domain.NewValidationError("window", "must be weekly, monthly, all or none")
	}
	return []domain.WindowKind{kind}, nil
}
