// Package scheduler runs periodic ranking maintenance on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/heartmarshall/ranking-backend/internal/config"
	"github.com/heartmarshall/ranking-backend/internal/domain"
)

// Manager owns the cron engine and the maintenance jobs registered on it.
type Manager struct {
	engine *cron.Cron
	svc    maintainer
	cfg    config.SchedulerConfig
	log    *slog.Logger
}

func NewManager(log *slog.Logger, svc maintainer, cfg config.SchedulerConfig) *Manager {
	log = log.With("component", "scheduler")
	cronLog := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelInfo))

	return &Manager{
		engine: cron.New(
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		svc: svc,
		cfg: cfg,
		log: log,
	}
}

// RegisterJobs adds the weekly and monthly window sweeps and the full
// recompute.
func (m *Manager) RegisterJobs() error {
	jobs := []struct {
		spec string
		job  cron.Job
	}{
		{m.cfg.WindowSweepSpec, NewWindowSweepJob(m.log, m.svc, domain.WindowWeekly)},
		{m.cfg.WindowSweepSpec, NewWindowSweepJob(m.log, m.svc, domain.WindowMonthly)},
		{m.cfg.RecomputeSpec, NewRecomputeJob(m.log, m.svc)},
	}

	for _, j := range jobs {
		if _, err := m.engine.AddJob(j.spec, j.job); err != nil {
			return fmt.Errorf("scheduler: add job %q: %w", j.spec, err)
		}
	}
	return nil
}

func (m *Manager) Start() {
	m.log.Info("scheduler started", slog.Int("jobs", len(m.engine.Entries())))
	m.engine.Start()
}

// Stop stops the engine and waits for running jobs until ctx is done.
func (m *Manager) Stop(ctx context.Context) {
	m.log.Info("scheduler stopping")
	select {
	case <-m.engine.Stop().Done():
	case <-ctx.Done():
		m.log.Warn("scheduler stop timed out with jobs still running")
	}
}
