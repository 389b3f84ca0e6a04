package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/heartmarshall/ranking-backend/internal/domain"
)

const jobTimeout = 10 * time.Minute

type maintainer interface {
	SweepWindows(ctx context.Context, kind domain.WindowKind) (int, error)
	RecomputeAll(ctx context.Context) (map[domain.Field]int, error)
}

// WindowSweepJob zeroes the window score of every ledger whose weekly or
// monthly window has elapsed, so idle users drop off the period boards.
type WindowSweepJob struct {
	svc  maintainer
	kind domain.WindowKind
	log  *slog.Logger
}

func NewWindowSweepJob(log *slog.Logger, svc maintainer, kind domain.WindowKind) *WindowSweepJob {
	return &WindowSweepJob{svc: svc, kind: kind, log: log.With("job", "window_sweep", "window", string(kind))}
}

func (j *WindowSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := j.svc.SweepWindows(ctx, j.kind)
	if err != nil {
		j.log.Error("window sweep failed", slog.String("error", err.Error()))
		return
	}
	j.log.Info("window sweep done", slog.Int("reset", n), slog.Duration("took", time.Since(start)))
}

// RecomputeJob re-ranks every field. Ranks are kept current on every delta;
// this only repairs drift left by manual database edits.
type RecomputeJob struct {
	svc maintainer
	log *slog.Logger
}

func NewRecomputeJob(log *slog.Logger, svc maintainer) *RecomputeJob {
	return &RecomputeJob{svc: svc, log: log.With("job", "recompute")}
}

func (j *RecomputeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	changed, err := j.svc.RecomputeAll(ctx)
	if err != nil {
		j.log.Error("recompute failed", slog.String("error", err.Error()))
		return
	}

	total := 0
	for _, n := range changed {
		total += n
	}
	j.log.Info("recompute done", slog.Int("ranks_changed", total))
}
