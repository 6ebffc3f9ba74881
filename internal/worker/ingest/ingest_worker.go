// Package ingest schedules the daily timetable builds: at the configured
// wall-clock time each network's date window is rebuilt and stale history
// purged.
package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/triple-t/railbot/internal/config"
	"github.com/triple-t/railbot/internal/domain"
	"github.com/triple-t/railbot/internal/usecase"
	"github.com/triple-t/railbot/internal/worker"
	"go.uber.org/zap"
)

type Worker struct {
	*worker.BaseWorker
	ingest *usecase.IngestUseCase
	cfg    config.IngestConfig
}

func NewWorker(cfg config.IngestConfig, ingest *usecase.IngestUseCase, logger *zap.Logger) *Worker {
	return &Worker{
		BaseWorker: worker.NewBaseWorker("ingest", logger),
		ingest:     ingest,
		cfg:        cfg,
	}
}

// Start ticks once a minute and fires the daily cycle when the wall clock
// matches the configured run time. The cycle also runs at startup when
// configured, which covers deployments onto an empty database.
func (w *Worker) Start(ctx context.Context) error {
	if w.cfg.RunOnStartup {
		w.runCycle(ctx)
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	var lastRun time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.StopChan():
			return nil
		case now := <-ticker.C:
			if now.Format("15:04") != w.cfg.RunAt {
				continue
			}
			// One run per day even if ticks drift within the minute.
			if sameDay(now, lastRun) {
				continue
			}
			lastRun = now
			w.runCycle(ctx)
		}
	}
}

func (w *Worker) runCycle(ctx context.Context) {
	runID := uuid.NewString()
	log := w.Logger().With(zap.String("run_id", runID))
	log.Info("Ingest cycle started")
	start := time.Now()

	windows := []struct {
		mode domain.Mode
		days int
	}{
		{domain.ModeTRA, w.cfg.TRAWindowDays},
		{domain.ModeTHSR, w.cfg.THSRWindowDays},
	}

	for _, win := range windows {
		if ctx.Err() != nil {
			log.Warn("Ingest cycle aborted", zap.Error(ctx.Err()))
			return
		}
		w.ingest.BuildWindow(ctx, win.mode, win.days)
		if err := w.ingest.PurgeHistory(ctx, win.mode); err != nil {
			log.Error("History purge failed",
				zap.String("mode", win.mode.String()),
				zap.Error(err))
		}
	}

	log.Info("Ingest cycle finished", zap.Duration("duration", time.Since(start)))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
