package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/triple-t/railbot/internal/domain"
	"github.com/triple-t/railbot/internal/domain/repository"
	apperrors "github.com/triple-t/railbot/internal/pkg/errors"
	"go.uber.org/zap"
)

// IngestUseCase rebuilds the timetable store one (mode, date) at a time:
// fetch the whole day from the feed, wipe stale rows, normalize every train
// and commit the result as one unit, recording ledger transitions along the
// way.
type IngestUseCase struct {
	feed       repository.ScheduleFeed
	store      repository.TimetableRepository
	ledger     repository.LedgerRepository
	normalizer *Normalizer
	logger     *zap.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

func NewIngestUseCase(
	feed repository.ScheduleFeed,
	store repository.TimetableRepository,
	ledger repository.LedgerRepository,
	logger *zap.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		feed:       feed,
		store:      store,
		ledger:     ledger,
		normalizer: NewNormalizer(logger),
		logger:     logger,
		inflight:   make(map[string]bool),
	}
}

func ingestKey(mode domain.Mode, day time.Time) string {
	return fmt.Sprintf("%s:%s", mode, day.Format("2006-01-02"))
}

// BuildDate ingests one date. Without force it short-circuits when the
// ledger already says built. A ledger row stuck at building is treated as a
// crash left behind by a previous run and rebuilt. Two concurrent calls for
// the same (mode, date) inside one process yield BuildAlreadyBuilding for
// the loser.
func (u *IngestUseCase) BuildDate(ctx context.Context, mode domain.Mode, day time.Time, force bool) domain.BuildResult {
	day = truncateToDay(day)

	key := ingestKey(mode, day)
	u.mu.Lock()
	if u.inflight[key] {
		u.mu.Unlock()
		return domain.AlreadyBuildingResult()
	}
	u.inflight[key] = true
	u.mu.Unlock()
	defer func() {
		u.mu.Lock()
		delete(u.inflight, key)
		u.mu.Unlock()
	}()

	status, err := u.ledger.Check(ctx, mode, day)
	if err != nil {
		return domain.UnknownResult(err)
	}
	if !force && status.Status == domain.StatusBuilt {
		return domain.OKResult()
	}
	if status.Status == domain.StatusBuilding {
		u.logger.Warn("Previous build did not finish, rebuilding",
			zap.String("mode", mode.String()),
			zap.Time("date", day))
	}

	raw, err := u.feed.FetchDailyTimetables(ctx, mode, day)
	if err != nil {
		var srcErr *domain.SourceError
		if errors.As(err, &srcErr) {
			return domain.SourceRejectedResult(srcErr.Message)
		}
		return domain.TransientResult(err)
	}
	if len(raw) == 0 {
		// A legitimate zero-train answer. Purge whatever the store still
		// holds for the date but never mark it built, so a later retry is
		// not falsely skipped.
		count, err := u.store.CountTimetablesByDate(ctx, mode, day)
		if err != nil {
			return domain.UnknownResult(err)
		}
		if count > 0 {
			if err := u.store.DeleteTimetablesByDate(ctx, mode, day); err != nil {
				return domain.UnknownResult(err)
			}
			if err := u.ledger.Update(ctx, mode, day, domain.StatusRemoved); err != nil {
				return domain.UnknownResult(err)
			}
		}
		return domain.EmptyResult()
	}

	if err := u.rebuild(ctx, mode, day, raw); err != nil {
		// Best-effort cleanup: leave no partially written trains behind.
		if derr := u.store.DeleteTimetablesByDate(ctx, mode, day); derr != nil {
			u.logger.Error("Cleanup after failed build also failed",
				zap.String("mode", mode.String()),
				zap.Time("date", day),
				zap.Error(derr))
		}
		if uerr := u.ledger.Update(ctx, mode, day, domain.StatusRemoved); uerr != nil {
			u.logger.Error("Failed to record removed status after failed build",
				zap.String("mode", mode.String()),
				zap.Time("date", day),
				zap.Error(uerr))
		}
		return domain.UnknownResult(err)
	}

	if err := u.ledger.Update(ctx, mode, day, domain.StatusBuilt); err != nil {
		return domain.UnknownResult(err)
	}
	return domain.OKResult()
}

func (u *IngestUseCase) rebuild(ctx context.Context, mode domain.Mode, day time.Time, raw []domain.RawTimetable) error {
	if err := u.store.DeleteTimetablesByDate(ctx, mode, day); err != nil {
		return fmt.Errorf("wipe stale timetables: %w", err)
	}
	if err := u.ledger.Update(ctx, mode, day, domain.StatusRemoved); err != nil {
		return fmt.Errorf("record removed status: %w", err)
	}
	if err := u.ledger.Update(ctx, mode, day, domain.StatusBuilding); err != nil {
		return fmt.Errorf("record building status: %w", err)
	}

	tables := make([]*domain.Timetable, 0, len(raw))
	for _, rt := range raw {
		trainType, err := u.normalizer.ResolveTrainType(mode, rt)
		if err != nil {
			// The type must be known before a train row can be created.
			// When the train already exists its type is already on record.
			existing, ferr := u.store.FindTrain(ctx, mode, rt.TrainNo)
			if ferr != nil {
				if errors.Is(ferr, apperrors.ErrTrainNotFound) {
					u.logger.Warn("Skipping train with unknown type code",
						zap.String("mode", mode.String()),
						zap.String("train_no", rt.TrainNo),
						zap.String("type_code", rt.TrainTypeCode))
					continue
				}
				return fmt.Errorf("look up train %s: %w", rt.TrainNo, ferr)
			}
			trainType = existing.TrainType
		}

		entries, err := u.normalizer.Normalize(mode, rt, day)
		if err != nil {
			return fmt.Errorf("normalize train %s: %w", rt.TrainNo, err)
		}
		tables = append(tables, &domain.Timetable{
			Date:    day,
			Train:   &domain.Train{Mode: mode, TrainNo: rt.TrainNo, TrainType: trainType},
			Entries: entries,
		})
	}

	if err := u.store.SaveTimetables(ctx, mode, day, tables); err != nil {
		return fmt.Errorf("save timetables: %w", err)
	}
	return nil
}

// BuildWindow rebuilds a sliding window of upcoming dates starting today.
// One date's failure never aborts the batch.
func (u *IngestUseCase) BuildWindow(ctx context.Context, mode domain.Mode, days int) {
	today := truncateToDay(time.Now())
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, i)
		res := u.BuildDate(ctx, mode, day, false)
		switch res.Outcome {
		case domain.BuildOK, domain.BuildEmpty:
			u.logger.Info("Built timetables",
				zap.String("mode", mode.String()),
				zap.Time("date", day),
				zap.String("result", res.Outcome.String()))
		default:
			u.logger.Error("Failed to build timetables",
				zap.String("mode", mode.String()),
				zap.Time("date", day),
				zap.String("result", res.Outcome.String()),
				zap.String("message", res.Message))
		}
	}
}

// PurgeHistory drops timetable and ledger rows for dates strictly before
// yesterday.
func (u *IngestUseCase) PurgeHistory(ctx context.Context, mode domain.Mode) error {
	cutoff := truncateToDay(time.Now()).AddDate(0, 0, -1)
	statuses, err := u.ledger.ListBefore(ctx, mode, cutoff)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}
	for _, st := range statuses {
		if err := u.store.DeleteTimetablesByDate(ctx, mode, st.AssignedDate); err != nil {
			return fmt.Errorf("purge timetables on %s: %w", st.AssignedDate.Format("2006-01-02"), err)
		}
	}
	if err := u.ledger.DeleteBefore(ctx, mode, cutoff); err != nil {
		return fmt.Errorf("purge ledger: %w", err)
	}
	if len(statuses) > 0 {
		u.logger.Info("Purged history",
			zap.String("mode", mode.String()),
			zap.Int("dates", len(statuses)))
	}
	return nil
}
