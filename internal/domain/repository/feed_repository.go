package repository

import (
	"context"
	"time"

	"github.com/triple-t/railbot/internal/domain"
)

// ScheduleFeed is the upstream transit-data source. One call returns every
// train's daily schedule for the date. Failures are typed:
// *domain.TransientError for transport problems, *domain.SourceError for a
// structured rejection; an empty slice is a valid zero-train answer.
type ScheduleFeed interface {
	FetchDailyTimetables(ctx context.Context, mode domain.Mode, day time.Time) ([]domain.RawTimetable, error)
}
