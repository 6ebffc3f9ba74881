package repository

import (
	"context"
	"time"

	"github.com/triple-t/railbot/internal/domain"
)

// CandidateQuery bounds the matcher's coarse search: timetables on Day that
// stop at Origin with a departure inside (After, Before) and at Destination
// with an arrival after After. Fine selection happens in the use case.
type CandidateQuery struct {
	Day         time.Time
	Origin      string
	Destination string
	After       time.Time
	Before      time.Time
}

// TimetableRepository is the timetable store. SaveTimetables persists a full
// day's rebuild as one unit: find-or-create every train by number, then
// insert the timetables with their stop entries, all in one transaction.
type TimetableRepository interface {
	FindTrain(ctx context.Context, mode domain.Mode, trainNo string) (*domain.Train, error)
	SaveTimetables(ctx context.Context, mode domain.Mode, day time.Time, tables []*domain.Timetable) error
	DeleteTimetablesByDate(ctx context.Context, mode domain.Mode, day time.Time) error
	CountTimetablesByDate(ctx context.Context, mode domain.Mode, day time.Time) (int, error)
	FindCandidates(ctx context.Context, mode domain.Mode, q CandidateQuery) ([]*domain.Timetable, error)
}

// LedgerRepository tracks per-date build status. Check lazily creates a
// StatusNotBuilt row when none exists; Update upserts the status and
// refreshes the update date.
type LedgerRepository interface {
	Check(ctx context.Context, mode domain.Mode, day time.Time) (*domain.BuildStatusOnDate, error)
	Update(ctx context.Context, mode domain.Mode, day time.Time, status domain.BuildStatus) error
	ListBefore(ctx context.Context, mode domain.Mode, cutoff time.Time) ([]*domain.BuildStatusOnDate, error)
	DeleteBefore(ctx context.Context, mode domain.Mode, cutoff time.Time) error
}
