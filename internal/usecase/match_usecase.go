package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/triple-t/railbot/internal/domain"
	"github.com/triple-t/railbot/internal/domain/repository"
	"go.uber.org/zap"
)

// searchWindow bounds how far past the requested departure the matcher
// looks for origin departures. Keeps result sets small and avoids scanning
// an entire day for distant connections.
const searchWindow = 5 * time.Hour

// earlyMorningCutoff: departures before this hour are usually still filed
// under the previous day's timetable upstream.
const earlyMorningCutoff = 3

// MatchUseCase searches the stored timetables for trains connecting two
// stations after a given departure time.
type MatchUseCase struct {
	store  repository.TimetableRepository
	logger *zap.Logger
}

func NewMatchUseCase(store repository.TimetableRepository, logger *zap.Logger) *MatchUseCase {
	return &MatchUseCase{store: store, logger: logger}
}

// ScheduleDay resolves which day's timetables to search for the requested
// departure time.
func ScheduleDay(departure time.Time) time.Time {
	day := truncateToDay(departure)
	if departure.Hour() < earlyMorningCutoff {
		return day.AddDate(0, 0, -1)
	}
	return day
}

// Find returns candidate connections ordered by origin departure time
// ascending. An empty slice is a valid no-suitable-service answer.
func (u *MatchUseCase) Find(ctx context.Context, mode domain.Mode, origin, destination string, departure time.Time) ([]domain.Connection, error) {
	q := repository.CandidateQuery{
		Day:         ScheduleDay(departure),
		Origin:      origin,
		Destination: destination,
		After:       departure,
		Before:      departure.Add(searchWindow),
	}

	candidates, err := u.store.FindCandidates(ctx, mode, q)
	if err != nil {
		return nil, fmt.Errorf("find candidate timetables: %w", err)
	}

	conns := make([]domain.Connection, 0, len(candidates))
	for _, tt := range candidates {
		origStop := earliestOrigin(tt, q)
		if origStop == nil {
			continue
		}
		destStop := earliestDestinationAfter(tt, destination, origStop.DepartureTime)
		if destStop == nil {
			// The destination occurs only before the train reaches the
			// origin (branch/loop lines repeat station names).
			continue
		}
		conns = append(conns, domain.Connection{
			Timetable:   tt,
			Origin:      origStop,
			Destination: destStop,
		})
	}

	sort.SliceStable(conns, func(i, j int) bool {
		return conns[i].Origin.DepartureTime.Before(conns[j].Origin.DepartureTime)
	})

	u.logger.Debug("Matched connections",
		zap.String("mode", mode.String()),
		zap.String("origin", origin),
		zap.String("destination", destination),
		zap.Int("count", len(conns)))

	return conns, nil
}

// earliestOrigin picks the earliest qualifying origin stop by departure
// time. Entries come ordered by arrival time, which is the stable
// tie-break order.
func earliestOrigin(tt *domain.Timetable, q repository.CandidateQuery) *domain.StopEntry {
	var best *domain.StopEntry
	for i := range tt.Entries {
		e := &tt.Entries[i]
		if e.StationName != q.Origin {
			continue
		}
		if !e.DepartureTime.After(q.After) || !e.DepartureTime.Before(q.Before) {
			continue
		}
		if best == nil || e.DepartureTime.Before(best.DepartureTime) {
			best = e
		}
	}
	return best
}

// earliestDestinationAfter picks the earliest destination stop whose
// arrival is strictly after the chosen origin departure.
func earliestDestinationAfter(tt *domain.Timetable, destination string, after time.Time) *domain.StopEntry {
	var best *domain.StopEntry
	for i := range tt.Entries {
		e := &tt.Entries[i]
		if e.StationName != destination {
			continue
		}
		if !e.ArrivalTime.After(after) {
			continue
		}
		if best == nil || e.ArrivalTime.Before(best.ArrivalTime) {
			best = e
		}
	}
	return best
}
