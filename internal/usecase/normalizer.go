package usecase

import (
	"fmt"
	"time"

	"github.com/triple-t/railbot/internal/domain"
	apperrors "github.com/triple-t/railbot/internal/pkg/errors"
	"go.uber.org/zap"
)

// Normalizer converts one raw daily schedule into a timetable with fully
// resolved timestamps. Stops with unmappable station codes are dropped; an
// unresolvable train type is fatal for that train only.
type Normalizer struct {
	logger *zap.Logger
}

func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// clockTime is a raw HH:MM value before date resolution.
type clockTime struct {
	hour   int
	minute int
}

func parseClock(s string) (clockTime, error) {
	var ct clockTime
	// The feed delivers HH:MM; some payloads carry seconds.
	if len(s) >= 5 {
		s = s[:5]
	}
	if _, err := fmt.Sscanf(s, "%d:%d", &ct.hour, &ct.minute); err != nil {
		return ct, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if ct.hour < 0 || ct.hour > 23 || ct.minute < 0 || ct.minute > 59 {
		return ct, fmt.Errorf("invalid clock time %q", s)
	}
	return ct, nil
}

func (c clockTime) before(other clockTime) bool {
	if c.hour != other.hour {
		return c.hour < other.hour
	}
	return c.minute < other.minute
}

func (c clockTime) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.hour, c.minute, 0, 0, day.Location())
}

// ResolveTrainType maps the raw type code for the train, required before a
// train row can exist. Returns ErrUnknownTrainType when the code is not in
// the directory.
func (n *Normalizer) ResolveTrainType(mode domain.Mode, raw domain.RawTimetable) (string, error) {
	if !mode.HasTrainTypes() {
		return "", nil
	}
	name, ok := domain.TrainTypeName(raw.TrainTypeCode)
	if !ok {
		return "", apperrors.ErrUnknownTrainType
	}
	return name, nil
}

// Normalize builds the ordered stop sequence for one train on the given
// schedule day. The cross-midnight heuristic layers three trigger
// conditions, evaluated in this order for every stop:
//
//  1. the flag is already set: both times land on day+1;
//  2. the stop's own departure clock is earlier than its own arrival clock:
//     the schedule wrapped at this stop, arrival stays on day, departure
//     moves to day+1;
//  3. the arrival clock is earlier than the previous stop's departure
//     clock: monotonicity broke, both times move to day+1.
//
// The three conditions fire on different malformed-data shapes seen in the
// upstream feed; none of them subsumes another.
func (n *Normalizer) Normalize(mode domain.Mode, raw domain.RawTimetable, day time.Time) ([]domain.StopEntry, error) {
	day = truncateToDay(day)
	nextDay := day.AddDate(0, 0, 1)

	entries := make([]domain.StopEntry, 0, len(raw.StopTimes))
	crossDay := false
	var prevDeparture *clockTime

	for _, stop := range raw.StopTimes {
		stationName, ok := domain.StationName(mode, stop.StationID)
		if !ok {
			n.logger.Warn("Dropping stop with unknown station code",
				zap.String("mode", mode.String()),
				zap.String("train_no", raw.TrainNo),
				zap.String("station_code", stop.StationID))
			continue
		}

		arrivalRaw := stop.ArrivalTime
		if arrivalRaw == "" {
			arrivalRaw = stop.DepartureTime
		}
		arrival, err := parseClock(arrivalRaw)
		if err != nil {
			return nil, fmt.Errorf("train %s stop %s: %w", raw.TrainNo, stop.StationID, err)
		}
		departure, err := parseClock(stop.DepartureTime)
		if err != nil {
			return nil, fmt.Errorf("train %s stop %s: %w", raw.TrainNo, stop.StationID, err)
		}

		arrivalDay, departureDay := day, day
		switch {
		case crossDay:
			arrivalDay, departureDay = nextDay, nextDay
		case departure.before(arrival):
			crossDay = true
			departureDay = nextDay
		case prevDeparture != nil && arrival.before(*prevDeparture):
			crossDay = true
			arrivalDay, departureDay = nextDay, nextDay
		}

		prev := departure
		prevDeparture = &prev

		entries = append(entries, domain.StopEntry{
			StationName:   stationName,
			ArrivalTime:   arrival.on(arrivalDay),
			DepartureTime: departure.on(departureDay),
		})
	}

	return entries, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
