package domain

import "time"

// Train represents one train identified by its number. A train is created
// once and persists across dates; its timetable varies from date to date.
type Train struct {
	ID        int64  `db:"id"`
	Mode      Mode   `db:"mode"`
	TrainNo   string `db:"train_no"`
	TrainType string `db:"train_type"` // empty for THSR
}

// Timetable is one train's schedule for a single calendar date.
// Entries are ordered by arrival time ascending.
type Timetable struct {
	ID      int64     `db:"id"`
	TrainID int64     `db:"train_id"`
	Date    time.Time `db:"date"`

	Train   *Train      `db:"-"`
	Entries []StopEntry `db:"-"`
}

// StopEntry is one stop of a timetable. Arrival and departure are full
// timestamps because a train's stops may span two calendar dates.
type StopEntry struct {
	ID            int64     `db:"id"`
	TimetableID   int64     `db:"timetable_id"`
	StationName   string    `db:"station_name"`
	ArrivalTime   time.Time `db:"arrival_time"`
	DepartureTime time.Time `db:"departure_time"`
}

// Connection is one itinerary match: a timetable together with the chosen
// origin and destination stops.
type Connection struct {
	Timetable   *Timetable
	Origin      *StopEntry
	Destination *StopEntry
}

// BuildStatus is the per-date ingestion ledger state.
type BuildStatus int

const (
	StatusNotBuilt BuildStatus = 0
	StatusBuilding BuildStatus = 1
	StatusBuilt    BuildStatus = 2
	StatusRemoved  BuildStatus = 3
)

func (s BuildStatus) String() string {
	switch s {
	case StatusNotBuilt:
		return "not_built"
	case StatusBuilding:
		return "building"
	case StatusBuilt:
		return "built"
	case StatusRemoved:
		return "removed"
	}
	return "unknown"
}

// BuildStatusOnDate tracks ingestion progress for one (mode, date) pair.
// A row is created lazily with StatusNotBuilt on first check.
type BuildStatusOnDate struct {
	ID           int64       `db:"id"`
	Mode         Mode        `db:"mode"`
	AssignedDate time.Time   `db:"assigned_date"`
	UpdateDate   time.Time   `db:"update_date"`
	Status       BuildStatus `db:"status"`
}
