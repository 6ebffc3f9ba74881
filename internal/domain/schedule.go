package domain

import "fmt"

// RawTimetable is one train's daily schedule as delivered by the upstream
// transit-data feed, before any date resolution.
type RawTimetable struct {
	TrainNo       string    `json:"TrainNo"`
	TrainTypeCode string    `json:"TrainTypeCode,omitempty"`
	StopTimes     []RawStop `json:"StopTimes"`
}

// RawStop carries clock times only; the normalizer resolves the calendar
// dates. ArrivalTime may be empty, in which case it defaults to the
// departure time.
type RawStop struct {
	StationID     string `json:"StationID"`
	ArrivalTime   string `json:"ArrivalTime"`
	DepartureTime string `json:"DepartureTime"`
}

// SourceError is a structured rejection from the upstream feed (bad key,
// date out of range, quota). Distinct from transport-level failures.
type SourceError struct {
	Message string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("feed rejected request: %s", e.Message)
}

// TransientError wraps a network or transport failure talking to the
// upstream feed. The date is simply retried on the next scheduled cycle.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("feed unavailable: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}
