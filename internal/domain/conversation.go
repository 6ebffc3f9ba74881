package domain

import "time"

// StateTTL - a question state older than this since its last update is
// treated as absent even when not explicitly expired.
const StateTTL = time.Hour

// QuestionStage is where a conversation currently stands. The stage is
// derived from which slots are filled, not stored separately.
type QuestionStage int

const (
	StageAwaitingOrigin QuestionStage = iota
	StageAwaitingDestination
	StageAwaitingTime
	StageComplete
)

func (s QuestionStage) String() string {
	switch s {
	case StageAwaitingOrigin:
		return "awaiting_origin"
	case StageAwaitingDestination:
		return "awaiting_destination"
	case StageAwaitingTime:
		return "awaiting_time"
	case StageComplete:
		return "complete"
	}
	return "unknown"
}

// QuestionState is one active conversation turn for a (user, group) pair.
// At most one non-expired state may exist per (user, group, mode); the
// conversation layer expires all prior states before creating a new one.
type QuestionState struct {
	ID                 int64      `db:"id"`
	Mode               Mode       `db:"mode"`
	UserID             string     `db:"user_id"`
	GroupID            *string    `db:"group_id"`
	DepartureStation   string     `db:"departure_station"`
	DestinationStation string     `db:"destination_station"`
	DepartureTime      *time.Time `db:"departure_time"`
	Expired            bool       `db:"expired"`
	Update             time.Time  `db:"update_time"`
}

func (q *QuestionState) Stage() QuestionStage {
	switch {
	case q.DepartureStation == "":
		return StageAwaitingOrigin
	case q.DestinationStation == "":
		return StageAwaitingDestination
	case q.DepartureTime == nil:
		return StageAwaitingTime
	}
	return StageComplete
}

// Stale reports whether the state has gone unanswered for longer than
// StateTTL. Stale states block nothing and match nothing.
func (q *QuestionState) Stale(now time.Time) bool {
	return now.Sub(q.Update) > StateTTL
}
