package domain

// BuildOutcome is the closed result type of one date's ingestion.
type BuildOutcome int

const (
	BuildOK BuildOutcome = iota
	BuildEmpty
	BuildTransient
	BuildSourceRejected
	BuildAlreadyBuilding
	BuildUnknown
)

func (o BuildOutcome) String() string {
	switch o {
	case BuildOK:
		return "ok"
	case BuildEmpty:
		return "empty"
	case BuildTransient:
		return "transient"
	case BuildSourceRejected:
		return "source_rejected"
	case BuildAlreadyBuilding:
		return "already_building"
	case BuildUnknown:
		return "unknown"
	}
	return "invalid"
}

// BuildResult carries the outcome of one BuildDate call. Message is set for
// source rejections and unrecognized errors.
type BuildResult struct {
	Outcome BuildOutcome
	Message string
}

func OKResult() BuildResult {
	return BuildResult{Outcome: BuildOK}
}

func EmptyResult() BuildResult {
	return BuildResult{Outcome: BuildEmpty}
}

func TransientResult(err error) BuildResult {
	return BuildResult{Outcome: BuildTransient, Message: err.Error()}
}

func SourceRejectedResult(msg string) BuildResult {
	return BuildResult{Outcome: BuildSourceRejected, Message: msg}
}

func AlreadyBuildingResult() BuildResult {
	return BuildResult{Outcome: BuildAlreadyBuilding}
}

func UnknownResult(err error) BuildResult {
	return BuildResult{Outcome: BuildUnknown, Message: err.Error()}
}
