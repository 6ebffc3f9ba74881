package errors

var (
	ErrTrainNotFound = New(
		"TRAIN_NOT_FOUND",
		"Train not found",
	)

	ErrUnknownTrainType = New(
		"UNKNOWN_TRAIN_TYPE",
		"Train type code cannot be resolved",
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
	)

	ErrReplyFailed = New(
		"REPLY_FAILED",
		"Outbound reply delivery failed",
	)
)
