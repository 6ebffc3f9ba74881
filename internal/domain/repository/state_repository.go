package repository

import (
	"context"

	"github.com/triple-t/railbot/internal/domain"
)

// StateRepository stores conversation question states. FindActive returns
// every non-expired state for the (user, group) pair; staleness filtering
// is the caller's concern.
type StateRepository interface {
	FindActive(ctx context.Context, mode domain.Mode, userID string, groupID *string) ([]*domain.QuestionState, error)
	Create(ctx context.Context, st *domain.QuestionState) error
	Save(ctx context.Context, st *domain.QuestionState) error
	ExpireAll(ctx context.Context, mode domain.Mode, userID string, groupID *string) error
}

// ActivityRepository records follow/unfollow and join/leave events as an
// append-only log.
type ActivityRepository interface {
	RecordFollow(ctx context.Context, userID string) error
	RecordUnfollow(ctx context.Context, userID string) error
	RecordJoin(ctx context.Context, groupID string) error
	RecordLeave(ctx context.Context, groupID string) error
}
