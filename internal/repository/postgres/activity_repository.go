package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/triple-t/railbot/internal/domain/repository"
	apperrors "github.com/triple-t/railbot/internal/pkg/errors"
	"go.uber.org/zap"
)

type activityRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewActivityRepository(db *DB) repository.ActivityRepository {
	return &activityRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *activityRepository) RecordFollow(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_activity (user_id, following, follow_time)
		 VALUES ($1, TRUE, NOW())`,
		userID)
	if err != nil {
		r.logger.Error("Failed to record follow",
			zap.String("user_id", userID),
			zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}

// RecordUnfollow closes the latest open follow row. A missing row is not an
// error: the follow may predate the activity log.
func (r *activityRepository) RecordUnfollow(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_activity
		 SET following = FALSE, unfollow_time = NOW()
		 WHERE id = (
			SELECT id FROM user_activity
			WHERE user_id = $1 AND following
			ORDER BY follow_time DESC LIMIT 1
		 )`,
		userID)
	if err != nil {
		r.logger.Error("Failed to record unfollow",
			zap.String("user_id", userID),
			zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}

func (r *activityRepository) RecordJoin(ctx context.Context, groupID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO group_activity (group_id, joining, join_time)
		 VALUES ($1, TRUE, NOW())`,
		groupID)
	if err != nil {
		r.logger.Error("Failed to record join",
			zap.String("group_id", groupID),
			zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}

func (r *activityRepository) RecordLeave(ctx context.Context, groupID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE group_activity
		 SET joining = FALSE, leave_time = NOW()
		 WHERE id = (
			SELECT id FROM group_activity
			WHERE group_id = $1 AND joining
			ORDER BY join_time DESC LIMIT 1
		 )`,
		groupID)
	if err != nil {
		r.logger.Error("Failed to record leave",
			zap.String("group_id", groupID),
			zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}
