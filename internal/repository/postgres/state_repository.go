package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/triple-t/railbot/internal/domain"
	"github.com/triple-t/railbot/internal/domain/repository"
	apperrors "github.com/triple-t/railbot/internal/pkg/errors"
	"go.uber.org/zap"
)

type stateRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewStateRepository(db *DB) repository.StateRepository {
	return &stateRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

// group_id is nullable; IS NOT DISTINCT FROM matches NULL against NULL so
// direct chats and group chats use the same query.
func (r *stateRepository) FindActive(ctx context.Context, mode domain.Mode, userID string, groupID *string) ([]*domain.QuestionState, error) {
	var sts []*domain.QuestionState
	err := r.db.SelectContext(ctx, &sts,
		`SELECT id, mode, user_id, group_id, departure_station, destination_station,
		        departure_time, expired, update_time
		 FROM question_state
		 WHERE mode = $1 AND user_id = $2 AND group_id IS NOT DISTINCT FROM $3
		   AND NOT expired
		 ORDER BY update_time DESC`,
		mode, userID, groupID)
	if err != nil {
		r.logger.Error("Failed to find question states",
			zap.String("mode", mode.String()),
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}
	return sts, nil
}

func (r *stateRepository) Create(ctx context.Context, st *domain.QuestionState) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO question_state
		 (mode, user_id, group_id, departure_station, destination_station,
		  departure_time, expired, update_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		st.Mode, st.UserID, st.GroupID, st.DepartureStation, st.DestinationStation,
		st.DepartureTime, st.Expired, st.Update).Scan(&st.ID)
	if err != nil {
		r.logger.Error("Failed to create question state",
			zap.String("mode", st.Mode.String()),
			zap.String("user_id", st.UserID),
			zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}

func (r *stateRepository) Save(ctx context.Context, st *domain.QuestionState) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE question_state
		 SET departure_station = $1, destination_station = $2, departure_time = $3,
		     expired = $4, update_time = $5
		 WHERE id = $6`,
		st.DepartureStation, st.DestinationStation, st.DepartureTime,
		st.Expired, st.Update, st.ID)
	if err != nil {
		r.logger.Error("Failed to save question state",
			zap.Int64("id", st.ID),
			zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}

func (r *stateRepository) ExpireAll(ctx context.Context, mode domain.Mode, userID string, groupID *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE question_state SET expired = TRUE
		 WHERE mode = $1 AND user_id = $2 AND group_id IS NOT DISTINCT FROM $3
		   AND NOT expired`,
		mode, userID, groupID)
	if err != nil {
		r.logger.Error("Failed to expire question states",
			zap.String("mode", mode.String()),
			zap.String("user_id", userID),
			zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}
