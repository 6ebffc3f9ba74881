package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/triple-t/railbot/internal/domain"
	"github.com/triple-t/railbot/internal/domain/repository"
	apperrors "github.com/triple-t/railbot/internal/pkg/errors"
	"go.uber.org/zap"
)

type ledgerRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewLedgerRepository(db *DB) repository.LedgerRepository {
	return &ledgerRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

// Check returns the ledger row for the date, creating a StatusNotBuilt row
// when none exists yet.
func (r *ledgerRepository) Check(ctx context.Context, mode domain.Mode, day time.Time) (*domain.BuildStatusOnDate, error) {
	var st domain.BuildStatusOnDate
	err := r.db.GetContext(ctx, &st,
		`SELECT id, mode, assigned_date, update_date, status
		 FROM build_status WHERE mode = $1 AND assigned_date = $2`,
		mode, day)
	if err == nil {
		return &st, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.logger.Error("Failed to read build status",
			zap.String("mode", mode.String()),
			zap.Time("date", day),
			zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}

	err = r.db.GetContext(ctx, &st,
		`INSERT INTO build_status (mode, assigned_date, update_date, status)
		 VALUES ($1, $2, NOW(), $3)
		 ON CONFLICT (mode, assigned_date) DO UPDATE SET mode = EXCLUDED.mode
		 RETURNING id, mode, assigned_date, update_date, status`,
		mode, day, domain.StatusNotBuilt)
	if err != nil {
		r.logger.Error("Failed to create build status",
			zap.String("mode", mode.String()),
			zap.Time("date", day),
			zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}
	return &st, nil
}

func (r *ledgerRepository) Update(ctx context.Context, mode domain.Mode, day time.Time, status domain.BuildStatus) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO build_status (mode, assigned_date, update_date, status)
		 VALUES ($1, $2, NOW(), $3)
		 ON CONFLICT (mode, assigned_date)
		 DO UPDATE SET status = EXCLUDED.status, update_date = NOW()`,
		mode, day, status)
	if err != nil {
		r.logger.Error("Failed to update build status",
			zap.String("mode", mode.String()),
			zap.Time("date", day),
			zap.String("status", status.String()),
			zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}

func (r *ledgerRepository) ListBefore(ctx context.Context, mode domain.Mode, cutoff time.Time) ([]*domain.BuildStatusOnDate, error) {
	var sts []*domain.BuildStatusOnDate
	err := r.db.SelectContext(ctx, &sts,
		`SELECT id, mode, assigned_date, update_date, status
		 FROM build_status
		 WHERE mode = $1 AND assigned_date < $2
		 ORDER BY assigned_date ASC`,
		mode, cutoff)
	if err != nil {
		r.logger.Error("Failed to list build statuses", zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}
	return sts, nil
}

func (r *ledgerRepository) DeleteBefore(ctx context.Context, mode domain.Mode, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM build_status WHERE mode = $1 AND assigned_date < $2`,
		mode, cutoff)
	if err != nil {
		r.logger.Error("Failed to delete build statuses", zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}
