package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/triple-t/railbot/internal/domain"
	"github.com/triple-t/railbot/internal/domain/repository"
	apperrors "github.com/triple-t/railbot/internal/pkg/errors"
	"go.uber.org/zap"
)

type timetableRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewTimetableRepository(db *DB) repository.TimetableRepository {
	return &timetableRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

func (r *timetableRepository) FindTrain(ctx context.Context, mode domain.Mode, trainNo string) (*domain.Train, error) {
	var t domain.Train
	err := r.db.GetContext(ctx, &t,
		`SELECT id, mode, train_no, train_type FROM train WHERE mode = $1 AND train_no = $2`,
		mode, trainNo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrTrainNotFound
	}
	if err != nil {
		r.logger.Error("Failed to find train",
			zap.String("mode", mode.String()),
			zap.String("train_no", trainNo),
			zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}
	return &t, nil
}

// SaveTimetables commits a full day's rebuild in one transaction: trains
// are found or created by number, then the timetables and their stop
// entries are inserted.
func (r *timetableRepository) SaveTimetables(ctx context.Context, mode domain.Mode, day time.Time, tables []*domain.Timetable) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	defer tx.Rollback()

	trainIDs, err := r.resolveTrainIDs(ctx, tx, mode, tables)
	if err != nil {
		return err
	}

	for _, table := range tables {
		var timetableID int64
		err := tx.QueryRowxContext(ctx,
			`INSERT INTO train_timetable (train_id, date) VALUES ($1, $2) RETURNING id`,
			trainIDs[table.Train.TrainNo], day).Scan(&timetableID)
		if err != nil {
			r.logger.Error("Failed to insert timetable",
				zap.String("train_no", table.Train.TrainNo),
				zap.Error(err))
			return apperrors.ErrDatabaseError
		}
		for _, e := range table.Entries {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO stop_entry (timetable_id, station_name, arrival_time, departure_time)
				 VALUES ($1, $2, $3, $4)`,
				timetableID, e.StationName, e.ArrivalTime, e.DepartureTime)
			if err != nil {
				r.logger.Error("Failed to insert stop entry",
					zap.String("train_no", table.Train.TrainNo),
					zap.String("station", e.StationName),
					zap.Error(err))
				return apperrors.ErrDatabaseError
			}
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit timetables", zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}

// resolveTrainIDs prefetches existing trains for the batch and creates the
// missing ones, returning train_no → id.
func (r *timetableRepository) resolveTrainIDs(ctx context.Context, tx *sqlx.Tx, mode domain.Mode, tables []*domain.Timetable) (map[string]int64, error) {
	trainNos := make([]string, 0, len(tables))
	for _, t := range tables {
		trainNos = append(trainNos, t.Train.TrainNo)
	}

	ids := make(map[string]int64, len(trainNos))
	rows, err := tx.QueryxContext(ctx,
		`SELECT id, train_no FROM train WHERE mode = $1 AND train_no = ANY($2)`,
		mode, pq.Array(trainNos))
	if err != nil {
		r.logger.Error("Failed to prefetch trains", zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var no string
		if err := rows.Scan(&id, &no); err != nil {
			r.logger.Error("Failed to scan train row", zap.Error(err))
			return nil, apperrors.ErrDatabaseError
		}
		ids[no] = id
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.ErrDatabaseError
	}

	for _, t := range tables {
		if _, ok := ids[t.Train.TrainNo]; ok {
			continue
		}
		var id int64
		err := tx.QueryRowxContext(ctx,
			`INSERT INTO train (mode, train_no, train_type) VALUES ($1, $2, $3) RETURNING id`,
			mode, t.Train.TrainNo, t.Train.TrainType).Scan(&id)
		if err != nil {
			r.logger.Error("Failed to create train",
				zap.String("train_no", t.Train.TrainNo),
				zap.Error(err))
			return nil, apperrors.ErrDatabaseError
		}
		ids[t.Train.TrainNo] = id
	}
	return ids, nil
}

func (r *timetableRepository) DeleteTimetablesByDate(ctx context.Context, mode domain.Mode, day time.Time) error {
	// Stop entries go with their timetables via ON DELETE CASCADE.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM train_timetable t
		 USING train tr
		 WHERE t.train_id = tr.id AND tr.mode = $1 AND t.date = $2`,
		mode, day)
	if err != nil {
		r.logger.Error("Failed to delete timetables",
			zap.String("mode", mode.String()),
			zap.Time("date", day),
			zap.Error(err))
		return apperrors.ErrDatabaseError
	}
	return nil
}

func (r *timetableRepository) CountTimetablesByDate(ctx context.Context, mode domain.Mode, day time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM train_timetable t
		 JOIN train tr ON tr.id = t.train_id
		 WHERE tr.mode = $1 AND t.date = $2`,
		mode, day)
	if err != nil {
		r.logger.Error("Failed to count timetables", zap.Error(err))
		return 0, apperrors.ErrDatabaseError
	}
	return count, nil
}

// FindCandidates does the coarse filter in SQL: timetables on the schedule
// day that stop at the origin inside the window and at the destination
// after the requested time. The fine per-timetable stop selection stays in
// the use case.
func (r *timetableRepository) FindCandidates(ctx context.Context, mode domain.Mode, q repository.CandidateQuery) ([]*domain.Timetable, error) {
	type row struct {
		ID        int64     `db:"id"`
		TrainID   int64     `db:"train_id"`
		Date      time.Time `db:"date"`
		TrainNo   string    `db:"train_no"`
		TrainType string    `db:"train_type"`
	}
	var rows []row
	err := r.db.SelectContext(ctx, &rows,
		`SELECT t.id, t.train_id, t.date, tr.train_no, tr.train_type
		 FROM train_timetable t
		 JOIN train tr ON tr.id = t.train_id
		 WHERE tr.mode = $1 AND t.date = $2
		   AND EXISTS (
			SELECT 1 FROM stop_entry e
			WHERE e.timetable_id = t.id AND e.station_name = $3
			  AND e.departure_time > $4 AND e.departure_time < $5
		   )
		   AND EXISTS (
			SELECT 1 FROM stop_entry e
			WHERE e.timetable_id = t.id AND e.station_name = $6
			  AND e.arrival_time > $4
		   )`,
		mode, q.Day, q.Origin, q.After, q.Before, q.Destination)
	if err != nil {
		r.logger.Error("Failed to query candidate timetables", zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}
	if len(rows) == 0 {
		return nil, nil
	}

	tables := make([]*domain.Timetable, 0, len(rows))
	byID := make(map[int64]*domain.Timetable, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, rw := range rows {
		tt := &domain.Timetable{
			ID:      rw.ID,
			TrainID: rw.TrainID,
			Date:    rw.Date,
			Train: &domain.Train{
				ID:        rw.TrainID,
				Mode:      mode,
				TrainNo:   rw.TrainNo,
				TrainType: rw.TrainType,
			},
		}
		tables = append(tables, tt)
		byID[rw.ID] = tt
		ids = append(ids, rw.ID)
	}

	var entries []domain.StopEntry
	err = r.db.SelectContext(ctx, &entries,
		`SELECT id, timetable_id, station_name, arrival_time, departure_time
		 FROM stop_entry
		 WHERE timetable_id = ANY($1)
		 ORDER BY arrival_time ASC`,
		pq.Array(ids))
	if err != nil {
		r.logger.Error("Failed to load candidate stop entries", zap.Error(err))
		return nil, apperrors.ErrDatabaseError
	}
	for _, e := range entries {
		tt := byID[e.TimetableID]
		tt.Entries = append(tt.Entries, e)
	}
	return tables, nil
}
