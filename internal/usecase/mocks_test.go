package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/triple-t/railbot/internal/domain"
	"github.com/triple-t/railbot/internal/domain/repository"
)

// MockTimetableRepository is a mock of TimetableRepository
type MockTimetableRepository struct {
	mock.Mock
}

func (m *MockTimetableRepository) FindTrain(ctx context.Context, mode domain.Mode, trainNo string) (*domain.Train, error) {
	args := m.Called(ctx, mode, trainNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Train), args.Error(1)
}

func (m *MockTimetableRepository) SaveTimetables(ctx context.Context, mode domain.Mode, day time.Time, tables []*domain.Timetable) error {
	args := m.Called(ctx, mode, day, tables)
	return args.Error(0)
}

func (m *MockTimetableRepository) DeleteTimetablesByDate(ctx context.Context, mode domain.Mode, day time.Time) error {
	args := m.Called(ctx, mode, day)
	return args.Error(0)
}

func (m *MockTimetableRepository) CountTimetablesByDate(ctx context.Context, mode domain.Mode, day time.Time) (int, error) {
	args := m.Called(ctx, mode, day)
	return args.Int(0), args.Error(1)
}

func (m *MockTimetableRepository) FindCandidates(ctx context.Context, mode domain.Mode, q repository.CandidateQuery) ([]*domain.Timetable, error) {
	args := m.Called(ctx, mode, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Timetable), args.Error(1)
}

// MockLedgerRepository is a mock of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Check(ctx context.Context, mode domain.Mode, day time.Time) (*domain.BuildStatusOnDate, error) {
	args := m.Called(ctx, mode, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BuildStatusOnDate), args.Error(1)
}

func (m *MockLedgerRepository) Update(ctx context.Context, mode domain.Mode, day time.Time, status domain.BuildStatus) error {
	args := m.Called(ctx, mode, day, status)
	return args.Error(0)
}

func (m *MockLedgerRepository) ListBefore(ctx context.Context, mode domain.Mode, cutoff time.Time) ([]*domain.BuildStatusOnDate, error) {
	args := m.Called(ctx, mode, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BuildStatusOnDate), args.Error(1)
}

func (m *MockLedgerRepository) DeleteBefore(ctx context.Context, mode domain.Mode, cutoff time.Time) error {
	args := m.Called(ctx, mode, cutoff)
	return args.Error(0)
}

// MockScheduleFeed is a mock of ScheduleFeed
type MockScheduleFeed struct {
	mock.Mock
}

func (m *MockScheduleFeed) FetchDailyTimetables(ctx context.Context, mode domain.Mode, day time.Time) ([]domain.RawTimetable, error) {
	args := m.Called(ctx, mode, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawTimetable), args.Error(1)
}

// MockStateRepository is a mock of StateRepository
type MockStateRepository struct {
	mock.Mock
}

func (m *MockStateRepository) FindActive(ctx context.Context, mode domain.Mode, userID string, groupID *string) ([]*domain.QuestionState, error) {
	args := m.Called(ctx, mode, userID, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QuestionState), args.Error(1)
}

func (m *MockStateRepository) Create(ctx context.Context, st *domain.QuestionState) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

func (m *MockStateRepository) Save(ctx context.Context, st *domain.QuestionState) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

func (m *MockStateRepository) ExpireAll(ctx context.Context, mode domain.Mode, userID string, groupID *string) error {
	args := m.Called(ctx, mode, userID, groupID)
	return args.Error(0)
}

// MockActivityRepository is a mock of ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) RecordFollow(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockActivityRepository) RecordUnfollow(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockActivityRepository) RecordJoin(ctx context.Context, groupID string) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *MockActivityRepository) RecordLeave(ctx context.Context, groupID string) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}
