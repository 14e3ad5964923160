package storage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockStorage implements the Storage interface for testing
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetSchedule(ctx context.Context, id int64) (*Schedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Schedule), args.Error(1)
}

func (m *MockStorage) ListSchedulesByOwner(ctx context.Context, ownerEmail string) ([]Schedule, error) {
	args := m.Called(ctx, ownerEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Schedule), args.Error(1)
}

func (m *MockStorage) ListSchedulesByIDs(ctx context.Context, ownerEmail string, ids []int64) ([]Schedule, error) {
	args := m.Called(ctx, ownerEmail, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Schedule), args.Error(1)
}

func (m *MockStorage) SearchSchedules(ctx context.Context, ownerEmail, keyword string) ([]Schedule, error) {
	args := m.Called(ctx, ownerEmail, keyword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Schedule), args.Error(1)
}

func (m *MockStorage) CreateSchedule(ctx context.Context, s *Schedule) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStorage) UpdateSchedule(ctx context.Context, s *Schedule) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStorage) DeleteSchedule(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) DeleteSchedulesByOwner(ctx context.Context, ownerEmail string) (int, error) {
	args := m.Called(ctx, ownerEmail)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) GetPet(ctx context.Context, id int64) (*Pet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Pet), args.Error(1)
}

func (m *MockStorage) CreatePet(ctx context.Context, p *Pet) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// --- Helper methods for creating test data ---

// NewMockSchedule creates a one-off test schedule owned by owner.
func NewMockSchedule(id int64, owner string, at time.Time) Schedule {
	return Schedule{
		ID:              id,
		OwnerEmail:      owner,
		PetID:           1,
		PetName:         "Coco",
		Text:            "test schedule",
		ScheduleTime:    at,
		ScheduleEndTime: at,
		Type:            ScheduleCustom,
	}
}

// NewMockRepeatSchedule creates a repeating Custom test schedule. The end time
// is left to the caller.
func NewMockRepeatSchedule(id int64, owner string, at time.Time, unit CycleType, cycle, count int, end time.Time) Schedule {
	s := NewMockSchedule(id, owner, at)
	s.HasRepeat = true
	s.CycleType = unit
	s.Cycle = cycle
	s.CycleCount = count
	s.ScheduleEndTime = end
	return s
}

// NewNotFoundError is a shorthand for a storage not-found error.
func NewNotFoundError(msg string) error {
	return &Error{Type: ErrNotFound, Message: msg}
}
