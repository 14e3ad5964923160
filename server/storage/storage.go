package storage

import (
	"context"
)

// Storage connects the schedule service with a backend store (e.g. database).
// Implementations should return *Error values with the ErrorType constants
// of this package.
type Storage interface {
	// GetSchedule finds a schedule by id regardless of owner.
	GetSchedule(ctx context.Context, id int64) (*Schedule, error)
	// ListSchedulesByOwner returns every schedule owned by ownerEmail.
	ListSchedulesByOwner(ctx context.Context, ownerEmail string) ([]Schedule, error)
	// ListSchedulesByIDs returns the schedules among ids owned by ownerEmail.
	// Unknown ids are skipped.
	ListSchedulesByIDs(ctx context.Context, ownerEmail string, ids []int64) ([]Schedule, error)
	// SearchSchedules returns the owner's schedules whose text or pet name
	// contains keyword, ordered by schedule time.
	SearchSchedules(ctx context.Context, ownerEmail, keyword string) ([]Schedule, error)
	// CreateSchedule stores a new schedule and sets its ID.
	CreateSchedule(ctx context.Context, s *Schedule) error
	// UpdateSchedule replaces an existing schedule.
	UpdateSchedule(ctx context.Context, s *Schedule) error
	// DeleteSchedule removes a schedule by id.
	DeleteSchedule(ctx context.Context, id int64) error
	// DeleteSchedulesByOwner removes every schedule of an owner and returns
	// how many were removed.
	DeleteSchedulesByOwner(ctx context.Context, ownerEmail string) (int, error)

	// GetPet finds a pet by id.
	GetPet(ctx context.Context, id int64) (*Pet, error)
	// CreatePet stores a new pet and sets its ID.
	CreatePet(ctx context.Context, p *Pet) error
}
