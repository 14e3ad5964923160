// Package schedule answers schedule queries for a single owner: single
// schedules, the upcoming preview, day views and three-month groupings. It
// also owns the create, update and delete paths so every stored schedule has
// a normalized policy and a computed repeat end.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/meonghae/profile-service/server/recurrence"
	"github.com/meonghae/profile-service/server/storage"
)

var (
	// ErrScheduleNotFound is returned when a schedule does not exist or
	// belongs to someone else.
	ErrScheduleNotFound = errors.New("schedule not found")
	// ErrPetNotFound is returned when a referenced pet does not exist or
	// belongs to someone else.
	ErrPetNotFound = errors.New("pet not found")
	// ErrInvalidRequest is returned for malformed input that is not a repeat
	// policy error.
	ErrInvalidRequest = errors.New("invalid request")
)

// IsValidationError reports whether err was caused by caller input.
func IsValidationError(err error) bool {
	var se *storage.Error
	if errors.As(err, &se) && se.Type == storage.ErrInvalidInput {
		return true
	}
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, recurrence.ErrInvalidCycleType) ||
		errors.Is(err, recurrence.ErrInvalidCycle) ||
		errors.Is(err, recurrence.ErrInvalidCycleCount) ||
		errors.Is(err, recurrence.ErrInvalidScheduleType)
}

// IsNotFound reports whether err means a schedule or pet is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound) || errors.Is(err, ErrPetNotFound)
}

// Request carries the caller-supplied fields of a schedule.
type Request struct {
	PetID  int64
	Text   string
	Policy storage.Policy
}

// Preview is one entry of the upcoming preview.
type Preview struct {
	Schedule storage.Schedule
	At       time.Time
}

// Service is the schedule facade used by the HTTP layer.
type Service struct {
	store  storage.Storage
	engine *recurrence.Engine
	now    func() time.Time
	loc    *time.Location
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the time zone schedules are interpreted in. Defaults to
// UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.loc = loc
	}
}

// NewService creates a schedule service.
func NewService(store storage.Storage, engine *recurrence.Engine, opts ...Option) *Service {
	s := &Service{
		store:  store,
		engine: engine,
		now:    time.Now,
		loc:    time.UTC,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone the service works in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// GetSchedule returns schedule id if it belongs to owner.
func (s *Service) GetSchedule(ctx context.Context, id int64, owner string) (*storage.Schedule, error) {
	sched, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
		}
		return nil, fmt.Errorf("failed to load schedule %d: %w", id, err)
	}
	if sched.OwnerEmail != owner {
		s.logger.Warn("schedule requested by non-owner", "schedule_id", id, "owner", owner)
		return nil, fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
	}
	return sched, nil
}

// GetUpcomingPreview returns the owner's next occurrences, at most
// PreviewSize of them.
func (s *Service) GetUpcomingPreview(ctx context.Context, owner string) ([]Preview, error) {
	schedules, err := s.store.ListSchedulesByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	now := s.now().In(s.loc)
	occ, err := BuildUpcomingPreview(s.engine, schedules, now)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]storage.Schedule, len(schedules))
	for _, sched := range schedules {
		byID[sched.ID] = sched
	}
	previews := make([]Preview, 0, len(occ))
	for _, o := range occ {
		previews = append(previews, Preview{Schedule: byID[o.ScheduleID], At: o.At})
	}
	s.logger.Debug("built upcoming preview", "owner", owner, "schedules", len(schedules), "entries", len(previews))
	return previews, nil
}

// GetDayView returns the owner's schedules among ids, projected onto date.
func (s *Service) GetDayView(ctx context.Context, date time.Time, owner string, ids []int64) ([]storage.Schedule, error) {
	if len(ids) == 0 {
		return []storage.Schedule{}, nil
	}
	schedules, err := s.store.ListSchedulesByIDs(ctx, owner, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
	}
	return BuildSingleDayView(schedules, date.In(s.loc)), nil
}

// GetMonthGrouping groups the owner's occurrences by day for date's month and
// the two months after it.
func (s *Service) GetMonthGrouping(ctx context.Context, date time.Time, owner string) (MonthGrouping, error) {
	schedules, err := s.store.ListSchedulesByOwner(ctx, owner)
	if err != nil {
		return MonthGrouping{}, fmt.Errorf("failed to list schedules: %w", err)
	}
	return BuildMonthGrouping(s.engine, schedules, date.In(s.loc))
}

// SearchSchedules returns the owner's schedules whose text or pet name
// contains keyword.
func (s *Service) SearchSchedules(ctx context.Context, keyword, owner string) ([]storage.Schedule, error) {
	schedules, err := s.store.SearchSchedules(ctx, owner, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to search schedules: %w", err)
	}
	return schedules, nil
}

// CreateSchedule validates req, resolves its repeat policy and stores the
// schedule for owner.
func (s *Service) CreateSchedule(ctx context.Context, req Request, owner string) (*storage.Schedule, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidRequest)
	}
	pet, err := s.ownedPet(ctx, req.PetID, owner)
	if err != nil {
		return nil, err
	}
	policy, end, err := s.resolve(req.Policy)
	if err != nil {
		return nil, err
	}

	sched := &storage.Schedule{
		OwnerEmail: owner,
		PetID:      pet.ID,
		PetName:    pet.Name,
		Text:       req.Text,
	}
	sched.ApplyPolicy(policy, end)

	if err := s.store.CreateSchedule(ctx, sched); err != nil {
		return nil, fmt.Errorf("failed to store schedule: %w", err)
	}
	s.logger.Info("schedule created",
		"schedule_id", sched.ID,
		"owner", owner,
		"type", sched.Type,
		"has_repeat", sched.HasRepeat,
		"repeat_end", sched.ScheduleEndTime)
	return sched, nil
}

// UpdateSchedule replaces the fields and repeat policy of schedule id. The
// repeat end is recomputed from the new policy. Ownership of the schedule is
// checked by the caller.
func (s *Service) UpdateSchedule(ctx context.Context, id int64, req Request) error {
	sched, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
		}
		return fmt.Errorf("failed to load schedule %d: %w", id, err)
	}
	pet, err := s.ownedPet(ctx, req.PetID, sched.OwnerEmail)
	if err != nil {
		return err
	}
	policy, end, err := s.resolve(req.Policy)
	if err != nil {
		return err
	}

	sched.PetID = pet.ID
	sched.PetName = pet.Name
	sched.Text = req.Text
	sched.ApplyPolicy(policy, end)

	if err := s.store.UpdateSchedule(ctx, sched); err != nil {
		if storage.IsNotFound(err) {
			return fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
		}
		return fmt.Errorf("failed to update schedule %d: %w", id, err)
	}
	s.logger.Info("schedule updated", "schedule_id", id, "repeat_end", end)
	return nil
}

// DeleteSchedule removes schedule id. Ownership is checked by the caller.
func (s *Service) DeleteSchedule(ctx context.Context, id int64) error {
	if err := s.store.DeleteSchedule(ctx, id); err != nil {
		if storage.IsNotFound(err) {
			return fmt.Errorf("%w: %d", ErrScheduleNotFound, id)
		}
		return fmt.Errorf("failed to delete schedule %d: %w", id, err)
	}
	s.logger.Info("schedule deleted", "schedule_id", id)
	return nil
}

// DeleteOwnerSchedules removes every schedule of owner, as done when an
// account is closed.
func (s *Service) DeleteOwnerSchedules(ctx context.Context, owner string) (int, error) {
	n, err := s.store.DeleteSchedulesByOwner(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("failed to delete schedules of %s: %w", owner, err)
	}
	s.logger.Info("owner schedules deleted", "owner", owner, "count", n)
	return n, nil
}

// ExportCalendar renders the owner's schedules as an iCalendar document.
func (s *Service) ExportCalendar(ctx context.Context, owner string) (string, error) {
	schedules, err := s.store.ListSchedulesByOwner(ctx, owner)
	if err != nil {
		return "", fmt.Errorf("failed to list schedules: %w", err)
	}
	return storage.SchedulesToICS(schedules, recurrence.RuleString, s.now())
}

// CreatePet registers a pet for owner.
func (s *Service) CreatePet(ctx context.Context, pet *storage.Pet, owner string) error {
	pet.OwnerEmail = owner
	if pet.Name == "" {
		return fmt.Errorf("%w: pet name is required", ErrInvalidRequest)
	}
	if err := s.store.CreatePet(ctx, pet); err != nil {
		return fmt.Errorf("failed to store pet: %w", err)
	}
	s.logger.Info("pet created", "pet_id", pet.ID, "owner", owner)
	return nil
}

// GetPet returns pet id if it belongs to owner.
func (s *Service) GetPet(ctx context.Context, id int64, owner string) (*storage.Pet, error) {
	return s.ownedPet(ctx, id, owner)
}

func (s *Service) ownedPet(ctx context.Context, id int64, owner string) (*storage.Pet, error) {
	pet, err := s.store.GetPet(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %d", ErrPetNotFound, id)
		}
		return nil, fmt.Errorf("failed to load pet %d: %w", id, err)
	}
	if pet.OwnerEmail != owner {
		return nil, fmt.Errorf("%w: %d", ErrPetNotFound, id)
	}
	return pet, nil
}

func (s *Service) resolve(p storage.Policy) (storage.Policy, time.Time, error) {
	if p.ScheduleTime.IsZero() {
		return storage.Policy{}, time.Time{}, fmt.Errorf("%w: schedule time is required", ErrInvalidRequest)
	}
	p.ScheduleTime = p.ScheduleTime.In(s.loc)
	return s.engine.ResolvePolicy(p)
}
