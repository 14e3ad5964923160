// memory based implementation for testing purposes
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meonghae/profile-service/server/storage"
)

// Store implements storage.Storage interface using in-memory maps
type Store struct {
	mu        sync.RWMutex
	schedules map[int64]*storage.Schedule
	pets      map[int64]*storage.Pet
	nextSched int64
	nextPet   int64
	now       func() time.Time
}

var _ storage.Storage = (*Store)(nil)

// New creates a new in-memory storage
func New() *Store {
	return &Store{
		schedules: make(map[int64]*storage.Schedule),
		pets:      make(map[int64]*storage.Pet),
		now:       time.Now,
	}
}

func notFound(msg string) error {
	return &storage.Error{
		Type:    storage.ErrNotFound,
		Message: msg,
	}
}

func invalid(msg string) error {
	return &storage.Error{
		Type:    storage.ErrInvalidInput,
		Message: msg,
	}
}

// Schedule operations

func (s *Store) GetSchedule(_ context.Context, id int64) (*storage.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sched, ok := s.schedules[id]
	if !ok {
		return nil, notFound("schedule not found")
	}
	cp := *sched
	return &cp, nil
}

func (s *Store) ListSchedulesByOwner(_ context.Context, ownerEmail string) ([]storage.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []storage.Schedule
	for _, sched := range s.schedules {
		if sched.OwnerEmail == ownerEmail {
			result = append(result, *sched)
		}
	}
	sortByID(result)
	return result, nil
}

func (s *Store) ListSchedulesByIDs(_ context.Context, ownerEmail string, ids []int64) ([]storage.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]bool, len(ids))
	var result []storage.Schedule
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if sched, ok := s.schedules[id]; ok && sched.OwnerEmail == ownerEmail {
			result = append(result, *sched)
		}
	}
	sortByID(result)
	return result, nil
}

func (s *Store) SearchSchedules(_ context.Context, ownerEmail, keyword string) ([]storage.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(keyword)
	var result []storage.Schedule
	for _, sched := range s.schedules {
		if sched.OwnerEmail != ownerEmail {
			continue
		}
		if strings.Contains(strings.ToLower(sched.Text), needle) || strings.Contains(strings.ToLower(sched.PetName), needle) {
			result = append(result, *sched)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].ScheduleTime.Equal(result[j].ScheduleTime) {
			return result[i].ScheduleTime.Before(result[j].ScheduleTime)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *Store) CreateSchedule(_ context.Context, sched *storage.Schedule) error {
	if sched.OwnerEmail == "" {
		return invalid("schedule owner is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSched++
	now := s.now()
	sched.ID = s.nextSched
	sched.Created = now
	sched.Modified = now

	cp := *sched
	s.schedules[sched.ID] = &cp
	return nil
}

func (s *Store) UpdateSchedule(_ context.Context, sched *storage.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.schedules[sched.ID]
	if !ok {
		return notFound("schedule not found")
	}

	sched.Created = existing.Created
	sched.Modified = s.now()
	cp := *sched
	s.schedules[sched.ID] = &cp
	return nil
}

func (s *Store) DeleteSchedule(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[id]; !ok {
		return notFound("schedule not found")
	}
	delete(s.schedules, id)
	return nil
}

func (s *Store) DeleteSchedulesByOwner(_ context.Context, ownerEmail string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sched := range s.schedules {
		if sched.OwnerEmail == ownerEmail {
			delete(s.schedules, id)
			removed++
		}
	}
	return removed, nil
}

// Pet operations

func (s *Store) GetPet(_ context.Context, id int64) (*storage.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pet, ok := s.pets[id]
	if !ok {
		return nil, notFound("pet not found")
	}
	cp := *pet
	return &cp, nil
}

func (s *Store) CreatePet(_ context.Context, pet *storage.Pet) error {
	if pet.OwnerEmail == "" || pet.Name == "" {
		return invalid("pet owner and name are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPet++
	pet.ID = s.nextPet
	pet.Created = s.now()
	cp := *pet
	s.pets[pet.ID] = &cp
	return nil
}

func sortByID(schedules []storage.Schedule) {
	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].ID < schedules[j].ID
	})
}
