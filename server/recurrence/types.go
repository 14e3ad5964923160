package recurrence

import (
	"errors"
	"time"
)

var (
	// ErrInvalidCycleType is returned for a cycle unit other than Month or Day.
	ErrInvalidCycleType = errors.New("invalid cycle type")
	// ErrInvalidCycle is returned when a repeating schedule has cycle <= 0.
	ErrInvalidCycle = errors.New("cycle must be positive")
	// ErrInvalidCycleCount is returned for a negative cycle count.
	ErrInvalidCycleCount = errors.New("cycle count must not be negative")
	// ErrInvalidScheduleType is returned for an unknown schedule type.
	ErrInvalidScheduleType = errors.New("invalid schedule type")
)

// Occurrence is one concrete instance of a schedule.
type Occurrence struct {
	ScheduleID int64
	At         time.Time
}

// Before orders occurrences by time, then by schedule id.
func (o Occurrence) Before(other Occurrence) bool {
	if !o.At.Equal(other.At) {
		return o.At.Before(other.At)
	}
	return o.ScheduleID < other.ScheduleID
}
