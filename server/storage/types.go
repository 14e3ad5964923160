package storage

import (
	"errors"
	"fmt"
	"time"
)

// Error types
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
)

// Error represents a storage-related error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a storage error of type ErrNotFound.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Type == ErrNotFound
}

// CycleType is the unit a repeating schedule recurs in.
type CycleType int

const (
	CycleMonth CycleType = 0
	CycleDay   CycleType = 1
)

// Valid reports whether c is one of the recognized cycle units.
func (c CycleType) Valid() bool {
	return c == CycleMonth || c == CycleDay
}

func (c CycleType) String() string {
	switch c {
	case CycleMonth:
		return "Month"
	case CycleDay:
		return "Day"
	default:
		return fmt.Sprintf("CycleType(%d)", int(c))
	}
}

// ScheduleType is either Custom or one of the presets. Presets carry a fixed
// monthly repeat cycle.
type ScheduleType int

const (
	ScheduleCustom ScheduleType = iota
	ScheduleHeartworm
	ScheduleExternalParasite
	ScheduleDeworming
	ScheduleCheckup
	ScheduleVaccination
)

type scheduleTypeInfo struct {
	name        string
	repeatCycle int // months; 0 for Custom
}

var scheduleTypes = [...]scheduleTypeInfo{
	ScheduleCustom:           {name: "Custom"},
	ScheduleHeartworm:        {name: "Heartworm", repeatCycle: 1},
	ScheduleExternalParasite: {name: "ExternalParasite", repeatCycle: 1},
	ScheduleDeworming:        {name: "Deworming", repeatCycle: 3},
	ScheduleCheckup:          {name: "Checkup", repeatCycle: 6},
	ScheduleVaccination:      {name: "Vaccination", repeatCycle: 12},
}

// Valid reports whether t is a known schedule type.
func (t ScheduleType) Valid() bool {
	return t >= 0 && int(t) < len(scheduleTypes)
}

// IsPreset reports whether t is a preset with a built-in monthly cycle.
func (t ScheduleType) IsPreset() bool {
	return t.Valid() && t != ScheduleCustom
}

// RepeatCycle returns the preset's fixed cycle length in months. It is zero
// for Custom and unknown types.
func (t ScheduleType) RepeatCycle() int {
	if !t.Valid() {
		return 0
	}
	return scheduleTypes[t].repeatCycle
}

func (t ScheduleType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ScheduleType(%d)", int(t))
	}
	return scheduleTypes[t].name
}

// ParseScheduleType maps a schedule type name back to its value.
func ParseScheduleType(name string) (ScheduleType, bool) {
	for i, info := range scheduleTypes {
		if info.name == name {
			return ScheduleType(i), true
		}
	}
	return 0, false
}

// Policy is the repeat policy of a schedule as supplied by a caller.
type Policy struct {
	HasRepeat    bool
	Type         ScheduleType
	CycleType    CycleType
	Cycle        int
	CycleCount   int // 0 means unbounded
	ScheduleTime time.Time
}

// Schedule is a persisted pet-care schedule.
type Schedule struct {
	ID              int64
	OwnerEmail      string
	PetID           int64
	PetName         string
	Text            string
	ScheduleTime    time.Time
	ScheduleEndTime time.Time
	HasRepeat       bool
	Type            ScheduleType
	CycleType       CycleType
	Cycle           int
	CycleCount      int
	Created         time.Time
	Modified        time.Time
}

// Policy returns the repeat policy stored on s.
func (s Schedule) Policy() Policy {
	return Policy{
		HasRepeat:    s.HasRepeat,
		Type:         s.Type,
		CycleType:    s.CycleType,
		Cycle:        s.Cycle,
		CycleCount:   s.CycleCount,
		ScheduleTime: s.ScheduleTime,
	}
}

// ApplyPolicy copies a resolved policy and its repeat end onto s.
func (s *Schedule) ApplyPolicy(p Policy, end time.Time) {
	s.HasRepeat = p.HasRepeat
	s.Type = p.Type
	s.CycleType = p.CycleType
	s.Cycle = p.Cycle
	s.CycleCount = p.CycleCount
	s.ScheduleTime = p.ScheduleTime
	s.ScheduleEndTime = end
}

// Pet is the owning pet a schedule refers to.
type Pet struct {
	ID         int64
	OwnerEmail string
	Name       string
	Species    string
	BirthDate  *time.Time
	Created    time.Time
}
