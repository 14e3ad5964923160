package recurrence

import (
	"fmt"

	"github.com/meonghae/profile-service/server/storage"
	"github.com/teambition/rrule-go"
)

// RuleFor builds the iCalendar recurrence rule of a repeating schedule. A
// bounded schedule gets COUNT = cycle count + 1 (the anchor plus its
// repetitions). Anchors past the 28th are clamped with
// BYMONTHDAY=28..d;BYSETPOS=-1, which picks the last existing day up to d.
func RuleFor(s storage.Schedule) (*rrule.RRule, error) {
	if !s.HasRepeat {
		return nil, fmt.Errorf("schedule %d does not repeat", s.ID)
	}
	if err := validateSchedule(s); err != nil {
		return nil, err
	}

	opt := rrule.ROption{
		Interval: s.Cycle,
		Dtstart:  s.ScheduleTime,
	}
	if s.CycleCount > 0 {
		opt.Count = s.CycleCount + 1
	} else if !s.ScheduleEndTime.Equal(RepeatEndSentinel(s.ScheduleTime.Location())) {
		opt.Until = s.ScheduleEndTime
	}

	switch s.CycleType {
	case storage.CycleDay:
		opt.Freq = rrule.DAILY
	case storage.CycleMonth:
		opt.Freq = rrule.MONTHLY
		if day := s.ScheduleTime.Day(); day > 28 {
			for d := 28; d <= day; d++ {
				opt.Bymonthday = append(opt.Bymonthday, d)
			}
			opt.Bysetpos = []int{-1}
		}
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build rule for schedule %d: %w", s.ID, err)
	}
	return rule, nil
}

// RuleString returns the RRULE value of s without DTSTART. It satisfies
// storage.RuleFunc.
func RuleString(s storage.Schedule) (string, error) {
	rule, err := RuleFor(s)
	if err != nil {
		return "", err
	}
	return rule.OrigOptions.RRuleString(), nil
}
