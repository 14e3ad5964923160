package storage

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/emersion/go-ical"
)

const productID = "-//Meonghae//Profile Service//EN"

// RuleFunc returns the RRULE value (without the "RRULE:" prefix) for a
// repeating schedule.
type RuleFunc func(s Schedule) (string, error)

// ScheduleToEvent converts a schedule into a VEVENT. rule may be nil when s
// does not repeat.
func ScheduleToEvent(s Schedule, rule RuleFunc, stamp time.Time) (*ical.Event, error) {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, ScheduleUID(s.ID))
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, s.ScheduleTime)

	summary := s.Text
	if s.PetName != "" {
		summary = fmt.Sprintf("[%s] %s", s.PetName, s.Text)
	}
	event.Props.SetText(ical.PropSummary, summary)
	if s.Type != ScheduleCustom {
		event.Props.SetText(ical.PropCategories, s.Type.String())
	}

	if s.HasRepeat {
		if rule == nil {
			return nil, fmt.Errorf("schedule %d repeats but no rule builder was given", s.ID)
		}
		rrule, err := rule(s)
		if err != nil {
			return nil, fmt.Errorf("failed to build rule for schedule %d: %w", s.ID, err)
		}
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = rrule
		event.Props.Set(prop)
	}
	return event, nil
}

// SchedulesToICS renders schedules as a single VCALENDAR document.
func SchedulesToICS(schedules []Schedule, rule RuleFunc, stamp time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	for _, s := range schedules {
		event, err := ScheduleToEvent(s, rule, stamp)
		if err != nil {
			return "", err
		}
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}

// ScheduleUID is the iCalendar UID used for a schedule.
func ScheduleUID(id int64) string {
	return "schedule-" + strconv.FormatInt(id, 10) + "@meonghae"
}
