package storage

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulesToICS(t *testing.T) {
	stamp := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	once := NewMockSchedule(1, "a@b.c", time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	repeat := NewMockRepeatSchedule(2, "a@b.c", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		CycleDay, 10, 3, time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC))
	repeat.Type = ScheduleDeworming
	fixedRule := func(Schedule) (string, error) { return "FREQ=DAILY;INTERVAL=10;COUNT=4", nil }

	tests := []struct {
		name      string
		schedules []Schedule
		rule      RuleFunc
		want      []string
		dontWant  []string
		wantErr   bool
	}{
		{
			name:      "one-off schedule",
			schedules: []Schedule{once},
			want: []string{
				"BEGIN:VCALENDAR",
				"VERSION:2.0",
				"PRODID:" + productID,
				"BEGIN:VEVENT",
				"UID:schedule-1@meonghae",
				"SUMMARY:[Coco] test schedule",
				"DTSTART:20240310T090000Z",
				"DTSTAMP:20240201T000000Z",
				"END:VCALENDAR",
			},
			dontWant: []string{"RRULE", "CATEGORIES"},
		},
		{
			name:      "repeating preset schedule",
			schedules: []Schedule{once, repeat},
			rule:      fixedRule,
			want: []string{
				"UID:schedule-2@meonghae",
				"RRULE:FREQ=DAILY;INTERVAL=10;COUNT=4",
				"CATEGORIES:Deworming",
			},
		},
		{
			name:      "repeating schedule without rule builder",
			schedules: []Schedule{repeat},
			wantErr:   true,
		},
		{
			name:      "rule builder fails",
			schedules: []Schedule{repeat},
			rule:      func(Schedule) (string, error) { return "", errors.New("boom") },
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SchedulesToICS(tt.schedules, tt.rule, stamp)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, dw := range tt.dontWant {
				assert.NotContains(t, got, dw)
			}
		})
	}
}

func TestSchedulesToICSRoundTrip(t *testing.T) {
	s := NewMockSchedule(42, "a@b.c", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC))
	out, err := SchedulesToICS([]Schedule{s}, nil, time.Now())
	require.NoError(t, err)

	cal, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)

	uid, err := events[0].Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, ScheduleUID(42), uid)

	start, err := events[0].DateTimeStart(time.UTC)
	require.NoError(t, err)
	assert.True(t, start.Equal(s.ScheduleTime))
}

func TestScheduleTypePresets(t *testing.T) {
	tests := []struct {
		typ    ScheduleType
		name   string
		cycle  int
		preset bool
	}{
		{ScheduleCustom, "Custom", 0, false},
		{ScheduleHeartworm, "Heartworm", 1, true},
		{ScheduleExternalParasite, "ExternalParasite", 1, true},
		{ScheduleDeworming, "Deworming", 3, true},
		{ScheduleCheckup, "Checkup", 6, true},
		{ScheduleVaccination, "Vaccination", 12, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.typ.String())
			assert.Equal(t, tt.cycle, tt.typ.RepeatCycle())
			assert.Equal(t, tt.preset, tt.typ.IsPreset())
			parsed, ok := ParseScheduleType(tt.name)
			assert.True(t, ok)
			assert.Equal(t, tt.typ, parsed)
		})
	}

	assert.False(t, ScheduleType(99).Valid())
	assert.Equal(t, 0, ScheduleType(99).RepeatCycle())
	assert.False(t, CycleType(2).Valid())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("schedule")))
	assert.False(t, IsNotFound(&Error{Type: ErrInvalidInput}))
	assert.False(t, IsNotFound(errors.New("plain")))
}
