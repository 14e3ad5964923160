package recurrence

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/meonghae/profile-service/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	engine := NewEngineWithConfig(DisabledCacheConfig, WithLogger(logger))
	t.Cleanup(engine.Close)
	return engine
}

func date(y int, m time.Month, d, h, mi int) time.Time {
	return time.Date(y, m, d, h, mi, 0, 0, time.UTC)
}

func occurrenceTimes(occ []Occurrence) []time.Time {
	out := make([]time.Time, len(occ))
	for i, o := range occ {
		out[i] = o.At
	}
	return out
}

// resolvedSchedule resolves p the same way the service does before persisting.
func resolvedSchedule(t *testing.T, id int64, p storage.Policy) storage.Schedule {
	t.Helper()
	norm, end, err := ResolvePolicy(p)
	require.NoError(t, err)
	s := storage.Schedule{ID: id, OwnerEmail: "owner@example.com"}
	s.ApplyPolicy(norm, end)
	return s
}

func TestResolvePolicy(t *testing.T) {
	tests := []struct {
		name      string
		policy    storage.Policy
		wantEnd   time.Time
		wantUnit  storage.CycleType
		wantCycle int
		wantErr   error
	}{
		{
			name:    "one-off schedule ends at its anchor",
			policy:  storage.Policy{ScheduleTime: date(2024, 3, 10, 9, 0)},
			wantEnd: date(2024, 3, 10, 9, 0),
		},
		{
			name: "custom day cycle",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleDay, Cycle: 10, CycleCount: 3,
				ScheduleTime: date(2024, 1, 1, 8, 0)},
			wantEnd:   date(2024, 1, 31, 8, 0),
			wantUnit:  storage.CycleDay,
			wantCycle: 10,
		},
		{
			name: "custom month cycle unbounded",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth, Cycle: 2,
				ScheduleTime: date(2024, 1, 15, 0, 0)},
			wantEnd:   date(2100, 1, 1, 0, 0),
			wantUnit:  storage.CycleMonth,
			wantCycle: 2,
		},
		{
			name: "custom month cycle clamps to month end",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth, Cycle: 1, CycleCount: 1,
				ScheduleTime: date(2024, 1, 31, 18, 30)},
			wantEnd:   date(2024, 2, 29, 18, 30),
			wantUnit:  storage.CycleMonth,
			wantCycle: 1,
		},
		{
			name: "preset forces monthly cycle",
			policy: storage.Policy{HasRepeat: true, Type: storage.ScheduleDeworming, CycleType: storage.CycleDay,
				Cycle: 7, CycleCount: 2, ScheduleTime: date(2024, 1, 10, 9, 0)},
			wantEnd:   date(2024, 7, 10, 9, 0),
			wantUnit:  storage.CycleMonth,
			wantCycle: 3,
		},
		{
			name: "preset ignores an invalid supplied cycle",
			policy: storage.Policy{HasRepeat: true, Type: storage.ScheduleVaccination, CycleType: storage.CycleType(7),
				CycleCount: 1, ScheduleTime: date(2024, 2, 29, 9, 0)},
			wantEnd:   date(2025, 2, 28, 9, 0),
			wantUnit:  storage.CycleMonth,
			wantCycle: 12,
		},
		{
			name: "unknown cycle type",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleType(2), Cycle: 1,
				ScheduleTime: date(2024, 1, 1, 0, 0)},
			wantErr: ErrInvalidCycleType,
		},
		{
			name: "zero cycle",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleDay,
				ScheduleTime: date(2024, 1, 1, 0, 0)},
			wantErr: ErrInvalidCycle,
		},
		{
			name: "negative cycle",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth, Cycle: -1,
				ScheduleTime: date(2024, 1, 1, 0, 0)},
			wantErr: ErrInvalidCycle,
		},
		{
			name: "negative cycle count",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleDay, Cycle: 1, CycleCount: -2,
				ScheduleTime: date(2024, 1, 1, 0, 0)},
			wantErr: ErrInvalidCycleCount,
		},
		{
			name: "monthly repeat ending exactly at the sentinel",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth, Cycle: 1, CycleCount: 912,
				ScheduleTime: date(2024, 1, 1, 0, 0)},
			wantEnd:   date(2100, 1, 1, 0, 0),
			wantUnit:  storage.CycleMonth,
			wantCycle: 1,
		},
		{
			name: "monthly repeat ending past the sentinel",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth, Cycle: 1, CycleCount: 913,
				ScheduleTime: date(2024, 1, 1, 0, 0)},
			wantErr: ErrInvalidCycleCount,
		},
		{
			name: "daily repeat ending past the sentinel",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleDay, Cycle: 1, CycleCount: 2,
				ScheduleTime: date(2099, 12, 31, 0, 0)},
			wantErr: ErrInvalidCycleCount,
		},
		{
			name: "huge cycle count",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleDay, Cycle: 100000, CycleCount: 100000,
				ScheduleTime: date(2024, 1, 1, 8, 0)},
			wantErr: ErrInvalidCycle,
		},
		{
			name: "product would overflow",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleDay, Cycle: MaxCycleDays, CycleCount: 1 << 30,
				ScheduleTime: date(2024, 1, 1, 8, 0)},
			wantErr: ErrInvalidCycleCount,
		},
		{
			name: "cycle above the maximum",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth, Cycle: MaxCycleMonths + 1,
				ScheduleTime: date(2024, 1, 1, 8, 0)},
			wantErr: ErrInvalidCycle,
		},
		{
			name: "sub-second anchor is truncated",
			policy: storage.Policy{HasRepeat: true, CycleType: storage.CycleDay, Cycle: 10, CycleCount: 3,
				ScheduleTime: date(2024, 1, 1, 8, 0).Add(500 * time.Millisecond)},
			wantEnd:   date(2024, 1, 31, 8, 0),
			wantUnit:  storage.CycleDay,
			wantCycle: 10,
		},
		{
			name:    "unknown schedule type",
			policy:  storage.Policy{Type: storage.ScheduleType(42), ScheduleTime: date(2024, 1, 1, 0, 0)},
			wantErr: ErrInvalidScheduleType,
		},
	}

	engine := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.policy
			got, end, err := engine.ResolvePolicy(tt.policy)

			assert.Equal(t, input, tt.policy, "input policy must not be modified")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.wantEnd.Equal(end), "end: got %v, want %v", end, tt.wantEnd)
			if tt.policy.HasRepeat {
				assert.Equal(t, tt.wantUnit, got.CycleType)
				assert.Equal(t, tt.wantCycle, got.Cycle)
			}

			// Resolving an already normalized policy yields the same end.
			again, end2, err := ResolvePolicy(got)
			require.NoError(t, err)
			assert.Equal(t, got, again)
			assert.True(t, end.Equal(end2))
		})
	}
}

func TestResolvePolicy_SentinelUsesAnchorLocation(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	_, end, err := ResolvePolicy(storage.Policy{HasRepeat: true, CycleType: storage.CycleDay, Cycle: 1,
		ScheduleTime: time.Date(2024, 1, 1, 9, 0, 0, 0, kst)})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2100, 1, 1, 0, 0, 0, 0, kst), end)
}

func TestExpandWithinWindow_SubSecondAnchor(t *testing.T) {
	engine := newTestEngine(t)
	anchor := date(2024, 1, 1, 8, 0).Add(500 * time.Millisecond)
	// stored rows written before truncation still carry the fraction
	s := storage.NewMockRepeatSchedule(1, "a@b.c", anchor, storage.CycleDay, 10, 3, anchor.AddDate(0, 0, 30))

	want := []time.Time{anchor, anchor.AddDate(0, 0, 10), anchor.AddDate(0, 0, 20), anchor.AddDate(0, 0, 30)}

	got, err := engine.ExpandWithinWindow(s, date(2024, 1, 1, 0, 0), date(2024, 3, 31, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, want, occurrenceTimes(got))

	next, err := engine.NextOccurrences(s, date(2024, 1, 1, 0, 0), 10)
	require.NoError(t, err)
	assert.Equal(t, want, occurrenceTimes(next))

	got, err = engine.ExpandWithinWindow(s, anchor.AddDate(0, 0, 10), anchor.AddDate(0, 0, 20))
	require.NoError(t, err)
	assert.Equal(t, want[1:3], occurrenceTimes(got))
}

func TestNthOccurrence_MonthClamp(t *testing.T) {
	s := storage.NewMockRepeatSchedule(1, "a@b.c", date(2024, 1, 31, 10, 0), storage.CycleMonth, 1, 0, RepeatEndSentinel(time.UTC))

	want := []time.Time{
		date(2024, 1, 31, 10, 0),
		date(2024, 2, 29, 10, 0),
		date(2024, 3, 31, 10, 0),
		date(2024, 4, 30, 10, 0),
		date(2024, 5, 31, 10, 0),
	}
	for k, w := range want {
		assert.Equal(t, w, NthOccurrence(s, k), "k=%d", k)
	}
	assert.Equal(t, date(2025, 2, 28, 10, 0), NthOccurrence(s, 13))

	once := storage.NewMockSchedule(2, "a@b.c", date(2024, 3, 10, 9, 0))
	assert.Equal(t, once.ScheduleTime, NthOccurrence(once, 5))
}

func TestAddMonthsClamped(t *testing.T) {
	assert.Equal(t, date(2024, 2, 29, 0, 0), AddMonthsClamped(date(2023, 11, 30, 0, 0), 3))
	assert.Equal(t, date(2023, 2, 28, 0, 0), AddMonthsClamped(date(2022, 12, 31, 0, 0), 2))
	assert.Equal(t, date(2025, 1, 15, 0, 0), AddMonthsClamped(date(2024, 11, 15, 0, 0), 2))
	assert.Equal(t, 29, DaysInMonth(2024, time.February))
	assert.Equal(t, 31, DaysInMonth(2024, time.December))
}

func TestExpandWithinWindow(t *testing.T) {
	engine := newTestEngine(t)
	q1Start := date(2024, 1, 1, 0, 0)
	q1End := date(2024, 4, 1, 0, 0).Add(-time.Nanosecond)

	tests := []struct {
		name     string
		schedule storage.Schedule
		start    time.Time
		end      time.Time
		want     []time.Time
	}{
		{
			name:     "one-off inside window",
			schedule: resolvedSchedule(t, 1, storage.Policy{ScheduleTime: date(2024, 3, 10, 9, 0)}),
			start:    q1Start,
			end:      q1End,
			want:     []time.Time{date(2024, 3, 10, 9, 0)},
		},
		{
			name:     "one-off outside window",
			schedule: resolvedSchedule(t, 1, storage.Policy{ScheduleTime: date(2024, 4, 10, 9, 0)}),
			start:    q1Start,
			end:      q1End,
		},
		{
			name: "day cycle bounded by repeat end",
			schedule: resolvedSchedule(t, 2, storage.Policy{HasRepeat: true, CycleType: storage.CycleDay,
				Cycle: 10, CycleCount: 3, ScheduleTime: date(2024, 1, 1, 8, 0)}),
			start: q1Start,
			end:   q1End,
			want: []time.Time{
				date(2024, 1, 1, 8, 0),
				date(2024, 1, 11, 8, 0),
				date(2024, 1, 21, 8, 0),
				date(2024, 1, 31, 8, 0),
			},
		},
		{
			name: "month cycle skips off months",
			schedule: resolvedSchedule(t, 3, storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth,
				Cycle: 2, ScheduleTime: date(2024, 1, 15, 0, 0)}),
			start: q1Start,
			end:   q1End,
			want:  []time.Time{date(2024, 1, 15, 0, 0), date(2024, 3, 15, 0, 0)},
		},
		{
			name: "month cycle across a year boundary",
			schedule: resolvedSchedule(t, 4, storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth,
				Cycle: 2, ScheduleTime: date(2023, 12, 5, 7, 0)}),
			start: q1Start,
			end:   q1End,
			want:  []time.Time{date(2024, 2, 5, 7, 0)},
		},
		{
			name: "month cycle with clamped days",
			schedule: resolvedSchedule(t, 5, storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth,
				Cycle: 1, ScheduleTime: date(2023, 10, 31, 12, 0)}),
			start: q1Start,
			end:   q1End,
			want:  []time.Time{date(2024, 1, 31, 12, 0), date(2024, 2, 29, 12, 0), date(2024, 3, 31, 12, 0)},
		},
		{
			name: "day cycle anchored before the window",
			schedule: resolvedSchedule(t, 6, storage.Policy{HasRepeat: true, CycleType: storage.CycleDay,
				Cycle: 7, ScheduleTime: date(2024, 1, 1, 9, 0)}),
			start: date(2024, 2, 1, 0, 0),
			end:   date(2024, 3, 1, 0, 0).Add(-time.Nanosecond),
			want: []time.Time{
				date(2024, 2, 5, 9, 0),
				date(2024, 2, 12, 9, 0),
				date(2024, 2, 19, 9, 0),
				date(2024, 2, 26, 9, 0),
			},
		},
		{
			name: "window starts later on an occurrence day",
			schedule: resolvedSchedule(t, 7, storage.Policy{HasRepeat: true, CycleType: storage.CycleDay,
				Cycle: 2, ScheduleTime: date(2024, 1, 1, 9, 0)}),
			start: date(2024, 1, 3, 10, 0),
			end:   date(2024, 1, 7, 9, 0),
			want:  []time.Time{date(2024, 1, 5, 9, 0), date(2024, 1, 7, 9, 0)},
		},
		{
			name: "window before the anchor",
			schedule: resolvedSchedule(t, 8, storage.Policy{HasRepeat: true, CycleType: storage.CycleDay,
				Cycle: 1, ScheduleTime: date(2024, 6, 1, 9, 0)}),
			start: q1Start,
			end:   q1End,
		},
		{
			name: "window after the repeat end",
			schedule: resolvedSchedule(t, 9, storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth,
				Cycle: 1, CycleCount: 2, ScheduleTime: date(2023, 6, 1, 9, 0)}),
			start: q1Start,
			end:   q1End,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.ExpandWithinWindow(tt.schedule, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, nilIfEmpty(occurrenceTimes(got)))
			for _, o := range got {
				assert.Equal(t, tt.schedule.ID, o.ScheduleID)
			}
		})
	}
}

func nilIfEmpty(ts []time.Time) []time.Time {
	if len(ts) == 0 {
		return nil
	}
	return ts
}

func TestExpandWithinWindow_InvalidSchedule(t *testing.T) {
	engine := newTestEngine(t)
	start := date(2024, 1, 1, 0, 0)

	zeroCycle := storage.NewMockRepeatSchedule(1, "a@b.c", start, storage.CycleDay, 0, 0, RepeatEndSentinel(time.UTC))
	_, err := engine.ExpandWithinWindow(zeroCycle, start, start.AddDate(0, 3, 0))
	assert.ErrorIs(t, err, ErrInvalidCycle)
	_, err = engine.NextOccurrences(zeroCycle, start, 5)
	assert.ErrorIs(t, err, ErrInvalidCycle)

	badUnit := storage.NewMockRepeatSchedule(2, "a@b.c", start, storage.CycleType(9), 1, 0, RepeatEndSentinel(time.UTC))
	_, err = engine.ExpandWithinWindow(badUnit, start, start.AddDate(0, 3, 0))
	assert.ErrorIs(t, err, ErrInvalidCycleType)
	_, err = RuleFor(badUnit)
	assert.ErrorIs(t, err, ErrInvalidCycleType)
}

func TestExpandWithinWindow_Limit(t *testing.T) {
	cfg := DisabledCacheConfig
	cfg.MaxExpansionOccurrences = 3
	engine := NewEngineWithConfig(cfg)
	defer engine.Close()

	daily := storage.NewMockRepeatSchedule(1, "a@b.c", date(2024, 1, 1, 9, 0), storage.CycleDay, 1, 0, RepeatEndSentinel(time.UTC))
	got, err := engine.ExpandWithinWindow(daily, date(2024, 1, 10, 0, 0), date(2024, 2, 1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{date(2024, 1, 10, 9, 0), date(2024, 1, 11, 9, 0), date(2024, 1, 12, 9, 0)}, occurrenceTimes(got))

	monthly := storage.NewMockRepeatSchedule(2, "a@b.c", date(2024, 1, 1, 9, 0), storage.CycleMonth, 1, 0, RepeatEndSentinel(time.UTC))
	got, err = engine.ExpandWithinWindow(monthly, date(2024, 1, 1, 0, 0), date(2025, 1, 1, 0, 0))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestExpandWithinWindow_Properties(t *testing.T) {
	engine := newTestEngine(t)
	anchors := []time.Time{
		date(2023, 1, 31, 23, 30),
		date(2023, 8, 15, 6, 0),
		date(2024, 2, 29, 12, 0),
		date(2024, 12, 30, 0, 0),
	}
	windows := [][2]time.Time{
		{date(2024, 1, 1, 0, 0), date(2024, 4, 1, 0, 0).Add(-time.Nanosecond)},
		{date(2024, 11, 17, 0, 0), date(2025, 2, 17, 0, 0).Add(-time.Nanosecond)},
		{date(2026, 5, 1, 0, 0), date(2026, 8, 1, 0, 0).Add(-time.Nanosecond)},
	}

	for _, anchor := range anchors {
		for _, cycle := range []int{1, 2, 3, 5, 12} {
			for _, count := range []int{0, 4} {
				daily := resolvedSchedule(t, 1, storage.Policy{HasRepeat: true, CycleType: storage.CycleDay,
					Cycle: cycle, CycleCount: count, ScheduleTime: anchor})
				monthly := resolvedSchedule(t, 2, storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth,
					Cycle: cycle, CycleCount: count, ScheduleTime: anchor})

				for _, w := range windows {
					got, err := engine.ExpandWithinWindow(daily, w[0], w[1])
					require.NoError(t, err)
					assertAscendingWithin(t, got, w[0], w[1], daily)
					for _, o := range got {
						days := daysBetween(anchor, o.At)
						assert.Zero(t, days%cycle, "day occurrence %v off cycle %d from %v", o.At, cycle, anchor)
						assert.Equal(t, anchor.Hour(), o.At.Hour())
					}
					assert.Equal(t, bruteForce(daily, w[0], w[1]), occurrenceTimes(got))

					got, err = engine.ExpandWithinWindow(monthly, w[0], w[1])
					require.NoError(t, err)
					assertAscendingWithin(t, got, w[0], w[1], monthly)
					for _, o := range got {
						months := monthIndex(o.At) - monthIndex(anchor)
						assert.Zero(t, months%cycle, "month occurrence %v off cycle %d from %v", o.At, cycle, anchor)
						wantDay := anchor.Day()
						if last := DaysInMonth(o.At.Year(), o.At.Month()); wantDay > last {
							wantDay = last
						}
						assert.Equal(t, wantDay, o.At.Day())
					}
					assert.Equal(t, bruteForce(monthly, w[0], w[1]), occurrenceTimes(got))
				}
			}
		}
	}
}

// bruteForce walks every occurrence from the anchor.
func bruteForce(s storage.Schedule, start, end time.Time) []time.Time {
	out := make([]time.Time, 0)
	for k := 0; ; k++ {
		at := NthOccurrence(s, k)
		if at.After(end) || at.After(s.ScheduleEndTime) {
			return out
		}
		if !at.Before(start) {
			out = append(out, at)
		}
	}
}

func assertAscendingWithin(t *testing.T, got []Occurrence, start, end time.Time, s storage.Schedule) {
	t.Helper()
	for i, o := range got {
		assert.False(t, o.At.Before(start) || o.At.After(end), "%v outside window", o.At)
		assert.False(t, o.At.Before(s.ScheduleTime) || o.At.After(s.ScheduleEndTime), "%v outside schedule bounds", o.At)
		if i > 0 {
			assert.True(t, got[i-1].At.Before(o.At), "occurrences not ascending at %d", i)
		}
	}
}

func TestNextOccurrences(t *testing.T) {
	engine := newTestEngine(t)

	monthly := resolvedSchedule(t, 1, storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth, Cycle: 1,
		ScheduleTime: date(2024, 1, 31, 10, 0)})
	bounded := resolvedSchedule(t, 2, storage.Policy{HasRepeat: true, CycleType: storage.CycleDay, Cycle: 10,
		CycleCount: 3, ScheduleTime: date(2024, 1, 1, 8, 0)})
	once := resolvedSchedule(t, 3, storage.Policy{ScheduleTime: date(2024, 3, 10, 9, 0)})

	tests := []struct {
		name     string
		schedule storage.Schedule
		from     time.Time
		n        int
		want     []time.Time
	}{
		{
			name:     "before the anchor starts at the anchor",
			schedule: monthly,
			from:     date(2023, 6, 1, 0, 0),
			n:        3,
			want:     []time.Time{date(2024, 1, 31, 10, 0), date(2024, 2, 29, 10, 0), date(2024, 3, 31, 10, 0)},
		},
		{
			name:     "skips past occurrences in the current month",
			schedule: monthly,
			from:     date(2024, 3, 1, 0, 0),
			n:        3,
			want:     []time.Time{date(2024, 3, 31, 10, 0), date(2024, 4, 30, 10, 0), date(2024, 5, 31, 10, 0)},
		},
		{
			name:     "from after the current month's occurrence",
			schedule: monthly,
			from:     date(2024, 4, 30, 10, 1),
			n:        2,
			want:     []time.Time{date(2024, 5, 31, 10, 0), date(2024, 6, 30, 10, 0)},
		},
		{
			name:     "from exactly on an occurrence includes it",
			schedule: bounded,
			from:     date(2024, 1, 11, 8, 0),
			n:        1,
			want:     []time.Time{date(2024, 1, 11, 8, 0)},
		},
		{
			name:     "later on an occurrence day moves to the next one",
			schedule: bounded,
			from:     date(2024, 1, 11, 9, 0),
			n:        5,
			want:     []time.Time{date(2024, 1, 21, 8, 0), date(2024, 1, 31, 8, 0)},
		},
		{
			name:     "after the repeat end",
			schedule: bounded,
			from:     date(2024, 2, 1, 0, 0),
			n:        5,
		},
		{
			name:     "future one-off",
			schedule: once,
			from:     date(2024, 3, 1, 0, 0),
			n:        5,
			want:     []time.Time{date(2024, 3, 10, 9, 0)},
		},
		{
			name:     "past one-off",
			schedule: once,
			from:     date(2024, 3, 11, 0, 0),
			n:        5,
		},
		{
			name:     "zero requested",
			schedule: monthly,
			from:     date(2024, 3, 1, 0, 0),
			n:        0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.NextOccurrences(tt.schedule, tt.from, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, nilIfEmpty(occurrenceTimes(got)))
			assert.LessOrEqual(t, len(got), max(tt.n, 0))
			for _, o := range got {
				assert.False(t, o.At.Before(tt.from))
			}
		})
	}
}

func TestNextOccurrences_OtherLocation(t *testing.T) {
	engine := newTestEngine(t)
	kst := time.FixedZone("KST", 9*3600)
	// 2024-02-01 08:00 KST is still January 31 in UTC.
	s := resolvedSchedule(t, 1, storage.Policy{HasRepeat: true, CycleType: storage.CycleMonth, Cycle: 1,
		ScheduleTime: time.Date(2024, 1, 1, 8, 0, 0, 0, kst)})

	got, err := engine.NextOccurrences(s, date(2024, 1, 31, 22, 0), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2024, 2, 1, 8, 0, 0, 0, kst), got[0].At)
	assert.Equal(t, time.Date(2024, 3, 1, 8, 0, 0, 0, kst), got[1].At)
}

func TestOccurrence_Before(t *testing.T) {
	at := date(2024, 1, 1, 9, 0)
	assert.True(t, Occurrence{ScheduleID: 9, At: at}.Before(Occurrence{ScheduleID: 1, At: at.Add(time.Minute)}))
	assert.True(t, Occurrence{ScheduleID: 1, At: at}.Before(Occurrence{ScheduleID: 2, At: at}))
	assert.False(t, Occurrence{ScheduleID: 2, At: at}.Before(Occurrence{ScheduleID: 2, At: at}))
}
