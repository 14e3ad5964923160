package schedule

import (
	"sort"
	"time"

	"github.com/meonghae/profile-service/server/recurrence"
	"github.com/meonghae/profile-service/server/storage"
	"github.com/samber/mo"
)

const (
	// PreviewSize is the most occurrences an upcoming preview holds.
	PreviewSize = 5
	// GroupingMonths is the number of months a month grouping covers.
	GroupingMonths = 3
)

// Expander is the part of the recurrence engine the aggregator needs.
type Expander interface {
	ExpandWithinWindow(s storage.Schedule, start, end time.Time) ([]recurrence.Occurrence, error)
	NextOccurrences(s storage.Schedule, from time.Time, n int) ([]recurrence.Occurrence, error)
}

// DaySchedule lists the schedules occurring on one day of a month.
type DaySchedule struct {
	Day         int
	ScheduleIDs []int64
}

// MonthSchedule is one month of a grouping. Days are in ascending order.
type MonthSchedule struct {
	Year  int
	Month time.Month
	Days  []DaySchedule
}

// MonthGrouping covers a target month and the two months after it.
type MonthGrouping [GroupingMonths]MonthSchedule

type expandFunc func(s storage.Schedule) mo.Result[[]recurrence.Occurrence]

// collect runs fn for every schedule and merges the occurrences in
// (time, schedule id) order. The first failure aborts.
func collect(schedules []storage.Schedule, fn expandFunc) ([]recurrence.Occurrence, error) {
	var all []recurrence.Occurrence
	for _, s := range schedules {
		res := fn(s)
		if res.IsError() {
			return nil, res.Error()
		}
		all = append(all, res.MustGet()...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Before(all[j])
	})
	return all, nil
}

// BuildUpcomingPreview returns at most PreviewSize occurrences at or after
// now across all schedules, ordered by time and then schedule id.
func BuildUpcomingPreview(x Expander, schedules []storage.Schedule, now time.Time) ([]recurrence.Occurrence, error) {
	all, err := collect(schedules, func(s storage.Schedule) mo.Result[[]recurrence.Occurrence] {
		occ, err := x.NextOccurrences(s, now, PreviewSize)
		return mo.TupleToResult(occ, err)
	})
	if err != nil {
		return nil, err
	}
	if len(all) > PreviewSize {
		all = all[:PreviewSize]
	}
	return all, nil
}

// GroupingWindow returns the expansion window of a month grouping: from the
// start of targetDate's day to the end of the day before targetDate plus
// GroupingMonths months.
func GroupingWindow(targetDate time.Time) (time.Time, time.Time) {
	start := startOfDay(targetDate)
	end := recurrence.AddMonthsClamped(start, GroupingMonths).Add(-time.Nanosecond)
	return start, end
}

// BuildMonthGrouping buckets the occurrences of schedules by day for
// targetDate's month and the following two months. All three months are
// present even when empty, and each day holds a schedule id at most once.
func BuildMonthGrouping(x Expander, schedules []storage.Schedule, targetDate time.Time) (MonthGrouping, error) {
	loc := targetDate.Location()
	start, end := GroupingWindow(targetDate)

	var grouping MonthGrouping
	buckets := make([]map[int]map[int64]struct{}, GroupingMonths)
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, loc)
	for i := range grouping {
		m := first.AddDate(0, i, 0)
		grouping[i] = MonthSchedule{Year: m.Year(), Month: m.Month()}
		buckets[i] = make(map[int]map[int64]struct{})
	}

	all, err := collect(schedules, func(s storage.Schedule) mo.Result[[]recurrence.Occurrence] {
		occ, err := x.ExpandWithinWindow(s, start, end)
		return mo.TupleToResult(occ, err)
	})
	if err != nil {
		return MonthGrouping{}, err
	}

	for _, o := range all {
		at := o.At.In(loc)
		i := (at.Year()-first.Year())*12 + int(at.Month()) - int(first.Month())
		if i < 0 || i >= GroupingMonths {
			continue
		}
		day := buckets[i][at.Day()]
		if day == nil {
			day = make(map[int64]struct{})
			buckets[i][at.Day()] = day
		}
		day[o.ScheduleID] = struct{}{}
	}

	for i, days := range buckets {
		grouping[i].Days = make([]DaySchedule, 0, len(days))
		for d, set := range days {
			ids := make([]int64, 0, len(set))
			for id := range set {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })
			grouping[i].Days = append(grouping[i].Days, DaySchedule{Day: d, ScheduleIDs: ids})
		}
		sort.Slice(grouping[i].Days, func(a, b int) bool {
			return grouping[i].Days[a].Day < grouping[i].Days[b].Day
		})
	}
	return grouping, nil
}

// BuildSingleDayView projects each schedule onto targetDate's year and month,
// keeping the schedule's own day, hour and minute. The day is clamped to the
// month's length. Results are ordered by projected time, then id.
func BuildSingleDayView(schedules []storage.Schedule, targetDate time.Time) []storage.Schedule {
	out := make([]storage.Schedule, 0, len(schedules))
	for _, s := range schedules {
		anchor := s.ScheduleTime
		day := anchor.Day()
		if last := recurrence.DaysInMonth(targetDate.Year(), targetDate.Month()); day > last {
			day = last
		}
		s.ScheduleTime = time.Date(targetDate.Year(), targetDate.Month(), day,
			anchor.Hour(), anchor.Minute(), 0, 0, anchor.Location())
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduleTime.Equal(out[j].ScheduleTime) {
			return out[i].ScheduleTime.Before(out[j].ScheduleTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
