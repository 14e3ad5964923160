package recurrence

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/meonghae/profile-service/server/storage"
	"github.com/teambition/rrule-go"
)

// Engine resolves repeat policies and expands schedules into occurrences.
type Engine struct {
	cache  *RecurrenceCache
	config EngineConfig
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a recurrence engine with DefaultEngineConfig.
func NewEngine(opts ...Option) *Engine {
	return NewEngineWithConfig(DefaultEngineConfig, opts...)
}

// Close stops the expansion cache, if any.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// RepeatEndSentinel is the repeat end of schedules that repeat forever.
func RepeatEndSentinel(loc *time.Location) time.Time {
	return time.Date(2100, 1, 1, 0, 0, 0, 0, loc)
}

// Cycle lengths above these are rejected.
const (
	MaxCycleMonths = 100 * 12
	MaxCycleDays   = 100 * 366
)

// ResolvePolicy validates p and returns the normalized policy together with
// its repeat end. Presets force a monthly cycle of the preset's length. The
// schedule time is truncated to whole seconds and a bounded repeat may not
// end after RepeatEndSentinel. p is not modified.
func ResolvePolicy(p storage.Policy) (storage.Policy, time.Time, error) {
	if !p.Type.Valid() {
		return storage.Policy{}, time.Time{}, fmt.Errorf("%w: %d", ErrInvalidScheduleType, int(p.Type))
	}

	out := p
	out.ScheduleTime = out.ScheduleTime.Truncate(time.Second)
	if !out.HasRepeat {
		return out, out.ScheduleTime, nil
	}

	if out.Type.IsPreset() {
		out.CycleType = storage.CycleMonth
		out.Cycle = out.Type.RepeatCycle()
	}
	if err := validateCycle(out.CycleType, out.Cycle); err != nil {
		return storage.Policy{}, time.Time{}, err
	}
	if out.CycleCount < 0 {
		return storage.Policy{}, time.Time{}, fmt.Errorf("%w: %d", ErrInvalidCycleCount, out.CycleCount)
	}

	sentinel := RepeatEndSentinel(out.ScheduleTime.Location())
	if out.CycleCount == 0 {
		return out, sentinel, nil
	}
	// keeps Cycle*CycleCount within one cycle of the sentinel
	if out.CycleCount > unitsBetween(out.ScheduleTime, sentinel, out.CycleType)/out.Cycle+1 {
		return storage.Policy{}, time.Time{}, fmt.Errorf("%w: %d repeats end after %s", ErrInvalidCycleCount, out.CycleCount, sentinel.Format(time.DateOnly))
	}
	end := step(out.ScheduleTime, out.CycleType, out.Cycle*out.CycleCount)
	if end.After(sentinel) {
		return storage.Policy{}, time.Time{}, fmt.Errorf("%w: %d repeats end after %s", ErrInvalidCycleCount, out.CycleCount, sentinel.Format(time.DateOnly))
	}
	return out, end, nil
}

// ResolvePolicy is ResolvePolicy with logging.
func (e *Engine) ResolvePolicy(p storage.Policy) (storage.Policy, time.Time, error) {
	out, end, err := ResolvePolicy(p)
	if err != nil {
		e.logger.Debug("rejected repeat policy", "type", p.Type, "cycle_type", int(p.CycleType), "cycle", p.Cycle, "error", err)
		return out, end, err
	}
	e.logger.Debug("resolved repeat policy",
		"type", out.Type,
		"cycle_type", out.CycleType,
		"cycle", out.Cycle,
		"cycle_count", out.CycleCount,
		"repeat_end", end)
	return out, end, nil
}

// NthOccurrence returns the k-th occurrence of s counted from its anchor
// (k = 0 is the anchor itself). Month steps keep the anchor's day of month,
// clamped to the last day of shorter months, and are always taken from the
// anchor so clamping never accumulates.
func NthOccurrence(s storage.Schedule, k int) time.Time {
	if !s.HasRepeat || k <= 0 {
		return s.ScheduleTime
	}
	return step(s.ScheduleTime, s.CycleType, k*s.Cycle)
}

// ExpandWithinWindow returns the occurrences of s within [start, end] in
// ascending order. Occurrences outside [ScheduleTime, ScheduleEndTime] are
// never produced.
func (e *Engine) ExpandWithinWindow(s storage.Schedule, start, end time.Time) ([]Occurrence, error) {
	if err := validateSchedule(s); err != nil {
		return nil, err
	}

	if !s.HasRepeat {
		if s.ScheduleTime.Before(start) || s.ScheduleTime.After(end) {
			return nil, nil
		}
		return []Occurrence{{ScheduleID: s.ID, At: s.ScheduleTime}}, nil
	}

	loc := s.ScheduleTime.Location()
	lo, hi := start.In(loc), end.In(loc)
	if lo.Before(s.ScheduleTime) {
		lo = s.ScheduleTime
	}
	if hi.After(s.ScheduleEndTime) {
		hi = s.ScheduleEndTime
	}
	if lo.After(hi) {
		return nil, nil
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(opExpand, s, lo, hi); ok {
			return cloneOccurrences(cached.([]Occurrence)), nil
		}
	}

	var (
		result []Occurrence
		err    error
	)
	switch s.CycleType {
	case storage.CycleMonth:
		result = e.expandMonthly(s, lo, hi)
	case storage.CycleDay:
		result, err = e.expandDaily(s, lo, hi)
		if err != nil {
			return nil, err
		}
	}

	e.logger.Debug("expanded schedule",
		"schedule_id", s.ID,
		"window_start", lo,
		"window_end", hi,
		"occurrences", len(result))

	if e.cache != nil {
		e.cache.Set(opExpand, s, lo, hi, cloneOccurrences(result))
	}
	return result, nil
}

// NextOccurrences returns up to n occurrences of s at or after from, in
// ascending order, stopping at the schedule's repeat end.
func (e *Engine) NextOccurrences(s storage.Schedule, from time.Time, n int) ([]Occurrence, error) {
	if err := validateSchedule(s); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	if !s.HasRepeat {
		if s.ScheduleTime.Before(from) {
			return nil, nil
		}
		return []Occurrence{{ScheduleID: s.ID, At: s.ScheduleTime}}, nil
	}

	k := firstIndexAtOrAfter(s, from)
	result := make([]Occurrence, 0, n)
	for i := 0; i < n; i++ {
		at := NthOccurrence(s, k+i)
		if at.After(s.ScheduleEndTime) {
			break
		}
		result = append(result, Occurrence{ScheduleID: s.ID, At: at})
	}
	return result, nil
}

func (e *Engine) expandMonthly(s storage.Schedule, lo, hi time.Time) []Occurrence {
	anchor := monthIndex(s.ScheduleTime)
	var result []Occurrence
	for idx := monthIndex(lo); idx <= monthIndex(hi); idx++ {
		diff := idx - anchor
		if diff < 0 || diff%s.Cycle != 0 {
			continue
		}
		at := NthOccurrence(s, diff/s.Cycle)
		if at.Before(lo) || at.After(hi) {
			continue
		}
		if e.limitReached(s, len(result)) {
			break
		}
		result = append(result, Occurrence{ScheduleID: s.ID, At: at})
	}
	return result
}

// expandDaily moves the rule start to the last occurrence on or before lo's
// day and lets rrule step from there. rrule works in whole seconds, so each
// landing is mapped back onto NthOccurrence.
func (e *Engine) expandDaily(s storage.Schedule, lo, hi time.Time) ([]Occurrence, error) {
	skipped := daysBetween(s.ScheduleTime, lo) / s.Cycle
	opt := rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: s.Cycle,
		Dtstart:  NthOccurrence(s, skipped),
		Until:    hi,
	}
	if limit := e.config.MaxExpansionOccurrences; limit > 0 {
		// at most one landing precedes lo
		opt.Count = limit + 1
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build daily rule for schedule %d: %w", s.ID, err)
	}

	var result []Occurrence
	for _, landing := range rule.Between(lo.Truncate(time.Second), hi, true) {
		at := NthOccurrence(s, daysBetween(s.ScheduleTime, landing)/s.Cycle)
		if at.Before(lo) || at.After(hi) {
			continue
		}
		if e.limitReached(s, len(result)) {
			break
		}
		result = append(result, Occurrence{ScheduleID: s.ID, At: at})
	}
	return result, nil
}

func (e *Engine) limitReached(s storage.Schedule, n int) bool {
	limit := e.config.MaxExpansionOccurrences
	if limit <= 0 || n < limit {
		return false
	}
	e.logger.Warn("expansion truncated", "schedule_id", s.ID, "limit", limit)
	return true
}

func firstIndexAtOrAfter(s storage.Schedule, from time.Time) int {
	if !from.After(s.ScheduleTime) {
		return 0
	}
	from = from.In(s.ScheduleTime.Location())
	var k int
	switch s.CycleType {
	case storage.CycleMonth:
		k = (monthIndex(from) - monthIndex(s.ScheduleTime)) / s.Cycle
	case storage.CycleDay:
		k = daysBetween(s.ScheduleTime, from) / s.Cycle
	}
	if NthOccurrence(s, k).Before(from) {
		k++
	}
	return k
}

func validateSchedule(s storage.Schedule) error {
	if !s.HasRepeat {
		return nil
	}
	if err := validateCycle(s.CycleType, s.Cycle); err != nil {
		return fmt.Errorf("schedule %d: %w", s.ID, err)
	}
	return nil
}

func validateCycle(unit storage.CycleType, cycle int) error {
	if !unit.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCycleType, int(unit))
	}
	if cycle <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCycle, cycle)
	}
	if (unit == storage.CycleMonth && cycle > MaxCycleMonths) || (unit == storage.CycleDay && cycle > MaxCycleDays) {
		return fmt.Errorf("%w: %d %s exceeds the maximum", ErrInvalidCycle, cycle, unit)
	}
	return nil
}

// step adds n cycle units to t.
func step(t time.Time, unit storage.CycleType, n int) time.Time {
	if unit == storage.CycleDay {
		return t.AddDate(0, 0, n)
	}
	return AddMonthsClamped(t, n)
}

// AddMonthsClamped adds n calendar months to t, clamping the day of month to
// the last day of the resulting month.
func AddMonthsClamped(t time.Time, n int) time.Time {
	idx := monthIndex(t) + n
	year, month := idx/12, time.Month(idx%12+1)
	day := t.Day()
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// daysBetween counts calendar days from a's date to b's date in a's location.
func daysBetween(a, b time.Time) int {
	b = b.In(a.Location())
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// unitsBetween counts whole cycle units from a to b.
func unitsBetween(a, b time.Time, unit storage.CycleType) int {
	if unit == storage.CycleDay {
		return daysBetween(a, b)
	}
	return monthIndex(b.In(a.Location())) - monthIndex(a)
}

func cloneOccurrences(in []Occurrence) []Occurrence {
	if in == nil {
		return nil
	}
	out := make([]Occurrence, len(in))
	copy(out, in)
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
