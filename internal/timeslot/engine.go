package timeslot

import (
	"errors"
	"sort"
	"time"
)

// Parameters carries the configuration values the generator depends on.
type Parameters struct {
	SlotDuration time.Duration
	Capacity     int
}

// Options bounds a single generation pass. When Now is the zero value the
// lead-time filter is disabled and past slots are emitted; callers that need
// to distinguish "never existed" from "expired" rely on this.
type Options struct {
	Now  time.Time
	Lead time.Duration
}

// Engine discretizes weekly availability rules into bookable slots.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that resolves wall-clock rule bounds in the
// provided location. If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// ErrInvalidDuration indicates the slot duration is not a positive whole number of minutes.
var ErrInvalidDuration = errors.New("timeslot: slot duration must be a positive number of minutes")

// ErrInvalidCapacity indicates the per-slot capacity is below one.
var ErrInvalidCapacity = errors.New("timeslot: capacity must be at least one")

// ErrInvalidWindow indicates the generation window ends before it starts.
var ErrInvalidWindow = errors.New("timeslot: window end precedes window start")

// Generate produces the slots for every calendar date in the inclusive window
// [from, to], ordered ascending by start instant.
//
// Semantics:
//   - Dates for which excepted returns true yield no slots.
//   - Each active rule interval [Start, End) is tiled into consecutive chunks
//     of the slot duration anchored at Start; a trailing remainder shorter
//     than one duration is dropped.
//   - Chunk bounds are resolved through the engine location's rules for that
//     date and converted to UTC. A chunk either of whose bounds lands on a
//     different wall-clock minute than requested (a DST gap) or whose resolved
//     span differs from the slot duration is dropped.
//   - With a non-zero Options.Now, slots starting before Now+Lead are omitted.
//   - Identical slots produced by overlapping rules are emitted once.
func (e *Engine) Generate(rules []Rule, excepted func(Date) bool, params Parameters, from, to Date, opts Options) ([]Slot, error) {
	if params.SlotDuration <= 0 || params.SlotDuration%time.Minute != 0 {
		return nil, ErrInvalidDuration
	}
	if params.Capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	if to.Before(from) {
		return nil, ErrInvalidWindow
	}

	durMinutes := MinuteOfDay(params.SlotDuration / time.Minute)

	byWeekday := make(map[time.Weekday][]Rule)
	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		byWeekday[rule.Weekday] = append(byWeekday[rule.Weekday], rule)
	}
	for day := range byWeekday {
		sort.SliceStable(byWeekday[day], func(i, j int) bool {
			return byWeekday[day][i].Start < byWeekday[day][j].Start
		})
	}

	var cutoff time.Time
	if !opts.Now.IsZero() {
		cutoff = opts.Now.Add(opts.Lead)
	}

	slots := make([]Slot, 0)
	seen := make(map[time.Time]struct{})

	for d := from; !to.Before(d); d = d.Next() {
		if excepted != nil && excepted(d) {
			continue
		}
		for _, rule := range byWeekday[d.Weekday()] {
			for start := rule.Start; start+durMinutes <= rule.End; start += durMinutes {
				startAt := e.resolve(d, start)
				endAt := e.resolve(d, start+durMinutes)

				if wallMinute(startAt, e.location) != int(start)%(24*60) {
					continue
				}
				if wallMinute(endAt, e.location) != int(start+durMinutes)%(24*60) {
					continue
				}
				if endAt.Sub(startAt) != params.SlotDuration {
					continue
				}
				if !cutoff.IsZero() && startAt.Before(cutoff) {
					continue
				}
				if _, ok := seen[startAt]; ok {
					continue
				}
				seen[startAt] = struct{}{}

				slots = append(slots, Slot{
					Start:    startAt,
					End:      endAt,
					Capacity: params.Capacity,
				})
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Start.Before(slots[j].Start)
	})

	return slots, nil
}

// resolve maps a wall-clock minute on a civil date to a UTC instant using the
// engine location's rules for that date. time.Date normalizes minutes beyond
// the end of the day and wall times that fall inside a DST gap.
func (e *Engine) resolve(d Date, m MinuteOfDay) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, int(m), 0, 0, e.location).UTC()
}

func wallMinute(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}
