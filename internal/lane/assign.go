// Package lane assigns every milestone a vertical lane so that labels in the
// same year never overlap.
//
// Lanes are searched greedily in the order 0, 1, -1, 2, -2, ... and each year
// is packed independently. The result depends on processing order, so events
// must already be sorted by date.
package lane

import (
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"milestones/internal/model"
)

// Options tunes the footprint heuristic and the search bound.
type Options struct {
	// CharWidth is the estimated label width per character, in months.
	CharWidth float64
	// MinWidth is the smallest footprint width, in months.
	MinWidth float64
	// MaxMagnitude bounds |lane|.
	MaxMagnitude int
}

// DefaultOptions returns the reference heuristic.
func DefaultOptions() Options {
	return Options{
		CharWidth:    0.14,
		MinWidth:     1.0,
		MaxMagnitude: 20,
	}
}

// Interval is a closed horizontal range in month units.
type Interval struct {
	Left, Right float64
}

// Overlaps reports whether the two closed intervals share any point.
func (iv Interval) Overlaps(o Interval) bool {
	return !(iv.Right < o.Left || iv.Left > o.Right)
}

// Summary is what the renderer needs besides the events themselves.
type Summary struct {
	// MaxLane is the largest |lane| over all events.
	MaxLane int
	// Years lists the distinct years in ascending order.
	Years []int
}

// OverflowError is returned when an event fits in no lane within the bound.
type OverflowError struct {
	Date         time.Time
	Label        string
	MaxMagnitude int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("lane: no free lane within ±%d for %s %q",
		e.MaxMagnitude, e.Date.Format(time.DateOnly), e.Label)
}

// Position is the horizontal position of d within its year, in months.
// Every month is treated as 31 days long.
func Position(d time.Time) float64 {
	return float64(d.Month()-1) + float64(d.Day())/31
}

// Footprint estimates the interval the label of e will cover.
func Footprint(e *model.Event, opts Options) Interval {
	x := Position(e.Date)
	w := float64(utf8.RuneCountInString(e.Label)) * opts.CharWidth
	if w < opts.MinWidth {
		w = opts.MinWidth
	}
	return Interval{Left: x - w/2, Right: x + w/2}
}

// Candidates returns the lane search order 0, 1, -1, ..., bound, -bound.
func Candidates(bound int) []int {
	if bound < 0 {
		bound = 0
	}
	out := make([]int, 0, 2*bound+1)
	out = append(out, 0)
	for n := 1; n <= bound; n++ {
		out = append(out, n, -n)
	}
	return out
}

// occupancy holds the intervals already placed in each lane of one year.
type occupancy map[int][]Interval

func (o occupancy) free(k int, iv Interval) bool {
	for _, placed := range o[k] {
		if iv.Overlaps(placed) {
			return false
		}
	}
	return true
}

// Assign sets the lane of every event. Events are grouped by year and
// processed in slice order within each year. It fails on the first event
// that cannot be placed, or on an event whose lane is already set.
func Assign(events []*model.Event, opts Options) (Summary, error) {
	candidates := Candidates(opts.MaxMagnitude)

	byYear := make(map[int][]*model.Event)
	years := make([]int, 0)
	for _, e := range events {
		y := e.Year()
		if _, ok := byYear[y]; !ok {
			years = append(years, y)
		}
		byYear[y] = append(byYear[y], e)
	}
	sort.Ints(years)

	var sum Summary
	sum.Years = years

	for _, y := range years {
		lanes := make(occupancy)
		for _, e := range byYear[y] {
			iv := Footprint(e, opts)
			k, ok := pick(lanes, candidates, iv)
			if !ok {
				return Summary{}, &OverflowError{Date: e.Date, Label: e.Label, MaxMagnitude: opts.MaxMagnitude}
			}
			if err := e.SetLane(k); err != nil {
				return Summary{}, fmt.Errorf("lane: %w", err)
			}
			lanes[k] = append(lanes[k], iv)
			if abs(k) > sum.MaxLane {
				sum.MaxLane = abs(k)
			}
		}
	}

	return sum, nil
}

func pick(lanes occupancy, candidates []int, iv Interval) (int, bool) {
	for _, k := range candidates {
		if lanes.free(k, iv) {
			return k, true
		}
	}
	return 0, false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
