package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrLaneAssigned is returned when a lane is set on an event that already has one.
var ErrLaneAssigned = errors.New("lane already assigned")

// Record is one raw row of the milestone table before parsing.
type Record struct {
	// Line is the 1-based line of the source file where the record starts.
	// For iCalendar input it is the line of the BEGIN:VEVENT.
	Line int

	Date        string
	Description string
	Status      string
}

// Event is a parsed milestone. Date, Label and Done are fixed at load time;
// the lane is set once by the lane assigner and read-only afterwards.
type Event struct {
	// Date is the calendar day at UTC midnight.
	Date  time.Time
	Label string
	Done  bool

	lane   int
	placed bool
}

// Lane returns the assigned lane. Non-negative lanes sit above the year bar,
// negative lanes below it. The result is meaningless until HasLane is true.
func (e *Event) Lane() int {
	return e.lane
}

// HasLane reports whether SetLane has been called.
func (e *Event) HasLane() bool {
	return e.placed
}

// SetLane records the lane for e. It may be called only once.
func (e *Event) SetLane(k int) error {
	if e.placed {
		return fmt.Errorf("%w: %s %q", ErrLaneAssigned, e.Date.Format(time.DateOnly), e.Label)
	}
	e.lane = k
	e.placed = true
	return nil
}

// Year is a shorthand for e.Date.Year().
func (e *Event) Year() int {
	return e.Date.Year()
}

// ParseError reports a record that could not be turned into an Event,
// either because a required field is missing or its value is malformed.
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value == "" && e.Err != nil {
		return fmt.Sprintf("line %d: field %q: %v", e.Line, e.Field, e.Err)
	}
	return fmt.Sprintf("line %d: field %q: invalid value %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
