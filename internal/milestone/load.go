// Package milestone turns raw table records into sorted, typed events.
package milestone

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"milestones/internal/model"
)

// DateLayout is the only accepted date format.
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)

var errDateFormat = errors.New("expected YYYY-MM-DD")

// doneStatuses are the lower-case status values that mark a milestone as done.
var doneStatuses = map[string]struct{}{
	"done":     {},
	"erledigt": {},
	"true":     {},
	"yes":      {},
	"x":        {},
	"1":        {},
}

// IsDone reports whether status names a completed milestone. Only case is
// folded; surrounding whitespace is significant, so " Done" is not done.
func IsDone(status string) bool {
	_, ok := doneStatuses[strings.ToLower(status)]
	return ok
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, errDateFormat
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Load converts records into events sorted by date. Records with the same
// date keep their input order. The first malformed date aborts the load with
// a *model.ParseError naming the record.
func Load(records []model.Record) ([]*model.Event, error) {
	events := make([]*model.Event, 0, len(records))

	for _, r := range records {
		d, err := ParseDate(r.Date)
		if err != nil {
			return nil, &model.ParseError{Line: r.Line, Field: "date", Value: r.Date, Err: err}
		}
		events = append(events, &model.Event{
			Date:  d,
			Label: strings.TrimSpace(r.Description),
			Done:  IsDone(r.Status),
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	return events, nil
}
