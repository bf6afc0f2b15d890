package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "milestones/internal/log"
	"milestones/internal/model"
)

// MaxOccurrences caps the records produced by one recurring VEVENT. Rules
// without COUNT or UNTIL stop here.
const MaxOccurrences = 500

const (
	propStatus       = ical.ComponentProperty("STATUS")
	propRecurrenceID = ical.ComponentProperty("RECURRENCE-ID")
)

// icsEvent is a VEVENT reduced to what a milestone needs. Times are wall
// clock times in UTC; only their date ends up in a record.
type icsEvent struct {
	line int
	uid  string

	summary string
	status  string

	rawStart string
	start    time.Time
	hasStart bool

	rrule      string
	exDates    []time.Time
	recurrence *time.Time // RECURRENCE-ID, set on overrides only
}

// ReadICS turns an iCalendar stream into records: DTSTART becomes the
// date, SUMMARY the description and STATUS the status, with COMPLETED
// translated to "done".
//
// Recurring events yield one record per occurrence. RRULE is expanded with
// EXDATE removed, up to MaxOccurrences per event, and a VEVENT carrying a
// RECURRENCE-ID replaces the occurrence it names. Overrides whose series
// is not in the calendar are kept as single records.
func ReadICS(r io.Reader) ([]model.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("source: read ics: %w", err)
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("source: parse ics: %w", err)
	}
	starts := veventLines(data)

	var (
		bases     []*icsEvent
		overrides []*icsEvent
		byUID     = make(map[string][]*icsEvent)
		series    = make(map[string]bool)
	)
	for i, ve := range cal.Events() {
		line := i + 1
		if i < len(starts) {
			line = starts[i]
		}
		ev, err := parseVEvent(line, ve)
		if err != nil {
			return nil, err
		}
		if ev.recurrence != nil && ev.uid != "" {
			overrides = append(overrides, ev)
			byUID[ev.uid] = append(byUID[ev.uid], ev)
			continue
		}
		bases = append(bases, ev)
		series[ev.uid] = true
	}

	var records []model.Record
	for _, ev := range bases {
		recs, err := expand(ev, byUID[ev.uid])
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	for _, o := range overrides {
		if !series[o.uid] {
			records = append(records, o.record(nil))
		}
	}

	return records, nil
}

func parseVEvent(line int, ve *ical.VEvent) (*icsEvent, error) {
	ev := &icsEvent{line: line}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || strings.TrimSpace(dtStart.Value) == "" {
		return nil, &model.ParseError{Line: line, Field: "DTSTART", Err: errMissing}
	}
	ev.rawStart = strings.TrimSpace(dtStart.Value)
	if t, err := parseICSTime(ev.rawStart); err == nil {
		ev.start, ev.hasStart = t, true
	}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.uid = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.summary = p.Value
	}
	if p := ve.GetProperty(propStatus); p != nil {
		ev.status = p.Value
		if strings.EqualFold(p.Value, "COMPLETED") {
			ev.status = "done"
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.rrule = strings.TrimSpace(p.Value)
	}

	// EXDATE can repeat and hold comma separated values.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, err := parseICSTime(part)
			if err != nil {
				return nil, &model.ParseError{Line: line, Field: "EXDATE", Value: part, Err: err}
			}
			ev.exDates = append(ev.exDates, t)
		}
	}

	if p := ve.GetProperty(propRecurrenceID); p != nil {
		t, err := parseICSTime(p.Value)
		if err != nil {
			return nil, &model.ParseError{Line: line, Field: "RECURRENCE-ID", Value: p.Value, Err: err}
		}
		ev.recurrence = &t
	}

	return ev, nil
}

// expand returns the records of one series, with overrides applied.
func expand(ev *icsEvent, overrides []*icsEvent) ([]model.Record, error) {
	if ev.rrule == "" {
		if !ev.hasStart {
			// Handed on unparsed so the loader reports the date.
			return []model.Record{ev.record(nil)}, nil
		}
		return []model.Record{occurrence(ev, ev.start, overrides)}, nil
	}

	if !ev.hasStart {
		return nil, &model.ParseError{
			Line: ev.line, Field: "DTSTART", Value: ev.rawStart,
			Err: errors.New("recurring event needs a valid start"),
		}
	}
	rule, err := rrule.StrToRRule(ev.rrule)
	if err != nil {
		return nil, &model.ParseError{Line: ev.line, Field: "RRULE", Value: ev.rrule, Err: err}
	}
	rule.DTStart(ev.start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range ev.exDates {
		set.ExDate(ex)
	}

	var out []model.Record
	next := set.Iterator()
	for t, ok := next(); ok; t, ok = next() {
		if len(out) == MaxOccurrences {
			appLog.Warn("ics recurrence truncated",
				"line", ev.line,
				"uid", ev.uid,
				"cap", MaxOccurrences,
			)
			break
		}
		out = append(out, occurrence(ev, t, overrides))
	}
	return out, nil
}

// occurrence builds the record for the instance of ev starting at at,
// using the override whose RECURRENCE-ID matches it if there is one.
func occurrence(ev *icsEvent, at time.Time, overrides []*icsEvent) model.Record {
	for _, o := range overrides {
		if o.recurrence.Equal(at) {
			return o.record(ev)
		}
	}
	rec := ev.record(nil)
	rec.Date = at.Format(time.DateOnly)
	return rec
}

// record converts ev into a record. Empty fields of an override fall back
// to the series it belongs to.
func (ev *icsEvent) record(series *icsEvent) model.Record {
	rec := model.Record{
		Line:        ev.line,
		Date:        icsDate(ev.rawStart),
		Description: ev.summary,
		Status:      ev.status,
	}
	if ev.hasStart {
		rec.Date = ev.start.Format(time.DateOnly)
	}
	if series != nil {
		if rec.Description == "" {
			rec.Description = series.summary
		}
		if rec.Status == "" {
			rec.Status = series.status
		}
	}
	return rec
}

// parseICSTime parses a DATE or DATE-TIME value. Floating and TZID times
// keep their wall clock, read as UTC; milestones only use the date.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.UTC)
	default:
		return time.ParseInLocation("20060102", v, time.UTC)
	}
}

// icsDate rewrites the date part of an ICS DATE or DATE-TIME value
// (20240223 or 20240223T100000Z) as 2024-02-23. Anything else is returned
// unchanged so the loader reports it.
func icsDate(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < 8 || (len(v) > 8 && v[8] != 'T') {
		return v
	}
	return v[0:4] + "-" + v[4:6] + "-" + v[6:8]
}

// veventLines returns the 1-based line of every BEGIN:VEVENT in data, in
// document order.
func veventLines(data []byte) []int {
	var lines []int
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for n := 1; sc.Scan(); n++ {
		if strings.EqualFold(strings.TrimSpace(sc.Text()), "BEGIN:VEVENT") {
			lines = append(lines, n)
		}
	}
	return lines
}
