package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"milestones/internal/model"
)

// Column names of the milestone table. Header matching ignores case and
// surrounding whitespace.
const (
	ColumnDate        = "date"
	ColumnDescription = "description"
	ColumnStatus      = "status"
)

var errMissing = errors.New("missing")

// ReadCSV reads a milestone table with a header row. The date and
// description columns are required; status is optional and defaults to
// empty. Extra columns are ignored. Each record carries the file line it
// starts on, so blank lines and quoted line breaks are accounted for.
func ReadCSV(r io.Reader) ([]model.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &model.ParseError{Line: 1, Field: ColumnDate, Err: fmt.Errorf("%w header row", errMissing)}
	}
	if err != nil {
		return nil, fmt.Errorf("source: read csv header: %w", err)
	}

	// Create case-insensitive column mapping
	columns := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	for _, required := range []string{ColumnDate, ColumnDescription} {
		if _, ok := columns[required]; !ok {
			return nil, &model.ParseError{
				Line:  1,
				Field: required,
				Err:   fmt.Errorf("%w column (header: %s)", errMissing, strings.Join(header, ",")),
			}
		}
	}

	var records []model.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("source: read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		rec := model.Record{Line: line}
		if rec.Date, err = field(row, columns, ColumnDate, line); err != nil {
			return nil, err
		}
		if rec.Description, err = field(row, columns, ColumnDescription, line); err != nil {
			return nil, err
		}
		if idx, ok := columns[ColumnStatus]; ok && idx < len(row) {
			rec.Status = row[idx]
		}
		records = append(records, rec)
	}

	return records, nil
}

func field(row []string, columns map[string]int, name string, line int) (string, error) {
	idx := columns[name]
	if idx >= len(row) {
		return "", &model.ParseError{Line: line, Field: name, Err: errMissing}
	}
	return row[idx], nil
}
