// Package source reads raw milestone records from files. It is the only
// place that knows about file formats; everything downstream sees
// model.Record values.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"milestones/internal/model"
)

// Open reads all records from path. Files ending in .ics are read as
// iCalendar; everything else as CSV.
func Open(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".ics") {
		return ReadICS(f)
	}
	return ReadCSV(f)
}
