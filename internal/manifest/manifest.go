// Package manifest describes a finished lane assignment as YAML, for
// inspecting why a label ended up where it did.
package manifest

import (
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"

	"milestones/internal/lane"
	"milestones/internal/model"
)

// Manifest is the YAML document written next to the image with -dump.
type Manifest struct {
	Source  string  `yaml:"source"`
	Output  string  `yaml:"output"`
	Years   []int   `yaml:"years"`
	MaxLane int     `yaml:"max_lane"`
	Events  []Entry `yaml:"events"`
}

// Entry is one event with its footprint in month units.
type Entry struct {
	Date      string     `yaml:"date"`
	Label     string     `yaml:"label"`
	Done      bool       `yaml:"done"`
	Lane      int        `yaml:"lane"`
	Footprint [2]float64 `yaml:"footprint,flow"`
}

// Build collects the manifest for events that already carry lanes.
func Build(source, output string, events []*model.Event, sum lane.Summary, opts lane.Options) Manifest {
	m := Manifest{
		Source:  source,
		Output:  output,
		Years:   sum.Years,
		MaxLane: sum.MaxLane,
		Events:  make([]Entry, 0, len(events)),
	}
	for _, e := range events {
		iv := lane.Footprint(e, opts)
		m.Events = append(m.Events, Entry{
			Date:      e.Date.Format(time.DateOnly),
			Label:     e.Label,
			Done:      e.Done,
			Lane:      e.Lane(),
			Footprint: [2]float64{round3(iv.Left), round3(iv.Right)},
		})
	}
	return m
}

// Marshal encodes m as YAML.
func (m Manifest) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a manifest previously produced by Marshal.
func Unmarshal(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest: %w", err)
	}
	return m, nil
}

// Path returns where the manifest for an image at output is written.
func Path(output string) string {
	return output + ".layout.yaml"
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
