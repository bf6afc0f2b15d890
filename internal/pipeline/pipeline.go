// Package pipeline runs one complete render: read records, load events,
// assign lanes, lay out, paint, encode and write. Nothing is written unless
// every earlier step succeeded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"milestones/internal/config"
	"milestones/internal/convert"
	"milestones/internal/lane"
	"milestones/internal/layout"
	appLog "milestones/internal/log"
	"milestones/internal/manifest"
	"milestones/internal/metrics"
	"milestones/internal/milestone"
	"milestones/internal/model"
	"milestones/internal/output"
	"milestones/internal/render"
	"milestones/internal/source"
)

// ErrNoEvents is returned when the input holds no records.
var ErrNoEvents = errors.New("pipeline: no milestones in input")

// Options configures a run.
type Options struct {
	// Input is the milestone table (.csv or .ics).
	Input string
	// Output is the PNG to write.
	Output string
	// Renderer selects the backend, see render.New.
	Renderer string
	// Dump also writes the lane assignment as YAML next to Output.
	Dump bool
	// MetricsFile, if set, receives run metrics in Prometheus text format.
	MetricsFile string
	// Config holds the rendering parameters.
	Config config.Render
}

// Result describes a successful run.
type Result struct {
	Events  []*model.Event
	Summary lane.Summary
	Width   int
	Height  int
	Bytes   int
}

// Run executes the whole pipeline.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Input == "" || opts.Output == "" {
		return nil, errors.New("pipeline: input and output paths are required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	rec := metrics.New()
	stage := func(name string, start time.Time) {
		d := time.Since(start)
		rec.ObserveStage(name, d)
		appLog.Debug("stage finished", "stage", name, "duration", d)
	}

	fonts, err := render.NewFonts()
	if err != nil {
		return nil, err
	}
	renderer, err := render.New(opts.Renderer, fonts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := source.Open(opts.Input)
	if err != nil {
		return nil, err
	}
	events, err := milestone.Load(records)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNoEvents
	}
	stage("load", start)
	appLog.Info("milestones loaded", "path", opts.Input, "count", len(events))

	start = time.Now()
	laneOpts := opts.Config.LaneOptions()
	sum, err := lane.Assign(events, laneOpts)
	if err != nil {
		return nil, err
	}
	stage("assign", start)
	appLog.Debug("lanes assigned", "max_lane", sum.MaxLane, "years", len(sum.Years))

	start = time.Now()
	scene, err := layout.Build(events, sum, opts.Config, fonts)
	if err != nil {
		return nil, err
	}
	stage("layout", start)

	start = time.Now()
	img, err := renderer.Render(ctx, scene)
	if err != nil {
		return nil, err
	}
	data, err := convert.EncodePNG(img, opts.Config.DPI)
	if err != nil {
		return nil, err
	}
	stage("render", start)

	var dump []byte
	if opts.Dump {
		dump, err = manifest.Build(opts.Input, opts.Output, events, sum, laneOpts).Marshal()
		if err != nil {
			return nil, err
		}
	}

	start = time.Now()
	if err := writeArtifacts(opts.Output, data, dump); err != nil {
		return nil, err
	}
	stage("write", start)

	for _, e := range events {
		rec.ObserveEvent(e.Done)
	}
	rec.ObserveLayout(sum.MaxLane, len(sum.Years))
	rec.MarkSuccess(time.Now())
	if opts.MetricsFile != "" {
		if err := rec.WriteTextfile(opts.MetricsFile); err != nil {
			appLog.Warn("metrics not written", "path", opts.MetricsFile, "err", err)
		}
	}

	appLog.Info("timeline written",
		"path", opts.Output,
		"width", scene.Width,
		"height", scene.Height,
		"bytes", len(data),
		"years", len(sum.Years),
		"max_lane", sum.MaxLane,
	)

	return &Result{
		Events:  events,
		Summary: sum,
		Width:   scene.Width,
		Height:  scene.Height,
		Bytes:   len(data),
	}, nil
}

// writeArtifacts writes the image and the optional manifest. The manifest
// is staged first and moved into place only once the image is written, so
// a failed run leaves the previous manifest alone.
func writeArtifacts(out string, png, dump []byte) error {
	var staged *output.Staged
	if dump != nil {
		var err error
		if staged, err = output.Stage(manifest.Path(out), dump, 0o644); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
	}
	if err := output.WriteFile(out, png, 0o644); err != nil {
		if staged != nil {
			staged.Discard()
		}
		return fmt.Errorf("write image: %w", err)
	}
	if staged != nil {
		if err := staged.Commit(); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
	}
	return nil
}
