package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"milestones/internal/config"
	"milestones/internal/lane"
	"milestones/internal/layout"
	appLog "milestones/internal/log"
	"milestones/internal/model"
	"milestones/internal/pipeline"
	"milestones/internal/render"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// UsageError reports a command line that does not name exactly one input
// and one output.
type UsageError struct {
	Args []string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("expected 2 arguments (input, output), got %d", len(e.Args))
}

// flagConfig holds CLI flag values.
type flagConfig struct {
	renderer    string
	dump        bool
	metricsFile string
	debug       bool

	input  string
	output string
}

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, aborting", "signal", sig.String())
		cancel()
	}()

	code := run(ctx, os.Args[1:], os.Stderr)
	cancel()
	os.Exit(code)
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printUsage(stderr)
		return exitUsage
	}
	if err != nil {
		// flag already printed the problem and the usage text.
		return exitUsage
	}

	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		appLog.Error("invalid configuration", err)
		return exitFail
	}

	appLog.Debug("effective config",
		"renderer", flags.renderer,
		"dpi", cfg.DPI,
		"width_inches", cfg.WidthInches,
		"char_width", cfg.CharWidth,
		"max_lane", cfg.MaxLane,
		"dump", flags.dump,
		"metrics_file", flags.metricsFile,
	)

	_, err = pipeline.Run(ctx, pipeline.Options{
		Input:       flags.input,
		Output:      flags.output,
		Renderer:    flags.renderer,
		Dump:        flags.dump,
		MetricsFile: flags.metricsFile,
		Config:      cfg,
	})
	if err != nil {
		appLog.Error(describe(err), err, "input", flags.input, "output", flags.output)
		return exitFail
	}
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (flagConfig, error) {
	var cfg flagConfig

	fs := flag.NewFlagSet("milestones", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }

	fs.StringVar(&cfg.renderer, "renderer", render.KindRaster, "Backend: raster (in process) or chromium (headless browser)")
	fs.BoolVar(&cfg.dump, "dump", false, "Also write the lane assignment to <output>.layout.yaml")
	fs.StringVar(&cfg.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
	fs.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() != 2 {
		return cfg, &UsageError{Args: fs.Args()}
	}
	cfg.input, cfg.output = fs.Arg(0), fs.Arg(1)
	return cfg, nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: milestones [options] <milestones.csv|.ics> <output.png>\n")
	fmt.Fprintf(w, "\nOptions:\n")
	fmt.Fprintf(w, "  -renderer <name>      raster (default) or chromium\n")
	fmt.Fprintf(w, "  -dump                 Also write <output>.layout.yaml\n")
	fmt.Fprintf(w, "  -metrics-file <file>  Write Prometheus metrics to <file>\n")
	fmt.Fprintf(w, "  -debug                Enable debug logging\n")
	fmt.Fprintf(w, "\nThe CSV file needs the columns date (YYYY-MM-DD), description and status.\n")
	fmt.Fprintf(w, "Statuses done, erledigt, true, yes, x and 1 (any case) mark a milestone as done.\n")
	fmt.Fprintf(w, "Rendering parameters can be overridden with %s* environment variables.\n", config.EnvPrefix)
}

// describe names the failure class for the log line.
func describe(err error) string {
	var pe *model.ParseError
	var oe *lane.OverflowError
	switch {
	case errors.As(err, &pe):
		return "invalid input record"
	case errors.As(err, &oe):
		return "layout overflow"
	case errors.Is(err, layout.ErrTooTall):
		return "image too tall"
	default:
		return "render failed"
	}
}
