package config

import (
	"errors"
	"fmt"
	"image/color"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"

	"milestones/internal/lane"
)

// EnvPrefix is prepended to every environment variable read by FromEnv.
const EnvPrefix = "MILESTONES_"

// Render holds every fixed rendering parameter. Geometry is expressed in
// month units (one month band is 1.0 wide) unless noted otherwise. A Render
// is passed by value and never mutated after FromEnv returns.
type Render struct {
	// BarHeight is the height of the month band row.
	BarHeight float64 `env:"BAR_HEIGHT"`
	// LaneStep is the vertical distance between adjacent lanes.
	LaneStep float64 `env:"LANE_STEP"`
	// LabelGap is the distance from the bar to the centre of a lane-0 label.
	LabelGap float64 `env:"LABEL_GAP"`
	// DotRadius is the radius of the status dot.
	DotRadius float64 `env:"DOT_RADIUS"`
	// DotOffset is the distance from the bar edge to the dot centre.
	DotOffset float64 `env:"DOT_OFFSET"`
	// ShadowOffset shifts the label shadow right and down.
	ShadowOffset float64 `env:"SHADOW_OFFSET"`
	// RowPadding is added to the widest lane when spacing year rows, in lanes.
	RowPadding int `env:"ROW_PADDING"`
	// Margin is the minimum blank space above the first and below the last row.
	Margin float64 `env:"MARGIN"`

	// XMin and XMax bound the visible horizontal range.
	XMin float64 `env:"X_MIN"`
	XMax float64 `env:"X_MAX"`

	// DPI and WidthInches fix the output pixel width.
	DPI         int     `env:"DPI"`
	WidthInches float64 `env:"WIDTH_INCHES"`
	// BaseHeightInches plus YearHeightInches per additional year is the
	// height budget. Taller timelines are compressed vertically.
	BaseHeightInches float64 `env:"BASE_HEIGHT_INCHES"`
	YearHeightInches float64 `env:"YEAR_HEIGHT_INCHES"`
	// MaxHeight is the hard limit on the image height in pixels.
	MaxHeight int `env:"MAX_HEIGHT"`

	// FontSize and YearFontSize are in points.
	FontSize     float64 `env:"FONT_SIZE"`
	YearFontSize float64 `env:"YEAR_FONT_SIZE"`
	// BoxPad is the label box padding as a fraction of the font size.
	BoxPad float64 `env:"BOX_PAD"`
	// BoxLineWidth is the label frame width in points.
	BoxLineWidth float64 `env:"BOX_LINE_WIDTH"`

	MonthColors []string `env:"MONTH_COLORS" envSeparator:","`
	DoneColor   string   `env:"DONE_COLOR"`
	OpenColor   string   `env:"OPEN_COLOR"`
	Background  string   `env:"BACKGROUND"`
	Ink         string   `env:"INK"`
	// ShadowAlpha is the opacity of the black label shadow.
	ShadowAlpha float64 `env:"SHADOW_ALPHA"`

	// CharWidth, MinWidth and MaxLane feed the lane assigner.
	CharWidth float64 `env:"CHAR_WIDTH"`
	MinWidth  float64 `env:"MIN_WIDTH"`
	MaxLane   int     `env:"MAX_LANE"`
}

// Default returns the reference rendering parameters.
func Default() Render {
	return Render{
		BarHeight:    0.32,
		LaneStep:     0.9,
		LabelGap:     0.45,
		DotRadius:    0.13,
		DotOffset:    0.17,
		ShadowOffset: 0.06,
		RowPadding:   4,
		Margin:       3,

		XMin: -0.5,
		XMax: 13,

		DPI:              300,
		WidthInches:      16,
		BaseHeightInches: 6,
		YearHeightInches: 3,
		MaxHeight:        32768,

		FontSize:     11,
		YearFontSize: 16,
		BoxPad:       0.3,
		BoxLineWidth: 1,

		MonthColors: []string{
			"#e9ff00", "#f6c820", "#e47600", "#ff6000",
			"#e40000", "#c40016", "#ff9cc7", "#c38cff",
			"#937ebf", "#645aaf", "#475cc9", "#1e4ba6",
		},
		DoneColor:   "#34c759",
		OpenColor:   "#e63946",
		Background:  "#ffffff",
		Ink:         "#000000",
		ShadowAlpha: 0.12,

		CharWidth: 0.14,
		MinWidth:  1.0,
		MaxLane:   20,
	}
}

// FromEnv returns Default overlaid with any MILESTONES_* environment
// variables, validated.
func FromEnv() (Render, error) {
	cfg := Default()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Render{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Render{}, err
	}
	return cfg, nil
}

// Validate checks that every parameter is usable.
func (c Render) Validate() error {
	var errs []error

	positive := map[string]float64{
		"BAR_HEIGHT":         c.BarHeight,
		"LANE_STEP":          c.LaneStep,
		"DOT_RADIUS":         c.DotRadius,
		"WIDTH_INCHES":       c.WidthInches,
		"BASE_HEIGHT_INCHES": c.BaseHeightInches,
		"FONT_SIZE":          c.FontSize,
		"YEAR_FONT_SIZE":     c.YearFontSize,
		"CHAR_WIDTH":         c.CharWidth,
		"MIN_WIDTH":          c.MinWidth,
	}
	for _, name := range slices.Sorted(maps.Keys(positive)) {
		if positive[name] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %g", name, positive[name]))
		}
	}
	if c.DPI <= 0 {
		errs = append(errs, fmt.Errorf("DPI must be > 0, got %d", c.DPI))
	}
	if c.XMax <= c.XMin {
		errs = append(errs, fmt.Errorf("X_MAX (%g) must be greater than X_MIN (%g)", c.XMax, c.XMin))
	}
	if c.YearHeightInches < 0 {
		errs = append(errs, fmt.Errorf("YEAR_HEIGHT_INCHES must be >= 0, got %g", c.YearHeightInches))
	}
	if c.MaxHeight <= 0 {
		errs = append(errs, fmt.Errorf("MAX_HEIGHT must be > 0, got %d", c.MaxHeight))
	}
	if c.MaxLane < 0 {
		errs = append(errs, fmt.Errorf("MAX_LANE must be >= 0, got %d", c.MaxLane))
	}
	if c.RowPadding < 0 {
		errs = append(errs, fmt.Errorf("ROW_PADDING must be >= 0, got %d", c.RowPadding))
	}
	if c.ShadowAlpha < 0 || c.ShadowAlpha > 1 {
		errs = append(errs, fmt.Errorf("SHADOW_ALPHA must be within [0,1], got %g", c.ShadowAlpha))
	}
	if len(c.MonthColors) != 12 {
		errs = append(errs, fmt.Errorf("MONTH_COLORS needs 12 entries, got %d", len(c.MonthColors)))
	}

	colors := append([]string{c.DoneColor, c.OpenColor, c.Background, c.Ink}, c.MonthColors...)
	for _, s := range colors {
		if _, err := ParseHex(s); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// LaneOptions projects the lane heuristics out of c.
func (c Render) LaneOptions() lane.Options {
	return lane.Options{
		CharWidth:    c.CharWidth,
		MinWidth:     c.MinWidth,
		MaxMagnitude: c.MaxLane,
	}
}

// Scale returns the number of pixels per month unit.
func (c Render) Scale() float64 {
	return float64(c.DPI) * c.WidthInches / (c.XMax - c.XMin)
}

// HeightBudget returns the preferred image height in pixels for a timeline
// spanning the given number of years.
func (c Render) HeightBudget(years int) float64 {
	if years < 1 {
		years = 1
	}
	return float64(c.DPI) * (c.BaseHeightInches + c.YearHeightInches*float64(years-1))
}

// PointsToPixels converts a font or line size in points to pixels.
func (c Render) PointsToPixels(pt float64) float64 {
	return pt * float64(c.DPI) / 72
}

// ParseHex parses "#rgb" or "#rrggbb" into an opaque color.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 || !strings.HasPrefix(s, "#") {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// MustHex is ParseHex for values already checked by Validate.
func MustHex(s string) color.NRGBA {
	c, err := ParseHex(s)
	if err != nil {
		panic(err)
	}
	return c
}
