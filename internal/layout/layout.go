// Package layout turns events with lanes into a Scene of pixel primitives.
//
// Positions are computed in data units first: one month band is 1.0 wide,
// year rows are stacked downward, and lane k of a row sits k lane steps away
// from the bar. The data space is then mapped to pixels with the same scale
// on both axes. When the image would outgrow its height budget the lane
// step is narrowed, never below the height of the tallest label box.
package layout

import (
	"errors"
	"fmt"
	"image/color"
	"maps"
	"math"
	"slices"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"milestones/internal/config"
	"milestones/internal/lane"
	"milestones/internal/model"
)

var (
	// ErrNoLane is returned when an event reaches layout without a lane.
	ErrNoLane = errors.New("layout: event has no lane")
	// ErrTooTall is returned when the image would exceed the configured
	// maximum height.
	ErrTooTall = errors.New("layout: image too tall")
)

// yearLabelX is where the year label starts, right of December.
const yearLabelX = 12.5

// extentPad keeps box outlines off the image edge.
const extentPad = 0.2

// fitSteps bounds the search for the widest lane step within budget.
const fitSteps = 32

var upper = cases.Upper(language.English)

// MonthAbbrev returns the upper-case three letter name of m, e.g. "FEB".
func MonthAbbrev(m time.Month) string {
	return upper.String(m.String()[:3])
}

// YearLabel returns the short year marker drawn after December, e.g. "’24".
func YearLabel(year int) string {
	return fmt.Sprintf("’%02d", year%100)
}

// Label is the placement of one milestone in data units.
type Label struct {
	Event *model.Event
	// X is the horizontal position of date, dot, connector and label centre.
	X float64
	// Y is the vertical centre of the label box.
	Y float64
	// W and H are the label box size including padding.
	W, H float64
	// DotY is the centre of the status dot.
	DotY float64
	// EdgeY is where the connector meets the label box.
	EdgeY float64
	// Above is true for lanes >= 0.
	Above bool
}

// Plan is the data-space layout before it is mapped to pixels.
type Plan struct {
	Rows   map[int]float64 // year -> y of the bottom of its bar
	Labels []Label
	Top    float64
	Bottom float64
}

// Height returns the image height of p in pixels.
func (p *Plan) Height(cfg config.Render) int {
	return int(math.Ceil((p.Top - p.Bottom) * cfg.Scale()))
}

func (p *Plan) tallest() float64 {
	var h float64
	for _, l := range p.Labels {
		h = math.Max(h, l.H)
	}
	return h
}

// Place computes the data-space layout of events. Every event must carry a
// lane and belong to one of sum.Years.
func Place(events []*model.Event, sum lane.Summary, cfg config.Render, m Measurer) (*Plan, error) {
	scale := cfg.Scale()
	face := Face{Size: cfg.PointsToPixels(cfg.FontSize)}
	pad := cfg.BoxPad * face.Size

	rowStep := float64(sum.MaxLane+cfg.RowPadding) * cfg.LaneStep
	rows := make(map[int]float64, len(sum.Years))
	for idx, y := range sum.Years {
		rows[y] = -float64(idx) * rowStep
	}

	plan := &Plan{
		Rows:   rows,
		Labels: make([]Label, 0, len(events)),
		Top:    cfg.Margin,
		Bottom: -cfg.Margin,
	}
	if len(sum.Years) > 0 {
		plan.Bottom = rows[sum.Years[len(sum.Years)-1]] - cfg.Margin
	}

	for _, e := range events {
		if !e.HasLane() {
			return nil, fmt.Errorf("%w: %s %q", ErrNoLane, e.Date.Format(time.DateOnly), e.Label)
		}
		y0, ok := rows[e.Year()]
		if !ok {
			return nil, fmt.Errorf("layout: year %d of %q missing from summary", e.Year(), e.Label)
		}

		tw, th := m.MeasureString(face, e.Label)
		l := Label{
			Event: e,
			X:     lane.Position(e.Date),
			W:     (tw + 2*pad) / scale,
			H:     (th + 2*pad) / scale,
			Above: e.Lane() >= 0,
		}
		k := float64(e.Lane()) * cfg.LaneStep
		if l.Above {
			l.Y = y0 + cfg.BarHeight + cfg.LabelGap + k
			l.DotY = y0 + cfg.BarHeight + cfg.DotOffset
			l.EdgeY = l.Y - l.H/2
		} else {
			l.Y = y0 - cfg.LabelGap + k
			l.DotY = y0 - cfg.DotOffset
			l.EdgeY = l.Y + l.H/2
		}

		plan.Top = math.Max(plan.Top, l.Y+l.H/2+extentPad)
		plan.Bottom = math.Min(plan.Bottom, l.Y-l.H/2-cfg.ShadowOffset-extentPad)
		plan.Labels = append(plan.Labels, l)
	}

	return plan, nil
}

// Fit places events within cfg.HeightBudget. If the plan at cfg.LaneStep
// is too tall, it searches for the widest narrower step that fits. The step
// never drops below the tallest label box, so neighbouring lanes cannot
// overlap and a very dense timeline may stay over budget. The returned
// config carries the lane step in use.
func Fit(events []*model.Event, sum lane.Summary, cfg config.Render, m Measurer) (*Plan, config.Render, error) {
	place := func(step float64) (*Plan, config.Render, error) {
		c := cfg
		c.LaneStep = step
		p, err := Place(events, sum, c, m)
		return p, c, err
	}

	plan, err := Place(events, sum, cfg, m)
	if err != nil {
		return nil, cfg, err
	}
	budget := cfg.HeightBudget(len(sum.Years))
	minStep := plan.tallest()
	if float64(plan.Height(cfg)) <= budget || minStep >= cfg.LaneStep {
		return plan, cfg, nil
	}

	best, bestCfg, err := place(minStep)
	if err != nil {
		return nil, cfg, err
	}
	if float64(best.Height(bestCfg)) > budget {
		return best, bestCfg, nil
	}
	lo, hi := minStep, cfg.LaneStep
	for i := 0; i < fitSteps; i++ {
		mid := (lo + hi) / 2
		p, c, err := place(mid)
		if err != nil {
			return nil, cfg, err
		}
		if float64(p.Height(c)) <= budget {
			lo, best, bestCfg = mid, p, c
		} else {
			hi = mid
		}
	}
	return best, bestCfg, nil
}

// Build lays out events and returns the Scene to paint.
func Build(events []*model.Event, sum lane.Summary, cfg config.Render, m Measurer) (*Scene, error) {
	plan, cfg, err := Fit(events, sum, cfg, m)
	if err != nil {
		return nil, err
	}
	height := plan.Height(cfg)
	if height > cfg.MaxHeight {
		return nil, fmt.Errorf("%w: %d px exceeds %d px", ErrTooTall, height, cfg.MaxHeight)
	}

	scale := cfg.Scale()
	px := func(x float64) float64 { return (x - cfg.XMin) * scale }
	py := func(y float64) float64 { return (plan.Top - y) * scale }
	size := func(d float64) float64 { return d * scale }

	ink := config.MustHex(cfg.Ink)
	paper := config.MustHex(cfg.Background)
	shadow := color.NRGBA{A: uint8(math.Round(cfg.ShadowAlpha * 255))}
	labelFace := Face{Size: cfg.PointsToPixels(cfg.FontSize)}
	monthFace := Face{Size: labelFace.Size, Bold: true}
	yearFace := Face{Size: cfg.PointsToPixels(cfg.YearFontSize), Bold: true}
	pad := cfg.BoxPad * labelFace.Size
	lineWidth := cfg.PointsToPixels(cfg.BoxLineWidth)

	var bands, captions, shadows, connectors, boxes []Item

	for _, year := range slices.Sorted(maps.Keys(plan.Rows)) {
		y0 := plan.Rows[year]
		midY := py(y0 + cfg.BarHeight/2)
		for i := 0; i < 12; i++ {
			bands = append(bands, Rect{
				X:    px(float64(i)),
				Y:    py(y0 + cfg.BarHeight),
				W:    size(1),
				H:    size(cfg.BarHeight),
				Fill: config.MustHex(cfg.MonthColors[i]),
			})
			captions = append(captions, Text{
				X: px(float64(i) + 0.5), Y: midY, AX: 0.5, AY: 0.5,
				S: MonthAbbrev(time.Month(i + 1)), Face: monthFace, Color: ink,
			})
		}
		captions = append(captions, Text{
			X: px(yearLabelX), Y: midY, AX: 0, AY: 0.5,
			S: YearLabel(year), Face: yearFace, Color: ink,
		})
	}

	for _, l := range plan.Labels {
		w, h := size(l.W), size(l.H)
		cx, cy := px(l.X), py(l.Y)

		shadows = append(shadows, Box{
			X: px(l.X+cfg.ShadowOffset) - w/2, Y: py(l.Y-cfg.ShadowOffset) - h/2,
			W: w, H: h, Radius: pad, Fill: shadow,
		})

		dot := config.MustHex(cfg.OpenColor)
		if l.Event.Done {
			dot = config.MustHex(cfg.DoneColor)
		}
		connectors = append(connectors,
			Line{X1: cx, Y1: py(l.DotY), X2: cx, Y2: py(l.EdgeY), Width: lineWidth, Color: ink},
			Circle{X: cx, Y: py(l.DotY), R: size(cfg.DotRadius), Fill: dot},
		)

		boxes = append(boxes,
			Box{
				X: cx - w/2, Y: cy - h/2, W: w, H: h, Radius: pad,
				Fill: paper, Stroke: ink, StrokeWidth: lineWidth,
			},
			Text{X: cx, Y: cy, AX: 0.5, AY: 0.5, S: l.Event.Label, Face: labelFace, Color: ink},
		)
	}

	items := make([]Item, 0, len(bands)+len(captions)+len(shadows)+len(connectors)+len(boxes))
	items = append(items, bands...)
	items = append(items, captions...)
	items = append(items, shadows...)
	items = append(items, connectors...)
	items = append(items, boxes...)

	return &Scene{
		Width:      int(math.Round(size(cfg.XMax - cfg.XMin))),
		Height:     height,
		Background: paper,
		Items:      items,
	}, nil
}
