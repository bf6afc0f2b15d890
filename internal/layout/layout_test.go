package layout

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milestones/internal/config"
	"milestones/internal/lane"
	"milestones/internal/model"
)

// fixedMeasurer treats every rune as half the face size wide.
type fixedMeasurer struct{}

func (fixedMeasurer) MeasureString(f Face, s string) (float64, float64) {
	return float64(len([]rune(s))) * f.Size / 2, f.Size
}

type recorder struct {
	rects   []Rect
	boxes   []Box
	lines   []Line
	circles []Circle
	texts   []Text
	order   []string
}

func (r *recorder) FillRect(x Rect) {
	r.rects = append(r.rects, x)
	r.order = append(r.order, "rect")
}

func (r *recorder) DrawBox(x Box) {
	r.boxes = append(r.boxes, x)
	r.order = append(r.order, "box")
}

func (r *recorder) DrawLine(x Line) {
	r.lines = append(r.lines, x)
	r.order = append(r.order, "line")
}

func (r *recorder) FillCircle(x Circle) {
	r.circles = append(r.circles, x)
	r.order = append(r.order, "circle")
}

func (r *recorder) DrawText(x Text) {
	r.texts = append(r.texts, x)
	r.order = append(r.order, "text")
}

func placed(t *testing.T, date, label string, done bool, k int) *model.Event {
	t.Helper()
	d, err := time.Parse(time.DateOnly, date)
	require.NoError(t, err)
	e := &model.Event{Date: d, Label: label, Done: done}
	require.NoError(t, e.SetLane(k))
	return e
}

func TestMonthAndYearLabels(t *testing.T) {
	assert.Equal(t, "JAN", MonthAbbrev(time.January))
	assert.Equal(t, "SEP", MonthAbbrev(time.September))
	assert.Equal(t, "’24", YearLabel(2024))
	assert.Equal(t, "’05", YearLabel(2005))
}

func TestPlaceAboveAndBelow(t *testing.T) {
	cfg := config.Default()
	events := []*model.Event{
		placed(t, "2024-02-23", "Genehmigung der DA", true, 0),
		placed(t, "2024-02-23", "Below", false, -1),
	}
	sum := lane.Summary{MaxLane: 1, Years: []int{2024}}

	plan, err := Place(events, sum, cfg, fixedMeasurer{})
	require.NoError(t, err)
	require.Len(t, plan.Labels, 2)

	above, below := plan.Labels[0], plan.Labels[1]
	assert.True(t, above.Above)
	assert.InDelta(t, cfg.BarHeight+cfg.LabelGap, above.Y, 1e-9)
	assert.InDelta(t, cfg.BarHeight+cfg.DotOffset, above.DotY, 1e-9)
	assert.InDelta(t, above.Y-above.H/2, above.EdgeY, 1e-9)
	assert.Greater(t, above.EdgeY, above.DotY)

	assert.False(t, below.Above)
	assert.InDelta(t, -cfg.LabelGap-cfg.LaneStep, below.Y, 1e-9)
	assert.InDelta(t, -cfg.DotOffset, below.DotY, 1e-9)
	assert.InDelta(t, below.Y+below.H/2, below.EdgeY, 1e-9)
	assert.Less(t, below.EdgeY, below.DotY)

	assert.Greater(t, above.W, below.W)
	assert.GreaterOrEqual(t, plan.Top, cfg.Margin)
	assert.LessOrEqual(t, plan.Bottom, -cfg.Margin)
}

func TestPlaceRowsStackDownward(t *testing.T) {
	cfg := config.Default()
	events := []*model.Event{
		placed(t, "2023-06-01", "a", false, 2),
		placed(t, "2024-06-01", "b", false, 0),
	}
	sum := lane.Summary{MaxLane: 2, Years: []int{2023, 2024}}

	plan, err := Place(events, sum, cfg, fixedMeasurer{})
	require.NoError(t, err)

	assert.InDelta(t, 0, plan.Rows[2023], 1e-9)
	assert.InDelta(t, -float64(2+cfg.RowPadding)*cfg.LaneStep, plan.Rows[2024], 1e-9)
	assert.InDelta(t, plan.Rows[2024]-cfg.Margin, plan.Bottom, 1e-9)
}

func TestPlaceRequiresLane(t *testing.T) {
	e := &model.Event{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Label: "x"}
	_, err := Place([]*model.Event{e}, lane.Summary{Years: []int{2024}}, config.Default(), fixedMeasurer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoLane))

	ok := placed(t, "2025-01-01", "y", false, 0)
	_, err = Place([]*model.Event{ok}, lane.Summary{Years: []int{2024}}, config.Default(), fixedMeasurer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year 2025")
}

func TestBuildScene(t *testing.T) {
	cfg := config.Default()
	events := []*model.Event{
		placed(t, "2024-02-23", "Genehmigung der DA", true, 0),
		placed(t, "2024-05-01", "Kickoff", false, 0),
	}
	sum := lane.Summary{MaxLane: 0, Years: []int{2024}}

	scene, err := Build(events, sum, cfg, fixedMeasurer{})
	require.NoError(t, err)

	assert.Equal(t, 4800, scene.Width)
	assert.Greater(t, scene.Height, 0)
	assert.Equal(t, config.MustHex(cfg.Background), scene.Background)

	var rec recorder
	scene.Draw(&rec)

	assert.Len(t, rec.rects, 12)
	assert.Len(t, rec.circles, 2)
	assert.Len(t, rec.lines, 2)
	assert.Len(t, rec.boxes, 4) // shadow + frame per label
	assert.Len(t, rec.texts, 12+1+2)

	assert.Equal(t, config.MustHex(cfg.MonthColors[0]), rec.rects[0].Fill)
	assert.Equal(t, "JAN", rec.texts[0].S)
	assert.Equal(t, "’24", rec.texts[12].S)

	assert.Equal(t, config.MustHex(cfg.DoneColor), rec.circles[0].Fill)
	assert.Equal(t, config.MustHex(cfg.OpenColor), rec.circles[1].Fill)

	// Bars come first, label frames last.
	assert.Equal(t, "rect", rec.order[0])
	assert.Equal(t, "text", rec.order[len(rec.order)-1])

	// Connector runs up from the dot to the bottom edge of the frame.
	frame := rec.boxes[2]
	line := rec.lines[0]
	assert.InDelta(t, frame.Y+frame.H, line.Y2, 1e-6)
	assert.Greater(t, line.Y1, line.Y2)
	assert.InDelta(t, frame.X+frame.W/2, line.X1, 1e-6)

	// Every primitive lies inside the canvas.
	for _, b := range rec.boxes {
		assert.GreaterOrEqual(t, b.Y, 0.0)
		assert.LessOrEqual(t, b.Y+b.H, float64(scene.Height))
	}
}

func TestBuildEmpty(t *testing.T) {
	cfg := config.Default()
	scene, err := Build(nil, lane.Summary{}, cfg, fixedMeasurer{})
	require.NoError(t, err)
	assert.Empty(t, scene.Items)
	assert.Equal(t, int(math.Ceil(2*cfg.Margin*cfg.Scale())), scene.Height)
}

// crowdedYears puts lanes -6..6 on one date in 2020 and a single event in
// each of the five following years.
func crowdedYears(t *testing.T) ([]*model.Event, lane.Summary) {
	t.Helper()
	var events []*model.Event
	for k := -6; k <= 6; k++ {
		events = append(events, placed(t, "2020-06-15", "Milestone", k%2 == 0, k))
	}
	for y := 2021; y <= 2025; y++ {
		events = append(events, placed(t, fmt.Sprintf("%d-03-01", y), "Review", false, 0))
	}
	return events, lane.Summary{MaxLane: 6, Years: []int{2020, 2021, 2022, 2023, 2024, 2025}}
}

func TestFitNarrowsLaneStepForManyYears(t *testing.T) {
	cfg := config.Default()
	events, sum := crowdedYears(t)
	budget := cfg.HeightBudget(len(sum.Years))
	require.InDelta(t, 6300, budget, 1e-9)

	natural, err := Place(events, sum, cfg, fixedMeasurer{})
	require.NoError(t, err)
	require.Greater(t, float64(natural.Height(cfg)), budget)

	plan, fitted, err := Fit(events, sum, cfg, fixedMeasurer{})
	require.NoError(t, err)
	assert.Less(t, fitted.LaneStep, cfg.LaneStep)
	assert.GreaterOrEqual(t, fitted.LaneStep, plan.tallest())
	assert.LessOrEqual(t, float64(plan.Height(fitted)), budget)

	scene, err := Build(events, sum, cfg, fixedMeasurer{})
	require.NoError(t, err)
	assert.Equal(t, 4800, scene.Width)
	assert.LessOrEqual(t, float64(scene.Height), budget)

	var rec recorder
	scene.Draw(&rec)
	require.Len(t, rec.boxes, 2*len(events))

	// Frames sharing the 2020 date must not overlap.
	x := rec.boxes[len(events)].X
	var frames []Box
	for _, b := range rec.boxes[len(events):] {
		if math.Abs(b.X-x) < 1e-6 {
			frames = append(frames, b)
		}
	}
	require.Len(t, frames, 13)
	slices.SortFunc(frames, func(a, b Box) int { return cmp.Compare(a.Y, b.Y) })
	for i := 1; i < len(frames); i++ {
		assert.LessOrEqual(t, frames[i-1].Y+frames[i-1].H, frames[i].Y+1e-6)
	}
	for _, b := range rec.boxes {
		assert.GreaterOrEqual(t, b.Y, 0.0)
		assert.LessOrEqual(t, b.Y+b.H, float64(scene.Height))
	}
}

func TestFitKeepsLaneStepWithinBudget(t *testing.T) {
	cfg := config.Default()
	cfg.BaseHeightInches = 100
	events, sum := crowdedYears(t)

	natural, err := Place(events, sum, cfg, fixedMeasurer{})
	require.NoError(t, err)
	plan, fitted, err := Fit(events, sum, cfg, fixedMeasurer{})
	require.NoError(t, err)

	assert.Equal(t, cfg.LaneStep, fitted.LaneStep)
	assert.Equal(t, natural.Height(cfg), plan.Height(fitted))
}

func TestBuildTooTall(t *testing.T) {
	cfg := config.Default()
	cfg.MaxHeight = 1000
	events := []*model.Event{placed(t, "2024-02-23", "Genehmigung der DA", true, 0)}

	_, err := Build(events, lane.Summary{Years: []int{2024}}, cfg, fixedMeasurer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooTall))
	assert.Contains(t, err.Error(), "exceeds 1000 px")
}
