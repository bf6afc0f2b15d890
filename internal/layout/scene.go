package layout

import "image/color"

// Face selects a font. Size is in pixels.
type Face struct {
	Size float64
	Bold bool
}

// Measurer reports the rendered size of a string in pixels. The height is
// the line height of the face and does not depend on s.
type Measurer interface {
	MeasureString(face Face, s string) (w, h float64)
}

// Canvas receives the primitives of a Scene in paint order. All
// coordinates are in pixels with the origin at the top-left corner.
type Canvas interface {
	FillRect(r Rect)
	DrawBox(b Box)
	DrawLine(l Line)
	FillCircle(c Circle)
	DrawText(t Text)
}

// Item is a single drawable primitive.
type Item interface {
	Draw(c Canvas)
}

// Rect is an axis-aligned filled rectangle.
type Rect struct {
	X, Y, W, H float64
	Fill       color.NRGBA
}

// Box is a rounded rectangle with an optional outline.
type Box struct {
	X, Y, W, H  float64
	Radius      float64
	Fill        color.NRGBA
	Stroke      color.NRGBA
	StrokeWidth float64 // 0 disables the outline
}

// Line is a straight stroked segment.
type Line struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	Color          color.NRGBA
}

// Circle is a filled disc.
type Circle struct {
	X, Y, R float64
	Fill    color.NRGBA
}

// Text is a single line of text anchored at (X, Y). AX and AY select the
// anchor within the text extent: 0 is left/top, 0.5 centre, 1 right/bottom.
type Text struct {
	X, Y   float64
	AX, AY float64
	S      string
	Face   Face
	Color  color.NRGBA
}

func (r Rect) Draw(c Canvas) { c.FillRect(r) }
func (b Box) Draw(c Canvas) { c.DrawBox(b) }
func (l Line) Draw(c Canvas) { c.DrawLine(l) }
func (ci Circle) Draw(c Canvas) { c.FillCircle(ci) }
func (t Text) Draw(c Canvas) { c.DrawText(t) }

// Scene is a fully laid out timeline, ready to be painted.
type Scene struct {
	Width, Height int
	Background    color.NRGBA
	Items         []Item
}

// Draw paints every item onto c in order.
func (s *Scene) Draw(c Canvas) {
	for _, it := range s.Items {
		it.Draw(c)
	}
}
