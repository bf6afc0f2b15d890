package render

import (
	"context"
	"image"

	"github.com/fogleman/gg"

	"milestones/internal/layout"
)

// Raster paints scenes in process with gg.
type Raster struct {
	fonts *Fonts
}

// NewRaster returns a Raster backend drawing text with fonts.
func NewRaster(fonts *Fonts) *Raster {
	return &Raster{fonts: fonts}
}

// Render implements Renderer.
func (r *Raster) Render(_ context.Context, scene *layout.Scene) (image.Image, error) {
	c := newCanvas(scene, r.fonts)
	scene.Draw(c)
	return c.dc.Image(), nil
}

// canvas adapts a gg.Context to layout.Canvas.
type canvas struct {
	dc    *gg.Context
	fonts *Fonts
}

func newCanvas(scene *layout.Scene, fonts *Fonts) *canvas {
	dc := gg.NewContext(scene.Width, scene.Height)
	dc.SetColor(scene.Background)
	dc.Clear()
	return &canvas{dc: dc, fonts: fonts}
}

func (c *canvas) FillRect(r layout.Rect) {
	c.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
	c.dc.SetColor(r.Fill)
	c.dc.Fill()
}

func (c *canvas) DrawBox(b layout.Box) {
	c.dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, b.Radius)
	c.dc.SetColor(b.Fill)
	if b.StrokeWidth <= 0 {
		c.dc.Fill()
		return
	}
	c.dc.FillPreserve()
	c.dc.SetColor(b.Stroke)
	c.dc.SetLineWidth(b.StrokeWidth)
	c.dc.Stroke()
}

func (c *canvas) DrawLine(l layout.Line) {
	c.dc.SetColor(l.Color)
	c.dc.SetLineWidth(l.Width)
	c.dc.DrawLine(l.X1, l.Y1, l.X2, l.Y2)
	c.dc.Stroke()
}

func (c *canvas) FillCircle(ci layout.Circle) {
	c.dc.DrawCircle(ci.X, ci.Y, ci.R)
	c.dc.SetColor(ci.Fill)
	c.dc.Fill()
}

func (c *canvas) DrawText(t layout.Text) {
	if t.S == "" {
		return
	}
	face := c.fonts.Face(t.Face)
	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	w, _ := c.fonts.MeasureString(t.Face, t.S)

	// Anchor on the ascent+descent box, like SVG's central baseline.
	baseline := t.Y - t.AY*(ascent+descent) + ascent

	c.dc.SetFontFace(face)
	c.dc.SetColor(t.Color)
	c.dc.DrawString(t.S, t.X-t.AX*w, baseline)
}
