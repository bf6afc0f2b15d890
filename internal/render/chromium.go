package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/png"
	"strings"
	"time"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"milestones/internal/capture"
	"milestones/internal/layout"
)

// Chromium paints scenes by handing an SVG page to headless Chromium and
// screenshotting it.
type Chromium struct {
	// Timeout bounds the browser capture. Zero uses the capture default.
	Timeout time.Duration
}

// Render implements Renderer.
func (c *Chromium) Render(ctx context.Context, scene *layout.Scene) (image.Image, error) {
	data, err := capture.Screenshot(ctx, capture.Options{
		HTML:    Document(scene),
		Width:   scene.Width,
		Height:  scene.Height,
		Timeout: c.Timeout,
	})
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("render: decode screenshot: %w", err)
	}
	return img, nil
}

// Document returns a standalone HTML page holding scene as inline SVG. The
// Go fonts are embedded so the browser uses the same metrics as layout.
func Document(scene *layout.Scene) []byte {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><style>\n")
	fmt.Fprintf(&b, "@font-face{font-family:'Go';font-weight:400;src:url(data:font/ttf;base64,%s);}\n",
		base64.StdEncoding.EncodeToString(goregular.TTF))
	fmt.Fprintf(&b, "@font-face{font-family:'Go';font-weight:700;src:url(data:font/ttf;base64,%s);}\n",
		base64.StdEncoding.EncodeToString(gobold.TTF))
	b.WriteString("html,body{margin:0;padding:0;overflow:hidden;}\n")
	b.WriteString("</style></head><body>\n")

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" data-ready="true" width="%d" height="%d" viewBox="0 0 %d %d" font-family="Go">`+"\n",
		scene.Width, scene.Height, scene.Width, scene.Height)
	fmt.Fprintf(&b, `<rect x="0" y="0" width="%d" height="%d" %s/>`+"\n",
		scene.Width, scene.Height, paint("fill", scene.Background))

	scene.Draw(&svgCanvas{b: &b})

	b.WriteString("</svg>\n</body></html>\n")
	return []byte(b.String())
}

// svgCanvas writes each primitive as one SVG element.
type svgCanvas struct {
	b *strings.Builder
}

func (s *svgCanvas) FillRect(r layout.Rect) {
	fmt.Fprintf(s.b, `<rect x="%s" y="%s" width="%s" height="%s" %s/>`+"\n",
		num(r.X), num(r.Y), num(r.W), num(r.H), paint("fill", r.Fill))
}

func (s *svgCanvas) DrawBox(bx layout.Box) {
	stroke := `stroke="none"`
	if bx.StrokeWidth > 0 {
		stroke = paint("stroke", bx.Stroke) + fmt.Sprintf(` stroke-width="%s"`, num(bx.StrokeWidth))
	}
	fmt.Fprintf(s.b, `<rect x="%s" y="%s" width="%s" height="%s" rx="%s" %s %s/>`+"\n",
		num(bx.X), num(bx.Y), num(bx.W), num(bx.H), num(bx.Radius), paint("fill", bx.Fill), stroke)
}

func (s *svgCanvas) DrawLine(l layout.Line) {
	fmt.Fprintf(s.b, `<line x1="%s" y1="%s" x2="%s" y2="%s" %s stroke-width="%s"/>`+"\n",
		num(l.X1), num(l.Y1), num(l.X2), num(l.Y2), paint("stroke", l.Color), num(l.Width))
}

func (s *svgCanvas) FillCircle(c layout.Circle) {
	fmt.Fprintf(s.b, `<circle cx="%s" cy="%s" r="%s" %s/>`+"\n",
		num(c.X), num(c.Y), num(c.R), paint("fill", c.Fill))
}

func (s *svgCanvas) DrawText(t layout.Text) {
	if t.S == "" {
		return
	}
	anchor := "middle"
	switch {
	case t.AX <= 0:
		anchor = "start"
	case t.AX >= 1:
		anchor = "end"
	}
	baseline := "central"
	switch {
	case t.AY <= 0:
		baseline = "hanging"
	case t.AY >= 1:
		baseline = "text-after-edge"
	}
	weight := 400
	if t.Face.Bold {
		weight = 700
	}
	fmt.Fprintf(s.b, `<text x="%s" y="%s" font-size="%s" font-weight="%d" text-anchor="%s" dominant-baseline="%s" %s>%s</text>`+"\n",
		num(t.X), num(t.Y), num(t.Face.Size), weight, anchor, baseline, paint("fill", t.Color), html.EscapeString(t.S))
}

// paint renders a color as an SVG attribute, with opacity when translucent.
func paint(attr string, c color.NRGBA) string {
	out := fmt.Sprintf(`%s="#%02x%02x%02x"`, attr, c.R, c.G, c.B)
	if c.A != 0xff {
		out += fmt.Sprintf(` %s-opacity="%s"`, attr, num(float64(c.A)/255))
	}
	return out
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
