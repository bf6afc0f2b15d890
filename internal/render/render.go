// Package render paints a laid out timeline into an image.
//
// Two backends are available: "raster" draws in process with gg and is the
// default; "chromium" draws the same scene as SVG in headless Chromium.
package render

import (
	"context"
	"fmt"
	"image"

	"milestones/internal/layout"
)

const (
	KindRaster   = "raster"
	KindChromium = "chromium"
)

// Renderer turns a Scene into an image of exactly Scene.Width x Scene.Height.
type Renderer interface {
	Render(ctx context.Context, scene *layout.Scene) (image.Image, error)
}

// New returns the backend named kind.
func New(kind string, fonts *Fonts) (Renderer, error) {
	switch kind {
	case "", KindRaster:
		return NewRaster(fonts), nil
	case KindChromium:
		return &Chromium{}, nil
	default:
		return nil, fmt.Errorf("render: unknown renderer %q (want %s or %s)", kind, KindRaster, KindChromium)
	}
}
