package render

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"milestones/internal/layout"
)

// Fonts loads the Go regular and bold faces and caches one font.Face per
// size. It is the layout.Measurer for every backend, so text boxes match
// what the backends draw.
type Fonts struct {
	regular *truetype.Font
	bold    *truetype.Font
	faces   map[layout.Face]font.Face
}

// NewFonts parses the embedded Go fonts.
func NewFonts() (*Fonts, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse bold font: %w", err)
	}
	return &Fonts{
		regular: regular,
		bold:    bold,
		faces:   make(map[layout.Face]font.Face),
	}, nil
}

// Face returns the cached font.Face for fc.
func (f *Fonts) Face(fc layout.Face) font.Face {
	if face, ok := f.faces[fc]; ok {
		return face
	}
	ttf := f.regular
	if fc.Bold {
		ttf = f.bold
	}
	// Size is already in pixels, so render at 72 DPI.
	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    fc.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	f.faces[fc] = face
	return face
}

// MeasureString implements layout.Measurer.
func (f *Fonts) MeasureString(fc layout.Face, s string) (w, h float64) {
	face := f.Face(fc)
	adv := font.MeasureString(face, s)
	return float64(adv) / 64, float64(face.Metrics().Height) / 64
}
