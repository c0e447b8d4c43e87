package layout

import (
	"fmt"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/geom"
)

// FontMeasurer lays out title glyphs with Go Regular metrics
type FontMeasurer struct {
	Face font.Face
	Size float64
}

// NewFontMeasurer parses the embedded Go Regular font at size pixels per em
func NewFontMeasurer(size float64) (*FontMeasurer, error) {
	fnt, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	return &FontMeasurer{Face: face, Size: size}, nil
}

// SubMarkerSize is clamp(6, 0.28em, 12)
func (m *FontMeasurer) SubMarkerSize() float64 {
	return math.Min(12, math.Max(6, 0.28*m.Size))
}

// LineHeight is the height of one glyph box
func (m *FontMeasurer) LineHeight() float64 {
	metrics := m.Face.Metrics()
	return fix(metrics.Ascent + metrics.Descent)
}

// Ascent is the distance from a glyph box top to its baseline
func (m *FontMeasurer) Ascent() float64 {
	return fix(m.Face.Metrics().Ascent)
}

// Place assigns boxes to the title and everything under it, with the title's
// top-left at origin. It returns the title box.
func (m *FontMeasurer) Place(title *dom.Element, origin geom.Point) geom.Rect {
	height := m.LineHeight()
	glyphs := title.QueryAll(dom.ClassGlyph)

	if len(glyphs) == 0 {
		w := fix(font.MeasureString(m.Face, title.TextContent()))
		box := geom.Rect{X: origin.X, Y: origin.Y, W: w, H: height}
		setTree(title, box)
		return box
	}

	x := origin.X
	prev := rune(-1)
	for _, g := range glyphs {
		r := firstRune(g.TextContent())
		if prev >= 0 {
			x += fix(m.Face.Kern(prev, r))
		}
		adv, _ := m.Face.GlyphAdvance(r)
		g.Box = geom.Rect{X: x, Y: origin.Y, W: fix(adv), H: height}
		if sub := g.Query(dom.ClassSubMarker); sub != nil {
			s := m.SubMarkerSize()
			sub.Box = geom.Rect{
				X: g.Box.Center().X - s/2,
				Y: g.Box.Top() - 0.6*m.Size,
				W: s,
				H: s,
			}
		}
		x += g.Box.W
		prev = r
	}

	box := geom.Rect{X: origin.X, Y: origin.Y, W: x - origin.X, H: height}
	title.Box = box
	for _, c := range title.Children() {
		c.Box = box
	}
	return box
}

func setTree(el *dom.Element, box geom.Rect) {
	el.Box = box
	for _, c := range el.Children() {
		setTree(c, box)
	}
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return ' '
}

func fix(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
