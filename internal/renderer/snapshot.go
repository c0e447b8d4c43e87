// Package renderer turns page state into pixels. Capture copies what a frame
// needs out of the live document; Rasterizer draws a copy, so frames can be
// rasterised concurrently while the clock keeps mutating the page.
package renderer

import (
	"slices"
	"strconv"

	"github.com/ivlev/gloworb/internal/debugviz"
	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/geom"
	"github.com/ivlev/gloworb/internal/hue"
	"github.com/ivlev/gloworb/internal/scheduler"
)

// DefaultHue tints markers and glyphs before any hue was written
const DefaultHue = 45.0

type Glyph struct {
	Rect geom.Rect
	Text string
	Lit  bool
	Hue  float64
}

type Orb struct {
	Rect    geom.Rect
	Opacity float64
	Hue     float64
}

type Overlay struct {
	Overlay debugviz.Overlay
	Origin  geom.Point
}

// Snapshot is everything drawn for one frame
type Snapshot struct {
	Index    int
	Glyphs   []Glyph
	Orbs     []Orb
	Overlays []Overlay
}

// Capture copies the visible state of doc. runs supply the debug overlays.
func Capture(index int, doc *dom.Document, m dom.Measurer, runs []*scheduler.Run) Snapshot {
	s := Snapshot{Index: index}

	for _, g := range doc.QueryAll(dom.ClassGlyph) {
		s.Glyphs = append(s.Glyphs, Glyph{
			Rect: m.Measure(g),
			Text: g.TextContent(),
			Lit:  g.HasClass(dom.ClassIlluminated),
			Hue:  hueOf(g.Closest(dom.ClassSidebar), g.Closest(dom.ClassLanding)),
		})
	}

	for _, marker := range doc.QueryAll(dom.ClassMarker) {
		if marker.Opacity <= 0 {
			continue
		}
		s.Orbs = append(s.Orbs, Orb{
			Rect:    m.Measure(marker),
			Opacity: marker.Opacity,
			Hue:     hueOf(marker),
		})
	}

	for _, r := range runs {
		o := r.Overlay()
		if o == nil {
			continue
		}
		cp := *o
		cp.Markers = slices.Clone(o.Markers)
		s.Overlays = append(s.Overlays, Overlay{
			Overlay: cp,
			Origin:  m.Measure(r.Target.Container).Min(),
		})
	}
	return s
}

// hueOf reads the hue property from the first element that carries one
func hueOf(els ...*dom.Element) float64 {
	for _, el := range els {
		if el == nil {
			continue
		}
		if v := el.Prop(hue.Property); v != "" {
			if h, err := strconv.ParseFloat(v, 64); err == nil {
				return h
			}
		}
	}
	return DefaultHue
}
