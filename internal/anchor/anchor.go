package anchor

import (
	"math/rand"
	"strings"

	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/geom"
)

// Set holds the named points derived from one measurement pass. Every field is
// optional; a nil point means the anchor could not be resolved.
type Set struct {
	AnchorStart   *geom.Point
	AnchorEnd     *geom.Point
	BaselineStart *geom.Point
	BaselineEnd   *geom.Point
	Fallback      *geom.Point

	// BaselineY is the lowest glyph bottom in container coordinates
	BaselineY *float64
	// Extent is the envelope of measured glyphs, shifted into marker coordinates
	Extent *geom.Rect

	MarkerSize geom.Size
}

// Empty reports whether no point at all could be resolved
func (s Set) Empty() bool {
	return s.AnchorStart == nil && s.AnchorEnd == nil &&
		s.BaselineStart == nil && s.BaselineEnd == nil && s.Fallback == nil
}

// Input is what the resolver measures
type Input struct {
	Container *dom.Element
	Marker    *dom.Element
	Glyphs    []*dom.Element
}

// Resolver turns measured glyph rectangles into named anchor points
type Resolver struct {
	Measure dom.Measurer
	// Target is the special glyph text, compared case-insensitively
	Target         string
	BaselineOffset float64
	AnchorOffset   float64
	// FallbackRatio is the share of the fallback element's height below its top
	FallbackRatio float64

	rng *rand.Rand
}

// NewResolver creates a resolver with the default offsets
func NewResolver(measure dom.Measurer, rng *rand.Rand) *Resolver {
	return &Resolver{
		Measure:        measure,
		Target:         "i",
		BaselineOffset: 4,
		AnchorOffset:   0,
		FallbackRatio:  0.2,
		rng:            rng,
	}
}

type entry struct {
	el   *dom.Element
	rect geom.Rect
	sub  *geom.Rect
}

// Resolve measures the container and its glyphs. It never fails: missing
// geometry only leaves fields of the returned Set empty.
func (r *Resolver) Resolve(in Input) Set {
	var set Set
	if in.Container == nil {
		return set
	}
	origin := r.Measure.Measure(in.Container).Min()
	if in.Marker != nil {
		set.MarkerSize = r.Measure.Measure(in.Marker).Size()
	}
	half := set.MarkerSize.Half()

	// toMarker converts a page point to the marker's top-left in container space
	toMarker := func(p geom.Point) geom.Point {
		return p.Sub(origin).Sub(half)
	}

	entries := make([]entry, 0, len(in.Glyphs))
	for _, g := range in.Glyphs {
		rect := r.Measure.Measure(g)
		if rect.Empty() {
			continue
		}
		entries = append(entries, entry{el: g, rect: rect})
	}

	set.Fallback = r.fallback(in.Container, toMarker)
	if len(entries) == 0 {
		return set
	}

	baseline := entries[0].rect.Bottom()
	extent := entries[0].rect
	for _, e := range entries[1:] {
		if e.rect.Bottom() > baseline {
			baseline = e.rect.Bottom()
		}
		extent = extent.Union(e.rect)
	}
	localBaseline := baseline - origin.Y
	set.BaselineY = &localBaseline
	shifted := extent.Translate(origin.Scale(-1)).Translate(half.Scale(-1))
	set.Extent = &shifted

	baselinePoint := func(rect geom.Rect) *geom.Point {
		p := toMarker(geom.Point{X: rect.Center().X, Y: baseline + r.BaselineOffset})
		return &p
	}

	leftmost, rightmost := entries[0], entries[0]
	for _, e := range entries[1:] {
		if e.rect.Left() < leftmost.rect.Left() {
			leftmost = e
		}
		if e.rect.Left() > rightmost.rect.Left() {
			rightmost = e
		}
	}

	var special []entry
	for _, e := range entries {
		if !strings.EqualFold(strings.TrimSpace(e.el.TextContent()), r.Target) {
			continue
		}
		sub := e.el.Query(dom.ClassSubMarker)
		if sub == nil {
			continue
		}
		subRect := r.Measure.Measure(sub)
		e.sub = &subRect
		special = append(special, e)
	}

	if len(special) > 0 {
		first, last := special[0], special[0]
		for _, e := range special[1:] {
			if e.rect.Left() < first.rect.Left() {
				first = e
			}
			if e.rect.Left() > last.rect.Left() {
				last = e
			}
		}
		set.AnchorStart = r.anchorPoint(first, toMarker)
		set.AnchorEnd = r.anchorPoint(last, toMarker)
		set.BaselineStart = baselinePoint(last.rect)
	} else {
		set.BaselineStart = baselinePoint(rightmost.rect)
	}
	set.BaselineEnd = baselinePoint(leftmost.rect)

	return set
}

func (r *Resolver) anchorPoint(e entry, toMarker func(geom.Point) geom.Point) *geom.Point {
	c := e.sub.Center()
	p := toMarker(geom.Point{X: c.X, Y: c.Y + r.AnchorOffset})
	return &p
}

// fallback derives a start point from a special-glyph wrapper, picked at random,
// or from the first sub-marker when no wrapper exists.
func (r *Resolver) fallback(container *dom.Element, toMarker func(geom.Point) geom.Point) *geom.Point {
	var source *dom.Element
	if wrappers := container.QueryAll(dom.ClassSpecial); len(wrappers) > 0 {
		source = wrappers[r.rng.Intn(len(wrappers))]
	} else {
		source = container.Query(dom.ClassSubMarker)
	}
	if source == nil {
		return nil
	}
	rect := r.Measure.Measure(source)
	p := toMarker(geom.Point{X: rect.Center().X, Y: rect.Top() + rect.H*r.FallbackRatio})
	return &p
}
