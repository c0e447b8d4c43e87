package layout

import (
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"
	"unicode"

	"github.com/ivlev/gloworb/internal/analyzer"
	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/geom"
)

// ErrNoGlyphs is returned when the detector finds nothing on the raster
var ErrNoGlyphs = errors.New("no glyphs detected")

// glyphGroup is one letter: its body and an optional detached dot above it
type glyphGroup struct {
	body image.Rectangle
	dot  *image.Rectangle
}

// FromRaster builds a title from glyph boxes detected on a header raster.
// Raster pixels map to page coordinates as at + p*scale. Characters of text
// (spaces excluded) are assigned in reading order when their count matches the
// detected glyphs; otherwise every dotted glyph is taken to be an "i" and the
// rest stay anonymous.
func FromRaster(img image.Image, text string, det analyzer.Detector, at geom.Point, scale float64) (*dom.Element, error) {
	blocks, err := det.Detect(img)
	if err != nil {
		return nil, fmt.Errorf("detect glyphs: %w", err)
	}
	if len(blocks) == 0 {
		return nil, ErrNoGlyphs
	}

	groups := groupGlyphs(blocks)
	chars := []rune(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text))
	matched := len(chars) == len(groups)

	origin := img.Bounds().Min
	toPage := func(r image.Rectangle) geom.Rect {
		r = r.Sub(origin)
		return geom.Rect{
			X: at.X + float64(r.Min.X)*scale,
			Y: at.Y + float64(r.Min.Y)*scale,
			W: float64(r.Dx()) * scale,
			H: float64(r.Dy()) * scale,
		}
	}

	h := dom.NewElement("h2", dom.ClassPageTitle)
	link := h.Append(dom.NewElement("a"))
	var box geom.Rect
	for k, g := range groups {
		ch := ""
		if matched {
			ch = string(chars[k])
		} else if g.dot != nil {
			ch = "i"
		}

		span := link.Append(dom.NewElement("span", dom.ClassGlyph))
		span.Text = ch
		span.Box = toPage(g.body)
		if strings.EqualFold(ch, "i") && g.dot != nil {
			span.AddClass(dom.ClassSpecial)
			sub := span.Append(dom.NewElement("span", dom.ClassSubMarker))
			sub.Box = toPage(*g.dot)
		}

		if k == 0 {
			box = span.Box
		} else {
			box = box.Union(span.Box)
		}
	}
	h.Box = box
	link.Box = box
	return h, nil
}

// groupGlyphs merges blocks that share columns. Within a merged group the
// topmost block is a dot when it lies entirely above the rest and is smaller
// than each of them.
func groupGlyphs(blocks []analyzer.Block) []glyphGroup {
	rects := make([]image.Rectangle, len(blocks))
	for i, b := range blocks {
		rects[i] = b.Rect
	}
	sort.SliceStable(rects, func(i, j int) bool { return rects[i].Min.X < rects[j].Min.X })

	var columns [][]image.Rectangle
	for _, r := range rects {
		n := len(columns)
		if n > 0 && overlapsX(span(columns[n-1]), r) {
			columns[n-1] = append(columns[n-1], r)
			continue
		}
		columns = append(columns, []image.Rectangle{r})
	}

	groups := make([]glyphGroup, 0, len(columns))
	for _, col := range columns {
		sort.SliceStable(col, func(i, j int) bool { return col[i].Min.Y < col[j].Min.Y })
		g := glyphGroup{body: span(col)}
		if len(col) > 1 {
			top, rest := col[0], span(col[1:])
			if top.Max.Y <= rest.Min.Y && area(top) < area(rest) {
				dot := top
				g.dot = &dot
				g.body = rest
			}
		}
		groups = append(groups, g)
	}
	return groups
}

func span(rs []image.Rectangle) image.Rectangle {
	r := rs[0]
	for _, o := range rs[1:] {
		r = r.Union(o)
	}
	return r
}

func overlapsX(a, b image.Rectangle) bool {
	return a.Min.X < b.Max.X && b.Min.X < a.Max.X
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}
