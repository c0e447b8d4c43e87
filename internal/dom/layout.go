package dom

import "github.com/ivlev/gloworb/internal/geom"

// Measurer maps an element to its bounding rectangle in page coordinates
type Measurer interface {
	Measure(el *Element) geom.Rect
}

// MeasureFunc adapts a function to Measurer
type MeasureFunc func(el *Element) geom.Rect

func (f MeasureFunc) Measure(el *Element) geom.Rect { return f(el) }

// Layout measures elements from their boxes. Elements carrying an inline offset
// are placed relative to their parent's measured box, which is how the marker
// follows the position written every frame.
type Layout struct{}

func (Layout) Measure(el *Element) geom.Rect {
	if el == nil {
		return geom.Rect{}
	}
	if el.Offset == nil || el.parent == nil {
		return el.Box
	}
	origin := Layout{}.Measure(el.parent).Min()
	return geom.RectAt(origin.Add(*el.Offset), el.Box.Size())
}
