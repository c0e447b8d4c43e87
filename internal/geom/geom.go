package geom

import sf "github.com/peterstace/simplefeatures/geom"

// Point is a position in container-relative units
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Add returns p shifted by d
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns p - q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale multiplies both coordinates by k
func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Dist returns the euclidean distance between p and q
func (p Point) Dist(q Point) float64 {
	return p.XY().Sub(q.XY()).Length()
}

// XY converts p for use with line strings and envelopes
func (p Point) XY() sf.XY {
	return sf.XY{X: p.X, Y: p.Y}
}

// Lerp interpolates between p and q
func Lerp(p, q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// Size is a width/height pair
type Size struct {
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Half returns the centre offset of a box of this size
func (s Size) Half() Point {
	return Point{X: s.W / 2, Y: s.H / 2}
}

// Rect is an axis-aligned box, same shape as a layout client rect
type Rect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// RectAt builds a rect from its top-left corner and size
func RectAt(p Point, s Size) Rect {
	return Rect{X: p.X, Y: p.Y, W: s.W, H: s.H}
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Min returns the top-left corner
func (r Rect) Min() Point {
	return Point{X: r.X, Y: r.Y}
}

// Center returns the centre point
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Size returns the box dimensions
func (r Rect) Size() Size {
	return Size{W: r.W, H: r.H}
}

// Empty reports whether the box has no area
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Envelope returns the box as an envelope. Boxes with NaN or infinite
// coordinates map to the empty envelope.
func (r Rect) Envelope() sf.Envelope {
	env, err := sf.NewEnvelope([]sf.XY{r.Min().XY(), {X: r.Right(), Y: r.Bottom()}})
	if err != nil {
		return sf.Envelope{}
	}
	return env
}

// RectOf converts an envelope back to a box; the empty envelope is the zero Rect
func RectOf(env sf.Envelope) Rect {
	lo, hi, ok := env.MinMaxXYs()
	if !ok {
		return Rect{}
	}
	return Rect{X: lo.X, Y: lo.Y, W: hi.X - lo.X, H: hi.Y - lo.Y}
}

// Intersects reports whether two boxes touch or overlap. Touching edges count.
func (r Rect) Intersects(o Rect) bool {
	return r.Envelope().Intersects(o.Envelope())
}

// Union returns the smallest box containing both
func (r Rect) Union(o Rect) Rect {
	return RectOf(r.Envelope().ExpandToIncludeEnvelope(o.Envelope()))
}

// Translate shifts the box by d
func (r Rect) Translate(d Point) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, W: r.W, H: r.H}
}
