package bezier

import (
	"math/rand"
	"time"

	sf "github.com/peterstace/simplefeatures/geom"

	"github.com/ivlev/gloworb/internal/geom"
)

// Bias selects which way a curved segment bulges
type Bias int

const (
	TowardBottom Bias = iota
	TowardTop
)

func (b Bias) String() string {
	if b == TowardTop {
		return "top"
	}
	return "bottom"
}

// BiasFor picks the bias that follows the vertical direction of motion
func BiasFor(start, end geom.Point) Bias {
	if end.Y < start.Y {
		return TowardTop
	}
	return TowardBottom
}

// Segment is one timed cubic Bézier arc
type Segment struct {
	Start    geom.Point    `yaml:"start"`
	Control1 geom.Point    `yaml:"control1"`
	Control2 geom.Point    `yaml:"control2"`
	End      geom.Point    `yaml:"end"`
	Duration time.Duration `yaml:"duration"`
}

// Jitter ranges used by Curved
const (
	jitterX = 40.0
)

// Curved builds an arc from start to end whose control points are pushed away
// from the chord so the arc bulges in the direction of bias.
func Curved(rng *rand.Rand, start, end geom.Point, bias Bias, d time.Duration) Segment {
	var off1, off2 float64
	if bias == TowardBottom {
		off1 = between(rng, 12, 28)
		off2 = between(rng, -18, 6)
	} else {
		off1 = between(rng, -26, -10)
		off2 = between(rng, 12, 32)
	}
	return Segment{
		Start:    start,
		Control1: geom.Point{X: start.X + between(rng, -jitterX, jitterX), Y: start.Y + off1},
		Control2: geom.Point{X: end.X + between(rng, -jitterX, jitterX), Y: end.Y + off2},
		End:      end,
		Duration: d,
	}
}

// Straight builds a segment whose control points sit on the chord at 1/3 and 2/3
func Straight(start, end geom.Point, d time.Duration) Segment {
	return Segment{
		Start:    start,
		Control1: geom.Lerp(start, end, 1.0/3.0),
		Control2: geom.Lerp(start, end, 2.0/3.0),
		End:      end,
		Duration: d,
	}
}

// Hold keeps the marker parked at p for d
func Hold(p geom.Point, d time.Duration) Segment {
	return Segment{Start: p, Control1: p, Control2: p, End: p, Duration: d}
}

// Evaluate returns the position on seg at progress t, clamped to [0, 1]
func Evaluate(seg Segment, t float64) geom.Point {
	if t <= 0 {
		return seg.Start
	}
	if t >= 1 {
		return seg.End
	}
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return geom.Point{
		X: a*seg.Start.X + b*seg.Control1.X + c*seg.Control2.X + d*seg.End.X,
		Y: a*seg.Start.Y + b*seg.Control1.Y + c*seg.Control2.Y + d*seg.End.Y,
	}
}

// At is shorthand for Evaluate(s, t)
func (s Segment) At(t float64) geom.Point {
	return Evaluate(s, t)
}

// Progress converts elapsed time into a clamped t. Zero-length segments finish immediately.
func (s Segment) Progress(elapsed time.Duration) float64 {
	if s.Duration <= 0 {
		return 1
	}
	t := float64(elapsed) / float64(s.Duration)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Flatten samples n+1 evenly spaced points along the curve
func (s Segment) Flatten(n int) []geom.Point {
	if n < 1 {
		n = 1
	}
	pts := make([]geom.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		pts = append(pts, s.At(float64(i)/float64(n)))
	}
	return pts
}

// Polyline flattens the curve into n chords. A segment that never moves
// yields the empty line string.
func (s Segment) Polyline(n int) sf.LineString {
	pts := s.Flatten(n)
	coords := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		coords = append(coords, p.X, p.Y)
	}
	// OmitInvalid never reports an error
	ls, _ := sf.NewLineString(sf.NewSequence(coords, sf.DimXY), sf.OmitInvalid)
	return ls
}

// Length approximates arc length with n chords
func (s Segment) Length(n int) float64 {
	return s.Polyline(n).Length()
}

func between(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}
