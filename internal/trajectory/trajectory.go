package trajectory

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/ivlev/gloworb/internal/anchor"
	"github.com/ivlev/gloworb/internal/bezier"
	"github.com/ivlev/gloworb/internal/geom"
)

const (
	// MaxWaypoints bounds the waypoint sequence
	MaxWaypoints = 8
	// DedupeEpsilon merges points closer than this
	DedupeEpsilon = 1.0
)

// ErrTooFewWaypoints is returned when fewer than two waypoints can be built
var ErrTooFewWaypoints = errors.New("trajectory: fewer than 2 waypoints")

// Path is the output of one build: waypoints and the segments between them
type Path struct {
	Waypoints []geom.Point     `yaml:"waypoints"`
	Segments  []bezier.Segment `yaml:"segments"`
}

// Duration is the sum of segment durations
func (p Path) Duration() time.Duration {
	var total time.Duration
	for _, s := range p.Segments {
		total += s.Duration
	}
	return total
}

// Builder synthesises waypoints and segments from an anchor set
type Builder struct {
	HoldDuration      time.Duration
	FirstMoveDuration time.Duration
	UnderlineDuration time.Duration
	MinSegment        time.Duration
	MaxSegment        time.Duration

	SweepShift float64    // X shift applied to the baseline start of the sweep
	Flourish   geom.Point // offset of the flourish point from the previous one

	HoverPadX      float64
	HoverPadTop    float64
	HoverPadBottom float64
	HoverRetries   int

	ExitShiftMin float64
	ExitShiftMax float64
	ExitLift     float64 // minimum distance above the container for the exit point

	rng *rand.Rand
}

// NewBuilder creates a Builder with default timings
func NewBuilder(rng *rand.Rand) *Builder {
	return &Builder{
		HoldDuration:      600 * time.Millisecond,
		FirstMoveDuration: 4500 * time.Millisecond,
		UnderlineDuration: 4000 * time.Millisecond,
		MinSegment:        2600 * time.Millisecond,
		MaxSegment:        4200 * time.Millisecond,

		SweepShift: 6,
		Flourish:   geom.Point{X: -18, Y: -14},

		HoverPadX:      20,
		HoverPadTop:    30,
		HoverPadBottom: 10,
		HoverRetries:   200,

		ExitShiftMin: 40,
		ExitShiftMax: 80,
		ExitLift:     24,

		rng: rng,
	}
}

// Build runs Waypoints then Segments
func (b *Builder) Build(set anchor.Set) (Path, error) {
	points, err := b.Waypoints(set)
	if err != nil {
		return Path{}, err
	}
	return Path{Waypoints: points, Segments: b.Segments(points, sweepPresent(set))}, nil
}

func sweepPresent(set anchor.Set) bool {
	return set.BaselineStart != nil && set.BaselineEnd != nil
}

// Waypoints builds the bounded, deduplicated waypoint sequence
func (b *Builder) Waypoints(set anchor.Set) ([]geom.Point, error) {
	seed := firstOf(set.AnchorStart, set.BaselineStart, set.Fallback)
	if seed == nil {
		return nil, ErrTooFewWaypoints
	}

	points := []geom.Point{*seed}

	if sweepPresent(set) {
		start := set.BaselineStart.Add(geom.Point{X: b.SweepShift})
		points = appendUnique(points, start)
		points = appendUnique(points, *set.BaselineEnd)
	}

	points = appendUnique(points, last(points).Add(b.Flourish))

	anchorEnd := set.AnchorEnd
	if anchorEnd != nil && set.AnchorStart != nil && anchorEnd.Dist(*set.AnchorStart) < DedupeEpsilon {
		anchorEnd = nil
	}

	reserved := 1
	if anchorEnd != nil {
		reserved++
	}

	if capacity := MaxWaypoints - len(points) - reserved; capacity > 0 {
		if region, ok := b.hoverRegion(set, *seed); ok {
			hovers := HoverPoints(b.rng, region, last(points), capacity, b.HoverRetries)
			points = append(points, hovers...)
		}
	}

	if anchorEnd != nil {
		points = appendUnique(points, *anchorEnd)
	}

	points = appendUnique(points, b.exitPoint(last(points), set.MarkerSize))

	if len(points) > MaxWaypoints {
		points = points[:MaxWaypoints]
	}
	if len(points) < 2 {
		return nil, ErrTooFewWaypoints
	}
	return points, nil
}

// hoverRegion is the padded glyph envelope hover points are drawn from
func (b *Builder) hoverRegion(set anchor.Set, reference geom.Point) (geom.Rect, bool) {
	if set.Extent == nil {
		return geom.Rect{}, false
	}
	ext := *set.Extent
	lower := reference.Y
	if set.BaselineY != nil {
		lower = *set.BaselineY - set.MarkerSize.H/2
	}
	left := ext.Left() - b.HoverPadX
	right := ext.Right() + b.HoverPadX
	top := ext.Top() - b.HoverPadTop
	bottom := lower + b.HoverPadBottom
	if right <= left || bottom <= top {
		return geom.Rect{}, false
	}
	return geom.Rect{X: left, Y: top, W: right - left, H: bottom - top}, true
}

func (b *Builder) exitPoint(from geom.Point, marker geom.Size) geom.Point {
	shift := b.ExitShiftMin + b.rng.Float64()*(b.ExitShiftMax-b.ExitShiftMin)
	if b.rng.Intn(2) == 0 {
		shift = -shift
	}
	return geom.Point{
		X: from.X + shift,
		Y: -math.Max(2*marker.H, b.ExitLift),
	}
}

// Segments converts consecutive waypoints into timed segments, starting with a
// hold at the first waypoint. sweep marks the second movement as the underline.
func (b *Builder) Segments(points []geom.Point, sweep bool) []bezier.Segment {
	if len(points) == 0 {
		return nil
	}
	segments := make([]bezier.Segment, 0, len(points))
	segments = append(segments, bezier.Hold(points[0], b.HoldDuration))

	for k := 0; k+1 < len(points); k++ {
		start, end := points[k], points[k+1]
		switch {
		case k == 0:
			segments = append(segments, bezier.Curved(b.rng, start, end, bezier.BiasFor(start, end), b.FirstMoveDuration))
		case k == 1 && sweep:
			segments = append(segments, bezier.Straight(start, end, b.UnderlineDuration))
		case k < 3:
			segments = append(segments, bezier.Straight(start, end, b.randomDuration()))
		default:
			segments = append(segments, bezier.Curved(b.rng, start, end, bezier.BiasFor(start, end), b.randomDuration()))
		}
	}
	return segments
}

func (b *Builder) randomDuration() time.Duration {
	span := b.MaxSegment - b.MinSegment
	if span <= 0 {
		return b.MinSegment
	}
	return b.MinSegment + time.Duration(b.rng.Int63n(int64(span)+1))
}

// HoverPoints draws up to n points uniformly from region, rejecting any
// candidate closer than DedupeEpsilon to the previously accepted point. It gives
// up after retries attempts and returns whatever it found.
func HoverPoints(rng *rand.Rand, region geom.Rect, prev geom.Point, n, retries int) []geom.Point {
	out := make([]geom.Point, 0, n)
	for attempts := 0; len(out) < n && attempts < retries; attempts++ {
		p := geom.Point{
			X: region.Left() + rng.Float64()*region.W,
			Y: region.Top() + rng.Float64()*region.H,
		}
		if p.Dist(prev) < DedupeEpsilon {
			continue
		}
		out = append(out, p)
		prev = p
	}
	return out
}

func appendUnique(points []geom.Point, p geom.Point) []geom.Point {
	if len(points) > 0 && last(points).Dist(p) < DedupeEpsilon {
		return points
	}
	return append(points, p)
}

func last(points []geom.Point) geom.Point {
	return points[len(points)-1]
}

func firstOf(points ...*geom.Point) *geom.Point {
	for _, p := range points {
		if p != nil {
			return p
		}
	}
	return nil
}
