package bezier

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ivlev/gloworb/internal/geom"
)

func TestEvaluateEndpoints(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	segments := []Segment{
		Straight(geom.Point{X: 0, Y: 0}, geom.Point{X: 90, Y: 30}, time.Second),
		Curved(rng, geom.Point{X: 10, Y: 50}, geom.Point{X: 120, Y: -20}, TowardTop, time.Second),
		Curved(rng, geom.Point{X: 10, Y: 5}, geom.Point{X: -40, Y: 80}, TowardBottom, time.Second),
		Hold(geom.Point{X: 3, Y: 4}, 600*time.Millisecond),
	}

	for i, seg := range segments {
		assert.Equal(t, seg.Start, Evaluate(seg, 0), "segment %d start", i)
		assert.Equal(t, seg.End, Evaluate(seg, 1), "segment %d end", i)
		assert.Equal(t, seg.Start, Evaluate(seg, -0.5), "segment %d clamps below", i)
		assert.Equal(t, seg.End, Evaluate(seg, 3), "segment %d clamps above", i)
	}
}

func TestStraightStaysOnChord(t *testing.T) {
	seg := Straight(geom.Point{X: 0, Y: 0}, geom.Point{X: 100, Y: 50}, time.Second)

	for _, tt := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
		p := seg.At(tt)
		// y = x/2 on the chord
		if math.Abs(p.Y-p.X/2) > 1e-9 {
			t.Errorf("t=%.2f: point %+v left the chord", tt, p)
		}
	}
	assert.InDelta(t, 50, seg.At(0.5).X, 1e-9)
}

func TestCurvedBias(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	start := geom.Point{X: 0, Y: 100}
	end := geom.Point{X: 100, Y: 100}

	for i := 0; i < 50; i++ {
		down := Curved(rng, start, end, TowardBottom, time.Second)
		if down.Control1.Y < start.Y+12 || down.Control1.Y > start.Y+28 {
			t.Fatalf("bottom bias control1 out of range: %+v", down.Control1)
		}
		up := Curved(rng, start, end, TowardTop, time.Second)
		if up.Control1.Y > start.Y-10 || up.Control1.Y < start.Y-26 {
			t.Fatalf("top bias control1 out of range: %+v", up.Control1)
		}
		if math.Abs(up.Control2.X-end.X) > 40 {
			t.Fatalf("jitter too wide: %+v", up.Control2)
		}
	}
}

func TestBiasFor(t *testing.T) {
	assert.Equal(t, TowardTop, BiasFor(geom.Point{Y: 10}, geom.Point{Y: -5}))
	assert.Equal(t, TowardBottom, BiasFor(geom.Point{Y: 10}, geom.Point{Y: 40}))
	assert.Equal(t, TowardBottom, BiasFor(geom.Point{Y: 10}, geom.Point{Y: 10}))
}

func TestProgress(t *testing.T) {
	seg := Straight(geom.Point{}, geom.Point{X: 1}, 2*time.Second)

	tests := []struct {
		elapsed time.Duration
		want    float64
	}{
		{-time.Second, 0},
		{0, 0},
		{500 * time.Millisecond, 0.25},
		{2 * time.Second, 1},
		{5 * time.Second, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, seg.Progress(tt.elapsed), 1e-9, "elapsed %v", tt.elapsed)
	}

	hold := Hold(geom.Point{}, 0)
	assert.Equal(t, 1.0, hold.Progress(0))
}

func TestFlattenAndLength(t *testing.T) {
	seg := Straight(geom.Point{}, geom.Point{X: 30, Y: 40}, time.Second)
	pts := seg.Flatten(10)
	assert.Len(t, pts, 11)
	assert.Equal(t, seg.Start, pts[0])
	assert.Equal(t, seg.End, pts[10])
	assert.InDelta(t, 50, seg.Length(16), 1e-6)
}

func TestPolyline(t *testing.T) {
	seg := Segment{
		Start:    geom.Point{},
		Control1: geom.Point{X: 0, Y: 50},
		Control2: geom.Point{X: 100, Y: 50},
		End:      geom.Point{X: 100, Y: 0},
	}
	ls := seg.Polyline(32)
	assert.Equal(t, 33, ls.Coordinates().Length())
	// the arc is longer than its chord but shorter than the control polygon
	assert.Greater(t, seg.Length(32), 100.0)
	assert.Less(t, seg.Length(32), 200.0)

	env := ls.Envelope()
	assert.InDelta(t, 100, env.Width(), 1e-9)
	assert.InDelta(t, 37.5, env.Height(), 0.5)

	hold := Hold(geom.Point{X: 5, Y: 5}, time.Second)
	assert.True(t, hold.Polyline(8).IsEmpty())
	assert.Zero(t, hold.Length(8))
}
