package scheduler

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/gloworb/internal/bezier"
	"github.com/ivlev/gloworb/internal/debugviz"
	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/geom"
	"github.com/ivlev/gloworb/internal/hue"
	"github.com/ivlev/gloworb/internal/trajectory"
)

const frame = 16 * time.Millisecond

type fixture struct {
	container *dom.Element
	marker    *dom.Element
	x, i      *dom.Element
}

func newFixture() fixture {
	container := dom.NewElement("div", dom.ClassSidebar, dom.ClassSidebarLeft)
	container.Box = geom.Rect{X: 0, Y: 0, W: 200, H: 100}

	title := container.Append(dom.NewElement("h1", dom.ClassPageTitle))
	title.Box = geom.Rect{X: 10, Y: 30, W: 120, H: 40}

	x := title.Append(dom.NewElement("span", dom.ClassGlyph))
	x.Text = "X"
	x.Box = geom.Rect{X: 20, Y: 40, W: 20, H: 30}

	i := title.Append(dom.NewElement("span", dom.ClassGlyph, dom.ClassSpecial))
	i.Text = "i"
	i.Box = geom.Rect{X: 50, Y: 40, W: 10, H: 30}
	dot := i.Append(dom.NewElement("span", dom.ClassSubMarker))
	dot.Box = geom.Rect{X: 52, Y: 30, W: 6, H: 6}

	marker := container.Append(dom.NewElement("div", dom.ClassMarker))
	marker.Box = geom.Rect{W: 10, H: 10}

	return fixture{container: container, marker: marker, x: x, i: i}
}

func (f fixture) target(kind Kind) Target {
	return Target{
		Name:      "test",
		Container: f.container,
		Marker:    f.marker,
		Glyphs:    []*dom.Element{f.x, f.i},
		Kind:      kind,
	}
}

func newScheduler(planner Planner, seed int64) *Scheduler {
	return New(dom.Layout{}, planner, DefaultOptions(), rand.New(rand.NewSource(seed)), zerolog.Nop())
}

// tickUntil advances the clock frame by frame until cond holds
func tickUntil(t *testing.T, s *Scheduler, now time.Duration, limit time.Duration, cond func() bool) time.Duration {
	t.Helper()
	for end := now + limit; now <= end; now += frame {
		s.Tick(now)
		if cond() {
			return now
		}
	}
	t.Fatalf("condition not reached within %v", limit)
	return now
}

func illuminated(glyphs ...*dom.Element) int {
	n := 0
	for _, g := range glyphs {
		if g.HasClass(dom.ClassIlluminated) {
			n++
		}
	}
	return n
}

func TestFadeIn(t *testing.T) {
	f := newFixture()
	s := newScheduler(nil, 1)

	r, ok := s.Start(0, f.target(OneShot))
	require.True(t, ok)
	assert.Equal(t, FadeInPending, r.State())
	assert.Equal(t, 0.0, f.marker.Opacity)
	require.NotNil(t, f.marker.Offset)
	assert.Equal(t, r.Path().Waypoints[0], *f.marker.Offset)

	s.Tick(349 * time.Millisecond)
	assert.Equal(t, FadeInPending, r.State())

	s.Tick(350 * time.Millisecond)
	assert.Equal(t, Playing, r.State())
	assert.Equal(t, 0.85, f.marker.Opacity)
}

func TestOneShotCompletes(t *testing.T) {
	f := newFixture()
	s := newScheduler(nil, 2)

	r, ok := s.Start(0, f.target(OneShot))
	require.True(t, ok)
	assert.False(t, r.Locked(), "one-shot runs never take the lock")
	assert.False(t, f.container.HasClass(dom.ClassLock))

	limit := r.Path().Duration() + time.Second
	end := tickUntil(t, s, 0, limit, func() bool { return r.State() == Finished })
	t.Logf("One-shot finished at %v (path %v)", end, r.Path().Duration())

	assert.Equal(t, 0.0, f.marker.Opacity)
	assert.Zero(t, illuminated(f.x, f.i))
	assert.False(t, f.container.HasClass(dom.ClassLock))
	assert.Empty(t, s.Runs())
}

func TestLoopingRestarts(t *testing.T) {
	f := newFixture()
	s := newScheduler(nil, 3)

	r, ok := s.Start(0, f.target(Looping))
	require.True(t, ok)
	assert.True(t, f.container.HasClass(dom.ClassLock))

	limit := r.Path().Duration() + time.Second
	pending := tickUntil(t, s, 0, limit, func() bool { return r.State() == LoopPending })
	assert.Equal(t, 0.0, f.marker.Opacity)
	assert.Zero(t, illuminated(f.x, f.i))
	assert.True(t, f.container.HasClass(dom.ClassLock), "lock held between iterations")

	s.Tick(pending + s.Options.LoopDelay - time.Millisecond)
	assert.Equal(t, LoopPending, r.State())

	s.Tick(pending + s.Options.LoopDelay)
	assert.Equal(t, Playing, r.State())
	assert.Equal(t, 1, r.Iteration())
	assert.Equal(t, 0.85, f.marker.Opacity)
	require.NotNil(t, f.marker.Offset)
	assert.Equal(t, r.Path().Waypoints[0], *f.marker.Offset)
	assert.Len(t, s.Runs(), 1)
}

func TestStartIdempotent(t *testing.T) {
	f := newFixture()
	s := newScheduler(nil, 4)

	_, ok := s.Start(0, f.target(Looping))
	require.True(t, ok)
	_, ok = s.Start(10*time.Millisecond, f.target(Looping))
	assert.False(t, ok)
	assert.Len(t, s.Runs(), 1)
	assert.Equal(t, "true", f.marker.Data(StartedKey))
}

func TestStartAbortsWithoutGeometry(t *testing.T) {
	container := dom.NewElement("div", dom.ClassSidebar, dom.ClassSidebarLeft)
	container.Box = geom.Rect{W: 200, H: 100}
	marker := container.Append(dom.NewElement("div", dom.ClassMarker))
	marker.Box = geom.Rect{W: 10, H: 10}

	s := newScheduler(nil, 5)
	r, ok := s.Start(0, Target{Container: container, Marker: marker, Kind: Looping})
	assert.False(t, ok)
	assert.Nil(t, r)
	assert.False(t, container.HasClass(dom.ClassLock), "lock released on abort")
	assert.Empty(t, marker.Data(StartedKey))
	assert.Empty(t, s.Runs())

	_, ok = s.Start(0, Target{Marker: marker})
	assert.False(t, ok)
}

func TestHighlightFollowsMarker(t *testing.T) {
	f := newFixture()
	path := trajectory.Path{
		Waypoints: []geom.Point{{X: 25, Y: 45}, {X: 25, Y: -60}},
	}
	path.Segments = []bezier.Segment{
		bezier.Hold(path.Waypoints[0], time.Second),
		bezier.Straight(path.Waypoints[0], path.Waypoints[1], 200*time.Millisecond),
	}
	s := newScheduler(FixedPlanner{Paths: map[string]trajectory.Path{"": path}}, 6)

	r, ok := s.Start(0, f.target(OneShot))
	require.True(t, ok)

	s.Tick(400 * time.Millisecond)
	assert.True(t, f.x.HasClass(dom.ClassIlluminated))
	assert.False(t, f.i.HasClass(dom.ClassIlluminated))

	// three quarters up the straight segment the marker has left the row
	now := tickUntil(t, s, 416*time.Millisecond, 2*time.Second, func() bool { return r.Segment() == 1 })
	now += frame
	s.Tick(now)
	now += 150 * time.Millisecond
	s.Tick(now)
	assert.False(t, f.x.HasClass(dom.ClassIlluminated))

	tickUntil(t, s, now, time.Second, func() bool { return r.State() == Finished })
	assert.Zero(t, illuminated(f.x, f.i))
}

func TestHueCyclesFromThreshold(t *testing.T) {
	f := newFixture()
	path := trajectory.Path{
		Waypoints: []geom.Point{{X: 0}, {X: 10}, {X: 20}, {X: 30}, {X: 40}},
	}
	path.Segments = []bezier.Segment{bezier.Hold(path.Waypoints[0], 100*time.Millisecond)}
	for k := 0; k+1 < len(path.Waypoints); k++ {
		path.Segments = append(path.Segments, bezier.Straight(path.Waypoints[k], path.Waypoints[k+1], 100*time.Millisecond))
	}
	s := newScheduler(FixedPlanner{Paths: map[string]trajectory.Path{"": path}}, 7)

	r, ok := s.Start(0, f.target(OneShot))
	require.True(t, ok)
	initial := f.container.Prop(hue.Property)
	require.NotEmpty(t, initial)
	assert.Equal(t, initial, f.marker.Prop(hue.Property))

	prev := r.Hue()
	changes := 0
	tickUntil(t, s, 0, 2*time.Second, func() bool {
		if h := r.Hue(); h != prev {
			changes++
			assert.GreaterOrEqual(t, hue.Distance(prev, h), hue.MinSeparation)
			if changes == 1 {
				assert.GreaterOrEqual(t, r.Segment(), 3, "first change on reaching waypoint 2")
			}
			prev = h
		}
		return r.State() == Finished
	})

	// waypoints 2, 3 and 4
	assert.Equal(t, 3, changes)
	assert.Equal(t, hue.Format(r.Hue()), f.container.Prop(hue.Property))
	assert.Equal(t, hue.Format(r.Hue()), f.marker.Prop(hue.Property))
}

func TestRePlanFailureFinishesLoop(t *testing.T) {
	f := newFixture()
	path := trajectory.Path{Waypoints: []geom.Point{{X: 0}, {X: 10}}}
	path.Segments = []bezier.Segment{
		bezier.Hold(path.Waypoints[0], 50*time.Millisecond),
		bezier.Straight(path.Waypoints[0], path.Waypoints[1], 50*time.Millisecond),
	}
	planner := &flakyPlanner{path: path}
	s := newScheduler(planner, 8)

	r, ok := s.Start(0, f.target(Looping))
	require.True(t, ok)
	planner.fail = true

	tickUntil(t, s, 0, 5*time.Second, func() bool { return r.State() == Finished })
	assert.False(t, f.container.HasClass(dom.ClassLock))
	assert.False(t, r.Locked())
}

type flakyPlanner struct {
	path trajectory.Path
	fail bool
}

func (p *flakyPlanner) Plan(Target) (trajectory.Path, error) {
	if p.fail {
		return trajectory.Path{}, trajectory.ErrTooFewWaypoints
	}
	return p.path, nil
}

func TestTeardownLeavesPageUntouched(t *testing.T) {
	f := newFixture()
	s := newScheduler(nil, 9)

	_, ok := s.Start(0, f.target(Looping))
	require.True(t, ok)
	s.Tick(400 * time.Millisecond)
	offset := *f.marker.Offset

	s.Teardown()
	assert.Empty(t, s.Runs())
	s.Tick(2 * time.Second)
	assert.Equal(t, offset, *f.marker.Offset)
}

func TestDebugOverlay(t *testing.T) {
	f := newFixture()
	f.container.SetData(debugviz.DataKey, "true")
	s := newScheduler(nil, 10)

	r, ok := s.Start(0, f.target(OneShot))
	require.True(t, ok)
	require.NotNil(t, r.Overlay())
	assert.Len(t, f.container.QueryAll(dom.ClassDebug), 1)

	tickUntil(t, s, 0, 30*time.Second, func() bool { return r.Segment() >= 2 })
	assert.Equal(t, 1, r.Overlay().Active())
}

func TestTickIgnoresReentrantCalls(t *testing.T) {
	f := newFixture()
	path := trajectory.Path{Waypoints: []geom.Point{{X: 0}, {X: 100}}}
	path.Segments = []bezier.Segment{
		bezier.Hold(path.Waypoints[0], time.Second),
		bezier.Straight(path.Waypoints[0], path.Waypoints[1], time.Second),
	}
	s := newScheduler(FixedPlanner{Paths: map[string]trajectory.Path{"": path}}, 3)

	r, ok := s.Start(0, f.target(OneShot))
	require.True(t, ok)

	nested := 0
	s.Measure = dom.MeasureFunc(func(el *dom.Element) geom.Rect {
		nested++
		r.Tick(time.Hour)
		return dom.Layout{}.Measure(el)
	})

	r.Tick(s.Options.FadeInHold)
	require.Positive(t, nested)
	assert.Equal(t, Playing, r.State())
	assert.Zero(t, r.Segment(), "the nested tick must not play the path to its end")

	r.Tick(s.Options.FadeInHold + time.Second)
	assert.Equal(t, 1, r.Segment())
}

func TestFixedPlannerRejectsShortPath(t *testing.T) {
	_, err := FixedPlanner{Paths: map[string]trajectory.Path{"": {}}}.Plan(Target{})
	assert.ErrorIs(t, err, trajectory.ErrTooFewWaypoints)
}

func TestFixedPlannerPicksContainerPath(t *testing.T) {
	line := func(x float64) trajectory.Path {
		wp := []geom.Point{{X: x}, {X: x + 10}}
		return trajectory.Path{Waypoints: wp, Segments: []bezier.Segment{bezier.Straight(wp[0], wp[1], time.Second)}}
	}
	p := FixedPlanner{Paths: map[string]trajectory.Path{"sidebar": line(1), "landing": line(2)}}

	got, err := p.Plan(Target{Name: "sidebar"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Waypoints[0].X)

	got, err = p.Plan(Target{Name: "landing"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Waypoints[0].X)

	_, err = p.Plan(Target{Name: "footer"})
	assert.ErrorIs(t, err, ErrNoReplay)

	p.Paths[""] = line(3)
	got, err = p.Plan(Target{Name: "footer"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Waypoints[0].X, "a path without a container serves any target")
}

func TestLockRelease(t *testing.T) {
	el := dom.NewElement("div")
	l := Acquire(el)
	assert.True(t, l.Held())
	assert.True(t, el.HasClass(dom.ClassLock))

	l.Release()
	l.Release()
	assert.False(t, el.HasClass(dom.ClassLock))
	assert.False(t, l.Held())

	var none *Lock
	none.Release()
	assert.False(t, none.Held())
}
