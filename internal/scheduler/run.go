package scheduler

import (
	"time"

	"github.com/ivlev/gloworb/internal/bezier"
	"github.com/ivlev/gloworb/internal/debugviz"
	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/hue"
	"github.com/ivlev/gloworb/internal/trajectory"
)

// Run is the state of one animated marker
type Run struct {
	Target Target

	sched *Scheduler
	lock  *Lock
	hue   *hue.Cycler

	path    trajectory.Path
	overlay *debugviz.Overlay

	state     State
	deadline  time.Duration
	segment   int
	segStart  time.Duration
	segActive bool
	iteration int
	ticking   bool
}

// State returns the current state
func (r *Run) State() State { return r.state }

// Path returns the path of the current iteration
func (r *Run) Path() trajectory.Path { return r.path }

// Segment returns the index of the segment being played
func (r *Run) Segment() int { return r.segment }

// Iteration counts completed loop restarts
func (r *Run) Iteration() int { return r.iteration }

// Hue returns the committed hue
func (r *Run) Hue() float64 { return r.hue.Current() }

// Overlay returns the debug overlay, nil when disabled
func (r *Run) Overlay() *debugviz.Overlay { return r.overlay }

// Locked reports whether the run still holds the container lock
func (r *Run) Locked() bool { return r.lock.Held() }

// begin installs a path and parks the marker at its first waypoint
func (r *Run) begin(path trajectory.Path) {
	r.path = path
	r.segment = 0
	r.segActive = false
	r.Target.Marker.SetOffset(path.Waypoints[0])

	r.overlay = nil
	if debugviz.Enabled(r.sched.Options.Debug, r.Target.Container) {
		size := r.sched.Measure.Measure(r.Target.Marker).Size()
		r.overlay = debugviz.New(path, size)
		r.overlay.Attach(r.Target.Container)
	}
}

// Tick advances the run to now
func (r *Run) Tick(now time.Duration) {
	// a measurer or host callback may tick again while a frame is in flight
	if r.ticking {
		return
	}
	r.ticking = true
	defer func() { r.ticking = false }()

	switch r.state {
	case FadeInPending:
		if now < r.deadline {
			return
		}
		r.Target.Marker.Opacity = r.sched.Options.Opacity
		r.state = Playing
		r.frame(now)
	case Playing:
		r.frame(now)
	case LoopPending:
		if now < r.deadline {
			return
		}
		r.restart(now)
	}
}

// frame plays one frame of the current segment
func (r *Run) frame(now time.Duration) {
	if r.segment >= len(r.path.Segments) {
		r.exhaust(now)
		return
	}
	if !r.segActive {
		r.segStart = now
		r.segActive = true
	}

	seg := r.path.Segments[r.segment]
	t := seg.Progress(now - r.segStart)
	r.Target.Marker.SetOffset(bezier.Evaluate(seg, t))
	r.highlight()

	if t < 1 {
		return
	}
	// segment 0 holds at waypoint 0; segment k ends at waypoint k
	reached := r.segment
	r.segment++
	r.segActive = false
	if reached >= r.sched.Options.HueThreshold {
		r.hue.Next()
		r.writeHue()
	}
	if r.overlay != nil {
		r.overlay.SetActive(reached)
	}
}

// highlight marks every glyph whose rectangle intersects the marker's
func (r *Run) highlight() {
	box := r.sched.Measure.Measure(r.Target.Marker)
	for _, g := range r.Target.Glyphs {
		rect := r.sched.Measure.Measure(g)
		g.ToggleClass(dom.ClassIlluminated, !rect.Empty() && rect.Intersects(box))
	}
}

func (r *Run) clearHighlights() {
	for _, g := range r.Target.Glyphs {
		g.RemoveClass(dom.ClassIlluminated)
	}
}

func (r *Run) exhaust(now time.Duration) {
	r.Target.Marker.Opacity = 0
	r.clearHighlights()

	if r.Target.Kind == Looping {
		r.state = LoopPending
		r.deadline = now + r.sched.Options.LoopDelay
		return
	}
	r.finish()
}

func (r *Run) restart(now time.Duration) {
	path, err := r.sched.Planner.Plan(r.Target)
	if err != nil {
		r.sched.log.Debug().Err(err).Str("target", r.Target.Name).Msg("re-plan failed")
		r.finish()
		return
	}
	r.iteration++
	r.begin(path)
	r.Target.Marker.Opacity = r.sched.Options.Opacity
	r.state = Playing
	r.frame(now)
}

func (r *Run) finish() {
	r.lock.Release()
	r.state = Finished
	r.sched.log.Debug().Str("target", r.Target.Name).Int("iterations", r.iteration+1).Msg("run finished")
}

func (r *Run) writeHue() {
	v := hue.Format(r.hue.Current())
	r.Target.Container.SetProp(hue.Property, v)
	r.Target.Marker.SetProp(hue.Property, v)
}
