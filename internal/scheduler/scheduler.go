// Package scheduler drives orb runs frame by frame. A run is a small state
// machine advanced by Tick; the host owns the clock and calls Tick once per
// rendered frame.
package scheduler

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/ivlev/gloworb/internal/anchor"
	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/hue"
	"github.com/ivlev/gloworb/internal/trajectory"
)

// StartedKey is the marker dataset flag that makes Start idempotent
const StartedKey = "orbAnimated"

// Kind selects what happens when a run exhausts its segments
type Kind int

const (
	// OneShot hides the marker and finishes
	OneShot Kind = iota
	// Looping waits LoopDelay and plays a freshly planned path, holding the lock
	Looping
)

func (k Kind) String() string {
	if k == Looping {
		return "looping"
	}
	return "one-shot"
}

// State of a run
type State int

const (
	Idle State = iota
	FadeInPending
	Playing
	LoopPending
	Finished
)

func (s State) String() string {
	switch s {
	case FadeInPending:
		return "fade-in"
	case Playing:
		return "playing"
	case LoopPending:
		return "loop-pending"
	case Finished:
		return "finished"
	default:
		return "idle"
	}
}

// Target is one container/marker pair to animate
type Target struct {
	Name      string
	Container *dom.Element
	Marker    *dom.Element
	Glyphs    []*dom.Element
	Kind      Kind
}

// Options tunes run timing and presentation
type Options struct {
	FadeInHold time.Duration
	LoopDelay  time.Duration
	// Opacity is the visible marker opacity
	Opacity float64
	// HueThreshold is the first waypoint index whose arrival cycles the hue
	HueThreshold int
	Debug        bool
}

// DefaultOptions returns the standard timings
func DefaultOptions() Options {
	return Options{
		FadeInHold:   350 * time.Millisecond,
		LoopDelay:    1200 * time.Millisecond,
		Opacity:      0.85,
		HueThreshold: 2,
	}
}

// Planner computes the path for a target
type Planner interface {
	Plan(t Target) (trajectory.Path, error)
}

// DefaultPlanner measures the target and builds a fresh path each time
type DefaultPlanner struct {
	Resolver *anchor.Resolver
	Builder  *trajectory.Builder
}

// NewDefaultPlanner wires a resolver and builder around one measure capability
func NewDefaultPlanner(measure dom.Measurer, rng *rand.Rand) *DefaultPlanner {
	return &DefaultPlanner{
		Resolver: anchor.NewResolver(measure, rng),
		Builder:  trajectory.NewBuilder(rng),
	}
}

func (p *DefaultPlanner) Plan(t Target) (trajectory.Path, error) {
	set := p.Resolver.Resolve(anchor.Input{Container: t.Container, Marker: t.Marker, Glyphs: t.Glyphs})
	return p.Builder.Build(set)
}

// ErrNoReplay is returned when a replay has no path for a container
var ErrNoReplay = errors.New("scheduler: no replay path for container")

// FixedPlanner replays previously computed paths keyed by container name.
// A path stored under "" serves containers without a path of their own.
type FixedPlanner struct {
	Paths map[string]trajectory.Path
}

func (p FixedPlanner) Plan(t Target) (trajectory.Path, error) {
	path, ok := p.Paths[t.Name]
	if !ok {
		if path, ok = p.Paths[""]; !ok {
			return trajectory.Path{}, fmt.Errorf("%w %q", ErrNoReplay, t.Name)
		}
	}
	if len(path.Waypoints) < 2 || len(path.Segments) == 0 {
		return trajectory.Path{}, trajectory.ErrTooFewWaypoints
	}
	return path, nil
}

// Scheduler owns the live runs of one page view
type Scheduler struct {
	Measure dom.Measurer
	Planner Planner
	Options Options

	log  zerolog.Logger
	rng  *rand.Rand
	runs []*Run
}

// New creates a scheduler. A nil planner defaults to DefaultPlanner.
func New(measure dom.Measurer, planner Planner, opts Options, rng *rand.Rand, log zerolog.Logger) *Scheduler {
	if planner == nil {
		planner = NewDefaultPlanner(measure, rng)
	}
	return &Scheduler{
		Measure: measure,
		Planner: planner,
		Options: opts,
		log:     log.With().Str("component", "scheduler").Logger(),
		rng:     rng,
	}
}

// Start begins a run for target. It returns false without side effects on the
// page when the marker already runs, the container is missing, or no usable
// path exists.
func (s *Scheduler) Start(now time.Duration, target Target) (*Run, bool) {
	if target.Container == nil || target.Marker == nil {
		s.log.Debug().Str("target", target.Name).Msg("no container or marker")
		return nil, false
	}
	if target.Marker.Data(StartedKey) == "true" {
		s.log.Debug().Str("target", target.Name).Msg("already started")
		return nil, false
	}

	var lock *Lock
	if target.Kind == Looping {
		lock = Acquire(target.Container)
	}

	path, err := s.Planner.Plan(target)
	if err != nil {
		lock.Release()
		s.log.Debug().Err(err).Str("target", target.Name).Msg("abort")
		return nil, false
	}

	target.Marker.SetData(StartedKey, "true")
	r := &Run{
		Target: target,
		sched:  s,
		lock:   lock,
		hue:    hue.NewCycler(s.rng, s.rng.Float64()*360),
	}
	r.writeHue()
	r.begin(path)
	target.Marker.Opacity = 0
	r.state = FadeInPending
	r.deadline = now + s.Options.FadeInHold

	s.runs = append(s.runs, r)
	s.log.Info().
		Str("target", target.Name).
		Str("kind", target.Kind.String()).
		Int("waypoints", len(path.Waypoints)).
		Dur("duration", path.Duration()).
		Msg("run started")
	return r, true
}

// Tick advances every live run once and drops finished runs
func (s *Scheduler) Tick(now time.Duration) {
	live := s.runs[:0]
	for _, r := range s.runs {
		r.Tick(now)
		if r.state != Finished {
			live = append(live, r)
		}
	}
	for i := len(live); i < len(s.runs); i++ {
		s.runs[i] = nil
	}
	s.runs = live
}

// Runs returns the live runs
func (s *Scheduler) Runs() []*Run {
	return s.runs
}

// Teardown forgets every run without touching the page. It is called when the
// page view the runs belong to has been replaced.
func (s *Scheduler) Teardown() {
	if len(s.runs) > 0 {
		s.log.Debug().Int("runs", len(s.runs)).Msg("teardown")
	}
	s.runs = nil
}
