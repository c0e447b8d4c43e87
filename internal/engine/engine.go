package engine

import (
	"context"
	"fmt"
	"image"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/gloworb/internal/config"
	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/layout"
	"github.com/ivlev/gloworb/internal/nav"
	"github.com/ivlev/gloworb/internal/renderer"
	"github.com/ivlev/gloworb/internal/scheduler"
	"github.com/ivlev/gloworb/internal/system"
	"github.com/ivlev/gloworb/internal/trajectory"
	"github.com/ivlev/gloworb/internal/video"
)

// Result summarises a finished render
type Result struct {
	Frames int
	Runs   int
	Seed   int64
	Render time.Duration
	Encode time.Duration
	Total  time.Duration
	Dumps  []string
	Stats  system.Stats
	Report string
}

// Project renders a page view into a Sink on a virtual clock
type Project struct {
	Config *config.Config
	Sink   video.Sink
	log    zerolog.Logger

	Page      *layout.Page
	Scheduler *scheduler.Scheduler
	Navigator *nav.Navigator

	measurer *layout.FontMeasurer
	recorder *recordingPlanner
	seed     int64
}

func NewProject(cfg *config.Config, sink video.Sink, log zerolog.Logger) *Project {
	return &Project{
		Config: cfg,
		Sink:   sink,
		log:    log.With().Str("component", "engine").Logger(),
	}
}

// Prepare builds the page and the scheduler. Run calls it when needed.
func (p *Project) Prepare() error {
	m, err := layout.NewFontMeasurer(p.Config.Page.FontSize)
	if err != nil {
		return err
	}
	p.measurer = m

	p.Page, err = BuildPage(p.Config, m)
	if err != nil {
		return err
	}

	p.seed = p.Config.Animation.Seed
	if p.seed == 0 {
		p.seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(p.seed))

	planner, err := p.planner(rng)
	if err != nil {
		return err
	}

	opts := scheduler.Options{
		FadeInHold:   p.Config.Animation.FadeInHold,
		LoopDelay:    p.Config.Animation.LoopDelay,
		Opacity:      p.Config.Animation.Opacity,
		HueThreshold: p.Config.Animation.HueThreshold,
		Debug:        p.Config.Animation.Debug,
	}
	p.Scheduler = scheduler.New(dom.Layout{}, planner, opts, rng, p.log)
	p.Navigator = nav.New(p.Scheduler, p.log)
	return nil
}

// planner picks replay, recording or plain planning
func (p *Project) planner(rng *rand.Rand) (scheduler.Planner, error) {
	if replay := p.Config.Dump.Replay; replay != "" {
		dumps, err := p.replayDumps(replay)
		if err != nil {
			return nil, fmt.Errorf("replay: %w", err)
		}
		paths := make(map[string]trajectory.Path, len(dumps))
		for container, dump := range dumps {
			paths[container] = dump.Path
			p.log.Info().Str("container", container).Int("waypoints", len(dump.Path.Waypoints)).Msg("replaying path")
		}
		return scheduler.FixedPlanner{Paths: paths}, nil
	}

	var planner scheduler.Planner = scheduler.NewDefaultPlanner(dom.Layout{}, rng)
	if p.Config.Dump.Write {
		p.recorder = &recordingPlanner{inner: planner, dir: p.Config.Dump.Dir, log: p.log}
		planner = p.recorder
	}
	return planner, nil
}

// replayDumps loads the dumps named by replay: "latest" picks the newest dump
// per container in the dump dir, anything else is a single dump file
func (p *Project) replayDumps(replay string) (map[string]*trajectory.Dump, error) {
	if replay == "latest" {
		return trajectory.LatestDumps(p.Config.Dump.Dir)
	}
	dump, err := trajectory.ReadPath(replay)
	if err != nil {
		return nil, err
	}
	return map[string]*trajectory.Dump{dump.Container: dump}, nil
}

// Run steps the clock one frame at a time, rasterises frames in parallel
// batches and writes them to the sink in order
func (p *Project) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()
	if p.Scheduler == nil {
		if err := p.Prepare(); err != nil {
			return nil, err
		}
	}

	cfg := p.Config.Render
	total := p.Config.FrameCount()
	frameDur := time.Second / time.Duration(cfg.FPS)
	workers := max(cfg.Workers, 1)

	started := p.Navigator.Ready(0, p.Page.Doc)
	if len(started) == 0 {
		p.log.Warn().Str("slug", p.Page.Doc.Slug).Msg("no marker runs on this page, rendering a static view")
	}
	p.log.Info().
		Int("frames", total).
		Int("fps", cfg.FPS).
		Str("size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)).
		Int("runs", len(started)).
		Int64("seed", p.seed).
		Msg("rendering")

	pool := make(chan *renderer.Rasterizer, workers)
	for i := 0; i < workers; i++ {
		r, err := p.rasterizer()
		if err != nil {
			return nil, err
		}
		pool <- r
	}

	res := &Result{Frames: total, Runs: len(started), Seed: p.seed}
	batch := workers * 4
	frames := make([]*image.RGBA, batch)

	for first := 0; first < total; first += batch {
		n := min(batch, total-first)

		snaps := make([]renderer.Snapshot, n)
		for k := 0; k < n; k++ {
			now := time.Duration(first+k) * frameDur
			p.Scheduler.Tick(now)
			snaps[k] = renderer.Capture(first+k, p.Page.Doc, dom.Layout{}, p.Scheduler.Runs())
		}

		renderStart := time.Now()
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for k := 0; k < n; k++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				r := <-pool
				frames[k] = r.Render(snaps[k])
				pool <- r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			releaseFrames(frames[:n])
			return nil, err
		}
		res.Render += time.Since(renderStart)

		encodeStart := time.Now()
		for k := 0; k < n; k++ {
			if err := p.Sink.WriteFrame(frames[k]); err != nil {
				releaseFrames(frames[:n])
				return nil, fmt.Errorf("frame %d: %w", first+k, err)
			}
		}
		res.Encode += time.Since(encodeStart)
		releaseFrames(frames[:n])

		p.log.Debug().Int("done", first+n).Int("total", total).Msg("frames written")
	}

	p.Scheduler.Teardown()
	if p.recorder != nil {
		res.Dumps = p.recorder.written
	}
	res.Total = time.Since(startTime)

	if cfg.Stats {
		stats, err := system.CollectStats(ctx)
		if err != nil {
			p.log.Warn().Err(err).Msg("resource statistics unavailable")
		}
		res.Stats = stats
		res.Report = system.Report(fmt.Sprintf("seed %d", p.seed), stats, total, res.Render, res.Encode, res.Total)
	}
	return res, nil
}

func (p *Project) rasterizer() (*renderer.Rasterizer, error) {
	// font faces cache glyphs and are not safe to share between workers
	m, err := layout.NewFontMeasurer(p.Config.Page.FontSize)
	if err != nil {
		return nil, err
	}
	return &renderer.Rasterizer{
		Width:  p.Config.Render.Width,
		Height: p.Config.Render.Height,
		Face:   m.Face,
		Ascent: m.Ascent(),
		Debug:  p.Config.Animation.Debug,
	}, nil
}

func releaseFrames(frames []*image.RGBA) {
	for i, f := range frames {
		if f != nil {
			system.PutImage(f)
			frames[i] = nil
		}
	}
}
