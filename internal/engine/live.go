package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ivlev/gloworb/internal/config"
	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/readermode"
	"github.com/ivlev/gloworb/internal/renderer"
)

// Live drives a project from a wall clock for interactive hosts
type Live struct {
	*Project
	Reader *readermode.Toggle

	views int
}

// NewLive prepares the page and announces the first page view at time 0
func NewLive(cfg *config.Config, log zerolog.Logger) (*Live, error) {
	p := NewProject(cfg, nil, log)
	if err := p.Prepare(); err != nil {
		return nil, err
	}
	l := &Live{Project: p, Reader: readermode.New(false)}
	l.Reader.OnChange(func(mode string) {
		p.log.Info().Str("mode", mode).Msg("reader mode")
	})
	l.Reader.Attach(p.Page.Doc)
	p.Navigator.Ready(0, p.Page.Doc)
	l.views = 1
	return l, nil
}

// Frame advances the clock to now and captures the page
func (l *Live) Frame(index int, now time.Duration) renderer.Snapshot {
	l.Scheduler.Tick(now)
	return renderer.Capture(index, l.Page.Doc, dom.Layout{}, l.Scheduler.Runs())
}

// Reload simulates navigating to a fresh copy of the page: running markers are
// torn down and the new view starts its own
func (l *Live) Reload(now time.Duration) error {
	page, err := BuildPage(l.Config, l.measurer)
	if err != nil {
		return err
	}
	l.Page = page
	l.Reader.Attach(page.Doc)
	l.Navigator.Ready(now, page.Doc)
	l.views++
	return nil
}

// Views counts page views announced so far
func (l *Live) Views() int { return l.views }

// Status is a one-line summary of the runs for host overlays
func (l *Live) Status() string {
	s := "reader-mode: " + l.Reader.Mode()
	for _, r := range l.Scheduler.Runs() {
		s += "  " + r.Target.Name + ": " + r.State().String()
	}
	return s
}
