// orbterm plays the orb animation in a terminal, one cell per glyph
package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/pflag"

	"github.com/ivlev/gloworb/internal/config"
	"github.com/ivlev/gloworb/internal/engine"
	"github.com/ivlev/gloworb/internal/geom"
	"github.com/ivlev/gloworb/internal/hue"
	"github.com/ivlev/gloworb/internal/logging"
	"github.com/ivlev/gloworb/internal/renderer"
)

// page pixels per terminal cell
const (
	cellW = 8.0
	cellH = 16.0
)

type Term struct {
	screen tcell.Screen
	live   *engine.Live
	start  time.Time
	index  int
	debug  bool
	note   string
}

func color(h float64) tcell.Color {
	c := hue.Color(h)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func cell(p geom.Point) (int, int) {
	return int(math.Floor(p.X / cellW)), int(math.Floor(p.Y / cellH))
}

func (t *Term) draw(s renderer.Snapshot) {
	t.screen.Clear()
	plain := tcell.StyleDefault.Foreground(tcell.ColorSilver)

	if t.debug {
		for _, o := range s.Overlays {
			for _, p := range o.Overlay.Trace {
				x, y := cell(p.Add(o.Overlay.Center).Add(o.Origin))
				t.screen.SetContent(x, y, '·', nil, tcell.StyleDefault.Foreground(tcell.ColorFuchsia))
			}
		}
	}

	for _, g := range s.Glyphs {
		r := []rune(g.Text)
		if len(r) == 0 {
			r = []rune{'▯'}
		}
		x, y := cell(g.Rect.Center())
		style := plain
		if g.Lit {
			style = tcell.StyleDefault.Foreground(color(g.Hue)).Bold(true)
		}
		t.screen.SetContent(x, y, r[0], nil, style)
	}

	for _, o := range s.Orbs {
		x, y := cell(o.Rect.Center())
		ch := '•'
		if o.Opacity >= 0.5 {
			ch = '●'
		}
		t.screen.SetContent(x, y, ch, nil, tcell.StyleDefault.Foreground(color(o.Hue)))
	}

	_, rows := t.screen.Size()
	status := t.live.Status()
	if t.note != "" {
		status += "  " + t.note
	}
	for i, r := range status {
		t.screen.SetContent(i, rows-1, r, nil, tcell.StyleDefault.Foreground(tcell.ColorGray))
	}
	t.screen.Show()
}

// handleInput returns false when the user quits
func (t *Term) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch ev.Rune() {
		case 'q':
			return false
		case 'r':
			t.note = ""
			if !t.live.Reader.Switch() {
				t.note = "(reader mode locked)"
			}
		case 'd':
			t.debug = !t.debug
		case ' ':
			if err := t.live.Reload(time.Since(t.start)); err != nil {
				t.note = err.Error()
			}
		}
	case *tcell.EventResize:
		t.screen.Sync()
	}
	return true
}

func (t *Term) run() {
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev := <-events:
			if !t.handleInput(ev) {
				return
			}
		case <-ticker.C:
			t.draw(t.live.Frame(t.index, time.Since(t.start)))
			t.index++
		}
	}
}

func main() {
	fs := pflag.NewFlagSet("orbterm", pflag.ExitOnError)
	config.Flags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] config: %v\n", err)
		os.Exit(2)
	}
	// the terminal is the display; keep logs as JSON on stderr
	log := logging.New("orbterm", cfg.Log.Level, false)

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal().Err(err).Msg("terminal")
	}
	if err := screen.Init(); err != nil {
		log.Fatal().Err(err).Msg("terminal")
	}

	// one cell per glyph needs the page to match the terminal grid
	cols, rows := screen.Size()
	cfg.Render.Width = int(float64(cols) * cellW)
	cfg.Render.Height = int(float64(rows-1) * cellH)

	live, err := engine.NewLive(cfg, log)
	if err != nil {
		screen.Fini()
		log.Fatal().Err(err).Msg("prepare page")
	}

	t := &Term{screen: screen, live: live, start: time.Now(), debug: cfg.Animation.Debug}
	t.run()
	screen.Fini()
}
