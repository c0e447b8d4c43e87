// orbview plays the orb animation live in a window
package main

import (
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/ivlev/gloworb/internal/config"
	"github.com/ivlev/gloworb/internal/engine"
	"github.com/ivlev/gloworb/internal/layout"
	"github.com/ivlev/gloworb/internal/logging"
	"github.com/ivlev/gloworb/internal/renderer"
)

var errQuit = errors.New("quit requested")

// Viewer implements ebiten.Game on top of a live page
type Viewer struct {
	live   *engine.Live
	raster *renderer.Rasterizer
	frame  *image.RGBA
	start  time.Time
	index  int
	log    zerolog.Logger
}

func (v *Viewer) now() time.Duration { return time.Since(v.start) }

func (v *Viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if !v.live.Reader.Switch() {
			v.log.Info().Msg("reader mode is locked while the orb plays")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyD) {
		v.raster.Debug = !v.raster.Debug
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		if err := v.live.Reload(v.now()); err != nil {
			return err
		}
	}

	snap := v.live.Frame(v.index, v.now())
	v.index++
	v.raster.Draw(v.frame, snap)
	return nil
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.WritePixels(v.frame.Pix)
	ebitenutil.DebugPrintAt(screen, v.live.Status(), 8, v.frame.Rect.Dy()-20)
}

func (v *Viewer) Layout(int, int) (int, int) {
	return v.frame.Rect.Dx(), v.frame.Rect.Dy()
}

func main() {
	fs := pflag.NewFlagSet("orbview", pflag.ExitOnError)
	config.Flags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] config: %v\n", err)
		os.Exit(2)
	}
	log := logging.New("orbview", cfg.Log.Level, cfg.Log.Pretty)

	live, err := engine.NewLive(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("prepare page")
	}
	m, err := layout.NewFontMeasurer(cfg.Page.FontSize)
	if err != nil {
		log.Fatal().Err(err).Msg("font")
	}

	w, h := cfg.Render.Width, cfg.Render.Height
	v := &Viewer{
		live: live,
		raster: &renderer.Rasterizer{
			Width: w, Height: h,
			Face: m.Face, Ascent: m.Ascent(),
			Debug: cfg.Animation.Debug,
		},
		frame: image.NewRGBA(image.Rect(0, 0, w, h)),
		start: time.Now(),
		log:   log,
	}

	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("gloworb: " + cfg.Page.Title)
	ebiten.SetTPS(cfg.Render.FPS)

	if err := ebiten.RunGame(v); err != nil && !errors.Is(err, errQuit) {
		log.Fatal().Err(err).Msg("viewer")
	}
}
