package renderer

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ivlev/gloworb/internal/debugviz"
	"github.com/ivlev/gloworb/internal/geom"
	"github.com/ivlev/gloworb/internal/hue"
	"github.com/ivlev/gloworb/internal/system"
)

var (
	Background = color.RGBA{R: 0x10, G: 0x12, B: 0x18, A: 0xff}
	TextColor  = color.RGBA{R: 0xc8, G: 0xcc, B: 0xd6, A: 0xff}
)

// glowLayers concentric discs make up the orb halo
const glowLayers = 6

// Rasterizer draws snapshots. A font.Face is not safe for concurrent use, so
// give each worker its own Rasterizer.
type Rasterizer struct {
	Width  int
	Height int
	Face   font.Face
	Ascent float64
	Debug  bool

	// z is reset per disc and sized to the disc's box
	z vector.Rasterizer
}

// Render draws s on a pooled frame. Release the frame with system.PutImage
// once it has been written.
func (r *Rasterizer) Render(s Snapshot) *image.RGBA {
	dst := system.GetImage(image.Rect(0, 0, r.Width, r.Height))
	r.Draw(dst, s)
	return dst
}

// Draw paints s over dst
func (r *Rasterizer) Draw(dst *image.RGBA, s Snapshot) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	for _, g := range s.Glyphs {
		r.drawGlyph(dst, g)
	}
	for _, o := range s.Orbs {
		r.drawOrb(dst, o)
	}
	if r.Debug {
		for _, o := range s.Overlays {
			ov := o.Overlay
			ov.Draw(dst, o.Origin)
		}
	}
}

func (r *Rasterizer) drawGlyph(dst *image.RGBA, g Glyph) {
	if g.Text == "" || r.Face == nil {
		return
	}
	col := TextColor
	if g.Lit {
		col = hue.Color(g.Hue)
		halo := col
		halo.A = 0x40
		r.fillDisc(dst, g.Rect.Center(), math.Max(g.Rect.W, g.Rect.H)*0.6, halo)
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: r.Face,
		Dot:  fixed.P(int(math.Round(g.Rect.X)), int(math.Round(g.Rect.Y+r.Ascent))),
	}
	d.DrawString(g.Text)
}

func (r *Rasterizer) drawOrb(dst *image.RGBA, o Orb) {
	c := o.Rect.Center()
	radius := math.Max(o.Rect.W, o.Rect.H) / 2
	base := hue.Color(o.Hue)

	for i := glowLayers; i >= 1; i-- {
		k := float64(i) / glowLayers
		col := base
		col.A = uint8(math.Round(o.Opacity * 255 * 0.18 * (1 - k + 1.0/glowLayers)))
		r.fillDisc(dst, c, radius*(1+1.5*k), col)
	}
	core := base
	core.A = uint8(math.Round(o.Opacity * 255))
	r.fillDisc(dst, c, radius, core)
}

// fillDisc composites a non-premultiplied colour disc over dst
func (r *Rasterizer) fillDisc(dst *image.RGBA, c geom.Point, radius float64, col color.RGBA) {
	if col.A == 0 {
		return
	}
	debugviz.FillDisc(&r.z, dst, c, radius, image.NewUniform(color.NRGBA(col)))
}
