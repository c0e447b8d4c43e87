// Package debugviz traces a computed orb path for inspection. It only reads the
// path and never feeds back into scheduling.
package debugviz

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	sf "github.com/peterstace/simplefeatures/geom"

	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/geom"
	"github.com/ivlev/gloworb/internal/trajectory"
)

// DataKey enables the overlay per container when set to "true"
const DataKey = "orbDebug"

// samplesPerSegment controls how finely curves are traced
const samplesPerSegment = 24

// Enabled reports whether the overlay should be drawn for a container
func Enabled(static bool, container *dom.Element) bool {
	return static || (container != nil && container.Data(DataKey) == "true")
}

// Marker is one numbered waypoint
type Marker struct {
	Index  int
	Point  geom.Point
	Active bool
}

// Overlay is the diagnostic rendering of one path
type Overlay struct {
	// Trace is the polyline drawn for the path, in marker coordinates
	Trace   []geom.Point
	Markers []Marker
	// Curved is false when the trace fell back to straight waypoint links
	Curved bool
	// Center shifts marker coordinates to the marker centre
	Center geom.Point

	root   *dom.Element
	active int
}

// New builds an overlay. The true Bézier curves are traced when the path has
// segments; otherwise the waypoints are linked with straight lines.
func New(path trajectory.Path, markerSize geom.Size) *Overlay {
	o := &Overlay{Center: markerSize.Half(), active: -1}
	moving := 0
	for _, s := range path.Segments {
		if s.Start == s.End && s.Control1 == s.Start && s.Control2 == s.Start {
			continue
		}
		pts := s.Flatten(samplesPerSegment)
		if len(o.Trace) > 0 {
			pts = pts[1:]
		}
		o.Trace = append(o.Trace, pts...)
		moving++
	}
	if moving > 0 {
		o.Curved = true
	} else {
		o.Trace = append(o.Trace, path.Waypoints...)
	}
	for i, p := range path.Waypoints {
		o.Markers = append(o.Markers, Marker{Index: i, Point: p})
	}
	return o
}

// SetActive highlights the waypoint the marker last reached
func (o *Overlay) SetActive(i int) {
	o.active = i
	for k := range o.Markers {
		o.Markers[k].Active = o.Markers[k].Index == i
	}
	if o.root == nil {
		return
	}
	for _, child := range o.root.QueryAll("orb-debug-point") {
		child.ToggleClass("is-active", child.Data("index") == strconv.Itoa(i))
	}
}

// Active returns the highlighted waypoint or -1
func (o *Overlay) Active() int {
	return o.active
}

// Attach replaces any previous overlay subtree in container with a fresh one
func (o *Overlay) Attach(container *dom.Element) {
	for _, old := range container.QueryAll(dom.ClassDebug) {
		if p := old.Parent(); p != nil {
			p.RemoveChild(old)
		}
	}
	root := dom.NewElement("svg", dom.ClassDebug)
	root.Box = container.Box
	root.SetData("path", o.PathData())

	for _, m := range o.Markers {
		el := root.Append(dom.NewElement("span", "orb-debug-point"))
		el.Text = strconv.Itoa(m.Index + 1)
		el.SetData("index", strconv.Itoa(m.Index))
		el.SetOffset(m.Point.Add(o.Center))
	}
	container.Append(root)
	o.root = root
	if o.active >= 0 {
		o.SetActive(o.active)
	}
}

// PathData renders the trace as an SVG path "d" attribute
func (o *Overlay) PathData() string {
	var sb strings.Builder
	for i, p := range o.Trace {
		c := p.Add(o.Center)
		if i == 0 {
			fmt.Fprintf(&sb, "M %.2f %.2f", c.X, c.Y)
		} else {
			fmt.Fprintf(&sb, " L %.2f %.2f", c.X, c.Y)
		}
	}
	return sb.String()
}

// SVG renders a standalone document of the given size
func (o *Overlay) SVG(width, height int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	fmt.Fprintf(&sb, `<path d="%s" fill="none" stroke="#ff3b6b" stroke-width="1.5" stroke-dasharray="4 3"/>`, o.PathData())
	for _, m := range o.Markers {
		c := m.Point.Add(o.Center)
		fill := "#1e90ff"
		if m.Active {
			fill = "#ffd23f"
		}
		fmt.Fprintf(&sb, `<circle cx="%.2f" cy="%.2f" r="7" fill="%s"/>`, c.X, c.Y, fill)
		fmt.Fprintf(&sb, `<text x="%.2f" y="%.2f" font-size="9" text-anchor="middle" fill="#fff">%d</text>`, c.X, c.Y+3, m.Index+1)
	}
	sb.WriteString("</svg>")
	return sb.String()
}

var (
	traceColor  = color.RGBA{R: 0xff, G: 0x3b, B: 0x6b, A: 0xd0}
	pointColor  = color.RGBA{R: 0x1e, G: 0x90, B: 0xff, A: 0xe0}
	activeColor = color.RGBA{R: 0xff, G: 0xd2, B: 0x3f, A: 0xff}
)

// traceHalfWidth is half the stroke width of the traced path
const traceHalfWidth = 0.8

// Draw rasterises the overlay onto dst; origin is the container's top-left in
// dst pixel space.
func (o *Overlay) Draw(dst draw.Image, origin geom.Point) {
	z := &vector.Rasterizer{}
	if box := o.traceBounds(origin).Intersect(dst.Bounds()); !box.Empty() {
		z.Reset(box.Dx(), box.Dy())
		shift := origin.Add(o.Center).Sub(pixelPoint(box.Min))
		for i := 1; i < len(o.Trace); i++ {
			strokeLine(z, o.Trace[i-1].Add(shift), o.Trace[i].Add(shift), traceHalfWidth)
		}
		z.Draw(dst, box, image.NewUniform(traceColor), box.Min)
	}

	for _, m := range o.Markers {
		c := m.Point.Add(o.Center).Add(origin)
		col := pointColor
		if m.Active {
			col = activeColor
		}
		FillDisc(z, dst, c, 6, image.NewUniform(col))

		d := font.Drawer{
			Dst:  dst,
			Src:  image.White,
			Face: basicfont.Face7x13,
			Dot:  fixed.P(int(c.X)-3, int(c.Y)+4),
		}
		d.DrawString(strconv.Itoa(m.Index + 1))
	}
}

// traceBounds is the pixel box covering the stroked trace in dst space
func (o *Overlay) traceBounds(origin geom.Point) image.Rectangle {
	if len(o.Trace) < 2 {
		return image.Rectangle{}
	}
	shift := origin.Add(o.Center)
	xys := make([]sf.XY, len(o.Trace))
	for i, p := range o.Trace {
		xys[i] = p.Add(shift).XY()
	}
	env, err := sf.NewEnvelope(xys)
	if err != nil {
		return image.Rectangle{}
	}
	r := geom.RectOf(env)
	return pixelBox(r.X-traceHalfWidth, r.Y-traceHalfWidth, r.Right()+traceHalfWidth, r.Bottom()+traceHalfWidth)
}

// DiscBounds is the pixel box covering a disc, clipped to frame
func DiscBounds(c geom.Point, r float64, frame image.Rectangle) image.Rectangle {
	return pixelBox(c.X-r, c.Y-r, c.X+r, c.Y+r).Intersect(frame)
}

// FillDisc composites src through a disc onto dst. Only the disc's box is
// rasterised; z is reset on every call so one rasterizer can serve many discs.
func FillDisc(z *vector.Rasterizer, dst draw.Image, c geom.Point, r float64, src image.Image) {
	if r <= 0 {
		return
	}
	box := DiscBounds(c, r, dst.Bounds())
	if box.Empty() {
		return
	}
	z.Reset(box.Dx(), box.Dy())
	Disc(z, c.Sub(pixelPoint(box.Min)), r)
	z.Draw(dst, box, src, box.Min)
}

func pixelBox(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Ceil(x1)), int(math.Ceil(y1)))
}

func pixelPoint(p image.Point) geom.Point {
	return geom.Point{X: float64(p.X), Y: float64(p.Y)}
}

// strokeLine adds a thick line from p to q as a filled quad
func strokeLine(z *vector.Rasterizer, p, q geom.Point, halfWidth float64) {
	dx, dy := q.X-p.X, q.Y-p.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*halfWidth, dx/l*halfWidth
	z.MoveTo(float32(p.X+nx), float32(p.Y+ny))
	z.LineTo(float32(q.X+nx), float32(q.Y+ny))
	z.LineTo(float32(q.X-nx), float32(q.Y-ny))
	z.LineTo(float32(p.X-nx), float32(p.Y-ny))
	z.ClosePath()
}

// kappa places cubic control points for a quarter circle
const kappa = 0.5522847498

// Disc adds a filled circle to z
func Disc(z *vector.Rasterizer, c geom.Point, r float64) {
	k := r * kappa
	x, y := float32(c.X), float32(c.Y)
	rr, kk := float32(r), float32(k)
	z.MoveTo(x+rr, y)
	z.CubeTo(x+rr, y+kk, x+kk, y+rr, x, y+rr)
	z.CubeTo(x-kk, y+rr, x-rr, y+kk, x-rr, y)
	z.CubeTo(x-rr, y-kk, x-kk, y-rr, x, y-rr)
	z.CubeTo(x+kk, y-rr, x+rr, y-kk, x+rr, y)
	z.ClosePath()
}
