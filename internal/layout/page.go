package layout

import (
	"math"

	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/geom"
)

// PageSpec describes the page to compose
type PageSpec struct {
	Slug      string
	Title     string
	Highlight string
	Sidebar   bool
	Landing   bool
	Width     float64
	Height    float64
	// MarkerSize is the side of the square marker
	MarkerSize float64
	Padding    float64
}

// Page is a composed document with direct handles on its containers
type Page struct {
	Doc     *dom.Document
	Sidebar *dom.Element
	Landing *dom.Element
}

// Containers returns the present containers, sidebar first
func (p *Page) Containers() []*dom.Element {
	var out []*dom.Element
	for _, c := range []*dom.Element{p.Sidebar, p.Landing} {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// BuildPage lays out a body holding the requested containers. With both, the
// sidebar takes the left 40% of the width.
func BuildPage(spec PageSpec, m *FontMeasurer) *Page {
	doc := dom.NewDocument(spec.Slug)
	doc.Root.Box = geom.Rect{W: spec.Width, H: spec.Height}
	page := &Page{Doc: doc}

	full := doc.Root.Box
	sidebarBox, landingBox := full, full
	if spec.Sidebar && spec.Landing {
		split := math.Round(spec.Width * 0.4)
		sidebarBox = geom.Rect{W: split, H: spec.Height}
		landingBox = geom.Rect{X: split, W: spec.Width - split, H: spec.Height}
	}

	if spec.Sidebar {
		page.Sidebar = buildContainer(doc.Root, sidebarBox, spec, m, dom.ClassSidebar, dom.ClassSidebarLeft)
	}
	if spec.Landing {
		page.Landing = buildContainer(doc.Root, landingBox, spec, m, dom.ClassLanding)
	}
	return page
}

func buildContainer(body *dom.Element, box geom.Rect, spec PageSpec, m *FontMeasurer, classes ...string) *dom.Element {
	c := body.Append(dom.NewElement("div", classes...))
	c.Box = box

	title := c.Append(Glyphize(spec.Title, spec.Highlight))
	// leave room above the title for the sub-markers and the exit
	top := math.Max(spec.Padding+0.6*m.Size+m.SubMarkerSize(), box.H*0.4-m.LineHeight()/2)
	m.Place(title, geom.Point{X: box.X + spec.Padding, Y: box.Y + top})

	AddMarker(c, spec.MarkerSize)
	return c
}

// AddMarker appends an invisible marker of the given size to container
func AddMarker(container *dom.Element, size float64) *dom.Element {
	marker := container.Append(dom.NewElement("div", dom.ClassMarker))
	marker.Box = geom.RectAt(container.Box.Min(), geom.Size{W: size, H: size})
	marker.Opacity = 0
	return marker
}
