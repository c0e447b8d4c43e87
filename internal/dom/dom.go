// Package dom is a small headless document model: just enough of a page for the
// orb to measure glyphs and write presentation attributes back.
package dom

import (
	"strings"

	"github.com/ivlev/gloworb/internal/geom"
)

// Structural class names shared by page composition and the animation core
const (
	ClassSidebar     = "sidebar"
	ClassSidebarLeft = "left"
	ClassLanding     = "landing-hero"
	ClassPageTitle   = "page-title"
	ClassMarker      = "glow-orb"
	ClassGlyph       = "glow-letter"
	ClassSpecial     = "page-title__i"
	ClassSubMarker   = "funiki-idot-anchor"
	ClassIlluminated = "orb-illuminated"
	ClassLock        = "orb-lock"
	ClassDebug       = "orb-debug"
)

// Element is one node of the document tree
type Element struct {
	Tag  string
	Text string

	// Box is the layout box in page coordinates
	Box geom.Rect
	// Offset is an inline left/top relative to the parent box; nil while in flow
	Offset  *geom.Point
	Opacity float64

	classes  []string
	dataset  map[string]string
	props    map[string]string
	parent   *Element
	children []*Element
}

// NewElement creates a detached element with the given classes
func NewElement(tag string, classes ...string) *Element {
	el := &Element{Tag: tag, Opacity: 1}
	for _, c := range classes {
		el.AddClass(c)
	}
	return el
}

// Append attaches child as the last child of e and returns the child
func (e *Element) Append(child *Element) *Element {
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = e
	e.children = append(e.children, child)
	return child
}

// RemoveChild detaches child from e
func (e *Element) RemoveChild(child *Element) {
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

func (e *Element) Parent() *Element     { return e.parent }
func (e *Element) Children() []*Element { return e.children }

// Classes returns a copy of the class list
func (e *Element) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

func (e *Element) HasClass(name string) bool {
	for _, c := range e.classes {
		if c == name {
			return true
		}
	}
	return false
}

func (e *Element) AddClass(name string) {
	if name == "" || e.HasClass(name) {
		return
	}
	e.classes = append(e.classes, name)
}

func (e *Element) RemoveClass(name string) {
	for i, c := range e.classes {
		if c == name {
			e.classes = append(e.classes[:i], e.classes[i+1:]...)
			return
		}
	}
}

// ToggleClass adds the class when on is true and removes it otherwise
func (e *Element) ToggleClass(name string, on bool) {
	if on {
		e.AddClass(name)
	} else {
		e.RemoveClass(name)
	}
}

// Data reads a dataset entry
func (e *Element) Data(key string) string {
	return e.dataset[key]
}

// SetData writes a dataset entry
func (e *Element) SetData(key, value string) {
	if e.dataset == nil {
		e.dataset = make(map[string]string)
	}
	e.dataset[key] = value
}

// Prop reads a custom style property such as --orb-hue
func (e *Element) Prop(name string) string {
	return e.props[name]
}

// SetProp writes a custom style property
func (e *Element) SetProp(name, value string) {
	if e.props == nil {
		e.props = make(map[string]string)
	}
	e.props[name] = value
}

// SetOffset positions the element relative to its parent box
func (e *Element) SetOffset(p geom.Point) {
	e.Offset = &p
}

// TextContent concatenates the text of e and all its descendants
func (e *Element) TextContent() string {
	var sb strings.Builder
	e.walk(func(n *Element) bool {
		sb.WriteString(n.Text)
		return true
	})
	return sb.String()
}

// matches reports whether e carries every class in classes
func (e *Element) matches(classes []string) bool {
	for _, c := range classes {
		if !e.HasClass(c) {
			return false
		}
	}
	return len(classes) > 0
}

// walk visits descendants of e in document order, e itself first
func (e *Element) walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// QueryAll returns descendants (not e) carrying all of the given classes
func (e *Element) QueryAll(classes ...string) []*Element {
	var out []*Element
	for _, c := range e.children {
		c.walk(func(n *Element) bool {
			if n.matches(classes) {
				out = append(out, n)
			}
			return true
		})
	}
	return out
}

// Query returns the first descendant carrying all of the given classes
func (e *Element) Query(classes ...string) *Element {
	var found *Element
	for _, c := range e.children {
		c.walk(func(n *Element) bool {
			if n.matches(classes) {
				found = n
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// Closest returns e or its nearest ancestor carrying all of the given classes
func (e *Element) Closest(classes ...string) *Element {
	for n := e; n != nil; n = n.parent {
		if n.matches(classes) {
			return n
		}
	}
	return nil
}

// Document is one page view
type Document struct {
	Slug string
	Root *Element
}

// NewDocument creates an empty page with a body root
func NewDocument(slug string) *Document {
	return &Document{Slug: slug, Root: NewElement("body")}
}

// Query searches the whole document
func (d *Document) Query(classes ...string) *Element {
	return d.Root.Query(classes...)
}

// QueryAll searches the whole document
func (d *Document) QueryAll(classes ...string) []*Element {
	return d.Root.QueryAll(classes...)
}
