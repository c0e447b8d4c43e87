// Package readermode holds the reader-mode switch. Switching is refused while
// an orb run holds its container lock.
package readermode

import "github.com/ivlev/gloworb/internal/dom"

// Attribute is the root dataset key carrying the mode
const Attribute = "reader-mode"

const (
	On  = "on"
	Off = "off"
)

// Toggle is the reader-mode state of one document
type Toggle struct {
	on        bool
	doc       *dom.Document
	listeners []func(mode string)
}

// New creates a toggle in the given state
func New(on bool) *Toggle {
	return &Toggle{on: on}
}

// OnChange registers fn to be called with the mode after every apply
func (t *Toggle) OnChange(fn func(mode string)) {
	t.listeners = append(t.listeners, fn)
}

// Attach binds the toggle to a page view and applies the current state to it
func (t *Toggle) Attach(doc *dom.Document) {
	t.doc = doc
	t.apply()
}

// Mode returns "on" or "off"
func (t *Toggle) Mode() string {
	if t.on {
		return On
	}
	return Off
}

// Suspended reports whether an element of the page holds the orb lock
func (t *Toggle) Suspended() bool {
	return t.doc != nil && t.doc.Query(dom.ClassLock) != nil
}

// Switch flips the mode. It returns false and changes nothing while suspended.
func (t *Toggle) Switch() bool {
	if t.Suspended() {
		return false
	}
	t.on = !t.on
	t.apply()
	return true
}

func (t *Toggle) apply() {
	mode := t.Mode()
	if t.doc != nil {
		t.doc.Root.SetData(Attribute, mode)
	}
	for _, fn := range t.listeners {
		fn(mode)
	}
}
