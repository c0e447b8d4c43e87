// Package layout composes headless pages: the title glyph spans, font metrics
// for their boxes, and the sidebar and landing containers that carry a marker.
package layout

import (
	"strings"

	"github.com/ivlev/gloworb/internal/dom"
)

// HighlightTitle is the only title glyphized by default
const HighlightTitle = "funiki"

// Glyphize builds the page title. When the trimmed title equals highlight
// (case-insensitive), or highlight is empty, every character becomes a glyph
// span and each "i" also carries the special class and a sub-marker child.
// Other titles are kept as a single text node.
func Glyphize(title, highlight string) *dom.Element {
	h := dom.NewElement("h2", dom.ClassPageTitle)
	link := h.Append(dom.NewElement("a"))

	if highlight != "" && !strings.EqualFold(strings.TrimSpace(title), highlight) {
		link.Text = title
		return h
	}

	for _, r := range title {
		ch := string(r)
		if strings.ToLower(ch) == "i" {
			span := link.Append(dom.NewElement("span", dom.ClassSpecial, dom.ClassGlyph))
			span.Text = ch
			span.Append(dom.NewElement("span", dom.ClassSubMarker))
			continue
		}
		span := link.Append(dom.NewElement("span", dom.ClassGlyph))
		span.Text = ch
	}
	return h
}
