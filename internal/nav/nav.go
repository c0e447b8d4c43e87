// Package nav decides which markers of a freshly loaded page view should run
package nav

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/scheduler"
)

// IsRoot reports whether slug names the site root
func IsRoot(slug string) bool {
	return slug == "index"
}

// Targets lists the runs a page view calls for. Sidebar markers run on the root
// or an empty slug and loop; landing markers run only on the root, once.
func Targets(doc *dom.Document) []scheduler.Target {
	var out []scheduler.Target
	for _, marker := range doc.QueryAll(dom.ClassMarker) {
		if c := marker.Closest(dom.ClassSidebar, dom.ClassSidebarLeft); c != nil {
			if doc.Slug == "" || IsRoot(doc.Slug) {
				out = append(out, target("sidebar", c, marker, scheduler.Looping))
			}
			continue
		}
		if c := marker.Closest(dom.ClassLanding); c != nil && IsRoot(doc.Slug) {
			out = append(out, target("landing", c, marker, scheduler.OneShot))
		}
	}
	return out
}

func target(name string, container, marker *dom.Element, kind scheduler.Kind) scheduler.Target {
	return scheduler.Target{
		Name:      name,
		Container: container,
		Marker:    marker,
		Glyphs:    container.QueryAll(dom.ClassGlyph),
		Kind:      kind,
	}
}

// Navigator feeds page views to a scheduler
type Navigator struct {
	sched *scheduler.Scheduler
	log   zerolog.Logger
	doc   *dom.Document
}

func New(sched *scheduler.Scheduler, log zerolog.Logger) *Navigator {
	return &Navigator{sched: sched, log: log.With().Str("component", "nav").Logger()}
}

// Ready handles a page view becoming ready. Runs of a previous page view are
// dropped; re-announcing the same view only starts markers not yet running.
func (n *Navigator) Ready(now time.Duration, doc *dom.Document) []*scheduler.Run {
	if n.doc != nil && n.doc != doc {
		n.sched.Teardown()
	}
	n.doc = doc

	var started []*scheduler.Run
	for _, t := range Targets(doc) {
		if r, ok := n.sched.Start(now, t); ok {
			started = append(started, r)
		}
	}
	n.log.Debug().Str("slug", doc.Slug).Int("started", len(started)).Msg("page ready")
	return started
}

// Current returns the page view last announced
func (n *Navigator) Current() *dom.Document {
	return n.doc
}
