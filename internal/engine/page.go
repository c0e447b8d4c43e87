package engine

import (
	"fmt"
	"image"
	"math"

	"github.com/ivlev/gloworb/internal/analyzer"
	"github.com/ivlev/gloworb/internal/config"
	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/geom"
	"github.com/ivlev/gloworb/internal/layout"
	"github.com/ivlev/gloworb/internal/source"
	"github.com/ivlev/gloworb/internal/system"
)

// HeaderDir is searched when the header is set to "latest"
const HeaderDir = "input"

// BuildPage composes the page described by cfg at the render size. A header
// raster, when configured, replaces the font layout of every title.
func BuildPage(cfg *config.Config, m *layout.FontMeasurer) (*layout.Page, error) {
	spec := layout.PageSpec{
		Slug:       cfg.Page.Slug,
		Title:      cfg.Page.Title,
		Highlight:  cfg.Page.Highlight,
		Sidebar:    cfg.Page.Sidebar,
		Landing:    cfg.Page.Landing,
		Width:      float64(cfg.Render.Width),
		Height:     float64(cfg.Render.Height),
		MarkerSize: math.Round(cfg.Page.FontSize * 0.3),
		Padding:    math.Round(cfg.Page.FontSize * 0.5),
	}
	page := layout.BuildPage(spec, m)

	if cfg.Page.Header == "" {
		return page, nil
	}

	path := cfg.Page.Header
	if path == "latest" {
		latest, err := system.FindLatestHeader(HeaderDir)
		if err != nil {
			return nil, err
		}
		path = latest
	}
	img, err := source.Header(path, 0, cfg.Page.DPI)
	if err != nil {
		return nil, fmt.Errorf("header %s: %w", path, err)
	}

	det, err := analyzer.NewDetector(cfg.Page.Detector)
	if err != nil {
		return nil, err
	}
	for _, c := range page.Containers() {
		if err := replaceTitle(c, img, cfg.Page.Title, det, spec.Padding); err != nil {
			return nil, fmt.Errorf("header %s: %w", path, err)
		}
	}
	return page, nil
}

// replaceTitle swaps the container title for one measured from img, scaled to
// fit the container width and centred vertically
func replaceTitle(c *dom.Element, img image.Image, text string, det analyzer.Detector, padding float64) error {
	b := img.Bounds()
	avail := c.Box.W - 2*padding
	scale := math.Min(1, avail/float64(b.Dx()))
	if scale <= 0 {
		return fmt.Errorf("container %.0fpx is too narrow", c.Box.W)
	}
	top := math.Max(padding, (c.Box.H-float64(b.Dy())*scale)/2)
	at := geom.Point{X: c.Box.X + padding, Y: c.Box.Y + top}

	title, err := layout.FromRaster(img, text, det, at, scale)
	if err != nil {
		return err
	}

	if old := c.Query(dom.ClassPageTitle); old != nil {
		c.RemoveChild(old)
	}
	// the title must come before the marker in document order
	marker := c.Query(dom.ClassMarker)
	if marker != nil {
		c.RemoveChild(marker)
	}
	c.Append(title)
	if marker != nil {
		c.Append(marker)
	}
	return nil
}
