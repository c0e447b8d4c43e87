package hue

import (
	"fmt"
	"image/color"
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// MinSeparation is the smallest change in degrees a committed hue may make
const MinSeparation = 45.0

// Property is the custom style property carrying the current hue
const Property = "--orb-hue"

// Normalize wraps h into [0, 360)
func Normalize(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

// Distance is the circular distance between two hues, in [0, 180]
func Distance(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Commit returns the hue that replaces current given a sampled candidate. A
// candidate closer than minSep is pushed away from current by 2*minSep.
// minSep must not exceed 90 for the separation guarantee to hold.
func Commit(current, candidate, minSep float64) float64 {
	current = Normalize(current)
	candidate = Normalize(candidate)
	if Distance(current, candidate) >= minSep {
		return candidate
	}
	delta := candidate - current
	if delta > 180 {
		delta -= 360
	} else if delta < -180 {
		delta += 360
	}
	if delta >= 0 {
		return Normalize(candidate + 2*minSep)
	}
	return Normalize(candidate - 2*minSep)
}

// Cycler owns the current hue of one run
type Cycler struct {
	current float64
	minSep  float64
	rng     *rand.Rand
}

// NewCycler starts at the given hue
func NewCycler(rng *rand.Rand, start float64) *Cycler {
	return &Cycler{current: Normalize(start), minSep: MinSeparation, rng: rng}
}

// Current returns the committed hue
func (c *Cycler) Current() float64 {
	return c.current
}

// Next samples a new hue and commits it
func (c *Cycler) Next() float64 {
	c.current = Commit(c.current, c.rng.Float64()*360, c.minSep)
	return c.current
}

// Format renders a hue the way it is stored in the style property. Rounding
// happens before wrapping so the text always stays within [0, 360).
func Format(h float64) string {
	h = Normalize(math.Round(h*10) / 10)
	if h == 0 {
		h = 0 // drop the sign of -0
	}
	return fmt.Sprintf("%.1f", h)
}

// Color converts a hue to the saturated glow colour used by renderers
func Color(h float64) color.RGBA {
	c := colorful.Hsv(Normalize(h), 0.65, 1.0).Clamped()
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
