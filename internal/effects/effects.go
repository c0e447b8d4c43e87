package effects

import (
	"fmt"
	"strings"
	"time"

	"github.com/ivlev/gloworb/internal/system"
)

// Params describes the encoded clip an effect filter is built for
type Params struct {
	Width    int
	Height   int
	FPS      int
	Duration time.Duration
	Fade     time.Duration
	Debug    bool
	Label    string
}

// Effect produces the ffmpeg -vf chain applied to the raw frame stream
type Effect interface {
	GenerateFilter(p Params) string
}

// DefaultEffect fades the clip in and out and keeps the output even-sized
// so yuv420p encoders accept it
type DefaultEffect struct {
	// HasFilter is consulted for optional filters; nil means ask ffmpeg
	HasFilter func(name string) bool
}

func (e *DefaultEffect) GenerateFilter(p Params) string {
	var chain []string

	if fade := p.Fade.Seconds(); fade > 0 && p.Duration > 2*p.Fade {
		outStart := p.Duration.Seconds() - fade
		chain = append(chain,
			fmt.Sprintf("fade=t=in:st=0:d=%.3f", fade),
			fmt.Sprintf("fade=t=out:st=%.3f:d=%.3f", outStart, fade),
		)
	}

	if p.Debug && e.hasFilter("drawtext") {
		label := p.Label
		if label == "" {
			label = "%{n}"
		}
		chain = append(chain, fmt.Sprintf(
			"drawtext=text='%s':x=10:y=10:fontsize=16:fontcolor=yellow:box=1:boxcolor=black@0.5",
			escapeText(label),
		))
	}

	chain = append(chain, fmt.Sprintf("scale=%d:%d", even(p.Width), even(p.Height)), "format=yuv420p")
	return strings.Join(chain, ",")
}

func (e *DefaultEffect) hasFilter(name string) bool {
	if e.HasFilter != nil {
		return e.HasFilter(name)
	}
	return system.CheckFilterSupport(name)
}

func even(n int) int {
	if n%2 != 0 {
		return n + 1
	}
	return n
}

var textEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
