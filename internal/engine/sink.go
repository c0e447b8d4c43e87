package engine

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ivlev/gloworb/internal/config"
	"github.com/ivlev/gloworb/internal/effects"
	"github.com/ivlev/gloworb/internal/system"
	"github.com/ivlev/gloworb/internal/video"
)

// OpenSink creates the sink for the configured format at path
func OpenSink(ctx context.Context, cfg *config.Config, path string, eff effects.Effect, log zerolog.Logger) (video.Sink, error) {
	if cfg.Render.Format == "png" {
		return video.NewPNGSink(path)
	}
	return video.NewFFmpegSink(ctx, path, EncodeParams(cfg, eff), log)
}

// EncodeParams resolves encoder, quality and filter for an mp4 render
func EncodeParams(cfg *config.Config, eff effects.Effect) video.EncodeParams {
	encoder := cfg.Render.Encoder
	if encoder == "" {
		encoder = system.GetBestH264Encoder()
	}
	quality := cfg.Render.Quality
	if quality <= 0 {
		quality = system.DefaultQuality(encoder)
	}

	params := video.EncodeParams{
		Width:   cfg.Render.Width,
		Height:  cfg.Render.Height,
		FPS:     cfg.Render.FPS,
		Encoder: encoder,
		Quality: quality,
	}
	if eff != nil {
		params.Filter = eff.GenerateFilter(effects.Params{
			Width:    cfg.Render.Width,
			Height:   cfg.Render.Height,
			FPS:      cfg.Render.FPS,
			Duration: cfg.Render.Duration,
			Fade:     cfg.Render.Fade,
			Debug:    cfg.Animation.Debug,
			Label:    cfg.Page.Title,
		})
	}
	return params
}
