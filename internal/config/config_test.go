package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "index", cfg.Page.Slug)
	assert.Equal(t, "funiki", cfg.Page.Title)
	assert.True(t, cfg.Page.Sidebar)
	assert.Equal(t, 350*time.Millisecond, cfg.Animation.FadeInHold)
	assert.Equal(t, 0.85, cfg.Animation.Opacity)
	assert.Equal(t, 2, cfg.Animation.HueThreshold)
	assert.Equal(t, 640, cfg.Render.Width)
	assert.Equal(t, 30, cfg.Render.FPS)
	assert.Equal(t, 600, cfg.FrameCount())
}

func TestLoadFlagsOverride(t *testing.T) {
	cfg, err := Load(newFlags(t, "--fps=60", "--duration=2s", "--slug=notes", "--debug", "--preset=9:16"))
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Render.FPS)
	assert.Equal(t, 2*time.Second, cfg.Render.Duration)
	assert.Equal(t, "notes", cfg.Page.Slug)
	assert.True(t, cfg.Animation.Debug)
	assert.Equal(t, 720, cfg.Render.Width)
	assert.Equal(t, 1280, cfg.Render.Height)
	assert.Equal(t, 120, cfg.FrameCount())
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("GLOWORB_RENDER_FPS", "12")
	t.Setenv("GLOWORB_ANIMATION_LOOPDELAY", "3s")

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Render.FPS)
	assert.Equal(t, 3*time.Second, cfg.Animation.LoopDelay)

	// explicit flags win over the environment
	cfg, err = Load(newFlags(t, "--fps=24"))
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.Render.FPS)
}

func TestLoadConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "orb.yaml")
	content := strings.Join([]string{
		"page:",
		"  title: Notes",
		"  landing: true",
		"animation:",
		"  loopDelay: 2s",
		"render:",
		"  format: png",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	cfg, err := Load(newFlags(t, "--config="+file))
	require.NoError(t, err)
	assert.Equal(t, "Notes", cfg.Page.Title)
	assert.True(t, cfg.Page.Landing)
	assert.Equal(t, 2*time.Second, cfg.Animation.LoopDelay)
	assert.Equal(t, "png", cfg.Render.Format)

	_, err = Load(newFlags(t, "--config="+filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	cfg, err := Load(newFlags(t, "--fps=25"))
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "effective", "config.yaml")
	require.NoError(t, cfg.Write(file))

	again, err := Load(newFlags(t, "--config="+file))
	require.NoError(t, err)
	assert.Equal(t, 25, again.Render.FPS)
	assert.Equal(t, cfg.Animation, again.Animation)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"size", func(c *Config) { c.Render.Width = 0 }, ErrInvalidSize},
		{"fps", func(c *Config) { c.Render.FPS = -1 }, ErrInvalidFPS},
		{"format", func(c *Config) { c.Render.Format = "gif" }, ErrInvalidFormat},
		{"containers", func(c *Config) { c.Page.Sidebar = false; c.Page.Landing = false }, ErrNoContainer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(newFlags(t))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestOutputPath(t *testing.T) {
	cfg, err := Load(newFlags(t, "--title=glow orb"))
	require.NoError(t, err)
	out := cfg.OutputPath()
	assert.True(t, strings.HasPrefix(filepath.Base(out), "glow_orb_"))
	assert.Equal(t, ".mp4", filepath.Ext(out))

	cfg.Render.Output = "custom.mp4"
	assert.Equal(t, "custom.mp4", cfg.OutputPath())
}
