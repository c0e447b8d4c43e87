package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. GLOWORB_RENDER_FPS
const EnvPrefix = "GLOWORB"

type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Page      PageConfig      `mapstructure:"page" yaml:"page"`
	Animation AnimationConfig `mapstructure:"animation" yaml:"animation"`
	Render    RenderConfig    `mapstructure:"render" yaml:"render"`
	Dump      DumpConfig      `mapstructure:"dump" yaml:"dump"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// PageConfig describes the headless page the orb runs on
type PageConfig struct {
	Slug      string  `mapstructure:"slug" yaml:"slug"`
	Title     string  `mapstructure:"title" yaml:"title"`
	Highlight string  `mapstructure:"highlight" yaml:"highlight"`
	Sidebar   bool    `mapstructure:"sidebar" yaml:"sidebar"`
	Landing   bool    `mapstructure:"landing" yaml:"landing"`
	FontSize  float64 `mapstructure:"fontSize" yaml:"fontSize"`
	// Header is an optional PDF or image whose detected glyph boxes replace the
	// font layout of the title
	Header   string `mapstructure:"header" yaml:"header"`
	Detector string `mapstructure:"detector" yaml:"detector"`
	DPI      int    `mapstructure:"dpi" yaml:"dpi"`
}

type AnimationConfig struct {
	FadeInHold   time.Duration `mapstructure:"fadeInHold" yaml:"fadeInHold"`
	LoopDelay    time.Duration `mapstructure:"loopDelay" yaml:"loopDelay"`
	Opacity      float64       `mapstructure:"opacity" yaml:"opacity"`
	HueThreshold int           `mapstructure:"hueThreshold" yaml:"hueThreshold"`
	Debug        bool          `mapstructure:"debug" yaml:"debug"`
	Seed         int64         `mapstructure:"seed" yaml:"seed"`
}

type RenderConfig struct {
	Output   string        `mapstructure:"output" yaml:"output"`
	Format   string        `mapstructure:"format" yaml:"format"`
	Preset   string        `mapstructure:"preset" yaml:"preset"`
	Width    int           `mapstructure:"width" yaml:"width"`
	Height   int           `mapstructure:"height" yaml:"height"`
	FPS      int           `mapstructure:"fps" yaml:"fps"`
	Duration time.Duration `mapstructure:"duration" yaml:"duration"`
	Workers  int           `mapstructure:"workers" yaml:"workers"`
	Encoder  string        `mapstructure:"encoder" yaml:"encoder"`
	Quality  int           `mapstructure:"quality" yaml:"quality"`
	Fade     time.Duration `mapstructure:"fade" yaml:"fade"`
	Stats    bool          `mapstructure:"stats" yaml:"stats"`
}

// DumpConfig controls path dump and replay
type DumpConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Write  bool   `mapstructure:"write" yaml:"write"`
	Replay string `mapstructure:"replay" yaml:"replay"`
}

var (
	ErrInvalidSize   = errors.New("width and height must be positive")
	ErrInvalidFPS    = errors.New("fps must be positive")
	ErrInvalidFormat = errors.New("format must be mp4 or png")
	ErrNoContainer   = errors.New("at least one of sidebar or landing must be enabled")
)

// SetDefaults registers every key so env and flag overrides can bind to it
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("page.slug", "index")
	v.SetDefault("page.title", "funiki")
	v.SetDefault("page.highlight", "funiki")
	v.SetDefault("page.sidebar", true)
	v.SetDefault("page.landing", false)
	v.SetDefault("page.fontSize", 48.0)
	v.SetDefault("page.header", "")
	v.SetDefault("page.detector", "glyph")
	v.SetDefault("page.dpi", 150)

	v.SetDefault("animation.fadeInHold", 350*time.Millisecond)
	v.SetDefault("animation.loopDelay", 1200*time.Millisecond)
	v.SetDefault("animation.opacity", 0.85)
	v.SetDefault("animation.hueThreshold", 2)
	v.SetDefault("animation.debug", false)
	v.SetDefault("animation.seed", 0)

	v.SetDefault("render.output", "")
	v.SetDefault("render.format", "mp4")
	v.SetDefault("render.preset", "")
	v.SetDefault("render.width", 640)
	v.SetDefault("render.height", 360)
	v.SetDefault("render.fps", 30)
	v.SetDefault("render.duration", 20*time.Second)
	v.SetDefault("render.workers", runtime.NumCPU())
	v.SetDefault("render.encoder", "")
	v.SetDefault("render.quality", 0)
	v.SetDefault("render.fade", 500*time.Millisecond)
	v.SetDefault("render.stats", false)

	v.SetDefault("dump.dir", "output/paths")
	v.SetDefault("dump.write", false)
	v.SetDefault("dump.replay", "")
}

// Flags declares the command line surface. Flag names map onto config keys via
// FlagKeys.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml)")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("slug", "index", "page slug")
	fs.String("title", "funiki", "page title")
	fs.Bool("landing", false, "render the landing container as well")
	fs.String("header", "", "PDF or image header to detect glyph boxes from")
	fs.Bool("debug", false, "draw the path overlay")
	fs.Int64("seed", 0, "random seed (0 = time based)")
	fs.StringP("output", "o", "", "output video or frame directory")
	fs.String("format", "mp4", "output format: mp4, png")
	fs.String("preset", "", "frame preset: 16:9, 9:16, 4:5")
	fs.Int("width", 640, "frame width")
	fs.Int("height", 360, "frame height")
	fs.Int("fps", 30, "frames per second")
	fs.Duration("duration", 20*time.Second, "rendered duration")
	fs.Int("workers", runtime.NumCPU(), "rasteriser workers")
	fs.Int("quality", 0, "encoder quality (0 = auto)")
	fs.Bool("stats", false, "print a resource report")
	fs.Bool("dump", false, "write the computed path to the dump directory")
	fs.String("replay", "", "replay a dumped path (\"latest\" picks the newest dump)")
}

// FlagKeys maps flag names to config keys
var FlagKeys = map[string]string{
	"log-level": "log.level",
	"slug":      "page.slug",
	"title":     "page.title",
	"landing":   "page.landing",
	"header":    "page.header",
	"debug":     "animation.debug",
	"seed":      "animation.seed",
	"output":    "render.output",
	"format":    "render.format",
	"preset":    "render.preset",
	"width":     "render.width",
	"height":    "render.height",
	"fps":       "render.fps",
	"duration":  "render.duration",
	"workers":   "render.workers",
	"quality":   "render.quality",
	"stats":     "render.stats",
	"dump":      "dump.write",
	"replay":    "dump.replay",
}

// Load merges defaults, an optional config file, GLOWORB_* environment
// variables and explicitly set flags, in increasing priority.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range FlagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyPreset()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyPreset() {
	switch c.Render.Preset {
	case "16:9":
		c.Render.Width, c.Render.Height = 1280, 720
	case "9:16":
		c.Render.Width, c.Render.Height = 720, 1280
	case "4:5":
		c.Render.Width, c.Render.Height = 1080, 1350
	}
}

// Validate checks the settings the renderer cannot work around
func (c *Config) Validate() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("render %dx%d: %w", c.Render.Width, c.Render.Height, ErrInvalidSize)
	}
	if c.Render.FPS <= 0 {
		return fmt.Errorf("render fps %d: %w", c.Render.FPS, ErrInvalidFPS)
	}
	if c.Render.Format != "mp4" && c.Render.Format != "png" {
		return fmt.Errorf("render format %q: %w", c.Render.Format, ErrInvalidFormat)
	}
	if !c.Page.Sidebar && !c.Page.Landing {
		return ErrNoContainer
	}
	if c.Render.Workers < 1 {
		c.Render.Workers = 1
	}
	return nil
}

// FrameCount is the number of frames covering the render duration
func (c *Config) FrameCount() int {
	return int(c.Render.Duration.Seconds() * float64(c.Render.FPS))
}

// OutputPath returns the configured output or a timestamped default under
// output/
func (c *Config) OutputPath() string {
	if c.Render.Output != "" {
		return c.Render.Output
	}
	name := strings.ReplaceAll(c.Page.Title, " ", "_")
	if name == "" {
		name = "orb"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	if c.Render.Format == "png" {
		return filepath.Join("output", fmt.Sprintf("%s_%s", name, timestamp))
	}
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", name, timestamp))
}

// Write saves the effective configuration as YAML
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
