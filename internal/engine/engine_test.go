package engine

import (
	"context"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/gloworb/internal/config"
	"github.com/ivlev/gloworb/internal/dom"
	"github.com/ivlev/gloworb/internal/effects"
	"github.com/ivlev/gloworb/internal/trajectory"
)

// memorySink keeps a checksum per frame; frames themselves are pooled
type memorySink struct {
	sums   []uint64
	size   image.Rectangle
	closed bool
}

func (s *memorySink) WriteFrame(img image.Image) error {
	rgba := img.(*image.RGBA)
	h := fnv.New64a()
	h.Write(rgba.Pix)
	s.sums = append(s.sums, h.Sum64())
	s.size = rgba.Bounds()
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(nil)
	require.NoError(t, err)

	cfg.Page.Slug = "index"
	cfg.Page.Title = "funiki"
	cfg.Page.Highlight = "funiki"
	cfg.Page.Sidebar = true
	cfg.Page.Landing = false
	cfg.Page.FontSize = 32
	cfg.Page.Header = ""
	cfg.Render.Width = 500
	cfg.Render.Height = 200
	cfg.Render.FPS = 10
	cfg.Render.Duration = 3 * time.Second
	cfg.Render.Workers = 2
	cfg.Render.Stats = false
	cfg.Animation.Seed = 42
	cfg.Animation.Debug = false
	cfg.Dump.Write = false
	cfg.Dump.Replay = ""
	cfg.Dump.Dir = t.TempDir()
	return cfg
}

func TestRunWritesEveryFrame(t *testing.T) {
	cfg := testConfig(t)
	sink := &memorySink{}

	res, err := NewProject(cfg, sink, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	t.Logf("render %v, encode %v, total %v", res.Render, res.Encode, res.Total)

	assert.Equal(t, 30, res.Frames)
	assert.Equal(t, 1, res.Runs)
	assert.Equal(t, int64(42), res.Seed)
	require.Len(t, sink.sums, 30)
	assert.Equal(t, image.Rect(0, 0, 500, 200), sink.size)

	// frame 0 is during the fade-in hold; one second later the orb is visible
	assert.NotEqual(t, sink.sums[0], sink.sums[10])
	assert.Equal(t, sink.sums[0], sink.sums[1], "nothing moves before the hold ends")
}

func TestRunIsDeterministic(t *testing.T) {
	run := func(workers int) []uint64 {
		cfg := testConfig(t)
		cfg.Render.Workers = workers
		sink := &memorySink{}
		_, err := NewProject(cfg, sink, zerolog.Nop()).Run(context.Background())
		require.NoError(t, err)
		return sink.sums
	}

	serial := run(1)
	parallel := run(4)
	assert.Equal(t, serial, parallel, "frame order and content do not depend on the worker count")
}

func TestRunStaticPage(t *testing.T) {
	cfg := testConfig(t)
	cfg.Page.Slug = "about"
	sink := &memorySink{}

	res, err := NewProject(cfg, sink, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Runs)
	for _, sum := range sink.sums {
		assert.Equal(t, sink.sums[0], sum)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProject(testConfig(t), &memorySink{}, zerolog.Nop()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunStats(t *testing.T) {
	cfg := testConfig(t)
	cfg.Render.Stats = true
	cfg.Render.Duration = time.Second

	res, err := NewProject(cfg, &memorySink{}, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Report, "PERFORMANCE REPORT")
	assert.Contains(t, res.Report, "Frames: 10")
}

func TestDumpAndReplay(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dump.Write = true

	res, err := NewProject(cfg, &memorySink{}, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.Dumps)
	for _, f := range res.Dumps {
		assert.FileExists(t, f)
		assert.Contains(t, filepath.Base(f), "sidebar")
	}

	replay := testConfig(t)
	replay.Dump.Dir = cfg.Dump.Dir
	replay.Dump.Replay = "latest"
	replay.Animation.Seed = 7
	sink := &memorySink{}
	res, err = NewProject(replay, sink, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Runs)
	assert.Empty(t, res.Dumps)
	assert.Len(t, sink.sums, 30)
}

func TestReplayPerContainer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Page.Landing = true
	cfg.Dump.Write = true

	res, err := NewProject(cfg, &memorySink{}, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, res.Runs)

	dumps, err := trajectory.LatestDumps(cfg.Dump.Dir)
	require.NoError(t, err)
	require.Contains(t, dumps, "sidebar")
	require.Contains(t, dumps, "landing")
	require.NotEqual(t, dumps["sidebar"].Path, dumps["landing"].Path)

	replay := testConfig(t)
	replay.Page.Landing = true
	replay.Dump.Dir = cfg.Dump.Dir
	replay.Dump.Replay = "latest"
	replay.Animation.Seed = 7
	prj := NewProject(replay, &memorySink{}, zerolog.Nop())
	require.NoError(t, prj.Prepare())

	runs := prj.Navigator.Ready(0, prj.Page.Doc)
	require.Len(t, runs, 2)
	for _, r := range runs {
		want := dumps[r.Target.Name]
		require.NotNil(t, want, r.Target.Name)
		t.Logf("%s replays %d waypoints", r.Target.Name, len(r.Path().Waypoints))
		assert.Equal(t, want.Path.Waypoints, r.Path().Waypoints, "%s replays its own dump", r.Target.Name)
		assert.Equal(t, want.Path.Segments, r.Path().Segments, "%s replays its own dump", r.Target.Name)
	}
}

func TestReplayMissingDump(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dump.Replay = "latest"

	_, err := NewProject(cfg, &memorySink{}, zerolog.Nop()).Run(context.Background())
	assert.Error(t, err)
}

func TestBuildPageFromHeader(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 70, 50))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{Y: 255}), image.Point{}, draw.Src)
	for _, r := range []image.Rectangle{
		image.Rect(10, 20, 26, 40), // x
		image.Rect(40, 8, 44, 12),  // dot
		image.Rect(40, 20, 44, 40), // stem
	} {
		draw.Draw(img, r, image.NewUniform(color.Gray{Y: 0}), image.Point{}, draw.Src)
	}
	path := filepath.Join(t.TempDir(), "header.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	cfg := testConfig(t)
	cfg.Page.Title = "xi"
	cfg.Page.Header = path

	prj := NewProject(cfg, &memorySink{}, zerolog.Nop())
	require.NoError(t, prj.Prepare())

	sidebar := prj.Page.Sidebar
	glyphs := sidebar.QueryAll(dom.ClassGlyph)
	require.Len(t, glyphs, 2)
	assert.Equal(t, "i", glyphs[1].TextContent())
	assert.NotNil(t, glyphs[1].Query(dom.ClassSubMarker))
	assert.Len(t, sidebar.QueryAll(dom.ClassPageTitle), 1)

	children := sidebar.Children()
	assert.True(t, children[len(children)-1].HasClass(dom.ClassMarker), "marker stays last")
}

type stubEffect struct{ got effects.Params }

func (e *stubEffect) GenerateFilter(p effects.Params) string {
	e.got = p
	return "null"
}

func TestEncodeParams(t *testing.T) {
	cfg := testConfig(t)
	cfg.Render.Encoder = "libx264"
	cfg.Render.Quality = 0
	eff := &stubEffect{}

	params := EncodeParams(cfg, eff)
	assert.Equal(t, "libx264", params.Encoder)
	assert.Equal(t, 23, params.Quality)
	assert.Equal(t, "null", params.Filter)
	assert.Equal(t, cfg.Render.Fade, eff.got.Fade)
	assert.Equal(t, 500, eff.got.Width)

	cfg.Render.Quality = 18
	assert.Equal(t, 18, EncodeParams(cfg, nil).Quality)
}

func TestOpenSinkPNG(t *testing.T) {
	cfg := testConfig(t)
	cfg.Render.Format = "png"
	dir := filepath.Join(t.TempDir(), "frames")

	sink, err := OpenSink(context.Background(), cfg, dir, nil, zerolog.Nop())
	require.NoError(t, err)
	defer sink.Close()
	assert.DirExists(t, dir)
}
