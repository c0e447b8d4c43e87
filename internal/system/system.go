package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// InitResourceLimits raises the open file limit; ffmpeg pipes and frame files
// add up during long renders
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn().Err(err).Msg("could not read open file limit")
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn().Err(err).Msg("could not raise open file limit")
		return
	}
	log.Debug().Uint64("limit", uint64(rLimit.Cur)).Msg("open file limit raised")
}

// FindLatestFile returns the most recently modified file in dir whose
// extension matches one of exts (case-insensitive)
func FindLatestFile(dir string, exts ...string) (string, error) {
	files, err := ListFiles(dir, exts...)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no %s files found in %s", strings.Join(exts, "/"), dir)
	}
	return files[0], nil
}

// ListFiles returns the files in dir matching exts, newest first. Files with
// the same modification time are ordered by name, descending.
func ListFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type file struct {
		name string
		mod  time.Time
	}
	var files []file
	for _, e := range entries {
		if e.IsDir() || !hasExt(e.Name(), exts) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, file{name: e.Name(), mod: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].mod.Equal(files[j].mod) {
			return files[i].mod.After(files[j].mod)
		}
		return files[i].name > files[j].name
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.Join(dir, f.name)
	}
	return paths, nil
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// FindLatestHeader picks the newest PDF or image in dir
func FindLatestHeader(dir string) (string, error) {
	return FindLatestFile(dir, ".pdf", ".png", ".jpg", ".jpeg")
}

var (
	ffmpegOnce     sync.Once
	ffmpegEncoders string
	ffmpegFilters  string
)

func probeFFmpeg() {
	ffmpegOnce.Do(func() {
		if out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").CombinedOutput(); err == nil {
			ffmpegEncoders = string(out)
		}
		if out, err := exec.Command("ffmpeg", "-hide_banner", "-filters").CombinedOutput(); err == nil {
			ffmpegFilters = string(out)
		}
	})
}

// GetBestH264Encoder prefers VideoToolbox, then NVENC, then libx264
func GetBestH264Encoder() string {
	probeFFmpeg()
	return pickEncoder(ffmpegEncoders)
}

func pickEncoder(listing string) string {
	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(listing, name) {
			return name
		}
	}
	return "libx264"
}

// CheckFilterSupport reports whether the local ffmpeg has the named filter
func CheckFilterSupport(name string) bool {
	probeFFmpeg()
	return hasFilter(ffmpegFilters, name)
}

func hasFilter(listing, name string) bool {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}

// DefaultQuality is the encoder-specific quality used when none is configured
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // bitrate = Q*100 kbit/s
	case "h264_nvenc":
		return 28
	default:
		return 23 // x264 CRF
	}
}
