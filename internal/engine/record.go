package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ivlev/gloworb/internal/scheduler"
	"github.com/ivlev/gloworb/internal/trajectory"
)

// DumpVersion is written into every path dump
const DumpVersion = "1.0"

// recordingPlanner writes every successfully planned path to dir
type recordingPlanner struct {
	inner   scheduler.Planner
	dir     string
	log     zerolog.Logger
	written []string
}

func (r *recordingPlanner) Plan(t scheduler.Target) (trajectory.Path, error) {
	path, err := r.inner.Plan(t)
	if err != nil {
		return path, err
	}

	base := strings.TrimSuffix(trajectory.GenerateDumpPath(r.dir), ".yaml")
	file := fmt.Sprintf("%s_%s_%03d.yaml", base, t.Name, len(r.written)+1)
	dump := &trajectory.Dump{Version: DumpVersion, Container: t.Name, Path: path}
	if err := trajectory.WritePath(dump, file); err != nil {
		// a failed dump never stops the animation
		r.log.Warn().Err(err).Str("file", file).Msg("could not write path dump")
		return path, nil
	}
	r.written = append(r.written, filepath.Clean(file))
	r.log.Debug().Str("file", file).Msg("path dumped")
	return path, nil
}
