package trajectory

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/gloworb/internal/system"
)

// Dump is the on-disk form of a computed path
type Dump struct {
	Version   string `yaml:"version"`
	Container string `yaml:"container"`
	Path      Path   `yaml:"path"`
}

// WritePath writes a path dump to a YAML file
func WritePath(dump *Dump, path string) error {
	data, err := yaml.Marshal(dump)
	if err != nil {
		return fmt.Errorf("marshal path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadPath reads a path dump from a YAML file
func ReadPath(path string) (*Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var dump Dump
	if err := yaml.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(dump.Path.Waypoints) < 2 {
		return nil, fmt.Errorf("%s: %w", path, ErrTooFewWaypoints)
	}
	return &dump, nil
}

// GenerateDumpPath creates a timestamped dump filename inside dir
func GenerateDumpPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("path_%s.yaml", timestamp))
}

// LatestDumps reads the newest dump for every container found in dir. Files
// that cannot be read are skipped.
func LatestDumps(dir string) (map[string]*Dump, error) {
	files, err := system.ListFiles(dir, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}

	dumps := make(map[string]*Dump)
	var firstErr error
	for _, f := range files {
		dump, err := ReadPath(f)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if _, ok := dumps[dump.Container]; !ok {
			dumps[dump.Container] = dump
		}
	}
	if len(dumps) == 0 {
		if firstErr != nil {
			return nil, fmt.Errorf("no usable path dumps in %s: %w", dir, firstErr)
		}
		return nil, fmt.Errorf("no path dumps in %s", dir)
	}
	return dumps, nil
}
