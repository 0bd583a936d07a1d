package config

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultsFS holds the default agents, workflows and settings files that
// "acan init" installs.
//
//go:embed defaults/*.yaml
var DefaultsFS embed.FS

// WriteResult reports what WriteDefaults did with one file.
type WriteResult struct {
	Path    string
	Skipped bool
}

// WriteDefaults copies the embedded default files into dir. Existing files
// are kept unless force is set.
func WriteDefaults(dir string, force bool) ([]WriteResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("config: creating %s: %w", dir, err)
	}

	var out []WriteResult
	err := fs.WalkDir(DefaultsFS, "defaults", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		dest := filepath.Join(dir, d.Name())

		if !force {
			if _, err := os.Stat(dest); err == nil {
				out = append(out, WriteResult{Path: dest, Skipped: true})
				return nil
			} else if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}

		data, err := DefaultsFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading embedded %s: %w", p, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dest, err)
		}
		out = append(out, WriteResult{Path: dest})
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("config: writing defaults: %w", err)
	}
	return out, nil
}
