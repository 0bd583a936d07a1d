// Package results lists what workflows have generated in a project:
// specifications, source files, tests and a few well-known project files.
package results

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SpecDir holds the specification documents of a project.
const SpecDir = "specifications"

// Artifact is one generated file, relative to the project root.
type Artifact struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Report groups a project's files by kind.
type Report struct {
	Root           string     `json:"root"`
	Specifications []Artifact `json:"specifications"`
	Source         []Artifact `json:"source"`
	Tests          []Artifact `json:"tests"`
	Other          []Artifact `json:"other"`
}

var sourceExts = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".java": true, ".go": true, ".rs": true, ".rb": true, ".c": true,
	".h": true, ".cpp": true, ".cs": true, ".php": true, ".kt": true,
	".swift": true, ".sh": true, ".sql": true,
}

var testDirs = map[string]bool{"tests": true, "test": true, "__tests__": true, "spec": true}

var skipDirs = map[string]bool{
	"node_modules": true, "vendor": true, "__pycache__": true,
	"venv": true, "dist": true, "build": true, "target": true,
}

var otherFiles = []string{"README.md", "package.json", "requirements.txt", "go.mod", "pyproject.toml", ".env.example"}

// Scan walks root and classifies the files it finds. Hidden directories
// (including .acan) and dependency directories are skipped.
func Scan(root string) (*Report, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("results: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("results: %s is not a directory", root)
	}

	r := &Report{Root: root}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if rel != "." && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		a := Artifact{Path: filepath.ToSlash(rel), Size: fi.Size(), ModTime: fi.ModTime()}

		switch {
		case isSpecification(a.Path):
			r.Specifications = append(r.Specifications, a)
		case isTest(a.Path):
			r.Tests = append(r.Tests, a)
		case sourceExts[strings.ToLower(filepath.Ext(a.Path))]:
			r.Source = append(r.Source, a)
		case isOther(a.Path):
			r.Other = append(r.Other, a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("results: scanning %s: %w", root, err)
	}

	// Newest specification first; everything else by path.
	sort.Slice(r.Specifications, func(i, j int) bool {
		return r.Specifications[i].ModTime.After(r.Specifications[j].ModTime)
	})
	for _, list := range [][]Artifact{r.Source, r.Tests, r.Other} {
		sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	}
	return r, nil
}

// Empty reports whether nothing was found.
func (r *Report) Empty() bool {
	return len(r.Specifications)+len(r.Source)+len(r.Tests)+len(r.Other) == 0
}

func isSpecification(rel string) bool {
	dir, file := filepath.Split(filepath.FromSlash(rel))
	return filepath.Clean(dir) == SpecDir && strings.EqualFold(filepath.Ext(file), ".md")
}

func isTest(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, p := range parts[:len(parts)-1] {
		if testDirs[p] {
			return true
		}
	}
	name := strings.ToLower(parts[len(parts)-1])
	base := strings.TrimSuffix(name, filepath.Ext(name))
	switch {
	case strings.HasPrefix(name, "test_") && strings.HasSuffix(name, ".py"):
		return true
	case strings.HasSuffix(base, "_test"):
		return true
	case strings.HasSuffix(base, ".test"), strings.HasSuffix(base, ".spec"):
		return true
	}
	return false
}

func isOther(rel string) bool {
	for _, f := range otherFiles {
		if rel == f {
			return true
		}
	}
	return false
}
