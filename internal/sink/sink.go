// Package sink applies file mutations beneath a project root.
package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that resolve outside the project root.
var ErrOutsideRoot = errors.New("path resolves outside project root")

// Kind classifies a write by whether the target existed beforehand.
type Kind int

const (
	Created Kind = iota
	Modified
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// FileSink writes files beneath Root. It is not transactional and does not
// coordinate with other writers.
type FileSink struct {
	Root string
}

// New creates a FileSink rooted at root. The root is made absolute.
func New(root string) (*FileSink, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("sink: resolve root %q: %w", root, err)
	}
	return &FileSink{Root: abs}, nil
}

// Resolve maps a relative path onto the root, rejecting escapes.
func (s *FileSink) Resolve(rel string) (string, error) {
	rel = strings.ReplaceAll(rel, `\`, "/")
	if rel == "" {
		return "", fmt.Errorf("sink: empty path")
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("sink: %s: %w", rel, ErrOutsideRoot)
	}
	full := filepath.Join(s.Root, filepath.FromSlash(rel))
	r, err := filepath.Rel(s.Root, full)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("sink: %s: %w", rel, ErrOutsideRoot)
	}
	if r == "." {
		return "", fmt.Errorf("sink: %s: path names the root itself", rel)
	}
	if err := s.checkLinks(full); err != nil {
		return "", fmt.Errorf("sink: %s: %w", rel, err)
	}
	return full, nil
}

// checkLinks resolves symlinks on the deepest existing part of full and
// rejects it when the result leaves the root.
func (s *FileSink) checkLinks(full string) error {
	p := full
	for {
		if _, err := os.Lstat(p); err == nil {
			break
		}
		parent := filepath.Dir(p)
		if parent == p {
			return nil
		}
		p = parent
	}
	if !within(s.Root, p) {
		// The root does not exist yet.
		return nil
	}

	root, err := filepath.EvalSymlinks(s.Root)
	if err != nil {
		return err
	}
	real, err := filepath.EvalSymlinks(p)
	if err != nil {
		// A dangling link would be written through to its target.
		return ErrOutsideRoot
	}
	if !within(root, real) {
		return ErrOutsideRoot
	}
	return nil
}

func within(root, p string) bool {
	r, err := filepath.Rel(root, p)
	return err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator))
}

// Apply writes content verbatim to rel, creating parent directories. The
// returned kind reflects whether the file existed before the write.
func (s *FileSink) Apply(rel, content string) (Kind, error) {
	full, err := s.Resolve(rel)
	if err != nil {
		return Created, err
	}

	kind := Created
	if info, err := os.Stat(full); err == nil {
		if info.IsDir() {
			return Created, fmt.Errorf("sink: %s is a directory", rel)
		}
		kind = Modified
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return kind, fmt.Errorf("sink: create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return kind, fmt.Errorf("sink: write %s: %w", rel, err)
	}
	return kind, nil
}

// Read returns the content of rel beneath the root.
func (s *FileSink) Read(rel string) (string, error) {
	full, err := s.Resolve(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("sink: read %s: %w", rel, err)
	}
	return string(data), nil
}
