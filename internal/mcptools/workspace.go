package mcptools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/dusk-indust/acan/internal/extract"
	"github.com/dusk-indust/acan/internal/results"
	"github.com/dusk-indust/acan/internal/sink"
)

// WorkspaceService handles MCP tool calls against one workspace root. Every
// write goes through the same guard the extraction pipeline uses.
type WorkspaceService struct {
	sink     *sink.FileSink
	pipeline *extract.Pipeline
	logger   zerolog.Logger
}

// NewWorkspaceService creates a WorkspaceService writing beneath s.Root and
// refusing paths protected by g.
func NewWorkspaceService(s *sink.FileSink, g *extract.Guard, logger zerolog.Logger) *WorkspaceService {
	return &WorkspaceService{
		sink:     s,
		pipeline: extract.New(g, s, extract.WithLogger(logger)),
		logger:   logger,
	}
}

// ReadFile returns a file's content.
func (s *WorkspaceService) ReadFile(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ReadFileInput,
) (*mcp.CallToolResult, ReadFileOutput, error) {
	content, err := s.sink.Read(input.Path)
	if err != nil {
		return nil, ReadFileOutput{}, err
	}
	return nil, ReadFileOutput{Path: input.Path, Content: content}, nil
}

// WriteFile writes a file unless the guard protects it.
func (s *WorkspaceService) WriteFile(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input WriteFileInput,
) (*mcp.CallToolResult, WriteFileOutput, error) {
	p := extract.NormalizePath(input.Path)
	if p == "" {
		return nil, WriteFileOutput{}, fmt.Errorf("path is required")
	}
	if err := s.pipeline.Guard().Check(p); err != nil {
		s.logger.Warn().Str("path", p).Msg("mcp write refused")
		return nil, WriteFileOutput{}, err
	}
	kind, err := s.sink.Apply(p, input.Content)
	if err != nil {
		return nil, WriteFileOutput{}, err
	}
	s.logger.Info().Str("path", p).Stringer("kind", kind).Msg("mcp write")
	return nil, WriteFileOutput{Path: p, Kind: kind.String(), Bytes: len(input.Content)}, nil
}

// ListDirectory lists the entries of a directory matching a glob.
func (s *WorkspaceService) ListDirectory(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ListDirectoryInput,
) (*mcp.CallToolResult, ListDirectoryOutput, error) {
	dir := s.sink.Root
	if rel := strings.TrimSpace(input.Path); rel != "" && rel != "." {
		var err error
		if dir, err = s.sink.Resolve(rel); err != nil {
			return nil, ListDirectoryOutput{}, err
		}
	}
	pattern := input.Pattern
	if pattern == "" {
		pattern = "*"
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, ListDirectoryOutput{}, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ListDirectoryOutput{}, fmt.Errorf("list %s: %w", input.Path, err)
	}

	out := ListDirectoryOutput{Entries: []DirEntry{}}
	for _, e := range entries {
		if ok, _ := path.Match(pattern, e.Name()); !ok {
			continue
		}
		rel, err := filepath.Rel(s.sink.Root, filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		de := DirEntry{Path: filepath.ToSlash(rel), IsDir: e.IsDir()}
		if info, err := e.Info(); err == nil && !e.IsDir() {
			de.Size = info.Size()
		}
		out.Entries = append(out.Entries, de)
	}
	sort.Slice(out.Entries, func(i, j int) bool { return out.Entries[i].Path < out.Entries[j].Path })
	return nil, out, nil
}

// CreateDirectory creates a directory and its parents.
func (s *WorkspaceService) CreateDirectory(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CreateDirectoryInput,
) (*mcp.CallToolResult, CreateDirectoryOutput, error) {
	full, err := s.sink.Resolve(input.Path)
	if err != nil {
		return nil, CreateDirectoryOutput{}, err
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		return nil, CreateDirectoryOutput{}, fmt.Errorf("create %s: %w", input.Path, err)
	}
	return nil, CreateDirectoryOutput{Path: input.Path}, nil
}

// SpecificationPath returns where a specification titled title is stored:
// specifications/<title lowercased, spaces to underscores>.md.
func SpecificationPath(title string) string {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(title)), " ", "_")
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	return path.Join(results.SpecDir, name+".md")
}

// CreateSpecification writes "# {title}\n\n{content}" to the title's
// specification path, replacing any previous version.
func (s *WorkspaceService) CreateSpecification(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input CreateSpecificationInput,
) (*mcp.CallToolResult, SpecificationOutput, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, SpecificationOutput{}, fmt.Errorf("title is required")
	}
	p := SpecificationPath(input.Title)
	if _, err := s.sink.Apply(p, fmt.Sprintf("# %s\n\n%s", input.Title, input.Content)); err != nil {
		return nil, SpecificationOutput{}, err
	}
	return nil, SpecificationOutput{Path: p}, nil
}

// ReadSpecification returns a stored specification.
func (s *WorkspaceService) ReadSpecification(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ReadSpecificationInput,
) (*mcp.CallToolResult, SpecificationOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, SpecificationOutput{}, fmt.Errorf("invalid specification name %q", input.Name)
	}
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}
	p := path.Join(results.SpecDir, name)
	content, err := s.sink.Read(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, SpecificationOutput{}, fmt.Errorf("specification %s not found", name)
		}
		return nil, SpecificationOutput{}, err
	}
	return nil, SpecificationOutput{Path: p, Content: content}, nil
}

// ListSpecifications lists stored specifications, newest first.
func (s *WorkspaceService) ListSpecifications(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListSpecificationsInput,
) (*mcp.CallToolResult, ListSpecificationsOutput, error) {
	r, err := results.Scan(s.sink.Root)
	if err != nil {
		return nil, ListSpecificationsOutput{}, err
	}
	out := ListSpecificationsOutput{Specifications: []string{}}
	for _, a := range r.Specifications {
		out.Specifications = append(out.Specifications, path.Base(a.Path))
	}
	return nil, out, nil
}

// ExtractFiles runs the extraction pipeline over text and writes the files
// it declares.
func (s *WorkspaceService) ExtractFiles(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ExtractFilesInput,
) (*mcp.CallToolResult, ExtractFilesOutput, error) {
	res := s.pipeline.Extract(input.Text)
	out := ExtractFilesOutput{
		Created:  nonNil(res.Created),
		Modified: nonNil(res.Modified),
		Errors:   nonNil(res.Errors),
		Summary:  res.Summary,
	}
	return nil, out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
