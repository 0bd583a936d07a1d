// Package extract turns free-form generated text into file writes.
//
// Three recognizers scan the same text independently. Their candidates are
// pooled in recognizer order and folded so that each path is written once
// with the content of its last occurrence. Paths matched by the Guard are
// reported as errors and never written.
package extract

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dusk-indust/acan/internal/sink"
)

// Sink applies one file write and reports whether it created or modified.
type Sink interface {
	Apply(path, content string) (sink.Kind, error)
}

// Mutation is a guard-approved write that reached the sink.
type Mutation struct {
	Path     string    `json:"path"`
	Content  string    `json:"-"`
	Kind     sink.Kind `json:"kind"`
	Strategy Strategy  `json:"strategy"`
}

// Result aggregates one Extract invocation.
type Result struct {
	Created   []string   `json:"created"`
	Modified  []string   `json:"modified"`
	Errors    []string   `json:"errors"`
	Mutations []Mutation `json:"mutations,omitempty"`
	Summary   string     `json:"summary"`
}

// Pipeline runs recognizers over generated text and applies the result.
type Pipeline struct {
	recognizers []Recognizer
	guard       *Guard
	sink        Sink
	logger      zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecognizers replaces the default recognizer list.
func WithRecognizers(r ...Recognizer) Option {
	return func(p *Pipeline) { p.recognizers = r }
}

// WithLogger sets the pipeline logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline writing through s and refusing paths guarded by g.
func New(g *Guard, s Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		recognizers: DefaultRecognizers(),
		guard:       g,
		sink:        s,
		logger:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Guard returns the pipeline's guard.
func (p *Pipeline) Guard() *Guard { return p.guard }

// Candidates pools every recognizer's candidates in recognizer order.
func (p *Pipeline) Candidates(text string) []Candidate {
	var pool []Candidate
	for _, r := range p.recognizers {
		pool = append(pool, r.Find(text)...)
	}
	return pool
}

// Fold collapses the pool to one candidate per normalized path. Each path
// keeps the position of its first occurrence and the content of its last.
// Candidates whose path normalizes to "" are dropped; Extract reports them.
func Fold(pool []Candidate) []Candidate {
	index := make(map[string]int, len(pool))
	var out []Candidate
	for _, c := range pool {
		n := NormalizePath(c.Path)
		if n == "" {
			continue
		}
		c.Path = n
		if i, ok := index[n]; ok {
			out[i] = c
			continue
		}
		index[n] = len(out)
		out = append(out, c)
	}
	return out
}

// Extract recognizes, folds, guards and writes the files declared in text.
// Failures are isolated per file and collected in Result.Errors.
func (p *Pipeline) Extract(text string) Result {
	var res Result
	pool := p.Candidates(text)
	for _, c := range pool {
		if NormalizePath(c.Path) == "" {
			p.logger.Warn().Str("path", c.Path).Str("strategy", string(c.Strategy)).Msg("declaration without a usable path")
			res.Errors = append(res.Errors, fmt.Sprintf("Skipping declaration with empty path: %q", c.Path))
		}
	}
	for _, c := range Fold(pool) {
		if p.guard.Protects(c.Path) {
			msg := fmt.Sprintf("Skipping protected file: %s", c.Path)
			p.logger.Warn().Str("path", c.Path).Msg("refusing protected path")
			res.Errors = append(res.Errors, msg)
			continue
		}

		kind, err := p.sink.Apply(c.Path, c.Content)
		if err != nil {
			p.logger.Error().Err(err).Str("path", c.Path).Msg("write failed")
			res.Errors = append(res.Errors, fmt.Sprintf("Error writing %s: %v", c.Path, err))
			continue
		}

		p.logger.Debug().Str("path", c.Path).Stringer("kind", kind).
			Str("strategy", string(c.Strategy)).Msg("file written")
		res.Mutations = append(res.Mutations, Mutation{
			Path:     c.Path,
			Content:  c.Content,
			Kind:     kind,
			Strategy: c.Strategy,
		})
		if kind == sink.Modified {
			res.Modified = append(res.Modified, c.Path)
		} else {
			res.Created = append(res.Created, c.Path)
		}
	}
	res.Summary = Summarize(res)
	return res
}

// Summarize renders the human-readable report of a Result.
func Summarize(r Result) string {
	var parts []string
	if len(r.Created) > 0 {
		parts = append(parts, fmt.Sprintf("Created %d file(s):", len(r.Created)))
		for _, f := range r.Created {
			parts = append(parts, "  - "+f)
		}
	}
	if len(r.Modified) > 0 {
		parts = append(parts, fmt.Sprintf("\nModified %d file(s):", len(r.Modified)))
		for _, f := range r.Modified {
			parts = append(parts, "  - "+f)
		}
	}
	if len(r.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("\nEncountered %d error(s):", len(r.Errors)))
		for _, e := range r.Errors {
			parts = append(parts, "  - "+e)
		}
	}
	if len(r.Created) == 0 && len(r.Modified) == 0 {
		parts = append(parts, "No files were created or modified.")
	}
	return strings.Join(parts, "\n")
}

// Empty reports whether nothing was written and nothing failed.
func (r Result) Empty() bool {
	return len(r.Created) == 0 && len(r.Modified) == 0 && len(r.Errors) == 0
}
