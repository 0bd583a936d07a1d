//go:build cgo

package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements Store on KuzuDB. Projects, runs and generated files
// are nodes; HAS_RUN and WROTE connect them. It requires CGO because the
// go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore persisted at dbPath. KuzuDB creates
// the leaf directory itself.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	db, err := kuzu.OpenDatabase(path, kuzu.DefaultSystemConfig())
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables. Times are unix nanoseconds.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Project(
		name STRING,
		path STRING,
		description STRING,
		created_at INT64,
		PRIMARY KEY(name)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Run(
		id STRING,
		workflow STRING,
		input STRING,
		feedback STRING,
		started_at INT64,
		finished_at INT64,
		completed INT64,
		skipped INT64,
		failed INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS GeneratedFile(
		id STRING,
		path STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS HAS_RUN(FROM Project TO Run)`,
	`CREATE REL TABLE IF NOT EXISTS WROTE(FROM Run TO GeneratedFile, kind STRING)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddProject inserts a Project node.
func (s *KuzuStore) AddProject(ctx context.Context, p Project) error {
	existing, err := s.GetProject(ctx, p.Name)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("history: %w: %s", ErrProjectExists, p.Name)
	}
	return s.exec(
		"CREATE (p:Project {name: $name, path: $path, description: $description, created_at: $created})",
		map[string]any{
			"name":        p.Name,
			"path":        p.Path,
			"description": p.Description,
			"created":     p.CreatedAt.UnixNano(),
		},
	)
}

// RecordRun inserts a Run node linked to its project and to every file it
// wrote. A file written by several runs is one node.
func (s *KuzuStore) RecordRun(ctx context.Context, project string, run Run) error {
	p, err := s.GetProject(ctx, project)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("history: %w: %s", ErrUnknownProject, project)
	}

	err = s.exec(
		`MATCH (p:Project {name: $project})
		 CREATE (p)-[:HAS_RUN]->(:Run {
			id: $id,
			workflow: $workflow,
			input: $input,
			feedback: $feedback,
			started_at: $started,
			finished_at: $finished,
			completed: $completed,
			skipped: $skipped,
			failed: $failed
		 })`,
		map[string]any{
			"project":   project,
			"id":        run.ID,
			"workflow":  run.Workflow,
			"input":     run.Input,
			"feedback":  run.Feedback,
			"started":   run.StartedAt.UnixNano(),
			"finished":  run.FinishedAt.UnixNano(),
			"completed": int64(run.Completed),
			"skipped":   int64(run.Skipped),
			"failed":    int64(run.Failed),
		},
	)
	if err != nil {
		return err
	}

	for _, f := range run.Files {
		fid := fileID(project, f.Path)
		if err := s.exec("MERGE (f:GeneratedFile {id: $id}) ON CREATE SET f.path = $path",
			map[string]any{"id": fid, "path": f.Path}); err != nil {
			return err
		}
		if err := s.exec(
			`MATCH (r:Run {id: $run}), (f:GeneratedFile {id: $file})
			 CREATE (r)-[:WROTE {kind: $kind}]->(f)`,
			map[string]any{"run": run.ID, "file": fid, "kind": f.Kind},
		); err != nil {
			return err
		}
	}
	return nil
}

// ---------- Read operations ----------

// GetProject returns the named project, or nil if not found.
func (s *KuzuStore) GetProject(_ context.Context, name string) (*Project, error) {
	rows, err := s.query(
		"MATCH (p:Project {name: $name}) RETURN p.name, p.path, p.description, p.created_at",
		map[string]any{"name": name},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	p := rowToProject(rows[0])
	return &p, nil
}

// ListProjects returns every project with its run count, ordered by name.
func (s *KuzuStore) ListProjects(_ context.Context) ([]ProjectSummary, error) {
	rows, err := s.query(
		`MATCH (p:Project)
		 OPTIONAL MATCH (p)-[:HAS_RUN]->(r:Run)
		 RETURN p.name, p.path, p.description, p.created_at, count(r)
		 ORDER BY p.name`,
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]ProjectSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, ProjectSummary{Project: rowToProject(r), Iterations: toInt(r[4])})
	}
	return out, nil
}

// Runs returns the project's runs with their files, oldest first.
func (s *KuzuStore) Runs(_ context.Context, project string) ([]Run, error) {
	rows, err := s.query(
		`MATCH (:Project {name: $project})-[:HAS_RUN]->(r:Run)
		 RETURN r.id, r.workflow, r.input, r.feedback, r.started_at, r.finished_at,
		        r.completed, r.skipped, r.failed
		 ORDER BY r.started_at`,
		map[string]any{"project": project},
	)
	if err != nil {
		return nil, err
	}

	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		run := Run{
			ID:         toString(r[0]),
			Workflow:   toString(r[1]),
			Input:      toString(r[2]),
			Feedback:   toString(r[3]),
			StartedAt:  fromNanos(r[4]),
			FinishedAt: fromNanos(r[5]),
			Completed:  toInt(r[6]),
			Skipped:    toInt(r[7]),
			Failed:     toInt(r[8]),
		}
		files, err := s.query(
			`MATCH (:Run {id: $id})-[w:WROTE]->(f:GeneratedFile)
			 RETURN f.path, w.kind ORDER BY f.path`,
			map[string]any{"id": run.ID},
		)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			run.Files = append(run.Files, FileRecord{Path: toString(f[0]), Kind: toString(f[1])})
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a Cypher statement and collects all result rows in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// fileID scopes a generated file to its project: "project:path".
func fileID(project, path string) string {
	return project + ":" + strings.TrimPrefix(path, "./")
}

// rowToProject converts a 4-column row: name, path, description, created_at.
func rowToProject(r []any) Project {
	return Project{
		Name:        toString(r[0]),
		Path:        toString(r[1]),
		Description: toString(r[2]),
		CreatedAt:   fromNanos(r[3]),
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func fromNanos(v any) time.Time {
	n, ok := v.(int64)
	if !ok || n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
