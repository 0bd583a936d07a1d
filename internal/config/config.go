// Package config loads the agents, workflows and settings of a project from
// its config directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/acan/internal/agent"
	"github.com/dusk-indust/acan/internal/orchestrator"
)

// File names inside the config directory.
const (
	AgentsFile    = "agents.yaml"
	WorkflowsFile = "workflows.yaml"
	SettingsFile  = "settings.yaml"
)

// DefaultDir is the config directory looked up relative to the working
// directory.
const DefaultDir = "config"

// Settings holds process-level options from settings.yaml.
type Settings struct {
	ProjectRoot    string   `yaml:"project_root,omitempty"`
	LogLevel       string   `yaml:"log_level,omitempty"`
	LogFile        bool     `yaml:"log_file,omitempty"`
	ProtectedPaths []string `yaml:"protected_paths,omitempty"`
	HistoryDB      string   `yaml:"history_db,omitempty"`
	SuggestFiles   bool     `yaml:"suggest_files,omitempty"`
	MCPHTTPAddr    string   `yaml:"mcp_http_addr,omitempty"`
}

// Config is everything loaded from one config directory.
type Config struct {
	Dir       string
	Settings  Settings
	Agents    []agent.Spec
	Workflows Workflows
}

// Workflows maps workflow names to definitions.
type Workflows map[string]orchestrator.Workflow

var _ orchestrator.WorkflowSource = Workflows(nil)

// Workflow returns the named workflow.
func (w Workflows) Workflow(name string) (orchestrator.Workflow, bool) {
	wf, ok := w[name]
	return wf, ok
}

// Names returns the workflow names in sorted order.
func (w Workflows) Names() []string {
	names := make([]string, 0, len(w))
	for n := range w {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadEnv loads KEY=VALUE pairs from the .env file in dir into the process
// environment. Variables already set win. A missing file is not an error.
func LoadEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	return nil
}

// Load reads the three config files from dir. A missing settings file
// yields zero-value settings; missing agents or workflows files are errors.
// Unknown roles fail the load.
func Load(dir string) (*Config, error) {
	settings, err := LoadSettings(dir)
	if err != nil {
		return nil, err
	}
	agents, err := LoadAgents(filepath.Join(dir, AgentsFile))
	if err != nil {
		return nil, err
	}
	workflows, err := LoadWorkflows(filepath.Join(dir, WorkflowsFile), agents)
	if err != nil {
		return nil, err
	}
	return &Config{Dir: dir, Settings: *settings, Agents: agents, Workflows: workflows}, nil
}

// LoadSettings reads settings.yaml from dir and applies ACAN_* environment
// overrides. Returns a zero-value Settings (not an error) if no settings
// file exists.
func LoadSettings(dir string) (*Settings, error) {
	var s Settings
	path := filepath.Join(dir, SettingsFile)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) applyEnv() error {
	if v := os.Getenv("ACAN_PROJECT_ROOT"); v != "" {
		s.ProjectRoot = v
	}
	if v := os.Getenv("ACAN_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv("ACAN_HISTORY_DB"); v != "" {
		s.HistoryDB = v
	}
	if v := os.Getenv("ACAN_SUGGEST_FILES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: ACAN_SUGGEST_FILES: %w", err)
		}
		s.SuggestFiles = b
	}
	return nil
}

type agentsFile struct {
	Agents map[string]agent.Spec `yaml:"agents"`
}

// LoadAgents reads an agents file. Agents are returned sorted by name. An
// agent without a role takes its name as the role.
func LoadAgents(path string) ([]agent.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var f agentsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	specs := make([]agent.Spec, 0, len(f.Agents))
	for name, spec := range f.Agents {
		spec.Name = name
		if spec.Role == "" {
			spec.Role = agent.Role(name)
		}
		if err := agent.ValidateRole(spec.Role); err != nil {
			return nil, fmt.Errorf("config: %s: agent %q: %w", path, name, err)
		}
		if spec.Provider.Type == "" {
			spec.Provider.Type = agent.ProviderCommand
		}
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}

// stepFile accepts "agent" as an alias of "role", naming either a role or
// a configured agent.
type stepFile struct {
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
	Agent string `yaml:"agent"`
}

type workflowFile struct {
	Description string     `yaml:"description"`
	Steps       []stepFile `yaml:"steps"`
}

// LoadWorkflows reads a workflows file. Step roles are validated; a step
// naming an agent resolves to that agent's role.
func LoadWorkflows(path string, agents []agent.Spec) (Workflows, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var f struct {
		Workflows map[string]workflowFile `yaml:"workflows"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	byName := make(map[string]agent.Role, len(agents))
	for _, a := range agents {
		byName[a.Name] = a.Role
	}

	out := make(Workflows, len(f.Workflows))
	for name, wf := range f.Workflows {
		steps := make([]orchestrator.Step, 0, len(wf.Steps))
		for i, s := range wf.Steps {
			ref := s.Role
			if ref == "" {
				ref = s.Agent
			}
			role := agent.Role(ref)
			if r, ok := byName[ref]; ok && s.Role == "" {
				role = r
			}
			if err := agent.ValidateRole(role); err != nil {
				return nil, fmt.Errorf("config: %s: workflow %q step %d: %w", path, name, i+1, err)
			}
			stepName := s.Name
			if stepName == "" {
				stepName = fmt.Sprintf("step-%d", i+1)
			}
			steps = append(steps, orchestrator.Step{Name: stepName, Role: role})
		}
		out[name] = orchestrator.Workflow{Name: name, Description: wf.Description, Steps: steps}
	}
	return out, nil
}
