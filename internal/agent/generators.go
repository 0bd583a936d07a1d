package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/dusk-indust/acan/internal/a2a"
)

// DefaultTimeout bounds a single generation when the agent sets none.
const DefaultTimeout = 5 * time.Minute

// ErrEmptyOutput is returned when a generator produced no text.
var ErrEmptyOutput = errors.New("generator returned no text")

// --------------------------------------------------------------------------
// A2A
// --------------------------------------------------------------------------

// TaskClient is the subset of the A2A client the generator needs.
type TaskClient interface {
	SendMessage(ctx context.Context, endpoint string, req a2a.SendMessageRequest) (*a2a.Task, error)
	Await(ctx context.Context, endpoint string, task *a2a.Task) (*a2a.Task, error)
}

var _ Generator = (*A2AGenerator)(nil)

// A2AGenerator sends prompts to a remote A2A agent.
type A2AGenerator struct {
	client   TaskClient
	endpoint string
	timeout  time.Duration
}

// NewA2AGenerator creates a generator for the agent at endpoint.
func NewA2AGenerator(client TaskClient, endpoint string, timeout time.Duration) *A2AGenerator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &A2AGenerator{client: client, endpoint: endpoint, timeout: timeout}
}

// Generate sends the prompt and waits for the task to finish.
func (g *A2AGenerator) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	msg := a2a.NewUserMessage(joinPrompt(req))
	task, err := g.client.SendMessage(ctx, g.endpoint, a2a.SendMessageRequest{
		Message: msg,
		Configuration: &a2a.SendMessageConfig{
			AcceptedOutputModes: []string{"text/plain"},
			Blocking:            true,
		},
	})
	if err != nil {
		return "", fmt.Errorf("a2a generator %s: %w", req.Agent, err)
	}
	id := task.ID
	if task, err = g.client.Await(ctx, g.endpoint, task); err != nil {
		return "", fmt.Errorf("a2a generator %s: await task %s: %w", req.Agent, id, err)
	}

	switch task.Status.State {
	case a2a.TaskStateCompleted:
		text := task.Text()
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("a2a generator %s: %w", req.Agent, ErrEmptyOutput)
		}
		return text, nil
	default:
		reason := task.StatusText()
		if reason == "" {
			reason = "no reason given"
		}
		return "", fmt.Errorf("a2a generator %s: task %s %s: %s", req.Agent, task.ID, task.Status.State, reason)
	}
}

// --------------------------------------------------------------------------
// External command
// --------------------------------------------------------------------------

var _ Generator = (*CommandGenerator)(nil)

// CommandGenerator runs an external program with the prompt on stdin and
// returns its stdout. The literal argument "{model}" is replaced by the
// request model.
type CommandGenerator struct {
	command string
	args    []string
	env     []string
	timeout time.Duration
}

// NewCommandGenerator creates a generator running command with args.
func NewCommandGenerator(command string, args, env []string, timeout time.Duration) *CommandGenerator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CommandGenerator{command: command, args: args, env: env, timeout: timeout}
}

// Generate runs the command once.
func (g *CommandGenerator) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	args := make([]string, len(g.args))
	for i, a := range g.args {
		args[i] = strings.ReplaceAll(a, "{model}", req.Model)
	}

	cmd := exec.CommandContext(ctx, g.command, args...)
	cmd.Stdin = strings.NewReader(joinPrompt(req))
	cmd.WaitDelay = 2 * time.Second
	cmd.Env = append(os.Environ(), g.env...)
	cmd.Env = append(cmd.Env,
		"ACAN_AGENT="+req.Agent,
		"ACAN_ROLE="+string(req.Role),
		"ACAN_MODEL="+req.Model,
		"ACAN_TEMPERATURE="+strconv.FormatFloat(req.Temperature, 'f', -1, 64),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("command generator %s: %s timed out after %s: %w", req.Agent, g.command, g.timeout, ctx.Err())
		}
		return "", fmt.Errorf("command generator %s: %s: %w: %s", req.Agent, g.command, err, lastLine(stderr.String()))
	}

	out := stdout.String()
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("command generator %s: %w", req.Agent, ErrEmptyOutput)
	}
	return out, nil
}

func joinPrompt(req Request) string {
	if req.System == "" {
		return req.Prompt
	}
	return req.System + "\n\n" + req.Prompt
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
