// Package process runs allow-listed local commands as workers or tools.
//
// Only commands registered by name can run. Model-provided arguments never
// reach the command line: they are passed as FOREMAN_ARG_<KEY> environment
// variables, and the conversation input is written to stdin.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/foreman/internal/logging"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/registry"
)

// ErrNotRegistered is returned for a command name outside the allow-list.
var ErrNotRegistered = errors.New("process not registered")

// EnvArgPrefix prefixes the environment variables carrying tool arguments.
const EnvArgPrefix = "FOREMAN_ARG_"

// Runner executes registered processes.
type Runner struct {
	registry map[string]ProcessConfig
	baseDir  string
	logger   *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded tools file.
func WithRegistry(tools map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			tool.Name = name
			r.registry[name] = tool
		}
	}
}

// WithBaseDir sets the working directory of executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner with an empty allow-list.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]ProcessConfig),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name, command string, args ...string) {
	r.registry[name] = ProcessConfig{Name: name, Command: command, Args: args}
}

// Names lists the registered processes in sorted order.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the process registered as name with stdin as input.
// It returns the trimmed stdout. A non-zero exit is an error carrying stderr.
func (r *Runner) Run(ctx context.Context, name, stdin string, args map[string]any) (string, error) {
	proc, ok := r.registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(cmd.Environ(), environment(proc.Environment, args)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.DebugContext(ctx, "process start", "name", name, "command", proc.Command)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("execution failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Worker exposes the registered process as the worker name.
// The last message of the conversation is written to stdin and stdout comes
// back as a tool-result message, which the supervisor sees but clients do not.
func (r *Runner) Worker(name, process string) *Worker {
	return &Worker{runner: r, name: name, process: process}
}

// Tool exposes the process registered as name to tool-calling agents.
func (r *Runner) Tool(name string) (registry.Tool, error) {
	proc, ok := r.registry[name]
	if !ok {
		return registry.Tool{}, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	desc := proc.Description
	if desc == "" {
		desc = "Runs the local command " + proc.Command
	}
	return registry.Tool{
		Name:        name,
		Description: desc,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"input": map[string]any{"type": "string", "description": "Text written to the command's stdin"},
			},
		},
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			input, _ := args["input"].(string)
			rest := make(map[string]any, len(args))
			for k, v := range args {
				if k != "input" {
					rest[k] = v
				}
			}
			return r.Run(ctx, name, input, rest)
		},
	}, nil
}

// Worker is a process-backed worker.
type Worker struct {
	runner  *Runner
	name    string
	process string
}

// Invoke implements ports.Worker.
func (w *Worker) Invoke(ctx context.Context, conv domain.Conversation) (domain.Message, error) {
	var input string
	if last, ok := conv.Last(); ok {
		input = last.Content()
	}
	out, err := w.runner.Run(ctx, w.process, input, nil)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.NewMessage(w.name, out, domain.KindToolResult), nil
}

// environment renders static env plus tool arguments. Scalars are formatted
// directly and anything structured as JSON.
func environment(static map[string]string, args map[string]any) []string {
	env := make([]string, 0, len(static)+len(args))
	for k, v := range static {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		var val string
		switch v.(type) {
		case nil:
		case string, int, int64, float64, bool:
			val = fmt.Sprintf("%v", v)
		default:
			if data, err := json.Marshal(v); err == nil {
				val = string(data)
			} else {
				val = fmt.Sprintf("%v", v)
			}
		}
		env = append(env, EnvArgPrefix+strings.ToUpper(k)+"="+val)
	}
	sort.Strings(env)
	return env
}
