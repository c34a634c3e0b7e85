// Package cli assembles teams from configuration for the foreman commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/foreman"
	"github.com/aretw0/foreman/internal/config"
	"github.com/aretw0/foreman/pkg/adapters/anthropic"
	"github.com/aretw0/foreman/pkg/adapters/memory"
	"github.com/aretw0/foreman/pkg/adapters/openai"
	"github.com/aretw0/foreman/pkg/adapters/process"
	"github.com/aretw0/foreman/pkg/adapters/redis"
	"github.com/aretw0/foreman/pkg/adapters/sqlite"
	"github.com/aretw0/foreman/pkg/domain"
	"github.com/aretw0/foreman/pkg/metrics"
	"github.com/aretw0/foreman/pkg/persistence/middleware"
	"github.com/aretw0/foreman/pkg/ports"
	"github.com/aretw0/foreman/pkg/registry"
	"github.com/aretw0/foreman/pkg/runner"
	"github.com/aretw0/foreman/pkg/tools/feed"
	"github.com/aretw0/foreman/pkg/tools/scrape"
	"github.com/aretw0/foreman/pkg/tools/search"
)

// Assembly is a team plus the resources built alongside it.
type Assembly struct {
	Team    *foreman.Team
	Metrics *metrics.Collector
	closers []func() error
}

// Close releases the recorder connection, if any.
func (a *Assembly) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// BuildOptions adjust how the team is assembled.
type BuildOptions struct {
	// Interceptor guards every tool handed to agent workers.
	Interceptor runner.ToolInterceptor
	// Delegate replaces the configured model provider.
	Delegate ports.Delegate
}

// BuildTeam wires the delegate, workers, recorder, metrics and logging hooks
// described by cfg.
func BuildTeam(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts BuildOptions) (*Assembly, error) {
	asm := &Assembly{Metrics: metrics.New()}

	policy, err := cfg.FailurePolicy()
	if err != nil {
		return nil, err
	}
	teamOpts := []foreman.Option{
		foreman.WithLogger(logger),
		foreman.WithLifecycleHooks(foreman.LoggingHooks(logger)),
		foreman.WithLifecycleHooks(asm.Metrics.Hooks()),
		foreman.WithStepLimit(cfg.Run.StepLimit),
		foreman.WithFailurePolicy(policy),
		foreman.WithCapabilityTimeout(cfg.Run.CapabilityTimeout),
		foreman.WithEventBuffer(cfg.Run.EventBuffer),
	}

	recorder, closer, err := buildRecorder(ctx, cfg.Recorder)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		asm.closers = append(asm.closers, closer)
	}
	if recorder != nil {
		recorder = middleware.Chain(recorder, middleware.NewRedactMiddleware(middleware.DefaultSecretPatterns))
		teamOpts = append(teamOpts, foreman.WithRecorder(recorder))
	}

	workers, err := buildWorkers(cfg, logger, opts.Interceptor)
	if err != nil {
		_ = asm.Close()
		return nil, err
	}
	teamOpts = append(teamOpts, workers...)

	delegate := opts.Delegate
	if delegate == nil {
		delegate = buildDelegate(cfg.LLM)
	}

	team, err := foreman.New(delegate, teamOpts...)
	if err != nil {
		_ = asm.Close()
		return nil, fmt.Errorf("error assembling team: %w", err)
	}
	asm.Team = team
	logger.DebugContext(ctx, "team assembled", "workers", team.Workers(), "provider", cfg.LLM.Provider, "recorder", cfg.Recorder.Backend)
	return asm, nil
}

func buildDelegate(cfg config.LLMConfig) ports.Delegate {
	if cfg.Provider == "anthropic" {
		opts := []anthropic.Option{anthropic.WithModel(cfg.Model)}
		if cfg.Rationale {
			opts = append(opts, anthropic.WithRationale())
		}
		return anthropic.NewDelegate(cfg.APIKey, opts...)
	}

	var opts []openai.DelegateOption
	if cfg.Model != "" {
		opts = append(opts, openai.WithModelOptions(func(o *openai.Options) { o.Model = cfg.Model }))
	}
	if cfg.Rationale {
		opts = append(opts, openai.WithRationale())
	}
	return openai.NewDelegate(openai.NewClient(cfg.APIKey, cfg.BaseURL), opts...)
}

func buildRecorder(ctx context.Context, cfg config.RecorderConfig) (ports.RunRecorder, func() error, error) {
	switch cfg.Backend {
	case "none":
		return nil, nil, nil
	case "redis":
		rec, err := redis.New(ctx, cfg.RedisAddr, redis.WithTTL(cfg.TTL))
		if err != nil {
			return nil, nil, err
		}
		return rec, rec.Close, nil
	case "sqlite":
		rec, err := sqlite.Open(cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		return rec, rec.Close, nil
	default:
		return memory.NewRecorder(), nil, nil
	}
}

// buildWorkers creates one team member per configured worker. Agents call
// tools through the OpenAI API; with the anthropic provider only the
// supervisor uses Claude and agents read OPENAI_API_KEY.
func buildWorkers(cfg *config.Config, logger *slog.Logger, interceptor runner.ToolInterceptor) ([]foreman.Option, error) {
	tools, err := process.LoadTools(cfg.Tools.File)
	if err != nil {
		return nil, err
	}
	procs := process.NewRunner(process.WithRegistry(tools), process.WithLogger(logger))

	catalog, err := toolCatalog(cfg, procs)
	if err != nil {
		return nil, err
	}

	apiKey, baseURL := cfg.LLM.APIKey, cfg.LLM.BaseURL
	if cfg.LLM.Provider != "openai" {
		apiKey, baseURL = "", ""
	}
	client := openai.NewClient(apiKey, baseURL)

	var opts []foreman.Option
	for _, w := range cfg.Workers {
		switch w.Kind {
		case config.KindProcess:
			if _, ok := tools[w.Command]; !ok {
				return nil, fmt.Errorf("worker %q: %w: %s", w.Name, process.ErrNotRegistered, w.Command)
			}
			opts = append(opts, foreman.WithWorker(w.Name, procs.Worker(w.Name, w.Command)))
		default:
			reg, err := catalog.Subset(w.Tools...)
			if err != nil {
				return nil, fmt.Errorf("worker %q: %w", w.Name, err)
			}
			if interceptor != nil {
				reg = runner.Guard(reg, interceptor)
			}
			agentOpts := []openai.AgentOption{openai.WithLogger(logger)}
			if w.Prompt != "" {
				agentOpts = append(agentOpts, openai.WithSystemPrompt(w.Prompt))
			}
			if cfg.LLM.Provider == "openai" && cfg.LLM.Model != "" {
				agentOpts = append(agentOpts, openai.WithAgentModel(func(o *openai.Options) { o.Model = cfg.LLM.Model }))
			}
			opts = append(opts, foreman.WithWorker(w.Name, openai.NewAgent(w.Name, client, reg, agentOpts...)))
		}
	}
	return opts, nil
}

// toolCatalog holds every tool an agent may name: the built-in web and feed
// tools and the allow-listed processes. The search client is only built when some
// agent asks for it, since it needs an API key.
func toolCatalog(cfg *config.Config, procs *process.Runner) (*registry.Registry, error) {
	catalog := registry.NewRegistry(scrape.New().Tool(), feed.New().Tool())

	if wantsTool(cfg.Workers, config.ToolSearch) {
		client, err := search.New(cfg.Search.APIKey, search.WithMaxResults(cfg.Search.MaxResults))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ToolSearch, err)
		}
		catalog.Add(client.Tool())
	}

	for _, name := range procs.Names() {
		t, err := procs.Tool(name)
		if err != nil {
			return nil, err
		}
		catalog.Add(t)
	}
	return catalog, nil
}

func wantsTool(workers []config.WorkerConfig, tool string) bool {
	for _, w := range workers {
		if w.Kind != config.KindAgent {
			continue
		}
		for _, t := range w.Tools {
			if t == tool {
				return true
			}
		}
	}
	return false
}

// DescribeFailure renders a failed run for terminal output.
func DescribeFailure(res domain.RunResult) string {
	switch {
	case errors.Is(res.Err, domain.ErrStepBoundExceeded):
		return fmt.Sprintf("the team did not finish within its step limit (%v)", res.Err)
	case errors.Is(res.Err, domain.ErrRoutingContract):
		return fmt.Sprintf("the supervisor chose an unknown worker (%v)", res.Err)
	default:
		return fmt.Sprintf("run failed: %v", res.Err)
	}
}
