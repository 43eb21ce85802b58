// Package pipeline defines the case pipeline contract, the registry
// the CLI lists and runs cases from, and the run manifest written at
// the end of every run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"opsight/internal/exporter"
	"opsight/internal/infrastructure"
)

// Dirs describes where a pipeline reads inputs and writes outputs.
type Dirs struct {
	Input   string
	Reports string
	Exports string
}

// Pipeline is a runnable analysis case.
type Pipeline interface {
	// Name is the case identifier used by the CLI, e.g. "inventory".
	Name() string
	// Description is a one-line summary shown by the list command.
	Description() string
	// Run executes the case end to end.
	Run(ctx context.Context, dirs Dirs) (*Result, error)
}

// Result summarizes what a pipeline run produced.
type Result struct {
	Case     string         `json:"case"`
	RunID    string         `json:"run_id"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Outputs  []string       `json:"outputs"`
	Metrics  map[string]any `json:"metrics,omitempty"`
}

// AddOutput records a produced file path.
func (r *Result) AddOutput(path string) {
	r.Outputs = append(r.Outputs, path)
}

// Registry holds the available case pipelines.
type Registry struct {
	pipelines map[string]Pipeline
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pipelines: make(map[string]Pipeline)}
}

// Register adds a pipeline. Duplicate names are an error.
func (r *Registry) Register(p Pipeline) error {
	name := p.Name()
	if _, exists := r.pipelines[name]; exists {
		return fmt.Errorf("pipeline %q already registered", name)
	}
	r.pipelines[name] = p
	return nil
}

// Get returns the named pipeline.
func (r *Registry) Get(name string) (Pipeline, error) {
	p, ok := r.pipelines[name]
	if !ok {
		return nil, fmt.Errorf("unknown case %q, available: %v", name, r.Names())
	}
	return p, nil
}

// Names returns the registered case names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.pipelines))
	for name := range r.pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the registered pipelines sorted by name.
func (r *Registry) All() []Pipeline {
	all := make([]Pipeline, 0, len(r.pipelines))
	for _, name := range r.Names() {
		all = append(all, r.pipelines[name])
	}
	return all
}

// Run executes the named case, tagging the context and logs with a
// fresh run ID and writing a run manifest into the reports directory.
func (r *Registry) Run(ctx context.Context, name string, dirs Dirs) (*Result, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	ctx = infrastructure.WithRunID(ctx, runID)
	logger := infrastructure.LoggerFromContext(ctx)

	started := time.Now().UTC()
	logger.Info("case run started",
		slog.String("case", name),
		slog.String("input_dir", dirs.Input))

	result, err := p.Run(ctx, dirs)
	if err != nil {
		logger.Error("case run failed",
			slog.String("case", name),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("run case %s: %w", name, err)
	}

	result.Case = name
	result.RunID = runID
	result.Started = started
	result.Finished = time.Now().UTC()

	manifestPath := fmt.Sprintf("%s/run_manifest_%s.json", dirs.Reports, name)
	if err := exporter.WriteJSON(manifestPath, result); err != nil {
		return nil, fmt.Errorf("write run manifest: %w", err)
	}
	result.AddOutput(manifestPath)

	logger.Info("case run finished",
		slog.String("case", name),
		slog.Duration("elapsed", result.Finished.Sub(result.Started)),
		slog.Int("outputs", len(result.Outputs)))

	return result, nil
}
