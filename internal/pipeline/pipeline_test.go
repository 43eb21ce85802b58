package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsight/internal/infrastructure"
)

type fakePipeline struct {
	name string
	err  error
	ran  bool
	ctx  context.Context
}

func (f *fakePipeline) Name() string        { return f.name }
func (f *fakePipeline) Description() string { return "fake case" }

func (f *fakePipeline) Run(ctx context.Context, dirs Dirs) (*Result, error) {
	f.ran = true
	f.ctx = ctx
	if f.err != nil {
		return nil, f.err
	}
	res := &Result{Metrics: map[string]any{"rows": 10}}
	res.AddOutput(filepath.Join(dirs.Exports, "fact.csv"))
	return res, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakePipeline{name: "inventory"}))
	require.NoError(t, r.Register(&fakePipeline{name: "procurement"}))

	assert.Equal(t, []string{"inventory", "procurement"}, r.Names())

	p, err := r.Get("inventory")
	require.NoError(t, err)
	assert.Equal(t, "inventory", p.Name())

	_, err = r.Get("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown case "nope"`)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&fakePipeline{name: "inventory"}))
	assert.Error(t, r.Register(&fakePipeline{name: "inventory"}))
}

func TestRegistryRun(t *testing.T) {
	dir := t.TempDir()
	dirs := Dirs{
		Input:   filepath.Join(dir, "data"),
		Reports: filepath.Join(dir, "reports"),
		Exports: filepath.Join(dir, "exports"),
	}

	fake := &fakePipeline{name: "inventory"}
	r := NewRegistry()
	require.NoError(t, r.Register(fake))

	result, err := r.Run(context.Background(), "inventory", dirs)
	require.NoError(t, err)
	require.True(t, fake.ran)

	assert.Equal(t, "inventory", result.Case)
	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.Finished.Before(result.Started))

	assert.Equal(t, result.RunID, infrastructure.GetRunID(fake.ctx),
		"pipeline context carries the run ID")

	manifest := filepath.Join(dirs.Reports, "run_manifest_inventory.json")
	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"case": "inventory"`)
	assert.Contains(t, string(data), result.RunID)
	assert.Contains(t, result.Outputs, manifest)
}

func TestRegistryRunPropagatesError(t *testing.T) {
	fake := &fakePipeline{name: "broken", err: errors.New("bad input")}
	r := NewRegistry()
	require.NoError(t, r.Register(fake))

	_, err := r.Run(context.Background(), "broken", Dirs{Reports: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run case broken")
	assert.Contains(t, err.Error(), "bad input")
}
