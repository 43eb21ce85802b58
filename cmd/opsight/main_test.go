package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsight/internal/config"
)

func TestBuildRegistry(t *testing.T) {
	registry, err := buildRegistry(config.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"inventory", "procurement", "supplychain"}, registry.Names())
}

func TestListCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"list"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "inventory")
	assert.Contains(t, out.String(), "procurement")
	assert.Contains(t, out.String(), "supplychain")
}

func TestRunCommandUnknownCase(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "opsight.yaml")
	cfgYAML := "dirs:\n  input: " + filepath.Join(dir, "data") +
		"\n  reports: " + filepath.Join(dir, "reports") +
		"\n  exports: " + filepath.Join(dir, "exports") +
		"\nlogging:\n  output: console\n"
	require.NoError(t, os.WriteFile(configPath, []byte(cfgYAML), 0644))

	root := newRootCmd()
	root.SilenceErrors = true
	root.SetArgs([]string{"run", "--case", "nope", "--config", configPath})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown case")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
