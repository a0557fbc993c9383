package cliconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("model-dir", "", "")
	fs.String("root-class", "", "")
	fs.String("access", "", "")
	fs.String("log-level", "", "")
	fs.String("log-format", "", "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "models", cfg.ModelDir)
	assert.Equal(t, "master", cfg.Access)
	assert.Equal(t, "customized", cfg.DumpMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "cfgtree.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(
		"model_dir: /srv/models\nroot_class: Host\nlog_level: debug\n"), 0o600))

	cfg, err := Load(cfgFile, nil)
	require.NoError(t, err)
	assert.Equal(t, "/srv/models", cfg.ModelDir)
	assert.Equal(t, "Host", cfg.RootClass)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched keys keep their defaults.
	assert.Equal(t, "master", cfg.Access)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "cfgtree.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("root_class: Host\n"), 0o600))

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--root-class", "Other", "--access", "advanced"}))

	cfg, err := Load(cfgFile, flags)
	require.NoError(t, err)
	assert.Equal(t, "Other", cfg.RootClass)
	assert.Equal(t, "advanced", cfg.Access)
}

func TestEnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "cfgtree.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("root_class: Host\n"), 0o600))

	t.Setenv("CFGTREE_ROOT_CLASS", "FromEnv")

	cfg, err := Load(cfgFile, nil)
	require.NoError(t, err)
	assert.Equal(t, "FromEnv", cfg.RootClass)
}

func TestLoadRejectsBadLogSettings(t *testing.T) {
	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--log-format", "xml"}))

	_, err := Load("", flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log-format")
}
