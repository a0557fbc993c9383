package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = `
class "Host" {
  element "fs" {
    type   = "string"
    choice = ["ext4", "xfs", "vfat"]
  }
  element "mount" {
    type = "node"
    config_class = "Mount"
  }
}

class "Mount" {
  element "point" { type = "string" }
}
`

func writeModelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "host.hcl"), []byte(testModel), 0o600))
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Run(context.Background(), &out, &errOut, args)
	return out.String(), errOut.String(), err
}

func TestCheckCommand(t *testing.T) {
	dir := writeModelDir(t)
	out, _, err := execute(t, "check", "--model-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "2 classes compiled")
	assert.Contains(t, out, "Host")
	assert.Contains(t, out, "Mount")
}

func TestCheckCommandBadModel(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.hcl"),
		[]byte(`class "A" { element "x" { type = "node" } }`), 0o600))

	_, _, err := execute(t, "check", "--model-dir", dir)
	require.Error(t, err)
	// A node element without a config class cannot compile.
	assert.Contains(t, err.Error(), "bad parameter")
}

func TestLoadCommandDumpsCustomized(t *testing.T) {
	dir := writeModelDir(t)
	out, _, err := execute(t, "load",
		"--model-dir", dir, "--root-class", "Host",
		"fs=ext4 mount point=/var -")
	require.NoError(t, err)
	assert.Equal(t, "fs=ext4 mount point=/var -\n", out)
}

func TestLoadCommandPresetMode(t *testing.T) {
	dir := writeModelDir(t)
	out, _, err := execute(t, "load", "--preset",
		"--model-dir", dir, "--root-class", "Host",
		"fs=xfs")
	require.NoError(t, err)
	// Preset values dump behind a mode toggle.
	assert.Equal(t, "! fs=xfs\n", out)
}

func TestDumpCommandModeFlag(t *testing.T) {
	dir := writeModelDir(t)
	_, _, err := execute(t, "dump", "--mode", "verbose",
		"--model-dir", dir, "--root-class", "Host")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dump mode")
}

func TestDumpCommandAppliesSteps(t *testing.T) {
	dir := writeModelDir(t)
	out, _, err := execute(t, "dump",
		"--model-dir", dir, "--root-class", "Host",
		"fs=vfat")
	require.NoError(t, err)
	assert.Equal(t, "fs=vfat\n", out)
}

func TestLoadCommandRequiresRootClass(t *testing.T) {
	dir := writeModelDir(t)
	_, _, err := execute(t, "load", "--model-dir", dir, "fs=ext4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no root class configured")
}

func TestInvalidAccessLevel(t *testing.T) {
	dir := writeModelDir(t)
	_, _, err := execute(t, "load",
		"--model-dir", dir, "--root-class", "Host", "--access", "root",
		"fs=ext4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid access level")
}
