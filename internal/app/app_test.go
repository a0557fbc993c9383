package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cfgtree/cfgtree/internal/cliconfig"
	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/steps"
	"github.com/cfgtree/cfgtree/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.hcl"), []byte(src), 0o600))
	return dir
}

func newTestApp(t *testing.T, rootClass string, out *bytes.Buffer) *App {
	t.Helper()
	dir := writeModel(t, `
class "Root" {
  element "name" { type = "string" }
  element "port" {
    type    = "number"
    default = 8080
  }
}
`)
	a, err := New(out, &bytes.Buffer{}, &cliconfig.Config{
		ModelDir:  dir,
		RootClass: rootClass,
		Access:    "master",
		LogLevel:  "error",
		LogFormat: "text",
	})
	require.NoError(t, err)
	return a
}

func TestAppCheck(t *testing.T) {
	var out bytes.Buffer
	a := newTestApp(t, "Root", &out)

	require.NoError(t, a.Check(context.Background()))
	assert.Contains(t, out.String(), "1 classes compiled")
	assert.Contains(t, out.String(), "Root")
}

func TestAppApplyAndDump(t *testing.T) {
	var out bytes.Buffer
	a := newTestApp(t, "Root", &out)
	ctx := context.Background()

	require.NoError(t, a.Apply(ctx, []string{"name=web1"}, value.ProvCustom))
	require.NoError(t, a.Dump(ctx, steps.DumpCustomized))
	assert.Equal(t, "name=web1\n", out.String())

	out.Reset()
	require.NoError(t, a.Dump(ctx, steps.DumpFull))
	assert.Equal(t, "name=web1 port=8080\n", out.String())
}

func TestAppTreeNeedsRootClass(t *testing.T) {
	var out bytes.Buffer
	a := newTestApp(t, "", &out)

	_, err := a.Tree(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, cmerr.BadParameter))
}
