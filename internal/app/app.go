package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/cfgtree/cfgtree/internal/cliconfig"
	"github.com/cfgtree/cfgtree/internal/cmerr"
	"github.com/cfgtree/cfgtree/internal/ctxlog"
	"github.com/cfgtree/cfgtree/internal/hclmodel"
	"github.com/cfgtree/cfgtree/internal/model"
	"github.com/cfgtree/cfgtree/internal/registry"
	"github.com/cfgtree/cfgtree/internal/steps"
	"github.com/cfgtree/cfgtree/internal/tree"
	"github.com/cfgtree/cfgtree/internal/value"
)

// App encapsulates the tool's dependencies and lifecycle: one loaded model,
// one registry, and at most one instantiated tree.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *cliconfig.Config
	reg    *registry.Registry
	access model.Permission

	tree *tree.Tree
}

// New loads the model files named by the configuration and returns a fully
// initialized App with its own isolated logger and registry.
func New(outW, logW io.Writer, cfg *cliconfig.Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	access, err := model.ParsePermission(cfg.Access)
	if err != nil {
		return nil, cmerr.Newf(cmerr.BadParameter, "invalid access level: %v", err)
	}

	classes, err := hclmodel.NewLoader().Load(ctx, cfg.ModelDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("model files loaded", "classes", len(classes))

	reg := registry.New()
	if err := reg.DeclareAll(ctx, classes); err != nil {
		return nil, err
	}

	return &App{
		outW:   outW,
		logger: logger,
		cfg:    cfg,
		reg:    reg,
		access: access,
	}, nil
}

// Registry returns the application's class registry, primarily for testing.
func (a *App) Registry() *registry.Registry { return a.reg }

func (a *App) ctx(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Check compiles every declared class and reports the result. Compilation
// errors carry the offending class and parameter.
func (a *App) Check(ctx context.Context) error {
	ctx = a.ctx(ctx)
	if err := a.reg.CompileAll(ctx); err != nil {
		return err
	}
	names := a.reg.Names()
	fmt.Fprintf(a.outW, "%d classes compiled\n", len(names))
	for _, name := range names {
		fmt.Fprintf(a.outW, "  %s\n", name)
	}
	return nil
}

// Tree returns the instantiated tree, creating it from the configured root
// class on first use.
func (a *App) Tree(ctx context.Context) (*tree.Tree, error) {
	if a.tree != nil {
		return a.tree, nil
	}
	if a.cfg.RootClass == "" {
		return nil, cmerr.New(cmerr.BadParameter, "no root class configured")
	}
	t, err := tree.New(a.ctx(ctx), a.reg, a.cfg.RootClass)
	if err != nil {
		return nil, err
	}
	a.tree = t
	return t, nil
}

// Apply loads each step string in order against the tree. Every step is
// atomic on its own; a failing step leaves the tree as the previous step
// left it.
func (a *App) Apply(ctx context.Context, stepStrings []string, prov value.Provenance) error {
	ctx = a.ctx(ctx)
	t, err := a.Tree(ctx)
	if err != nil {
		return err
	}
	for _, s := range stepStrings {
		if err := steps.Load(ctx, t, s, steps.Options{Access: a.access, Provenance: prov}); err != nil {
			return err
		}
	}
	return nil
}

// Dump writes the tree's state in the given mode to the output writer.
func (a *App) Dump(ctx context.Context, mode steps.DumpMode) error {
	ctx = a.ctx(ctx)
	t, err := a.Tree(ctx)
	if err != nil {
		return err
	}
	out, err := steps.Dump(ctx, t, mode, a.access)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.outW, out)
	return nil
}
