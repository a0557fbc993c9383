package cli

import (
	"context"
	"io"

	"github.com/cfgtree/cfgtree/internal/app"
	"github.com/cfgtree/cfgtree/internal/cliconfig"
	"github.com/cfgtree/cfgtree/internal/steps"
	"github.com/cfgtree/cfgtree/internal/value"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Run builds the command tree and executes it against the given arguments.
func Run(ctx context.Context, outW, errW io.Writer, args []string) error {
	root := NewRootCmd(outW, errW)
	root.SetArgs(args)
	root.SetOut(outW)
	root.SetErr(errW)
	return root.ExecuteContext(ctx)
}

// NewRootCmd creates and returns the root command. Configuration resolves
// in the persistent pre-run so every subcommand sees the same precedence:
// flags over environment over config file over defaults.
func NewRootCmd(outW, errW io.Writer) *cobra.Command {
	var cfgFile string
	var cfg *cliconfig.Config

	rootCmd := &cobra.Command{
		Use:   "cfgtree",
		Short: "cfgtree - schema-driven configuration trees",
		Long: `cfgtree compiles class model files into an in-memory configuration
tree, applies textual mutation steps against it and dumps the result in the
same step mini-language.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			var err error
			cfg, err = cliconfig.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return &ExitError{Code: 2, Message: err.Error()}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./cfgtree.yaml)")
	pf.String("model-dir", "", "path to the class model files")
	pf.String("root-class", "", "class to instantiate the tree from")
	pf.String("access", "", "permission grade for writes: intermediate, advanced or master")
	pf.String("log-level", "", "logging level: debug, info, warn or error")
	pf.String("log-format", "", "log output format: text or json")

	newApp := func() (*app.App, error) {
		return app.New(outW, errW, cfg)
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Compile every class in the model and report problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.Check(cmd.Context())
		},
	}

	var dumpMode string
	dumpCmd := &cobra.Command{
		Use:   "dump [STEP...]",
		Short: "Apply optional steps, then dump the tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if dumpMode == "" {
				dumpMode = cfg.DumpMode
			}
			mode, err := steps.ParseDumpMode(dumpMode)
			if err != nil {
				return err
			}
			if err := a.Apply(cmd.Context(), args, value.ProvCustom); err != nil {
				return err
			}
			return a.Dump(cmd.Context(), mode)
		},
	}
	dumpCmd.Flags().StringVar(&dumpMode, "mode", "", "dump mode: customized, full or preset")

	var loadPreset bool
	loadCmd := &cobra.Command{
		Use:   "load STEP...",
		Short: "Apply steps to the tree and dump the customized state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			prov := value.ProvCustom
			if loadPreset {
				prov = value.ProvPreset
			}
			if err := a.Apply(cmd.Context(), args, prov); err != nil {
				return err
			}
			return a.Dump(cmd.Context(), steps.DumpCustomized)
		},
	}
	loadCmd.Flags().BoolVar(&loadPreset, "preset", false, "apply steps in preset mode")

	rootCmd.AddCommand(checkCmd, dumpCmd, loadCmd)
	return rootCmd
}
