package cmd

import (
	"fmt"

	"github.com/foldwork/foldwork/internal/output"
	"github.com/foldwork/foldwork/internal/runner"
	"github.com/foldwork/foldwork/internal/runtime/executor"
	"github.com/spf13/cobra"
)

// Plan returns the command that prints the steps a run would execute.
func Plan() *cobra.Command {
	flags := append([]commandLineFlag{modeFlag}, predictFlags...)
	flags = append(flags, alignFlags...)
	return NewCommand(
		&cobra.Command{
			Use:   "plan [flags]",
			Short: "Print the steps of a run without executing them",
			Long: `Build the step of every entity as the run command would and print the
step descriptors as YAML. Nothing is submitted or executed.

Example:
  foldwork plan --mode align --input-pdbs a.pdb --alignment-dirs models/a
`,
			Args: cobra.NoArgs,
		}, flags,
		runPlan,
	)
}

func runPlan(ctx *Context, _ []string) error {
	cfg := ctx.Config
	planned, err := runner.New(cfg, executor.NewLocalService(cfg.Paths.WorkDir)).Plan(ctx, cfg.Mode)
	if err != nil {
		return err
	}

	format := cfg.Report.Format
	if format == output.FormatTable {
		format = output.FormatYAML
	}

	w := ctx.Command.OutOrStdout()
	switch format {
	case output.FormatJSON:
		return output.WriteJSON(w, planned)
	case output.FormatYAML:
		return output.WriteYAML(w, planned)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
