package cmd

import (
	"github.com/foldwork/foldwork/internal/build"
	"github.com/spf13/cobra"
)

// Root returns the root command with every subcommand attached.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   build.Slug,
		Short: "Run AlphaFold predictions and PyMOL alignments over batches of structures",
		Long: `foldwork runs one structure prediction or structure alignment job per
entity of a batch in parallel and reports the outcome of every entity.

Prediction jobs are submitted to SLURM and run AlphaFold in an apptainer
container. Alignment jobs run PyMOL on the local host.
`,
		SilenceErrors: true,
	}
	root.AddCommand(Run())
	root.AddCommand(Predict())
	root.AddCommand(Align())
	root.AddCommand(Plan())
	root.AddCommand(Version())
	return root
}
