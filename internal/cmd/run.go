package cmd

import (
	"fmt"
	"time"

	"github.com/foldwork/foldwork/internal/cmn/logger"
	"github.com/foldwork/foldwork/internal/cmn/logger/tag"
	"github.com/foldwork/foldwork/internal/core"
	"github.com/foldwork/foldwork/internal/output"
	"github.com/foldwork/foldwork/internal/runner"
	"github.com/foldwork/foldwork/internal/runtime/executor"
	"github.com/spf13/cobra"
)

// Run returns the command that runs the workflow selected by the mode
// setting.
func Run() *cobra.Command {
	flags := append([]commandLineFlag{modeFlag}, predictFlags...)
	flags = append(flags, alignFlags...)
	return NewCommand(
		&cobra.Command{
			Use:   "run [flags]",
			Short: "Run the workflow selected by the mode setting",
			Long: `Run the prediction or alignment workflow over every entity of the batch.

The workflow is taken from --mode, the FOLDWORK_MODE environment variable or
the mode key of the config file. Entities run in parallel; a failing entity
does not stop the others. The command exits non-zero if any entity failed.

Example:
  foldwork run --mode predict --input-dir fasta/
`,
			Args: cobra.NoArgs,
		}, flags,
		func(ctx *Context, _ []string) error {
			return runWorkflow(ctx, ctx.Config.Mode)
		},
	)
}

// Predict returns the command that runs the structure prediction workflow.
func Predict() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "predict [flags]",
			Short: "Predict the structure of every FASTA file in a directory",
			Long: `Submit one AlphaFold job per FASTA file found directly in the input
directory and wait for all of them. The best ranked model of each entity is
written to <work dir>/alphafold_<name>/<out dir>/<name>/ranked_0.pdb.

Example:
  foldwork predict --input-dir fasta/ --sif-path alphafold.sif --db-dir /db --scratch-dir /scratch/me
`,
			Args: cobra.NoArgs,
		}, predictFlags,
		func(ctx *Context, _ []string) error {
			return runWorkflow(ctx, string(core.ModePredict))
		},
	)
}

// Align returns the command that runs the structure alignment workflow.
func Align() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   "align [flags]",
			Short: "Align reference structures against directories of candidates",
			Long: `Align every reference structure against the structure files of the
candidate directory at the same position and write the RMSD of each pair to
alignment_rmsds.txt in the step working directory.

Example:
  foldwork align --input-pdbs a.pdb,b.pdb --alignment-dirs models/a,models/b
`,
			Args: cobra.NoArgs,
		}, alignFlags,
		func(ctx *Context, _ []string) error {
			return runWorkflow(ctx, string(core.ModeAlign))
		},
	)
}

func runWorkflow(ctx *Context, mode string) error {
	runID, err := genRunID()
	if err != nil {
		return fmt.Errorf("failed to generate run ID: %w", err)
	}

	logFile, err := ctx.OpenLogFile(logName(mode), runID)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()
	ctx.LogToFile(logFile)
	ctx.Context = logger.WithValues(ctx.Context, tag.RunID(runID))

	cfg := ctx.Config
	svc := executor.NewLocalService(cfg.Paths.WorkDir, executor.WithSlurm(executor.SlurmSettings{
		Sbatch: cfg.Slurm.Sbatch,
		Args:   cfg.Slurm.Args,
	}))

	start := time.Now()
	result, err := runner.New(cfg, svc).Run(ctx, mode)
	if err != nil {
		return err
	}

	if err := output.Render(ctx.Command.OutOrStdout(), output.NewSummary(runID, mode, result), cfg.Report.Format); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	logger.Info(ctx, "Processes terminated",
		tag.Count(len(result)),
		tag.Failed(result.FailedCount()),
		tag.Duration(time.Since(start)),
		tag.File(logFile.Name()),
	)

	if n := result.FailedCount(); n > 0 {
		return fmt.Errorf("%d of %d entities failed", n, len(result))
	}
	return nil
}

// logName names the run log after the mode.
func logName(mode string) string {
	if mode == "" {
		return "run"
	}
	return mode
}
