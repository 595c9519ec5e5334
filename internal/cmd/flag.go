package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type commandLineFlag struct {
	name, shorthand, defaultValue, usage string
	required                             bool
	isBool                               bool
	// viperKey binds the flag to a configuration key. Empty keeps the flag local.
	viperKey string
}

var (
	configFlag = commandLineFlag{
		name:      "config",
		shorthand: "c",
		usage:     "config file (default is $XDG_CONFIG_HOME/foldwork/config.yaml)",
	}
	envFileFlag = commandLineFlag{
		name:  "env-file",
		usage: "dotenv file loaded before environment overrides are applied",
	}
	quietFlag = commandLineFlag{
		name:      "quiet",
		shorthand: "q",
		usage:     "suppress log output on stderr",
		isBool:    true,
	}
	debugFlag = commandLineFlag{
		name:     "debug",
		usage:    "enable debug logging",
		isBool:   true,
		viperKey: "debug",
	}
	workDirFlag = commandLineFlag{
		name:      "work-dir",
		shorthand: "w",
		usage:     "base directory of the step working directories",
		viperKey:  "work_dir",
	}
	reportFlag = commandLineFlag{
		name:      "report",
		shorthand: "o",
		usage:     "report format: table, json or yaml",
		viperKey:  "report_format",
	}
	modeFlag = commandLineFlag{
		name:      "mode",
		shorthand: "m",
		usage:     "workflow to run: predict or align",
		viperKey:  "mode",
	}
	inputDirFlag = commandLineFlag{
		name:     "input-dir",
		usage:    "directory of FASTA files to predict",
		viperKey: "predict.input_dir",
	}
	scratchDirFlag = commandLineFlag{
		name:     "scratch-dir",
		usage:    "scratch directory used as the container home",
		viperKey: "predict.scratch_dir",
	}
	sifPathFlag = commandLineFlag{
		name:     "sif-path",
		usage:    "AlphaFold container image",
		viperKey: "predict.sif_path",
	}
	dbDirFlag = commandLineFlag{
		name:     "db-dir",
		usage:    "AlphaFold database directory",
		viperKey: "predict.db_dir",
	}
	inputPDBsFlag = commandLineFlag{
		name:     "input-pdbs",
		usage:    "comma-separated reference structures",
		viperKey: "align.input_pdbs",
	}
	alignmentDirsFlag = commandLineFlag{
		name:     "alignment-dirs",
		usage:    "comma-separated candidate directories, one per reference",
		viperKey: "align.alignment_dirs",
	}
	extensionFlag = commandLineFlag{
		name:     "extension",
		usage:    "extension of candidate structure files",
		viperKey: "align.extension",
	}
	sbatchArgsFlag = commandLineFlag{
		name:     "sbatch-args",
		usage:    "extra sbatch options, shell-quoted",
		viperKey: "slurm.args",
	}
)

var (
	commonFlags  = []commandLineFlag{configFlag, envFileFlag, quietFlag, debugFlag, workDirFlag, reportFlag}
	predictFlags = []commandLineFlag{inputDirFlag, scratchDirFlag, sifPathFlag, dbDirFlag, sbatchArgsFlag}
	alignFlags   = []commandLineFlag{inputPDBsFlag, alignmentDirsFlag, extensionFlag}
)

func initFlags(cmd *cobra.Command, flags ...commandLineFlag) {
	for _, flag := range flags {
		if flag.isBool {
			cmd.Flags().BoolP(flag.name, flag.shorthand, flag.defaultValue == "true", flag.usage)
		} else {
			cmd.Flags().StringP(flag.name, flag.shorthand, flag.defaultValue, flag.usage)
		}
		if flag.required {
			if err := cmd.MarkFlagRequired(flag.name); err != nil {
				fmt.Printf("failed to mark flag %s as required: %v\n", flag.name, err)
			}
		}
	}
}

// bindFlags binds the flags of the running command to v. It runs at
// execution time because all commands share the same configuration keys.
func bindFlags(v *viper.Viper, cmd *cobra.Command, flags ...commandLineFlag) error {
	for _, flag := range flags {
		if flag.viperKey == "" {
			continue
		}
		if err := v.BindPFlag(flag.viperKey, cmd.Flags().Lookup(flag.name)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.name, err)
		}
	}
	return nil
}
