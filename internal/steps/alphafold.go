// Package steps builds the step descriptors of the prediction and alignment
// workflows.
package steps

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/foldwork/foldwork/internal/core"
	"mvdan.cc/sh/v3/syntax"
)

// PredictedStructure is the file AlphaFold writes for its best ranked model.
const PredictedStructure = "ranked_0.pdb"

// PredictionConfig holds the settings shared by every prediction step.
type PredictionConfig struct {
	ScratchDir string
	SIFPath    string
	DBDir      string
	// OutDir is the base output directory, relative to the step working
	// directory unless absolute.
	OutDir  string
	Options AlphaFoldOptions
}

// AlphaFoldOptions are the run_alphafold.py options.
type AlphaFoldOptions struct {
	DBPreset        string
	ModelPreset     string
	MaxTemplateDate string
	UseGPURelax     bool
	Binds           []string
	Databases       DatabasePaths
}

// DatabasePaths are the genetic and template database locations relative to
// the database directory.
type DatabasePaths struct {
	BFD           string
	MGnify        string
	TemplateMMCIF string
	ObsoletePDBs  string
	PDB70         string
	UniRef30      string
	UniRef90      string
}

// DefaultAlphaFoldOptions returns the options of a full_dbs monomer run.
func DefaultAlphaFoldOptions() AlphaFoldOptions {
	return AlphaFoldOptions{
		DBPreset:        "full_dbs",
		ModelPreset:     "monomer",
		MaxTemplateDate: "2023-12-31",
		UseGPURelax:     true,
		Binds:           []string{"/arc/project", "/scratch", "/cvmfs"},
		Databases:       DefaultDatabasePaths(),
	}
}

// DefaultDatabasePaths returns the layout produced by AlphaFold's
// download_all_data.sh.
func DefaultDatabasePaths() DatabasePaths {
	return DatabasePaths{
		BFD:           "bfd/bfd_metaclust_clu_complete_id30_c90_final_seq.sorted_opt",
		MGnify:        "mgnify/mgy_clusters_2022_05.fa",
		TemplateMMCIF: "pdb_mmcif/mmcif_files",
		ObsoletePDBs:  "pdb_mmcif/obsolete.dat",
		PDB70:         "pdb70/pdb70",
		UniRef30:      "uniref30/UniRef30_2021_03",
		UniRef90:      "uniref90/uniref90.fasta",
	}
}

// AlphaFoldStepName returns the name of the prediction step of entity.
func AlphaFoldStepName(entity string) string {
	return "alphafold_" + entity
}

// AlphaFold builds the step that predicts the structure of one FASTA file on
// the cluster scheduler.
func AlphaFold(input string, cfg PredictionConfig) (core.Step, error) {
	entity, err := core.EntityName(input)
	if err != nil {
		return core.Step{}, err
	}

	script, err := alphaFoldScript(cfg)
	if err != nil {
		return core.Step{}, fmt.Errorf("failed to render prediction script for %q: %w", entity, err)
	}

	return core.Step{
		Name:         AlphaFoldStepName(entity),
		Description:  "Runs AlphaFold to predict the structure of a FASTA file",
		Executor:     core.ExecutorSlurm,
		Inputs:       []string{input, cfg.ScratchDir, cfg.SIFPath, cfg.DBDir},
		Outputs:      []string{filepath.Join(cfg.OutDir, entity, PredictedStructure)},
		Dependencies: []string{core.DependencyImplicit, "apptainer"},
		Env: []string{
			"input=" + input,
			"scratch_dir=" + cfg.ScratchDir,
			"sif_path=" + cfg.SIFPath,
			"db_dir=" + cfg.DBDir,
		},
		Script: script,
	}, nil
}

func alphaFoldScript(cfg PredictionConfig) (string, error) {
	opts := cfg.Options

	outDir, err := shellQuote(cfg.OutDir + "/")
	if err != nil {
		return "", err
	}

	var binds []string
	for _, b := range opts.Binds {
		q, err := shellQuote(b)
		if err != nil {
			return "", err
		}
		binds = append(binds, "-B "+q)
	}

	flags := []struct {
		name  string
		value string
	}{
		{"db_preset", opts.DBPreset},
		{"model_preset", opts.ModelPreset},
		{"max_template_date", opts.MaxTemplateDate},
		{"use_gpu_relax", pythonBool(opts.UseGPURelax)},
	}

	var sb strings.Builder
	sb.WriteString("apptainer exec --nv \\\n")
	if len(binds) > 0 {
		fmt.Fprintf(&sb, "  %s \\\n", strings.Join(binds, " "))
	}
	sb.WriteString("  --home=\"$scratch_dir\" \\\n")
	sb.WriteString("  \"$sif_path\" \\\n")
	sb.WriteString("  python /opt/alphafold/run_alphafold.py \\\n")
	sb.WriteString("    --fasta_paths=\"$input\" \\\n")
	fmt.Fprintf(&sb, "    --output_dir=%s \\\n", outDir)
	sb.WriteString("    --data_dir=\"$db_dir\" \\\n")

	for _, db := range databaseFlags(opts.Databases) {
		q, err := shellQuote(db.path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "    --%s=\"$db_dir\"/%s \\\n", db.name, q)
	}

	for i, f := range flags {
		q, err := shellQuote(f.value)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "    --%s=%s", f.name, q)
		if i < len(flags)-1 {
			sb.WriteString(" \\")
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

type databaseFlag struct {
	name string
	path string
}

func databaseFlags(p DatabasePaths) []databaseFlag {
	all := []databaseFlag{
		{"bfd_database_path", p.BFD},
		{"mgnify_database_path", p.MGnify},
		{"template_mmcif_dir", p.TemplateMMCIF},
		{"obsolete_pdbs_path", p.ObsoletePDBs},
		{"pdb70_database_path", p.PDB70},
		{"uniref30_database_path", p.UniRef30},
		{"uniref90_database_path", p.UniRef90},
	}
	var flags []databaseFlag
	for _, f := range all {
		if f.path != "" {
			flags = append(flags, f)
		}
	}
	return flags
}

// shellQuote quotes s for bash only when needed.
func shellQuote(s string) (string, error) {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'\\$`!*?[]{}()<>|&;#~") {
		return s, nil
	}
	return syntax.Quote(s, syntax.LangBash)
}

func pythonBool(b bool) string {
	s := strconv.FormatBool(b)
	return strings.ToUpper(s[:1]) + s[1:]
}
