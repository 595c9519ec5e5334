package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoad(t *testing.T, opts ...ConfigLoaderOption) *Config {
	t.Helper()
	opts = append([]ConfigLoaderOption{WithConfigDir(t.TempDir())}, opts...)
	cfg, err := NewConfigLoader(viper.New(), opts...).Load()
	require.NoError(t, err)
	return cfg
}

func testLoadWithError(t *testing.T, opts ...ConfigLoaderOption) error {
	t.Helper()
	opts = append([]ConfigLoaderOption{WithConfigDir(t.TempDir())}, opts...)
	_, err := NewConfigLoader(viper.New(), opts...).Load()
	return err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0600))
	return file
}

func TestLoad_Defaults(t *testing.T) {
	cfg := testLoad(t)

	cwd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Mode)
	assert.False(t, cfg.Core.Debug)
	assert.Equal(t, LogFormatText, cfg.Core.LogFormat)
	assert.Equal(t, ReportFormatTable, cfg.Report.Format)
	assert.Equal(t, filepath.Join(cwd, "work"), cfg.Paths.WorkDir)
	assert.Equal(t, filepath.Join(cwd, "work", "logs"), cfg.Paths.LogDir)
	assert.Empty(t, cfg.Paths.ConfigFileUsed)

	assert.Equal(t, "out", cfg.Predict.OutDir)
	assert.Equal(t, AlphaFold{
		DBPreset:        "full_dbs",
		ModelPreset:     "monomer",
		MaxTemplateDate: "2023-12-31",
		UseGPURelax:     true,
		Binds:           []string{"/arc/project", "/scratch", "/cvmfs"},
	}, cfg.Predict.AlphaFold)

	assert.Empty(t, cfg.Align.InputPDBs)
	assert.Empty(t, cfg.Align.AlignmentDirs)
	assert.Equal(t, "pdb", cfg.Align.Extension)
	assert.Equal(t, "sbatch", cfg.Slurm.Sbatch)
}

func TestLoad_ConfigFile(t *testing.T) {
	base := t.TempDir()
	file := writeConfig(t, `
mode: align
debug: true
log_format: json
work_dir: `+base+`/work
report_format: yaml
predict:
  input_dir: `+base+`/fasta
  scratch_dir: `+base+`/scratch
  sif_path: `+base+`/alphafold.sif
  db_dir: `+base+`/db
  model_preset: multimer
  use_gpu_relax: false
  binds: [/data]
align:
  input_pdbs:
    - `+base+`/a.pdb
    - `+base+`/b.pdb
  alignment_dirs:
    - `+base+`/a
    - `+base+`/b
  extension: .cif
slurm:
  sbatch: /opt/slurm/bin/sbatch
  args: --time=24:00:00 --gres=gpu:1
`)

	cfg := testLoad(t, WithConfigFile(file))

	assert.Equal(t, "align", cfg.Mode)
	assert.True(t, cfg.Core.Debug)
	assert.Equal(t, LogFormatJSON, cfg.Core.LogFormat)
	assert.Equal(t, ReportFormatYAML, cfg.Report.Format)
	assert.Equal(t, filepath.Join(base, "work"), cfg.Paths.WorkDir)
	assert.Equal(t, filepath.Join(base, "work", "logs"), cfg.Paths.LogDir)
	assert.Equal(t, file, cfg.Paths.ConfigFileUsed)

	assert.Equal(t, filepath.Join(base, "fasta"), cfg.Predict.InputDir)
	assert.Equal(t, filepath.Join(base, "scratch"), cfg.Predict.ScratchDir)
	assert.Equal(t, filepath.Join(base, "alphafold.sif"), cfg.Predict.SIFPath)
	assert.Equal(t, filepath.Join(base, "db"), cfg.Predict.DBDir)
	assert.Equal(t, "multimer", cfg.Predict.AlphaFold.ModelPreset)
	assert.Equal(t, "full_dbs", cfg.Predict.AlphaFold.DBPreset)
	assert.False(t, cfg.Predict.AlphaFold.UseGPURelax)
	assert.Equal(t, []string{"/data"}, cfg.Predict.AlphaFold.Binds)

	assert.Equal(t, []string{filepath.Join(base, "a.pdb"), filepath.Join(base, "b.pdb")}, cfg.Align.InputPDBs)
	assert.Equal(t, []string{filepath.Join(base, "a"), filepath.Join(base, "b")}, cfg.Align.AlignmentDirs)
	assert.Equal(t, "cif", cfg.Align.Extension)

	assert.Equal(t, "/opt/slurm/bin/sbatch", cfg.Slurm.Sbatch)
	assert.Equal(t, "--time=24:00:00 --gres=gpu:1", cfg.Slurm.Args)
}

func TestLoad_ConfigDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("mode: predict\n"), 0600))

	cfg, err := NewConfigLoader(viper.New(), WithConfigDir(dir)).Load()
	require.NoError(t, err)
	assert.Equal(t, "predict", cfg.Mode)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.Paths.ConfigFileUsed)
}

func TestLoad_Env(t *testing.T) {
	base := t.TempDir()
	t.Setenv("FOLDWORK_MODE", "align")
	t.Setenv("FOLDWORK_DEBUG", "true")
	t.Setenv("FOLDWORK_LOG_DIR", filepath.Join(base, "logs"))
	t.Setenv("FOLDWORK_ALIGN_INPUT_PDBS", filepath.Join(base, "a.pdb")+","+filepath.Join(base, "b.pdb"))
	t.Setenv("FOLDWORK_ALIGN_ALIGNMENT_DIRS", filepath.Join(base, "a")+", "+filepath.Join(base, "b"))
	t.Setenv("FOLDWORK_PREDICT_USE_GPU_RELAX", "false")
	t.Setenv("FOLDWORK_SLURM_ARGS", "--partition=gpu")

	cfg := testLoad(t)

	assert.Equal(t, "align", cfg.Mode)
	assert.True(t, cfg.Core.Debug)
	assert.Equal(t, filepath.Join(base, "logs"), cfg.Paths.LogDir)
	assert.Equal(t, []string{filepath.Join(base, "a.pdb"), filepath.Join(base, "b.pdb")}, cfg.Align.InputPDBs)
	assert.Equal(t, []string{filepath.Join(base, "a"), filepath.Join(base, "b")}, cfg.Align.AlignmentDirs)
	assert.False(t, cfg.Predict.AlphaFold.UseGPURelax)
	assert.Equal(t, "--partition=gpu", cfg.Slurm.Args)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	file := writeConfig(t, "mode: predict\nreport_format: json\n")
	t.Setenv("FOLDWORK_MODE", "align")

	cfg := testLoad(t, WithConfigFile(file))
	assert.Equal(t, "align", cfg.Mode)
	assert.Equal(t, ReportFormatJSON, cfg.Report.Format)
}

func TestLoad_DotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FOLDWORK_REPORT_FORMAT=yaml\n"), 0600))
	// Register the variable with t.Setenv so it is restored after the test,
	// then clear it so godotenv can set it.
	t.Setenv("FOLDWORK_REPORT_FORMAT", "")
	require.NoError(t, os.Unsetenv("FOLDWORK_REPORT_FORMAT"))

	cfg := testLoad(t, WithDotEnv(envFile))
	assert.Equal(t, ReportFormatYAML, cfg.Report.Format)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("MissingDotEnv", func(t *testing.T) {
		err := testLoadWithError(t, WithDotEnv(filepath.Join(t.TempDir(), "missing.env")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load env file")
	})

	t.Run("MissingConfigFile", func(t *testing.T) {
		err := testLoadWithError(t, WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config")
	})

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"LogFormat", "log_format: xml\n", "invalid log_format"},
		{"ReportFormat", "report_format: html\n", "invalid report_format"},
		{"TemplateDate", "predict:\n  max_template_date: 31/12/2023\n", "invalid predict.max_template_date"},
		{"Extension", "align:\n  extension: \"\"\n", "align.extension must not be empty"},
		{"OutDir", "predict:\n  out_dir: \"\"\n", "predict.out_dir must not be empty"},
		{"Sbatch", "slurm:\n  sbatch: \"\"\n", "slurm.sbatch must not be empty"},
		{"SlurmArgs", "slurm:\n  args: \"--comment='unterminated\"\n", "invalid slurm.args"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testLoadWithError(t, WithConfigFile(writeConfig(t, tt.content)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_AbsoluteOutDirWarning(t *testing.T) {
	cfg := testLoad(t, WithConfigFile(writeConfig(t, "predict:\n  out_dir: /shared/out\n")))
	assert.Equal(t, "/shared/out", cfg.Predict.OutDir)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "absolute")
}
