package config

// Definition is the raw configuration as read from the config file and the
// environment. Each field maps to a configuration key.
type Definition struct {
	// Mode selects the workflow: "predict" or "align".
	Mode string `mapstructure:"mode"`

	// Debug enables debug logging.
	Debug bool `mapstructure:"debug"`

	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"log_format"`

	// WorkDir is the base directory under which every step gets its own
	// working directory.
	WorkDir string `mapstructure:"work_dir"`

	// LogDir holds the per-run log files. Defaults to <work_dir>/logs.
	LogDir string `mapstructure:"log_dir"`

	// ReportFormat is the format of the final report: table, json or yaml.
	ReportFormat string `mapstructure:"report_format"`

	Predict PredictDef `mapstructure:"predict"`
	Align   AlignDef   `mapstructure:"align"`
	Slurm   SlurmDef   `mapstructure:"slurm"`
}

// PredictDef holds the settings of the structure prediction workflow.
type PredictDef struct {
	InputDir        string   `mapstructure:"input_dir"`
	ScratchDir      string   `mapstructure:"scratch_dir"`
	SIFPath         string   `mapstructure:"sif_path"`
	DBDir           string   `mapstructure:"db_dir"`
	OutDir          string   `mapstructure:"out_dir"`
	DBPreset        string   `mapstructure:"db_preset"`
	ModelPreset     string   `mapstructure:"model_preset"`
	MaxTemplateDate string   `mapstructure:"max_template_date"`
	UseGPURelax     bool     `mapstructure:"use_gpu_relax"`
	Binds           []string `mapstructure:"binds"`
}

// AlignDef holds the settings of the structure alignment workflow.
type AlignDef struct {
	// InputPDBs and AlignmentDirs are paired by position.
	InputPDBs     []string `mapstructure:"input_pdbs"`
	AlignmentDirs []string `mapstructure:"alignment_dirs"`
	Extension     string   `mapstructure:"extension"`
}

// SlurmDef configures batch submission.
type SlurmDef struct {
	Sbatch string `mapstructure:"sbatch"`
	// Args is a shell-quoted string of extra sbatch options, e.g.
	// "--time=24:00:00 --gres=gpu:1".
	Args string `mapstructure:"args"`
}
