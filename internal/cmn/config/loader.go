package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/foldwork/foldwork/internal/build"
	"github.com/foldwork/foldwork/internal/cmn/fileutil"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// ConfigLoader is responsible for reading and merging configuration from
// the config file, dotenv files and the environment.
type ConfigLoader struct {
	v          *viper.Viper
	configFile string
	configDir  string
	dotEnv     []string
	warnings   []string
}

// ConfigLoaderOption defines a functional option for configuring a ConfigLoader.
type ConfigLoaderOption func(*ConfigLoader)

// WithConfigFile returns a ConfigLoaderOption that sets the configuration file path.
func WithConfigFile(configFile string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.configFile = configFile
	}
}

// WithConfigDir overrides the directory searched for config.yaml.
func WithConfigDir(dir string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.configDir = dir
	}
}

// WithDotEnv loads the given dotenv files into the process environment
// before the environment overrides are applied. Existing variables win.
func WithDotEnv(files ...string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.dotEnv = append(l.dotEnv, files...)
	}
}

// NewConfigLoader creates a ConfigLoader with the given viper instance and options.
func NewConfigLoader(v *viper.Viper, options ...ConfigLoaderOption) *ConfigLoader {
	loader := &ConfigLoader{v: v}
	for _, opt := range options {
		opt(loader)
	}
	return loader
}

// Load loads the configuration using the global viper instance.
func Load(opts ...ConfigLoaderOption) (*Config, error) {
	return NewConfigLoader(viper.GetViper(), opts...).Load()
}

// Load reads configuration files, applies defaults and environment overrides,
// and returns a validated Config instance.
func (l *ConfigLoader) Load() (*Config, error) {
	if len(l.dotEnv) > 0 {
		if err := godotenv.Load(l.dotEnv...); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	configDir := l.configDir
	if configDir == "" {
		configDir = filepath.Join(xdg.ConfigHome, build.Slug)
	}
	l.setupViper(configDir, l.configFile)

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var def Definition
	if err := l.v.Unmarshal(&def, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg, err := l.buildConfig(def)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}

func (l *ConfigLoader) buildConfig(def Definition) (*Config, error) {
	var cfg Config

	cfg.Mode = strings.TrimSpace(def.Mode)
	cfg.Core.Debug = def.Debug
	cfg.Core.LogFormat = strings.ToLower(def.LogFormat)
	cfg.Report.Format = strings.ToLower(def.ReportFormat)

	if err := l.loadPathsConfig(&cfg, def); err != nil {
		return nil, err
	}
	if err := l.loadPredictConfig(&cfg, def.Predict); err != nil {
		return nil, err
	}
	if err := l.loadAlignConfig(&cfg, def.Align); err != nil {
		return nil, err
	}

	cfg.Slurm = Slurm{
		Sbatch: def.Slurm.Sbatch,
		Args:   strings.TrimSpace(def.Slurm.Args),
	}
	cfg.Warnings = l.warnings

	return &cfg, nil
}

func (l *ConfigLoader) loadPathsConfig(cfg *Config, def Definition) error {
	var err error
	if cfg.Paths.WorkDir, err = l.resolvePath("work_dir", def.WorkDir); err != nil {
		return err
	}
	if def.LogDir == "" {
		cfg.Paths.LogDir = filepath.Join(cfg.Paths.WorkDir, "logs")
	} else if cfg.Paths.LogDir, err = l.resolvePath("log_dir", def.LogDir); err != nil {
		return err
	}
	if cfg.Paths.ConfigFileUsed, err = l.resolvePath("config file", l.v.ConfigFileUsed()); err != nil {
		return err
	}
	return nil
}

func (l *ConfigLoader) loadPredictConfig(cfg *Config, def PredictDef) error {
	paths := []struct {
		name   string
		value  string
		target *string
	}{
		{"predict.input_dir", def.InputDir, &cfg.Predict.InputDir},
		{"predict.scratch_dir", def.ScratchDir, &cfg.Predict.ScratchDir},
		{"predict.sif_path", def.SIFPath, &cfg.Predict.SIFPath},
		{"predict.db_dir", def.DBDir, &cfg.Predict.DBDir},
	}
	for _, p := range paths {
		resolved, err := l.resolvePath(p.name, p.value)
		if err != nil {
			return err
		}
		*p.target = resolved
	}

	// The output directory is written by the tool relative to its own
	// working directory, so it is kept as configured.
	if def.OutDir != "" {
		cfg.Predict.OutDir = filepath.Clean(def.OutDir)
	}
	if filepath.IsAbs(cfg.Predict.OutDir) {
		l.warnings = append(l.warnings, fmt.Sprintf("predict.out_dir %q is absolute; outputs of all entities share it", def.OutDir))
	}

	cfg.Predict.AlphaFold = AlphaFold{
		DBPreset:        def.DBPreset,
		ModelPreset:     def.ModelPreset,
		MaxTemplateDate: def.MaxTemplateDate,
		UseGPURelax:     def.UseGPURelax,
		Binds:           parseStringList(def.Binds),
	}
	return nil
}

func (l *ConfigLoader) loadAlignConfig(cfg *Config, def AlignDef) error {
	var err error
	if cfg.Align.InputPDBs, err = l.resolvePaths("align.input_pdbs", parseStringList(def.InputPDBs)); err != nil {
		return err
	}
	if cfg.Align.AlignmentDirs, err = l.resolvePaths("align.alignment_dirs", parseStringList(def.AlignmentDirs)); err != nil {
		return err
	}
	cfg.Align.Extension = strings.TrimPrefix(strings.TrimSpace(def.Extension), ".")
	return nil
}

// resolvePath resolves a path to an absolute path. Empty paths are returned as-is.
func (l *ConfigLoader) resolvePath(fieldName, pathValue string) (string, error) {
	if pathValue == "" {
		return "", nil
	}
	resolved, err := fileutil.ResolvePath(pathValue)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s path %q: %w", fieldName, pathValue, err)
	}
	return resolved, nil
}

func (l *ConfigLoader) resolvePaths(fieldName string, values []string) ([]string, error) {
	resolved := make([]string, 0, len(values))
	for i, v := range values {
		p, err := l.resolvePath(fmt.Sprintf("%s[%d]", fieldName, i), v)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, p)
	}
	return resolved, nil
}

func (l *ConfigLoader) setupViper(configDir, configFile string) {
	l.configureViper(configDir, configFile)
	l.setViperDefaultValues()
}

func (l *ConfigLoader) configureViper(configDir, configFile string) {
	if configFile == "" {
		l.v.AddConfigPath(configDir)
		l.v.SetConfigName("config")
	} else {
		l.v.SetConfigFile(configFile)
	}
	l.v.SetConfigType("yaml")
	l.v.SetEnvPrefix(strings.ToUpper(build.Slug))
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()
}

// setViperDefaultValues registers every key so that AutomaticEnv can
// override keys that are absent from the config file.
func (l *ConfigLoader) setViperDefaultValues() {
	l.v.SetDefault("mode", "")
	l.v.SetDefault("debug", false)
	l.v.SetDefault("log_format", LogFormatText)
	l.v.SetDefault("work_dir", "work")
	l.v.SetDefault("log_dir", "")
	l.v.SetDefault("report_format", ReportFormatTable)

	l.v.SetDefault("predict.input_dir", "")
	l.v.SetDefault("predict.scratch_dir", "")
	l.v.SetDefault("predict.sif_path", "")
	l.v.SetDefault("predict.db_dir", "")
	l.v.SetDefault("predict.out_dir", "out")
	l.v.SetDefault("predict.db_preset", "full_dbs")
	l.v.SetDefault("predict.model_preset", "monomer")
	l.v.SetDefault("predict.max_template_date", "2023-12-31")
	l.v.SetDefault("predict.use_gpu_relax", true)
	l.v.SetDefault("predict.binds", []string{"/arc/project", "/scratch", "/cvmfs"})

	l.v.SetDefault("align.input_pdbs", []string{})
	l.v.SetDefault("align.alignment_dirs", []string{})
	l.v.SetDefault("align.extension", "pdb")

	l.v.SetDefault("slurm.sbatch", "sbatch")
	l.v.SetDefault("slurm.args", "")
}

// parseStringList trims entries and drops empty ones.
func parseStringList(input []string) []string {
	return lo.FilterMap(input, func(s string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(s)
		return trimmed, trimmed != ""
	})
}
