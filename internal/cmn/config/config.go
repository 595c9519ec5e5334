package config

import (
	"fmt"
	"time"

	"mvdan.cc/sh/v3/shell"
)

// Config holds the validated configuration of a run.
type Config struct {
	Core    Core
	Paths   PathsConfig
	Mode    string
	Report  Report
	Predict Predict
	Align   Align
	Slurm   Slurm

	// Warnings collects non-fatal problems found while loading.
	Warnings []string
}

// Core contains the global settings.
type Core struct {
	Debug     bool
	LogFormat string
}

// PathsConfig contains the directories used by a run.
type PathsConfig struct {
	WorkDir        string
	LogDir         string
	ConfigFileUsed string
}

// Report configures the final outcome report.
type Report struct {
	Format string
}

// Predict holds the prediction inputs. All paths except OutDir are absolute.
// OutDir is relative to the step working directory.
type Predict struct {
	InputDir   string
	ScratchDir string
	SIFPath    string
	DBDir      string
	OutDir     string
	AlphaFold  AlphaFold
}

// AlphaFold holds the options passed to run_alphafold.py.
type AlphaFold struct {
	DBPreset        string
	ModelPreset     string
	MaxTemplateDate string
	UseGPURelax     bool
	Binds           []string
}

// Align holds the alignment inputs.
type Align struct {
	InputPDBs     []string
	AlignmentDirs []string
	Extension     string
}

// Slurm configures batch submission.
type Slurm struct {
	Sbatch string
	Args   string
}

const (
	LogFormatText = "text"
	LogFormatJSON = "json"

	ReportFormatTable = "table"
	ReportFormatJSON  = "json"
	ReportFormatYAML  = "yaml"

	dateLayout = "2006-01-02"
)

// Validate performs basic validation on the configuration.
func (c *Config) Validate() error {
	if err := c.validateCore(); err != nil {
		return err
	}
	if err := c.validatePredict(); err != nil {
		return err
	}
	if err := c.validateAlign(); err != nil {
		return err
	}
	return c.validateSlurm()
}

func (c *Config) validateCore() error {
	switch c.Core.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("invalid log_format %q: must be %q or %q", c.Core.LogFormat, LogFormatText, LogFormatJSON)
	}
	switch c.Report.Format {
	case ReportFormatTable, ReportFormatJSON, ReportFormatYAML:
	default:
		return fmt.Errorf("invalid report_format %q: must be one of table, json, yaml", c.Report.Format)
	}
	if c.Paths.WorkDir == "" {
		return fmt.Errorf("work_dir must not be empty")
	}
	return nil
}

func (c *Config) validatePredict() error {
	if d := c.Predict.AlphaFold.MaxTemplateDate; d != "" {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return fmt.Errorf("invalid predict.max_template_date %q: expected YYYY-MM-DD", d)
		}
	}
	if c.Predict.OutDir == "" {
		return fmt.Errorf("predict.out_dir must not be empty")
	}
	return nil
}

func (c *Config) validateAlign() error {
	if c.Align.Extension == "" {
		return fmt.Errorf("align.extension must not be empty")
	}
	return nil
}

func (c *Config) validateSlurm() error {
	if c.Slurm.Sbatch == "" {
		return fmt.Errorf("slurm.sbatch must not be empty")
	}
	if _, err := shell.Fields(c.Slurm.Args, nil); err != nil {
		return fmt.Errorf("invalid slurm.args %q: %w", c.Slurm.Args, err)
	}
	return nil
}
