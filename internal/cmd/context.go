package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/foldwork/foldwork/internal/cmn/config"
	"github.com/foldwork/foldwork/internal/cmn/fileutil"
	"github.com/foldwork/foldwork/internal/cmn/logger"
	"github.com/foldwork/foldwork/internal/cmn/logger/tag"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Context holds the configuration for a command.
type Context struct {
	context.Context

	Command *cobra.Command
	Flags   []commandLineFlag
	Config  *config.Config
	Quiet   bool
}

// NewContext initializes the application setup by loading configuration,
// setting up logger context, and logging any warnings.
func NewContext(cmd *cobra.Command, flags []commandLineFlag) (*Context, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	v := viper.New()
	if err := bindFlags(v, cmd, flags...); err != nil {
		return nil, err
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	var loaderOpts []config.ConfigLoaderOption
	if cfgPath, _ := cmd.Flags().GetString("config"); cfgPath != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(cfgPath))
	}
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		loaderOpts = append(loaderOpts, config.WithDotEnv(envFile))
	}

	cfg, err := config.NewConfigLoader(v, loaderOpts...).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	c := &Context{
		Context: ctx,
		Command: cmd,
		Flags:   flags,
		Config:  cfg,
		Quiet:   quiet,
	}
	c.LogToFile(nil)

	for _, w := range cfg.Warnings {
		logger.Warn(c, w)
	}

	return c, nil
}

// LogToFile replaces the logger of the context with one that also writes
// to f. A nil f logs to the console only.
func (c *Context) LogToFile(f *os.File) {
	opts := []logger.Option{
		logger.WithConsole(c.Command.ErrOrStderr(), c.Command.OutOrStdout()),
		logger.WithFormat(c.Config.Core.LogFormat),
	}
	if c.Config.Core.Debug || os.Getenv("DEBUG") != "" {
		opts = append(opts, logger.WithDebug())
	}
	if c.Quiet {
		opts = append(opts, logger.WithQuiet())
	}
	if f != nil {
		opts = append(opts, logger.WithWriter(f))
	}
	c.Context = logger.WithLogger(c.Context, logger.NewLogger(opts...))
}

// OpenLogFile creates the run log file <log dir>/<name>_<run id>.log.
func (c *Context) OpenLogFile(name, runID string) (*os.File, error) {
	dir := c.Config.Paths.LogDir
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	return fileutil.OpenOrCreateFile(filepath.Join(dir, fileutil.SafeName(name+"_"+runID)+".log"))
}

// NewCommand creates a new command instance with the given cobra command and run function.
func NewCommand(cmd *cobra.Command, flags []commandLineFlag, runFunc func(ctx *Context, args []string) error) *cobra.Command {
	flags = append(append([]commandLineFlag{}, commonFlags...), flags...)
	initFlags(cmd, flags...)
	cmd.SilenceUsage = true
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, err := NewContext(cmd, flags)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Initialization error: %v\n", err)
			return err
		}
		if err := runFunc(ctx, args); err != nil {
			logger.Error(ctx, "Command failed", tag.Error(err))
			return err
		}
		return nil
	}
	return cmd
}

// genRunID creates a new UUID string to be used as a run identifier.
func genRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
