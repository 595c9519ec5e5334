package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/foldwork/foldwork/internal/cmn/fileutil"
	"github.com/foldwork/foldwork/internal/cmn/logger"
	"github.com/foldwork/foldwork/internal/cmn/logger/tag"
	"github.com/foldwork/foldwork/internal/core"
	"github.com/gofrs/flock"
)

// Errors returned by the execution service.
var (
	ErrExecutorNotRegistered = errors.New("executor type is not registered")
	ErrDependencyNotFound    = errors.New("dependency not found")
	ErrInputNotFound         = errors.New("declared input does not exist")
	ErrOutputNotProduced     = errors.New("declared output was not produced")
	ErrStepDirLocked         = errors.New("step directory is in use by another process")
)

// Service executes a step and returns the paths of the outputs it produced.
type Service interface {
	Execute(ctx context.Context, step core.Step) ([]string, error)
}

// StepError is returned when the executor of a step fails.
type StepError struct {
	Step     string
	ExitCode int
	Tail     string
	Err      error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("step %q failed with exit code %d: %v", e.Step, e.ExitCode, e.Err)
	if e.Tail != "" {
		msg += "\nrecent stderr (tail):\n" + e.Tail
	}
	return msg
}

func (e *StepError) Unwrap() error {
	return e.Err
}

var _ Service = (*LocalService)(nil)

// LocalService runs steps on this host. Each step gets the working
// directory <workDir>/<step name>, guarded by a lock file for the duration
// of the run.
type LocalService struct {
	workDir  string
	slurm    SlurmSettings
	lookPath func(file string) (string, error)
}

// LocalServiceOption configures a LocalService.
type LocalServiceOption func(*LocalService)

// WithSlurm sets the batch submission settings.
func WithSlurm(settings SlurmSettings) LocalServiceOption {
	return func(s *LocalService) {
		s.slurm = settings
	}
}

// WithLookPath replaces exec.LookPath for dependency checks.
func WithLookPath(fn func(file string) (string, error)) LocalServiceOption {
	return func(s *LocalService) {
		s.lookPath = fn
	}
}

// NewLocalService creates a LocalService rooted at workDir.
func NewLocalService(workDir string, opts ...LocalServiceOption) *LocalService {
	s := &LocalService{
		workDir:  workDir,
		slurm:    SlurmSettings{Sbatch: "sbatch"},
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StepDirName returns the name of the working directory of the named step.
// Distinct step names can map to the same directory.
func StepDirName(name string) string {
	return fileutil.SafeName(name)
}

// StepDir returns the working directory of the named step.
func (s *LocalService) StepDir(name string) (string, error) {
	dir, err := filepath.Abs(filepath.Join(s.workDir, StepDirName(name)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return dir, nil
}

// Execute implements Service.
func (s *LocalService) Execute(ctx context.Context, step core.Step) ([]string, error) {
	ctx = logger.WithValues(ctx, tag.Step(step.Name), tag.Executor(step.Executor.String()))

	if err := step.Validate(); err != nil {
		return nil, fmt.Errorf("invalid step %q: %w", step.Name, err)
	}
	if err := s.checkDependencies(step); err != nil {
		return nil, err
	}
	if err := checkInputs(step); err != nil {
		return nil, err
	}

	dir, err := s.StepDir(step.Name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, &core.IoError{Op: "create dir", Path: dir, Err: err}
	}

	lock := flock.New(filepath.Join(dir, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrStepDirLocked, dir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn(ctx, "Failed to release step lock", tag.Dir(dir), tag.Error(err))
		}
	}()

	logFile, err := fileutil.OpenOrCreateFile(filepath.Join(dir, fileutil.SafeName(step.Name)+".log"))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = logFile.Close()
	}()

	env := Environment{
		Dir:   dir,
		Env:   append(os.Environ(), step.Env...),
		Slurm: s.slurm,
	}
	exe, err := NewExecutor(ctx, step, env)
	if err != nil {
		return nil, err
	}

	stderr := NewTailWriter(logFile, 0)
	exe.SetStdout(logFile)
	exe.SetStderr(stderr)

	logger.Info(ctx, "Step started", tag.Dir(dir), tag.File(logFile.Name()))
	start := time.Now()

	if err := exe.Run(ctx); err != nil {
		stepErr := &StepError{Step: step.Name, ExitCode: 1, Tail: stderr.Tail(), Err: err}
		if ec, ok := exe.(ExitCoder); ok {
			stepErr.ExitCode = ec.ExitCode()
		}
		logger.Error(ctx, "Step failed",
			tag.ExitCode(stepErr.ExitCode),
			tag.Duration(time.Since(start)),
			tag.Error(err),
		)
		return nil, stepErr
	}

	outputs, err := verifyOutputs(dir, step.Outputs)
	if err != nil {
		logger.Error(ctx, "Step outputs missing", tag.Error(err))
		return nil, err
	}

	logger.Info(ctx, "Step finished", tag.Duration(time.Since(start)), tag.Count(len(outputs)))
	return outputs, nil
}

func (s *LocalService) checkDependencies(step core.Step) error {
	var errs []error
	for _, dep := range step.NamedDependencies() {
		if _, err := s.lookPath(dep); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDependencyNotFound, dep))
		}
	}
	return errors.Join(errs...)
}

func checkInputs(step core.Step) error {
	var errs []error
	for _, in := range step.Inputs {
		if in == "" || !fileutil.FileExists(in) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInputNotFound, in))
		}
	}
	return errors.Join(errs...)
}

// verifyOutputs resolves the declared outputs against dir and checks that
// every one of them exists.
func verifyOutputs(dir string, outputs []string) ([]string, error) {
	paths := make([]string, 0, len(outputs))
	for _, out := range outputs {
		p := out
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		if !fileutil.FileExists(p) {
			return nil, fmt.Errorf("%w: %s", ErrOutputNotProduced, p)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
