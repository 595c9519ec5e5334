package executor

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/foldwork/foldwork/internal/cmn/logger"
	"github.com/foldwork/foldwork/internal/cmn/logger/tag"
	"github.com/foldwork/foldwork/internal/core"
)

// Executor runs the script of one step.
type Executor interface {
	SetStdout(out io.Writer)
	SetStderr(out io.Writer)
	Run(ctx context.Context) error
}

// ExitCoder is an interface for executors that can return an exit code.
type ExitCoder interface {
	ExitCode() int
}

// Environment is what an executor needs to know about the run besides the
// step itself.
type Environment struct {
	// Dir is the absolute working directory of the step.
	Dir string
	// Env is the complete environment of the step in key=value form.
	Env []string
	// Slurm configures batch submission.
	Slurm SlurmSettings
}

// SlurmSettings configures the batch submission command.
type SlurmSettings struct {
	Sbatch string
	// Args is a shell-quoted string of extra sbatch options.
	Args string
}

// ExecutorFactory is a function type that creates an Executor based on the step configuration.
type ExecutorFactory func(ctx context.Context, step core.Step, env Environment) (Executor, error)

var (
	registryMu       sync.RWMutex
	executorRegistry = make(map[core.ExecutorType]ExecutorFactory)
)

// RegisterExecutor registers the factory of an executor type.
func RegisterExecutor(executorType core.ExecutorType, factory ExecutorFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	executorRegistry[executorType] = factory
}

// NewExecutor creates a new Executor based on the step's executor type.
func NewExecutor(ctx context.Context, step core.Step, env Environment) (Executor, error) {
	registryMu.RLock()
	factory, ok := executorRegistry[step.Executor]
	registryMu.RUnlock()
	if ok {
		return factory(ctx, step, env)
	}

	logger.Error(ctx, "Executor type is not registered",
		tag.Executor(step.Executor.String()),
		tag.Step(step.Name),
	)
	return nil, fmt.Errorf("%w: %q", ErrExecutorNotRegistered, step.Executor)
}
