// Package direct runs step scripts in-process with a POSIX shell
// interpreter.
package direct

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/foldwork/foldwork/internal/core"
	"github.com/foldwork/foldwork/internal/runtime/executor"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
)

var _ executor.Executor = (*directExecutor)(nil)
var _ executor.ExitCoder = (*directExecutor)(nil)

type directExecutor struct {
	mu       sync.Mutex
	step     core.Step
	env      executor.Environment
	stdout   io.Writer
	stderr   io.Writer
	exitCode int
}

// New creates an executor that interprets the step script with the step
// args as positional parameters.
func New(_ context.Context, step core.Step, env executor.Environment) (executor.Executor, error) {
	return &directExecutor{
		step:   step,
		env:    env,
		stdout: io.Discard,
		stderr: io.Discard,
	}, nil
}

// ExitCode implements ExitCoder.
func (e *directExecutor) ExitCode() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exitCode
}

func (e *directExecutor) SetStdout(out io.Writer) {
	e.stdout = out
}

func (e *directExecutor) SetStderr(out io.Writer) {
	e.stderr = out
}

func (e *directExecutor) Run(ctx context.Context) error {
	file, err := core.ParseScript(e.step.Name, e.step.Script)
	if err != nil {
		return fmt.Errorf("failed to parse script: %w", err)
	}

	runner, err := interp.New(
		interp.Env(expand.ListEnviron(e.env.Env...)),
		interp.StdIO(nil, e.stdout, e.stderr),
		interp.Dir(e.env.Dir),
		interp.Params(append([]string{"--"}, e.step.Args...)...),
	)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	err = runner.Run(ctx, file)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.exitCode = exitCodeFromError(err)
	return err
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var status interp.ExitStatus
	if errors.As(err, &status) {
		return int(status)
	}
	return 1
}

func init() {
	executor.RegisterExecutor(core.ExecutorDirect, New)
}
