// Package slurm submits step scripts to a SLURM cluster and waits for the
// job to finish.
package slurm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/foldwork/foldwork/internal/cmn/fileutil"
	"github.com/foldwork/foldwork/internal/cmn/logger"
	"github.com/foldwork/foldwork/internal/cmn/logger/tag"
	"github.com/foldwork/foldwork/internal/core"
	"github.com/foldwork/foldwork/internal/runtime/executor"
	"mvdan.cc/sh/v3/shell"
)

var errNoJobID = errors.New("sbatch did not report a job id")

var _ executor.Executor = (*slurmExecutor)(nil)
var _ executor.ExitCoder = (*slurmExecutor)(nil)

type slurmExecutor struct {
	mu       sync.Mutex
	step     core.Step
	env      executor.Environment
	extra    []string
	stdout   io.Writer
	stderr   io.Writer
	jobID    string
	exitCode int
}

// New creates an executor that renders the step script as a batch script
// and submits it with sbatch --wait.
func New(_ context.Context, step core.Step, env executor.Environment) (executor.Executor, error) {
	extra, err := shell.Fields(env.Slurm.Args, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid sbatch args %q: %w", env.Slurm.Args, err)
	}
	if env.Slurm.Sbatch == "" {
		env.Slurm.Sbatch = "sbatch"
	}
	return &slurmExecutor{
		step:   step,
		env:    env,
		extra:  extra,
		stdout: io.Discard,
		stderr: io.Discard,
	}, nil
}

// ExitCode implements ExitCoder.
func (e *slurmExecutor) ExitCode() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exitCode
}

func (e *slurmExecutor) SetStdout(out io.Writer) {
	e.stdout = out
}

func (e *slurmExecutor) SetStderr(out io.Writer) {
	e.stderr = out
}

func (e *slurmExecutor) Run(ctx context.Context) error {
	scriptFile := filepath.Join(e.env.Dir, fileutil.SafeName(e.step.Name)+".sbatch")
	if err := os.WriteFile(scriptFile, []byte(BatchScript(e.step, e.env.Dir, e.extra)), 0600); err != nil {
		return fmt.Errorf("failed to write batch script: %w", err)
	}

	args := append([]string{"--parsable", "--wait", scriptFile}, e.step.Args...)
	cmd := exec.CommandContext(ctx, e.env.Slurm.Sbatch, args...) // nolint: gosec
	cmd.Dir = e.env.Dir
	cmd.Env = e.env.Env

	var submitted bytes.Buffer
	cmd.Stdout = io.MultiWriter(&submitted, e.stdout)
	cmd.Stderr = e.stderr

	logger.Debug(ctx, "Submitting batch job", tag.File(scriptFile))
	err := cmd.Run()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.jobID = parseJobID(submitted.String())
	if e.jobID != "" {
		logger.Info(ctx, "Batch job completed", tag.JobID(e.jobID), tag.ExitCode(exitCodeFromError(err)))
	}

	if err != nil {
		e.exitCode = exitCodeFromError(err)
		return fmt.Errorf("sbatch: %w", err)
	}
	if e.jobID == "" {
		e.exitCode = 1
		return errNoJobID
	}
	return nil
}

// BatchScript renders the batch script submitted for step.
func BatchScript(step core.Step, dir string, extra []string) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/bash\n")
	fmt.Fprintf(&sb, "#SBATCH --job-name=%s\n", fileutil.SafeName(step.Name))
	fmt.Fprintf(&sb, "#SBATCH --output=%s\n", filepath.Join(dir, "slurm-%j.out"))
	fmt.Fprintf(&sb, "#SBATCH --chdir=%s\n", dir)
	for _, arg := range extra {
		fmt.Fprintf(&sb, "#SBATCH %s\n", arg)
	}
	sb.WriteString("\n")
	sb.WriteString(step.Script)
	if !strings.HasSuffix(step.Script, "\n") {
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseJobID extracts the job id from sbatch --parsable output, which is
// "<id>" or "<id>;<cluster>" on the first line.
func parseJobID(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	id, _, _ := strings.Cut(strings.TrimSpace(line), ";")
	return id
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

func init() {
	executor.RegisterExecutor(core.ExecutorSlurm, New)
}
