package core

import (
	"fmt"
	"strings"
)

// ExecutorType selects the backend that runs a step.
type ExecutorType string

const (
	// ExecutorDirect runs the step script on the local host.
	ExecutorDirect ExecutorType = "direct"
	// ExecutorSlurm submits the step script to the SLURM cluster scheduler.
	ExecutorSlurm ExecutorType = "slurm"
)

// String implements fmt.Stringer.
func (e ExecutorType) String() string {
	return string(e)
}

// IsValid reports whether e is one of the known executor types.
func (e ExecutorType) IsValid() bool {
	switch e {
	case ExecutorDirect, ExecutorSlurm:
		return true
	default:
		return false
	}
}

// DependencyImplicit marks a step as having external requirements that are
// not named individually (modules loaded by the cluster environment, GPUs).
// The execution service never looks it up on PATH.
const DependencyImplicit = "!"

// Step is a declarative description of one external tool invocation.
// A step is built once by a builder in internal/steps and handed to an
// execution service, which must treat it as read-only.
type Step struct {
	// Name is unique within a run. It is also used as the name of the
	// step's working directory.
	Name string `json:"name" yaml:"name"`
	// Description is a human readable summary. This is optional.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Executor selects the execution backend.
	Executor ExecutorType `json:"executor" yaml:"executor"`
	// Args are passed to the script as positional parameters.
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`
	// Inputs are the paths the step reads. They must exist before the step runs.
	Inputs []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	// Outputs are the paths the step must produce. Relative paths are
	// resolved against the step's working directory.
	Outputs []string `json:"outputs" yaml:"outputs"`
	// Dependencies are the external programs the step requires.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	// Env contains KEY=VALUE bindings the script refers to.
	Env []string `json:"env,omitempty" yaml:"env,omitempty"`
	// Script is the shell script body.
	Script string `json:"script" yaml:"script"`
}

// String returns a formatted string representation of the step
func (s Step) String() string {
	fields := []struct {
		name  string
		value string
	}{
		{"Name", s.Name},
		{"Executor", s.Executor.String()},
		{"Inputs", fmt.Sprintf("[%s]", strings.Join(s.Inputs, ", "))},
		{"Outputs", fmt.Sprintf("[%s]", strings.Join(s.Outputs, ", "))},
		{"Dependencies", fmt.Sprintf("[%s]", strings.Join(s.Dependencies, ", "))},
	}

	var parts []string
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field.name, field.value))
	}

	return strings.Join(parts, "\t")
}

// NamedDependencies returns the dependencies that can be resolved on PATH,
// leaving out the implicit marker.
func (s Step) NamedDependencies() []string {
	var deps []string
	for _, d := range s.Dependencies {
		if d == DependencyImplicit || d == "" {
			continue
		}
		deps = append(deps, d)
	}
	return deps
}

