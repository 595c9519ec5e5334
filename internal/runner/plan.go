package runner

import (
	"context"

	"github.com/foldwork/foldwork/internal/core"
)

// PlannedStep is the step an entity would run, or why it cannot run.
type PlannedStep struct {
	Entity string     `json:"entity" yaml:"entity"`
	Source string     `json:"source" yaml:"source"`
	Step   *core.Step `json:"step,omitempty" yaml:"step,omitempty"`
	Error  string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Plan builds the steps of the workflow selected by mode without executing
// them. Fatal errors are the same as for Run.
func (r *Runner) Plan(_ context.Context, mode string) ([]PlannedStep, error) {
	m, err := core.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	jobs, err := r.jobs(m)
	if err != nil {
		return nil, err
	}

	entities := resolveEntities(jobs)
	planned := make([]PlannedStep, len(jobs))
	for i, j := range jobs {
		p := PlannedStep{Entity: fallbackName(entities[i], j), Source: j.source}
		if err := entities[i].err; err != nil {
			p.Error = err.Error()
			planned[i] = p
			continue
		}
		step, err := j.build(entities[i].name)
		if err != nil {
			p.Error = err.Error()
		} else if err := step.Validate(); err != nil {
			p.Step = &step
			p.Error = err.Error()
		} else {
			p.Step = &step
		}
		planned[i] = p
	}
	return planned, nil
}
