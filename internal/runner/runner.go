// Package runner selects the workflow of a run, builds one step per entity
// and dispatches them to the execution service.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/foldwork/foldwork/internal/cmn/config"
	"github.com/foldwork/foldwork/internal/cmn/logger"
	"github.com/foldwork/foldwork/internal/cmn/logger/tag"
	"github.com/foldwork/foldwork/internal/core"
	"github.com/foldwork/foldwork/internal/dispatch"
	"github.com/foldwork/foldwork/internal/runtime/executor"
)

// Runner runs the prediction or the alignment workflow over a batch of
// entities.
type Runner struct {
	cfg *config.Config
	svc executor.Service
}

// New creates a Runner that executes steps with svc.
func New(cfg *config.Config, svc executor.Service) *Runner {
	return &Runner{cfg: cfg, svc: svc}
}

// Run runs the workflow selected by mode. The returned error is fatal and
// means no entity was dispatched; per-entity failures are reported in the
// result.
func (r *Runner) Run(ctx context.Context, mode string) (core.DispatchResult, error) {
	m, err := core.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithValues(ctx, tag.Mode(string(m)))

	jobs, err := r.jobs(m)
	if err != nil {
		return nil, err
	}
	return r.dispatch(ctx, jobs), nil
}

// Predict runs the prediction workflow.
func (r *Runner) Predict(ctx context.Context) (core.DispatchResult, error) {
	return r.Run(ctx, string(core.ModePredict))
}

// Align runs the alignment workflow.
func (r *Runner) Align(ctx context.Context) (core.DispatchResult, error) {
	return r.Run(ctx, string(core.ModeAlign))
}

func (r *Runner) dispatch(ctx context.Context, jobs []job) core.DispatchResult {
	entities := resolveEntities(jobs)

	logger.Info(ctx, "Run started", tag.Count(len(jobs)))
	start := time.Now()

	result := dispatch.Run(ctx, jobs, func(ctx context.Context, i int, j job) core.Outcome {
		e := entities[i]
		if e.err != nil {
			logger.Warn(ctx, "Skipping entity", tag.Path(j.source), tag.Error(e.err))
			return core.Failed(e.name, e.err)
		}

		ctx = logger.WithValues(ctx, tag.Entity(e.name))
		logger.Write(ctx, fmt.Sprintf("Started workflow %q", e.name))

		step, err := j.build(e.name)
		if err != nil {
			logger.Error(ctx, "Failed to build step", tag.Error(err))
			return core.Failed(e.name, err)
		}

		artifacts, err := r.svc.Execute(ctx, step)
		if err != nil {
			return core.Failed(e.name, err)
		}
		return core.Succeeded(e.name, artifacts...)
	})

	for i := range result {
		if result[i].Entity == "" {
			result[i].Entity = fallbackName(entities[i], jobs[i])
		}
	}

	logger.Info(ctx, "Run finished",
		tag.Count(len(result)),
		tag.Failed(result.FailedCount()),
		tag.Duration(time.Since(start)),
	)
	return result
}

func fallbackName(e entity, j job) string {
	if e.name != "" {
		return e.name
	}
	return j.source
}
