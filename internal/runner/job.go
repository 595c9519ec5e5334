package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/foldwork/foldwork/internal/core"
	"github.com/foldwork/foldwork/internal/runtime/executor"
	"github.com/foldwork/foldwork/internal/steps"
)

// job is one unit of work: the primary input of an entity and how to build
// its step once the entity name is known.
type job struct {
	source   string
	stepName func(entity string) string
	build    func(entity string) (core.Step, error)
}

// entity is the resolved name of a job, or the reason it has none.
type entity struct {
	name string
	err  error
}

func (r *Runner) jobs(mode core.Mode) ([]job, error) {
	switch mode {
	case core.ModePredict:
		return r.predictJobs()
	case core.ModeAlign:
		return r.alignJobs()
	default:
		return nil, fmt.Errorf("%w: got %q", core.ErrUnknownMode, mode)
	}
}

func (r *Runner) predictJobs() ([]job, error) {
	dir := r.cfg.Predict.InputDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("input_dir could not be read: %w", &core.IoError{Op: "read dir", Path: dir, Err: err})
	}

	cfg := r.predictionConfig()

	var jobs []job
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		input := filepath.Join(dir, e.Name())
		jobs = append(jobs, job{
			source:   input,
			stepName: steps.AlphaFoldStepName,
			build: func(string) (core.Step, error) {
				return steps.AlphaFold(input, cfg)
			},
		})
	}
	return jobs, nil
}

func (r *Runner) alignJobs() ([]job, error) {
	refs, dirs := r.cfg.Align.InputPDBs, r.cfg.Align.AlignmentDirs
	if len(refs) != len(dirs) {
		return nil, fmt.Errorf("%w: %d input_pdbs, %d alignment_dirs", core.ErrInputLengthMismatch, len(refs), len(dirs))
	}

	cfg := steps.AlignmentConfig{Extension: r.cfg.Align.Extension}

	jobs := make([]job, len(refs))
	for i := range refs {
		ref, dir := refs[i], dirs[i]
		jobs[i] = job{
			source:   ref,
			stepName: steps.PyMOLStepName,
			build: func(name string) (core.Step, error) {
				return steps.PyMOL(ref, dir, name, cfg)
			},
		}
	}
	return jobs, nil
}

func (r *Runner) predictionConfig() steps.PredictionConfig {
	p := r.cfg.Predict
	return steps.PredictionConfig{
		ScratchDir: p.ScratchDir,
		SIFPath:    p.SIFPath,
		DBDir:      p.DBDir,
		OutDir:     p.OutDir,
		Options: steps.AlphaFoldOptions{
			DBPreset:        p.AlphaFold.DBPreset,
			ModelPreset:     p.AlphaFold.ModelPreset,
			MaxTemplateDate: p.AlphaFold.MaxTemplateDate,
			UseGPURelax:     p.AlphaFold.UseGPURelax,
			Binds:           p.AlphaFold.Binds,
			Databases:       steps.DefaultDatabasePaths(),
		},
	}
}

// resolveEntities derives the entity name of every job. Jobs whose steps
// would share a working directory get a duplicate error. The check is on
// the directory name, not the entity name, since the mapping from step name
// to directory is not one-to-one ("a b" and "a_b" collide).
func resolveEntities(jobs []job) []entity {
	entities := make([]entity, len(jobs))
	dirs := make([]string, len(jobs))
	count := make(map[string]int, len(jobs))
	for i, j := range jobs {
		name, err := core.EntityName(j.source)
		entities[i] = entity{name: name, err: err}
		if err == nil {
			dirs[i] = executor.StepDirName(j.stepName(name))
			count[dirs[i]]++
		}
	}
	for i, e := range entities {
		if e.err == nil && count[dirs[i]] > 1 {
			entities[i].err = core.NewValidationError(
				"entity", fmt.Sprintf("%s (working directory %s)", e.name, dirs[i]), core.ErrStepNameDuplicate,
			)
		}
	}
	return entities
}
