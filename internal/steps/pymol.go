package steps

import (
	"os"
	"path/filepath"

	"github.com/foldwork/foldwork/internal/cmn/fileutil"
	"github.com/foldwork/foldwork/internal/core"
	"github.com/foldwork/foldwork/internal/script"
	"github.com/samber/lo"
)

// DefaultStructureExtension is the extension of candidate structure files.
const DefaultStructureExtension = "pdb"

// alignWrapper writes the generated PyMOL script to disk and runs it
// headless.
const alignWrapper = `printf '%s' "$pymol_script" > pymol_script.py
pymol -cq pymol_script.py
`

// AlignmentConfig holds the settings shared by every alignment step.
type AlignmentConfig struct {
	// Extension selects candidate files, with or without the leading dot.
	Extension string
}

// PyMOLStepName returns the name of the alignment step of entity.
func PyMOLStepName(entity string) string {
	return "pymol_" + entity
}

// PyMOL builds the step that aligns reference against every structure file
// directly inside candidateDir. Entries are taken in name order.
func PyMOL(reference, candidateDir, entity string, cfg AlignmentConfig) (core.Step, error) {
	candidates, err := Candidates(candidateDir, cfg.Extension)
	if err != nil {
		return core.Step{}, err
	}

	body := script.Alignment(reference, candidates)

	return core.Step{
		Name:         PyMOLStepName(entity),
		Description:  "Runs PyMOL to align a reference structure against one or more test structures",
		Executor:     core.ExecutorDirect,
		Args:         []string{body},
		Inputs:       []string{reference, candidateDir},
		Outputs:      []string{script.ReportFile},
		Dependencies: []string{"pymol"},
		Env:          []string{"pymol_script=" + body},
		Script:       alignWrapper,
	}, nil
}

// Candidates lists the files in dir with the given extension. The listing
// is not recursive.
func Candidates(dir, ext string) ([]script.Candidate, error) {
	if ext == "" {
		ext = DefaultStructureExtension
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &core.IoError{Op: "read dir", Path: dir, Err: err}
	}
	return lo.FilterMap(entries, func(e os.DirEntry, _ int) (script.Candidate, bool) {
		if e.IsDir() || !fileutil.HasExtension(e.Name(), ext) {
			return script.Candidate{}, false
		}
		return script.Candidate{Name: e.Name(), Path: filepath.Join(dir, e.Name())}, true
	}), nil
}
