package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/foldwork/foldwork/internal/cmn/config"
	"github.com/foldwork/foldwork/internal/cmn/logger"
	"github.com/foldwork/foldwork/internal/core"
	"github.com/foldwork/foldwork/internal/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockService records executed steps and returns their declared outputs.
type mockService struct {
	mu    sync.Mutex
	steps []core.Step
	fail  map[string]error
}

func (m *mockService) Execute(_ context.Context, step core.Step) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step)
	if err, ok := m.fail[step.Name]; ok {
		return nil, err
	}
	return step.Outputs, nil
}

func (m *mockService) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, s := range m.steps {
		names = append(names, s.Name)
	}
	slices.Sort(names)
	return names
}

func testContext(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	l := logger.NewLogger(logger.WithConsole(&stderr, &stdout))
	return logger.WithLogger(context.Background(), l), &stdout
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600))
	}
}

func predictConfig(inputDir string) *config.Config {
	return &config.Config{
		Predict: config.Predict{
			InputDir:   inputDir,
			ScratchDir: "/scratch",
			SIFPath:    "/alphafold.sif",
			DBDir:      "/db",
			OutDir:     "out",
			AlphaFold: config.AlphaFold{
				DBPreset:        "full_dbs",
				ModelPreset:     "monomer",
				MaxTemplateDate: "2023-12-31",
				UseGPURelax:     true,
			},
		},
		Align: config.Align{Extension: "pdb"},
	}
}

func TestRunner_Predict(t *testing.T) {
	t.Parallel()

	inputDir := t.TempDir()
	touch(t, inputDir, "B.fasta", "A.fasta")
	require.NoError(t, os.Mkdir(filepath.Join(inputDir, "nested"), 0750))

	ctx, stdout := testContext(t)
	svc := &mockService{}
	result, err := New(predictConfig(inputDir), svc).Predict(ctx)
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "A", result[0].Entity)
	assert.Equal(t, []string{filepath.Join("out", "A", "ranked_0.pdb")}, result[0].Artifacts)
	assert.Equal(t, "B", result[1].Entity)
	assert.Equal(t, []string{filepath.Join("out", "B", "ranked_0.pdb")}, result[1].Artifacts)
	assert.NoError(t, result.Err())

	assert.Equal(t, []string{"alphafold_A", "alphafold_B"}, svc.names())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	slices.Sort(lines)
	assert.Equal(t, []string{`Started workflow "A"`, `Started workflow "B"`}, lines)
}

func TestRunner_PredictUnreadableDir(t *testing.T) {
	t.Parallel()

	ctx, _ := testContext(t)
	svc := &mockService{}
	_, err := New(predictConfig(filepath.Join(t.TempDir(), "missing")), svc).Run(ctx, "predict")

	var ioErr *core.IoError
	require.ErrorAs(t, err, &ioErr)
	assert.Empty(t, svc.names())
}

func TestRunner_PredictFailureIsolation(t *testing.T) {
	t.Parallel()

	inputDir := t.TempDir()
	touch(t, inputDir, "A.fasta", "B.fasta", "C.fasta")

	errJob := errors.New("job exited with status 1")
	ctx, _ := testContext(t)
	svc := &mockService{fail: map[string]error{"alphafold_B": errJob}}

	result, err := New(predictConfig(inputDir), svc).Predict(ctx)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.True(t, result[0].OK())
	assert.ErrorIs(t, result[1].Err, errJob)
	assert.Equal(t, "B", result[1].Entity)
	assert.True(t, result[2].OK())
	assert.Equal(t, 1, result.FailedCount())
}

func TestRunner_PredictDuplicateNames(t *testing.T) {
	t.Parallel()

	inputDir := t.TempDir()
	touch(t, inputDir, "A.fa", "A.fasta", "B.fasta")

	ctx, _ := testContext(t)
	svc := &mockService{}
	result, err := New(predictConfig(inputDir), svc).Predict(ctx)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.ErrorIs(t, result[0].Err, core.ErrStepNameDuplicate)
	assert.ErrorIs(t, result[1].Err, core.ErrStepNameDuplicate)
	assert.True(t, result[2].OK())
	assert.Equal(t, []string{"alphafold_B"}, svc.names())
}

func TestRunner_Align(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	dirA := filepath.Join(base, "a")
	dirB := filepath.Join(base, "b")
	require.NoError(t, os.Mkdir(dirA, 0750))
	require.NoError(t, os.Mkdir(dirB, 0750))
	touch(t, dirA, "x.pdb", "y.pdb")
	touch(t, dirB, "z.pdb", "skip.txt")

	cfg := predictConfig("")
	cfg.Align.InputPDBs = []string{filepath.Join(base, "refA.pdb"), filepath.Join(base, "refB.pdb")}
	cfg.Align.AlignmentDirs = []string{dirA, dirB}

	ctx, stdout := testContext(t)
	svc := &mockService{}
	result, err := New(cfg, svc).Align(ctx)
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "refA", result[0].Entity)
	assert.Equal(t, "refB", result[1].Entity)
	for _, o := range result {
		assert.Equal(t, []string{script.ReportFile}, o.Artifacts)
	}
	assert.Equal(t, []string{"pymol_refA", "pymol_refB"}, svc.names())

	svc.mu.Lock()
	for _, s := range svc.steps {
		switch s.Name {
		case "pymol_refA":
			assert.Equal(t, 2, strings.Count(s.Args[0], "cmd.align("))
		case "pymol_refB":
			assert.Equal(t, 1, strings.Count(s.Args[0], "cmd.align("))
		}
	}
	svc.mu.Unlock()

	assert.Contains(t, stdout.String(), `Started workflow "refA"`)
	assert.Contains(t, stdout.String(), `Started workflow "refB"`)
}

func TestRunner_AlignWorkingDirectoryCollision(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	models := filepath.Join(base, "models")
	require.NoError(t, os.Mkdir(models, 0750))
	touch(t, models, "x.pdb")

	cfg := predictConfig("")
	cfg.Align.InputPDBs = []string{
		filepath.Join(base, "a b.pdb"),
		filepath.Join(base, "a_b.pdb"),
		filepath.Join(base, "c.pdb"),
	}
	cfg.Align.AlignmentDirs = []string{models, models, models}

	ctx, stdout := testContext(t)
	svc := &mockService{}
	result, err := New(cfg, svc).Align(ctx)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, "a b", result[0].Entity)
	assert.ErrorIs(t, result[0].Err, core.ErrStepNameDuplicate)
	assert.Contains(t, result[0].Err.Error(), "pymol_a_b")
	assert.Equal(t, "a_b", result[1].Entity)
	assert.ErrorIs(t, result[1].Err, core.ErrStepNameDuplicate)
	assert.True(t, result[2].OK())

	assert.Equal(t, []string{"pymol_c"}, svc.names())
	assert.Equal(t, `Started workflow "c"`, strings.TrimSpace(stdout.String()))
}

func TestRunner_AlignUnreadableCandidateDir(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	good := filepath.Join(base, "good")
	require.NoError(t, os.Mkdir(good, 0750))

	cfg := predictConfig("")
	cfg.Align.InputPDBs = []string{filepath.Join(base, "A.pdb"), filepath.Join(base, "B.pdb")}
	cfg.Align.AlignmentDirs = []string{filepath.Join(base, "missing"), good}

	ctx, _ := testContext(t)
	svc := &mockService{}
	result, err := New(cfg, svc).Align(ctx)
	require.NoError(t, err)
	require.Len(t, result, 2)

	var ioErr *core.IoError
	assert.ErrorAs(t, result[0].Err, &ioErr)
	assert.True(t, result[1].OK())
	assert.Equal(t, []string{"pymol_B"}, svc.names())
}

func TestRunner_AlignLengthMismatch(t *testing.T) {
	t.Parallel()

	cfg := predictConfig("")
	cfg.Align.InputPDBs = []string{"a.pdb", "b.pdb"}
	cfg.Align.AlignmentDirs = []string{"a"}

	ctx, stdout := testContext(t)
	svc := &mockService{}
	result, err := New(cfg, svc).Run(ctx, "align")

	require.ErrorIs(t, err, core.ErrInputLengthMismatch)
	assert.Nil(t, result)
	assert.Empty(t, svc.names())
	assert.Empty(t, stdout.String())
}

func TestRunner_UnknownMode(t *testing.T) {
	t.Parallel()

	for _, mode := range []string{"", "fold", "PREDICT"} {
		t.Run(mode, func(t *testing.T) {
			ctx, _ := testContext(t)
			svc := &mockService{}
			_, err := New(predictConfig(t.TempDir()), svc).Run(ctx, mode)
			require.ErrorIs(t, err, core.ErrUnknownMode)
			assert.Empty(t, svc.names())
		})
	}
}

func TestRunner_Plan(t *testing.T) {
	t.Parallel()

	inputDir := t.TempDir()
	touch(t, inputDir, "A.fasta")

	svc := &mockService{}
	planned, err := New(predictConfig(inputDir), svc).Plan(context.Background(), "predict")
	require.NoError(t, err)
	require.Len(t, planned, 1)

	assert.Equal(t, "A", planned[0].Entity)
	assert.Equal(t, filepath.Join(inputDir, "A.fasta"), planned[0].Source)
	require.NotNil(t, planned[0].Step)
	assert.Equal(t, "alphafold_A", planned[0].Step.Name)
	assert.Empty(t, planned[0].Error)
	assert.Empty(t, svc.names())
}

func TestRunner_PlanErrors(t *testing.T) {
	t.Parallel()

	cfg := predictConfig("")
	cfg.Align.InputPDBs = []string{"/refs/A.pdb"}
	cfg.Align.AlignmentDirs = []string{filepath.Join(t.TempDir(), "missing")}

	planned, err := New(cfg, &mockService{}).Plan(context.Background(), "align")
	require.NoError(t, err)
	require.Len(t, planned, 1)
	assert.Nil(t, planned[0].Step)
	assert.Contains(t, planned[0].Error, "read dir")

	_, err = New(cfg, &mockService{}).Plan(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrUnknownMode)
}
