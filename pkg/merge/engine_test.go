package merge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yumyai/ggintegrate/pkg/orthogroup"
	"github.com/yumyai/ggintegrate/pkg/scaffold"
)

type fixture struct {
	ref    *scaffold.Reference
	input  string
	output string
}

func newFixture(t *testing.T, scaffoldFiles, inputFiles map[string]string) fixture {
	t.Helper()
	root := t.TempDir()

	sdir := filepath.Join(root, "22Gv1.1")
	methodDir := filepath.Join(sdir, "fasta", "orthomcl")
	input := filepath.Join(root, "input")
	output := filepath.Join(root, "output")
	for _, d := range []string{methodDir, input, output} {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}
	for name, body := range scaffoldFiles {
		require.NoError(t, os.WriteFile(filepath.Join(methodDir, name), []byte(body), 0o644))
	}
	for name, body := range inputFiles {
		require.NoError(t, os.WriteFile(filepath.Join(input, name), []byte(body), 0o644))
	}

	ref, err := scaffold.NewReference("22Gv1.1", sdir, "orthomcl")
	require.NoError(t, err)
	return fixture{ref: ref, input: input, output: output}
}

func (f fixture) read(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(f.output, name))
	require.NoError(t, err)
	return string(b)
}

func (f fixture) exists(name string) bool {
	_, err := os.Stat(filepath.Join(f.output, name))
	return err == nil
}

type memRecorder struct {
	mu   sync.Mutex
	jobs []Job
}

func (r *memRecorder) Record(ctx context.Context, job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

func TestEngineMergeOrder(t *testing.T) {
	f := newFixture(t,
		map[string]string{"1.faa": ">s1\nAAA\n", "1.fna": ">s1\nATG\n"},
		map[string]string{"1.faa": ">s2\nBBB\n", "1.fna": ">s2\nCCC\n"},
	)
	rec := &memRecorder{}
	e := &Engine{Scaffold: f.ref, InputDir: f.input, OutputDir: f.output, Recorder: rec}

	sets := &orthogroup.Sets{Peptide: orthogroup.NewSet("1"), CDS: orthogroup.NewSet("1")}
	require.NoError(t, e.Run(context.Background(), sets))

	assert.Equal(t, ">s1\nAAA\n>s2\nBBB\n", f.read(t, "1.faa"))
	assert.Equal(t, ">s1\nATG\n>s2\nCCC\n", f.read(t, "1.fna"))

	require.Len(t, rec.jobs, 2)
	assert.Equal(t, Peptide, rec.jobs[0].Kind)
	assert.Equal(t, CDS, rec.jobs[1].Kind)
	assert.Equal(t, JobCompleted, rec.jobs[1].Status)
}

func TestEngineSkipsUnpairedCDS(t *testing.T) {
	f := newFixture(t,
		map[string]string{"1.faa": "a", "2.faa": "b", "3.fna": "c", "4.fna": "d"},
		map[string]string{"1.faa": "A", "2.faa": "B", "3.fna": "C", "4.fna": "D"},
	)
	e := &Engine{Scaffold: f.ref, InputDir: f.input, OutputDir: f.output}

	sets := &orthogroup.Sets{Peptide: orthogroup.NewSet("1", "2"), CDS: orthogroup.NewSet("3", "4")}
	require.NoError(t, sets.CheckEquivalent())
	require.NoError(t, e.Run(context.Background(), sets))

	assert.Equal(t, "aA", f.read(t, "1.faa"))
	assert.Equal(t, "bB", f.read(t, "2.faa"))
	for _, name := range []string{"1.fna", "2.fna", "3.fna", "4.fna"} {
		assert.False(t, f.exists(name), name)
	}
}

func TestEngineFailFast(t *testing.T) {
	f := newFixture(t,
		map[string]string{"1.faa": "s1", "3.faa": "s3"},
		map[string]string{"1.faa": "i1", "2.faa": "i2", "3.faa": "i3"},
	)
	rec := &memRecorder{}
	e := &Engine{Scaffold: f.ref, InputDir: f.input, OutputDir: f.output, Workers: 1, Recorder: rec}

	sets := &orthogroup.Sets{Peptide: orthogroup.NewSet("1", "2", "3"), CDS: orthogroup.NewSet()}
	err := e.Run(context.Background(), sets)

	var merr *MergeError
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, orthogroup.ID("2"), merr.ID)
	assert.Equal(t, Peptide, merr.Kind)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "orthogroup 2")

	assert.Equal(t, "s1i1", f.read(t, "1.faa"))
	assert.False(t, f.exists("2.faa"))
	assert.False(t, f.exists("3.faa"))

	s := e.Tracker.Summary()
	assert.Equal(t, 1, s.Completed[Peptide])
	assert.Equal(t, 1, s.Failed)

	require.Len(t, rec.jobs, 2)
	assert.Equal(t, JobFailed, rec.jobs[1].Status)
}

func TestEngineWorkers(t *testing.T) {
	scaffoldFiles := map[string]string{}
	inputFiles := map[string]string{}
	peptide := orthogroup.NewSet()
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		scaffoldFiles[id+".faa"] = "s" + id
		inputFiles[id+".faa"] = "i" + id
		peptide[orthogroup.ID(id)] = struct{}{}
	}
	f := newFixture(t, scaffoldFiles, inputFiles)
	e := &Engine{Scaffold: f.ref, InputDir: f.input, OutputDir: f.output, Workers: 4}

	require.NoError(t, e.Run(context.Background(), &orthogroup.Sets{Peptide: peptide, CDS: orthogroup.NewSet()}))
	for id := range peptide {
		assert.Equal(t, "s"+string(id)+"i"+string(id), f.read(t, string(id)+".faa"))
	}
	assert.Equal(t, 8, e.Tracker.Summary().Completed[Peptide])
}

func TestEngineCancelledContext(t *testing.T) {
	f := newFixture(t, map[string]string{"1.faa": "s"}, map[string]string{"1.faa": "i"})
	e := &Engine{Scaffold: f.ref, InputDir: f.input, OutputDir: f.output}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Run(ctx, &orthogroup.Sets{Peptide: orthogroup.NewSet("1"), CDS: orthogroup.NewSet()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.exists("1.faa"))
}
