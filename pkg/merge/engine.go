package merge

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yumyai/ggintegrate/logger"
	"github.com/yumyai/ggintegrate/pkg/orthogroup"
	"github.com/yumyai/ggintegrate/pkg/scaffold"
)

type MergeError struct {
	ID   orthogroup.ID
	Kind Kind
	Err  error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge of orthogroup %s (.%s) failed: %v", e.ID, e.Kind, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// Recorder receives every job once it has finished, successfully or not.
type Recorder interface {
	Record(ctx context.Context, job Job) error
}

// Engine pairs scaffold files with input files and concatenates them into
// OutputDir, scaffold content first.
type Engine struct {
	Scaffold  *scaffold.Reference
	InputDir  string
	OutputDir string
	Workers   int
	Tracker   *JobTracker
	Recorder  Recorder
}

// Run merges every peptide id in sets, and its CDS pair when there is one.
// The first failure stops the run; ids not yet started are never attempted.
func (e *Engine) Run(ctx context.Context, sets *orthogroup.Sets) error {
	if e.Tracker == nil {
		e.Tracker = NewJobTracker()
	}
	workers := e.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, id := range sets.Peptide.Sorted() {
		if gctx.Err() != nil {
			break
		}
		id := id
		withCDS := sets.HasCDS(id)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := e.mergeOne(gctx, id, Peptide); err != nil {
				return err
			}
			if withCDS {
				return e.mergeOne(gctx, id, CDS)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (e *Engine) paths(id orthogroup.ID, kind Kind) (scaffoldPath, inputPath, outputPath string) {
	name := string(id) + "." + string(kind)
	if kind == CDS {
		scaffoldPath = e.Scaffold.CDSPath(id)
	} else {
		scaffoldPath = e.Scaffold.PeptidePath(id)
	}
	return scaffoldPath, filepath.Join(e.InputDir, name), filepath.Join(e.OutputDir, name)
}

func (e *Engine) mergeOne(ctx context.Context, id orthogroup.ID, kind Kind) error {
	scaffoldPath, inputPath, outputPath := e.paths(id, kind)
	job := e.Tracker.NewJob(id, kind, outputPath, scaffoldPath, inputPath)

	e.Tracker.SetRunning(job.ID)
	logger.Debug("Merging", zap.String("orthogroup", string(id)), zap.String("kind", string(kind)))

	written, err := ConcatFiles(outputPath, scaffoldPath, inputPath)
	if err != nil {
		merr := &MergeError{ID: id, Kind: kind, Err: err}
		e.Tracker.FailJob(job.ID, merr)
		if rerr := e.record(ctx, job.ID); rerr != nil {
			logger.Error("Unable to record failed merge", zap.Error(rerr))
		}
		return merr
	}

	e.Tracker.CompleteJob(job.ID, written)
	return e.record(ctx, job.ID)
}

func (e *Engine) record(ctx context.Context, jobID string) error {
	if e.Recorder == nil {
		return nil
	}
	job, ok := e.Tracker.GetJob(jobID)
	if !ok {
		return nil
	}
	// The ledger must see failures even after the group context is cancelled.
	if err := e.Recorder.Record(context.WithoutCancel(ctx), job); err != nil {
		return fmt.Errorf("record merge of orthogroup %s: %w", job.Orthogroup, err)
	}
	return nil
}
