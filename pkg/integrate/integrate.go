package integrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yumyai/ggintegrate/logger"
	"github.com/yumyai/ggintegrate/pkg/config"
	"github.com/yumyai/ggintegrate/pkg/manifest"
	"github.com/yumyai/ggintegrate/pkg/merge"
	"github.com/yumyai/ggintegrate/pkg/orthogroup"
	"github.com/yumyai/ggintegrate/pkg/scaffold"
)

var ErrOutputExists = errors.New("output directory already exists, remove it before running again")

type Result struct {
	RunID   string
	Sets    *orthogroup.Sets
	Summary merge.Summary
}

// Run integrates the orthogroup fasta directory of cfg with its scaffold.
// Nothing is written until every check before the output directory passes.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	logger.Info("Start integrating gene families",
		zap.String("orthogroup_fasta", cfg.OrthogroupFasta),
		zap.String("scaffold", cfg.ScaffoldName),
		zap.String("method", cfg.Method))

	ref, err := scaffold.NewReference(cfg.ScaffoldName, cfg.ScaffoldDir, cfg.Method)
	if err != nil {
		return nil, err
	}

	if err := orthogroup.ValidateDir(cfg.OrthogroupFasta); err != nil {
		return nil, err
	}

	if err := os.Mkdir(cfg.OutputDir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, cfg.OutputDir)
		}
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	sets, err := orthogroup.Scan(cfg.OrthogroupFasta)
	if err != nil {
		return nil, err
	}
	if err := sets.CheckEquivalent(); err != nil {
		return nil, err
	}

	result := &Result{Sets: sets}
	engine := &merge.Engine{
		Scaffold:  ref,
		InputDir:  cfg.OrthogroupFasta,
		OutputDir: cfg.OutputDir,
		Workers:   cfg.Workers,
		Tracker:   merge.NewJobTracker(),
	}

	var ledger *manifest.Ledger
	if cfg.Manifest != "" {
		ledger, err = manifest.Open(ctx, cfg.Manifest, manifest.RunInfo{
			Scaffold:    cfg.ScaffoldName,
			Method:      cfg.Method,
			ScaffoldDir: cfg.ScaffoldDir,
			InputDir:    cfg.OrthogroupFasta,
			OutputDir:   cfg.OutputDir,
		})
		if err != nil {
			return nil, err
		}
		engine.Recorder = ledger
		result.RunID = ledger.RunID
		logger.Info("Recording run", zap.String("manifest", cfg.Manifest), zap.String("run_id", ledger.RunID))
	}

	logger.Info("Merging orthogroups",
		zap.Int("protein", len(sets.Peptide)),
		zap.Int("cds", len(sets.CDS)),
		zap.String("scaffold_dir", ref.MethodDir()),
		zap.String("output", cfg.OutputDir),
		zap.Int("workers", cfg.Workers))

	runErr := engine.Run(ctx, sets)
	if ledger != nil {
		runErr = multierr.Append(runErr, ledger.Finish(context.WithoutCancel(ctx), runErr))
	}
	result.Summary = engine.Tracker.Summary()
	if runErr != nil {
		return result, runErr
	}

	logger.Info("Completed integrating gene families",
		zap.Int("faa", result.Summary.Completed[merge.Peptide]),
		zap.Int("fna", result.Summary.Completed[merge.CDS]),
		zap.Int64("bytes", result.Summary.Bytes))

	return result, nil
}
