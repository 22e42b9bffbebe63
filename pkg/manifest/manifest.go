// SQLite ledger of integration runs and the merges each of them performed.

package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yumyai/ggintegrate/pkg/merge"
)

const schema = `
create table if not exists runs (
	run_id       text primary key,
	scaffold     text not null,
	method       text not null,
	scaffold_dir text not null,
	input_dir    text not null,
	output_dir   text not null,
	started_at   text not null,
	finished_at  text,
	status       text not null,
	error        text
);
create table if not exists merges (
	job_id        text primary key,
	run_id        text not null references runs(run_id),
	orthogroup_id text not null,
	kind          text not null,
	output        text not null,
	bytes         integer not null,
	status        text not null,
	error         text,
	finished_at   text not null
);
`

const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RunInfo describes the run being recorded.
type RunInfo struct {
	Scaffold    string
	Method      string
	ScaffoldDir string
	InputDir    string
	OutputDir   string
}

// Ledger records one run. It implements merge.Recorder.
type Ledger struct {
	db    *sql.DB
	RunID string
}

// Open creates (or reuses) the database at path and registers a new run.
func Open(ctx context.Context, path string, info RunInfo) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	// Workers share the handle; keep sqlite to a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create manifest schema: %w", err)
	}

	l := &Ledger{db: db, RunID: uuid.NewString()}

	qstring := `insert into runs (run_id, scaffold, method, scaffold_dir, input_dir, output_dir, started_at, status)
		values (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, qstring, l.RunID, info.Scaffold, info.Method, info.ScaffoldDir,
		info.InputDir, info.OutputDir, now(), RunRunning); err != nil {
		db.Close()
		return nil, fmt.Errorf("register run: %w", err)
	}

	return l, nil
}

func (l *Ledger) Record(ctx context.Context, job merge.Job) error {
	qstring := `insert into merges (job_id, run_id, orthogroup_id, kind, output, bytes, status, error, finished_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stm, err := l.db.PrepareContext(ctx, qstring)
	if err != nil {
		return err
	}
	defer stm.Close()

	_, err = stm.ExecContext(ctx, job.ID, l.RunID, string(job.Orthogroup), string(job.Kind), job.Output,
		job.Bytes, string(job.Status), nullable(job.Error), job.UpdatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// Finish closes the run as completed, or failed when runErr is non-nil, and
// releases the database.
func (l *Ledger) Finish(ctx context.Context, runErr error) error {
	status, msg := RunCompleted, ""
	if runErr != nil {
		status, msg = RunFailed, runErr.Error()
	}

	qstring := `update runs set finished_at = ?, status = ?, error = ? where run_id = ?`
	_, err := l.db.ExecContext(ctx, qstring, now(), status, nullable(msg), l.RunID)
	closeErr := l.db.Close()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return closeErr
}

// MergeRow is one recorded merge as read back from the ledger.
type MergeRow struct {
	JobID      string
	Orthogroup string
	Kind       string
	Bytes      int64
	Status     string
}

// Merges lists the merges of a run stored in the database at path.
func Merges(ctx context.Context, path, runID string) ([]MergeRow, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	qstring := `select job_id, orthogroup_id, kind, bytes, status from merges where run_id = ? order by rowid`

	stm, err := db.PrepareContext(ctx, qstring)
	if err != nil {
		return nil, err
	}
	defer stm.Close()

	rows, err := stm.QueryContext(ctx, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MergeRow
	for rows.Next() {
		var r MergeRow
		if err := rows.Scan(&r.JobID, &r.Orthogroup, &r.Kind, &r.Bytes, &r.Status); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// RunStatus returns the status and error text of a run.
func RunStatus(ctx context.Context, path, runID string) (status string, errText string, err error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", "", err
	}
	defer db.Close()

	var msg sql.NullString
	row := db.QueryRowContext(ctx, `select status, error from runs where run_id = ?`, runID)
	if err := row.Scan(&status, &msg); err != nil {
		return "", "", err
	}
	return status, msg.String, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
