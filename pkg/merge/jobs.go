package merge

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yumyai/ggintegrate/pkg/orthogroup"
)

// Kind tells which file pair a job merges.
type Kind string

const (
	Peptide Kind = "faa"
	CDS     Kind = "fna"
)

// JobStatus represents the lifecycle of a single merge.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job keeps track of one scaffold + input concatenation.
type Job struct {
	ID         string
	Orthogroup orthogroup.ID
	Kind       Kind
	Sources    []string
	Output     string
	Status     JobStatus
	Bytes      int64
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// JobTracker stores merge jobs in submission order.
type JobTracker struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	order []string
}

func NewJobTracker() *JobTracker {
	return &JobTracker{
		jobs: make(map[string]*Job),
	}
}

// NewJob registers a queued job.
func (m *JobTracker) NewJob(id orthogroup.ID, kind Kind, output string, sources ...string) *Job {
	now := time.Now()
	job := &Job{
		ID:         uuid.NewString(),
		Orthogroup: id,
		Kind:       kind,
		Sources:    sources,
		Output:     output,
		Status:     JobQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.order = append(m.order, job.ID)
	m.mu.Unlock()
	return job
}

func (m *JobTracker) SetRunning(jobID string) {
	m.updateJob(jobID, func(job *Job) {
		job.Status = JobRunning
	})
}

func (m *JobTracker) CompleteJob(jobID string, written int64) {
	m.updateJob(jobID, func(job *Job) {
		job.Status = JobCompleted
		job.Bytes = written
	})
}

func (m *JobTracker) FailJob(jobID string, err error) {
	m.updateJob(jobID, func(job *Job) {
		job.Status = JobFailed
		job.Error = err.Error()
	})
}

// GetJob returns a copy of the job so callers never race with updates.
func (m *JobTracker) GetJob(jobID string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Jobs returns copies of all jobs in submission order.
func (m *JobTracker) Jobs() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Job, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.jobs[id])
	}
	return out
}

// Summary counts jobs per status and kind.
type Summary struct {
	Completed map[Kind]int
	Failed    int
	Pending   int
	Bytes     int64
}

func (m *JobTracker) Summary() Summary {
	s := Summary{Completed: map[Kind]int{}}
	for _, job := range m.Jobs() {
		switch job.Status {
		case JobCompleted:
			s.Completed[job.Kind]++
			s.Bytes += job.Bytes
		case JobFailed:
			s.Failed++
		default:
			s.Pending++
		}
	}
	return s
}

func (m *JobTracker) updateJob(jobID string, update func(job *Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return
	}

	update(job)
	job.UpdatedAt = time.Now()
}
