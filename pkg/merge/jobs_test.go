package merge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobTracker(t *testing.T) {
	m := NewJobTracker()

	a := m.NewJob("1", Peptide, "out/1.faa", "s/1.faa", "in/1.faa")
	b := m.NewJob("1", CDS, "out/1.fna", "s/1.fna", "in/1.fna")
	c := m.NewJob("2", Peptide, "out/2.faa", "s/2.faa", "in/2.faa")
	assert.NotEqual(t, a.ID, b.ID)

	m.SetRunning(a.ID)
	got, ok := m.GetJob(a.ID)
	require.True(t, ok)
	assert.Equal(t, JobRunning, got.Status)

	m.CompleteJob(a.ID, 10)
	m.CompleteJob(b.ID, 20)
	m.FailJob(c.ID, errors.New("boom"))

	got, _ = m.GetJob(c.ID)
	assert.Equal(t, JobFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	jobs := m.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, a.ID, jobs[0].ID)
	assert.Equal(t, c.ID, jobs[2].ID)

	s := m.Summary()
	assert.Equal(t, 1, s.Completed[Peptide])
	assert.Equal(t, 1, s.Completed[CDS])
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 0, s.Pending)
	assert.EqualValues(t, 30, s.Bytes)

	_, ok = m.GetJob("unknown")
	assert.False(t, ok)
	m.SetRunning("unknown")
}
