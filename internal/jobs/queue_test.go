package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for persistence-path tests.
type memStore struct {
	mu      sync.Mutex
	jobs    map[string]*SummaryJob
	upserts int
}

func newMemStore() *memStore {
	return &memStore{jobs: make(map[string]*SummaryJob)}
}

func (s *memStore) LoadJobs(_ context.Context) ([]*SummaryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*SummaryJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, cloneJob(job))
	}
	return out, nil
}

func (s *memStore) UpsertJob(_ context.Context, job *SummaryJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = cloneJob(job)
	s.upserts++
	return nil
}

func (s *memStore) DeleteJob(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestEnqueue_AssignsIDAndPending(t *testing.T) {
	q := NewQueue(1, nil)
	defer q.Stop()

	job, created := q.Enqueue(EnqueueRequest{
		Source:    "api",
		DedupeKey: "BV1xx|hash",
		Payload:   JobPayload{SubtitleFile: "a.srt"},
	})

	assert.True(t, created)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, "a.srt", job.Payload.SubtitleFile)
}

func TestEnqueue_DedupesLiveJobs(t *testing.T) {
	q := NewQueue(1, nil)
	defer q.Stop()

	first, created := q.Enqueue(EnqueueRequest{DedupeKey: "k"})
	require.True(t, created)

	second, created := q.Enqueue(EnqueueRequest{DedupeKey: "k"})
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// a different key is independent
	_, created = q.Enqueue(EnqueueRequest{DedupeKey: "other"})
	assert.True(t, created)
}

func TestQueue_ExecutesAndRecordsResult(t *testing.T) {
	q := NewQueue(2, nil)
	defer q.Stop()

	q.Start(func(_ context.Context, job *SummaryJob) (string, error) {
		return "/cache/" + job.Payload.SubjectID + "/result_latest.json", nil
	})

	job, _ := q.Enqueue(EnqueueRequest{
		DedupeKey: "BV1xx",
		Payload:   JobPayload{SubjectID: "BV1xx", SubtitleFile: "s.srt"},
	})

	waitFor(t, func() bool {
		got, ok := q.Get(job.ID)
		return ok && got.Status == StatusSuccess
	})

	got, _ := q.Get(job.ID)
	assert.Equal(t, "/cache/BV1xx/result_latest.json", got.ResultPath)
	assert.Empty(t, got.Error)
}

func TestQueue_RecordsFailure(t *testing.T) {
	q := NewQueue(1, nil)
	defer q.Stop()

	q.Start(func(_ context.Context, _ *SummaryJob) (string, error) {
		return "", errors.New("no subtitles found")
	})

	job, _ := q.Enqueue(EnqueueRequest{DedupeKey: "k"})

	waitFor(t, func() bool {
		got, ok := q.Get(job.ID)
		return ok && got.Status == StatusFailed
	})

	got, _ := q.Get(job.ID)
	assert.Equal(t, "no subtitles found", got.Error)
}

func TestQueue_DedupeReleasedAfterTerminal(t *testing.T) {
	q := NewQueue(1, nil)
	defer q.Stop()

	q.Start(func(_ context.Context, _ *SummaryJob) (string, error) { return "p", nil })

	first, _ := q.Enqueue(EnqueueRequest{DedupeKey: "k"})
	waitFor(t, func() bool {
		got, ok := q.Get(first.ID)
		return ok && got.Status == StatusSuccess
	})

	second, created := q.Enqueue(EnqueueRequest{DedupeKey: "k"})
	assert.True(t, created)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestQueue_HydratesAndRetriesInterruptedJobs(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.UpsertJob(context.Background(), &SummaryJob{
		ID:        "abc",
		DedupeKey: "k",
		Status:    StatusRunning,
		Payload:   JobPayload{SubtitleFile: "s.srt"},
	}))

	q := NewQueue(1, store)
	defer q.Stop()

	got, ok := q.Get("abc")
	require.True(t, ok)
	assert.Equal(t, StatusPending, got.Status)

	// still holds its dedupe key after hydration
	_, created := q.Enqueue(EnqueueRequest{DedupeKey: "k"})
	assert.False(t, created)

	q.Start(func(_ context.Context, _ *SummaryJob) (string, error) { return "p", nil })
	waitFor(t, func() bool {
		j, ok := q.Get("abc")
		return ok && j.Status == StatusSuccess
	})
}

func TestQueue_PersistsTransitions(t *testing.T) {
	store := newMemStore()
	q := NewQueue(1, store)
	defer q.Stop()

	q.Start(func(_ context.Context, _ *SummaryJob) (string, error) { return "p", nil })

	job, _ := q.Enqueue(EnqueueRequest{DedupeKey: "k"})
	waitFor(t, func() bool {
		got, ok := q.Get(job.ID)
		return ok && got.Status == StatusSuccess
	})

	stored, err := store.LoadJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, StatusSuccess, stored[0].Status)
}

func TestQueue_PrunesOldTerminalJobs(t *testing.T) {
	store := newMemStore()
	q := NewQueue(1, store)
	defer q.Stop()
	q.maxJobs = 2

	for i := 0; i < 3; i++ {
		job, _ := q.Enqueue(EnqueueRequest{})
		q.markRunning(job.ID)
		q.markSuccess(job.ID, "p")
	}

	assert.Len(t, q.List(), 2)
	stored, err := store.LoadJobs(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestList_NewestFirst(t *testing.T) {
	q := NewQueue(1, nil)
	defer q.Stop()

	a, _ := q.Enqueue(EnqueueRequest{DedupeKey: "a"})
	time.Sleep(2 * time.Millisecond)
	b, _ := q.Enqueue(EnqueueRequest{DedupeKey: "b"})

	list := q.List()
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}
