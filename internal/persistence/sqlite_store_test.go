package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidsum/internal/jobs"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "vidsum.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleJob(id string) *jobs.SummaryJob {
	now := time.Now().UTC().Truncate(time.Second)
	return &jobs.SummaryJob{
		ID:        id,
		Source:    "api",
		DedupeKey: "BV1xx|abc123",
		Payload: jobs.JobPayload{
			SubtitleFile: "/inbox/BV1xx.srt",
			VideoFile:    "/inbox/BV1xx.mp4",
			SubjectID:    "BV1xx",
			Language:     "zh",
			MaxFrames:    40,
		},
		Status:    jobs.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSQLiteStore_UpsertAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertJob(ctx, sampleJob("j1")))

	loaded, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	got := loaded[0]
	assert.Equal(t, "j1", got.ID)
	assert.Equal(t, "BV1xx|abc123", got.DedupeKey)
	assert.Equal(t, jobs.StatusPending, got.Status)
	assert.Equal(t, "/inbox/BV1xx.srt", got.Payload.SubtitleFile)
	assert.Equal(t, "BV1xx", got.Payload.SubjectID)
	assert.Equal(t, 40, got.Payload.MaxFrames)
}

func TestSQLiteStore_UpsertUpdatesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := sampleJob("j1")
	require.NoError(t, store.UpsertJob(ctx, job))

	job.Status = jobs.StatusSuccess
	job.ResultPath = "/cache/BV1xx/result_latest.json"
	job.UpdatedAt = job.UpdatedAt.Add(time.Minute)
	require.NoError(t, store.UpsertJob(ctx, job))

	loaded, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, jobs.StatusSuccess, loaded[0].Status)
	assert.Equal(t, "/cache/BV1xx/result_latest.json", loaded[0].ResultPath)
}

func TestSQLiteStore_DeleteJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertJob(ctx, sampleJob("j1")))
	require.NoError(t, store.UpsertJob(ctx, sampleJob("j2")))
	require.NoError(t, store.DeleteJob(ctx, "j1"))

	loaded, err := store.LoadJobs(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "j2", loaded[0].ID)
}

func TestSQLiteStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vidsum.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.UpsertJob(context.Background(), sampleJob("j1")))
	require.NoError(t, store.Close())

	// reopening the same database reapplies nothing and keeps the data
	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.LoadJobs(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestSQLiteStore_EmptyPathRejected(t *testing.T) {
	_, err := NewSQLiteStore("  ")
	assert.Error(t, err)
}
