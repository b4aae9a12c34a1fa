package jobs

import "context"

// Store persists job states so the queue survives restarts.
type Store interface {
	LoadJobs(ctx context.Context) ([]*SummaryJob, error)
	UpsertJob(ctx context.Context, job *SummaryJob) error
	DeleteJob(ctx context.Context, jobID string) error
}
