package jobs

import "time"

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// JobPayload carries everything the executor needs to start a pipeline run.
type JobPayload struct {
	SubtitleFile string `json:"subtitle_file"`
	VideoFile    string `json:"video_file,omitempty"`
	SubjectID    string `json:"subject_id,omitempty"`
	SourceURL    string `json:"source_url,omitempty"`
	Language     string `json:"language,omitempty"`
	MaxFrames    int    `json:"max_frames,omitempty"`
	RefreshCache bool   `json:"refresh_cache,omitempty"`
}

// EnqueueRequest asks the queue for a new job. DedupeKey collapses
// concurrent requests for the same work onto one live job.
type EnqueueRequest struct {
	Source    string
	DedupeKey string
	Payload   JobPayload
}

// SummaryJob is one tracked summarization run. ResultPath points at the
// cached result file once the job succeeds.
type SummaryJob struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	DedupeKey  string     `json:"dedupe_key"`
	Payload    JobPayload `json:"payload"`
	Status     Status     `json:"status"`
	ResultPath string     `json:"result_path,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
