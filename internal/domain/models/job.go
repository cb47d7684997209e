package models

import "time"

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// ForecastJob is the payload carried by the job backend (Kafka topic or Redis list).
type ForecastJob struct {
	ID          string     `json:"id"`
	Request     JobRequest `json:"request"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// JobResult is what clients poll for.
type JobResult struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Result    *Forecast `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
