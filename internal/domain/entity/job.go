package entity

// JobLabel classifies a job by cost and scheduling frequency.
type JobLabel string

const (
	JobLabelNormal   JobLabel = "normal"
	JobLabelCronjob  JobLabel = "cronjob"
	JobLabelRealtime JobLabel = "realtime"
)

// JobState is the runner-side lifecycle of a job: Idle -> Running -> {Succeeded, Failed} -> Idle.
type JobState string

const (
	JobStateIdle      JobState = "idle"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
)

// JobStatus is a snapshot of the last known execution of a job.
type JobStatus struct {
	ID         string   `json:"id"`
	Label      JobLabel `json:"label"`
	State      JobState `json:"state"`
	LastRunAt  int64    `json:"lastRunAt,omitempty"`
	LastError  string   `json:"lastError,omitempty"`
	Runs       int      `json:"runs"`
	DurationMs int64    `json:"durationMs,omitempty"`
}
