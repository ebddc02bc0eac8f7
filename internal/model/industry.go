package model

import "time"

// Industry categorizes jobs.  Name is unique.  JobCount is filled by list
// queries so the admin screen can warn before deleting a used industry.
type Industry struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	JobCount    int64     `json:"job_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SavedJob is a candidate's bookmark on a job.
type SavedJob struct {
	UserID  uint64    `json:"user_id"`
	JobID   uint64    `json:"job_id"`
	SavedAt time.Time `json:"saved_at"`
	Job     *Job      `json:"job,omitempty"`
}
