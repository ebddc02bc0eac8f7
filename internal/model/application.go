package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/iliyamo/careers-portal/internal/workflow"
)

// Application is a candidate's submission to a job, stored in the
// `applications` table.  UserID is nil for guest applications.  ArchivedAt
// hides the application from default listings without touching Status.
type Application struct {
	ID                uint64          `json:"id"`
	JobID             uint64          `json:"job_id"`
	JobNumber         string          `json:"job_number,omitempty"`
	JobTitle          string          `json:"job_title,omitempty"`
	UserID            *uint64         `json:"user_id,omitempty"`
	FirstName         string          `json:"first_name"`
	LastName          string          `json:"last_name"`
	Email             string          `json:"email"`
	ContactNumber     string          `json:"contact_number"`
	Address           string          `json:"address"`
	ResumeURL         string          `json:"resume_url"`
	ResumeFileName    string          `json:"resume_file_name"`
	Status            workflow.Status `json:"status"`
	Notes             string          `json:"notes"`
	CustomFieldValues FieldValues     `json:"custom_field_values"`
	ArchivedAt        *time.Time      `json:"archived_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Archived reports whether the application is soft-deleted.
func (a *Application) Archived() bool { return a.ArchivedAt != nil }

// ApplicantName joins first and last name.
func (a *Application) ApplicantName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// FieldValues maps CustomField.Key to the applicant's answer.
type FieldValues map[string]any

// Value implements driver.Valuer.
func (v FieldValues) Value() (driver.Value, error) {
	if v == nil {
		v = FieldValues{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (v *FieldValues) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil || b == nil {
		*v = FieldValues{}
		return err
	}
	return json.Unmarshal(b, v)
}

// StatusCount is one bucket of the dashboard status breakdown.
type StatusCount struct {
	Status workflow.Status `json:"status"`
	Count  int64           `json:"count"`
}
