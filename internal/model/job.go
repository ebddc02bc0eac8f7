package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Job represents a posting in the `jobs` table.  JobNumber is the public
// identifier used in URLs; the numeric ID never leaves the admin API.
// A job starts as a draft, becomes visible once published and stops
// accepting applications after ExpiresAt.
type Job struct {
	ID             uint64       `json:"id"`
	JobNumber      string       `json:"job_number"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	IndustryID     *uint64      `json:"industry_id,omitempty"`
	IndustryName   string       `json:"industry_name,omitempty"`
	Location       string       `json:"location"`
	WorkType       string       `json:"work_type"`
	JobType        string       `json:"job_type"`
	ShiftType      string       `json:"shift_type"`
	SalaryMin      *int64       `json:"salary_min,omitempty"`
	SalaryMax      *int64       `json:"salary_max,omitempty"`
	SalaryCurrency string       `json:"salary_currency,omitempty"`
	SalaryPeriod   string       `json:"salary_period,omitempty"`
	IsPublished    bool         `json:"is_published"`
	PublishedAt    *time.Time   `json:"published_at,omitempty"`
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
	CustomFields   CustomFields `json:"custom_fields"`
	CreatedBy      *uint64      `json:"created_by,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Expired reports whether the job's expiry lies before now.
func (j *Job) Expired(now time.Time) bool {
	return j.ExpiresAt != nil && j.ExpiresAt.Before(now)
}

// AcceptsApplications is true for published, unexpired jobs.
func (j *Job) AcceptsApplications(now time.Time) bool {
	return j.IsPublished && !j.Expired(now)
}

// Allowed values for the job enumerations.
var (
	WorkTypes     = []string{"onsite", "remote", "hybrid"}
	JobTypes      = []string{"full_time", "part_time", "contract", "temporary", "internship"}
	ShiftTypes    = []string{"day", "night", "rotating", "flexible"}
	SalaryPeriods = []string{"hour", "day", "week", "month", "year"}
)

// Custom application field types.
const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldNumber   = "number"
	FieldSelect   = "select"
	FieldCheckbox = "checkbox"
	FieldDate     = "date"
)

// FieldTypes lists the supported custom field types.
var FieldTypes = []string{FieldText, FieldTextarea, FieldNumber, FieldSelect, FieldCheckbox, FieldDate}

// CustomField defines one extra question on a job's application form.
type CustomField struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// CustomFields is stored as a JSON column.
type CustomFields []CustomField

// Value implements driver.Valuer.
func (f CustomFields) Value() (driver.Value, error) {
	if f == nil {
		f = CustomFields{}
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (f *CustomFields) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil || b == nil {
		*f = CustomFields{}
		return err
	}
	return json.Unmarshal(b, f)
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []byte(v), nil
	}
	return nil, errors.New("unsupported JSON column type")
}

// Contains reports whether v appears in list.
func Contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
