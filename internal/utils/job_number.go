package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewJobNumber returns a short public identifier such as "JOB-3F9A1C07".
// Uniqueness is enforced by the database; callers retry on collision.
func NewJobNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "JOB-" + strings.ToUpper(id[:8])
}
