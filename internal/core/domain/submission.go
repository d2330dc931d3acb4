package domain

import "time"

// SubmissionStatus is the review state of a submission. The set is closed
// but any status may follow any other.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// ParseSubmissionStatus validates s against the known statuses.
func ParseSubmissionStatus(s string) (SubmissionStatus, error) {
	switch st := SubmissionStatus(s); st {
	case SubmissionPending, SubmissionApproved, SubmissionRejected:
		return st, nil
	default:
		return "", Invalid("status", "must be one of pending, approved, rejected")
	}
}

// Submission is a member's response to a task.
type Submission struct {
	ID             string           `json:"id"`
	TaskID         string           `json:"task_id"`
	OrganizationID string           `json:"organization_id"`
	UserID         ExternalID       `json:"user_id"`
	FileRef        string           `json:"file_ref,omitempty"`
	Note           string           `json:"note,omitempty"`
	Status         SubmissionStatus `json:"status"`
	ReviewedBy     ExternalID       `json:"reviewed_by,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
