package domain

import "time"

const (
	NotificationTaskSubmission   = "task_submission"
	NotificationSubmissionStatus = "submission_status"
)

// Notification is an inbox entry for a single user.
type Notification struct {
	ID        string     `json:"id"`
	UserID    ExternalID `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	RelatedID string     `json:"related_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}
