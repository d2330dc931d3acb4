package domain

import "time"

// UploadTarget is a short-lived place the client sends raw file bytes to.
type UploadTarget struct {
	URL       string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StoredFile describes an object behind an opaque storage reference.
type StoredFile struct {
	StorageID   string     `json:"storage_id"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	OwnerID     ExternalID `json:"owner_id"`
	UploadedAt  time.Time  `json:"uploaded_at"`
}
