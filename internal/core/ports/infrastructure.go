package ports

import (
	"context"
	"io"

	"github.com/commons-hub/community-api/internal/core/domain"
)

// ObjectStore holds uploaded file bytes behind opaque storage ids.
type ObjectStore interface {
	Put(ctx context.Context, owner domain.ExternalID, contentType string, r io.Reader) (*domain.StoredFile, error)
	Stat(ctx context.Context, storageID string) (*domain.StoredFile, error)
	Open(ctx context.Context, storageID string) (io.ReadCloser, *domain.StoredFile, error)
}

// EventPublisher accepts realtime events for asynchronous delivery.
type EventPublisher interface {
	Enqueue(event domain.RealtimeEvent)
}

// IdempotencyStore records the outcome of keyed requests for a while.
type IdempotencyStore interface {
	// Claim reserves key for the caller. When the key is already held,
	// claimed is false and value is the stored outcome, or empty while the
	// holder has not completed.
	Claim(ctx context.Context, scope, key string) (value string, claimed bool, err error)
	// Complete stores the outcome of a claimed key.
	Complete(ctx context.Context, scope, key, value string) error
	// Release drops a claim whose request failed so a retry can proceed.
	Release(ctx context.Context, scope, key string) error
}
