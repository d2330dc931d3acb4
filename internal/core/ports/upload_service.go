package ports

import (
	"context"
	"io"

	"github.com/commons-hub/community-api/internal/core/domain"
)

// UploadService implements the two-step upload: hand out a short-lived
// target, then accept bytes sent to it. Entities only ever store the
// returned storage id.
type UploadService interface {
	GenerateUploadURL(ctx context.Context, actor domain.Actor) (*domain.UploadTarget, error)
	Accept(ctx context.Context, token, contentType string, body io.Reader) (*domain.StoredFile, error)
	ResolveURL(ctx context.Context, storageID string) (string, error)
	Open(ctx context.Context, storageID string) (io.ReadCloser, *domain.StoredFile, error)
}
