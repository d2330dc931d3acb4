package mongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/commons-hub/community-api/internal/core/domain"
)

const uploadsBucket = "uploads"

// GridFSStore keeps uploaded files in a GridFS bucket. Storage ids are
// random UUIDs used directly as GridFS file ids.
type GridFSStore struct {
	bucket *gridfs.Bucket
}

func NewGridFSStore(db *mongo.Database) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(uploadsBucket))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket}, nil
}

type fileMetadata struct {
	ContentType string `bson:"content_type"`
	OwnerID     string `bson:"owner_id"`
}

type gridFile struct {
	ID         string       `bson:"_id"`
	Length     int64        `bson:"length"`
	UploadDate time.Time    `bson:"uploadDate"`
	Metadata   fileMetadata `bson:"metadata"`
}

func (f *gridFile) toDomain() *domain.StoredFile {
	return &domain.StoredFile{
		StorageID:   f.ID,
		ContentType: f.Metadata.ContentType,
		Size:        f.Length,
		OwnerID:     domain.ExternalID(f.Metadata.OwnerID),
		UploadedAt:  f.UploadDate,
	}
}

func (s *GridFSStore) Put(ctx context.Context, owner domain.ExternalID, contentType string, r io.Reader) (*domain.StoredFile, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}

	id := uuid.NewString()
	meta := fileMetadata{ContentType: contentType, OwnerID: owner.String()}
	counter := &countingReader{r: r}
	if err := s.bucket.UploadFromStreamWithID(id, id, counter, options.GridFSUpload().SetMetadata(meta)); err != nil {
		return nil, fmt.Errorf("gridfs upload: %w", err)
	}

	return &domain.StoredFile{
		StorageID:   id,
		ContentType: contentType,
		Size:        counter.n,
		OwnerID:     owner,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

func (s *GridFSStore) Stat(ctx context.Context, storageID string) (*domain.StoredFile, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}

	cur, err := s.bucket.Find(bson.M{"_id": storageID})
	if err != nil {
		return nil, fmt.Errorf("gridfs find: %w", err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, fmt.Errorf("gridfs find: %w", err)
		}
		return nil, domain.ErrFileNotFound
	}
	var f gridFile
	if err := cur.Decode(&f); err != nil {
		return nil, fmt.Errorf("gridfs decode: %w", err)
	}
	return f.toDomain(), nil
}

// Open streams the file content. The caller closes the reader.
func (s *GridFSStore) Open(ctx context.Context, storageID string) (io.ReadCloser, *domain.StoredFile, error) {
	file, err := s.Stat(ctx, storageID)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.bucket.OpenDownloadStream(storageID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, domain.ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("gridfs open: %w", err)
	}
	return stream, file, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
