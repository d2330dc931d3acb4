package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

const (
	uploadAudience   = "upload"
	uploadScope      = "upload"
	defaultUploadTTL = 15 * time.Minute
)

// UploadService hands out signed, short-lived upload targets and resolves
// storage ids to fetchable URLs.
type UploadService struct {
	store   ports.ObjectStore
	used    ports.IdempotencyStore
	secret  []byte
	baseURL string
	ttl     time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

// NewUploadService wires the upload boundary. used may be nil; when set it
// makes every upload token single-use. A token is claimed before its bytes
// are stored, and released again if storing fails.
func NewUploadService(
	store ports.ObjectStore,
	used ports.IdempotencyStore,
	secret, baseURL string,
	ttl time.Duration,
	log zerolog.Logger,
) *UploadService {
	if ttl <= 0 {
		ttl = defaultUploadTTL
	}
	return &UploadService{
		store:   store,
		used:    used,
		secret:  []byte(secret),
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GenerateUploadURL is step one of an upload.
func (s *UploadService) GenerateUploadURL(ctx context.Context, actor domain.Actor) (*domain.UploadTarget, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   actor.ExternalID.String(),
		Audience:  jwt.ClaimStrings{uploadAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign upload token: %w", err)
	}

	return &domain.UploadTarget{
		URL:       s.baseURL + "/v1/storage/upload/" + token,
		ExpiresAt: expires,
	}, nil
}

// Accept is step two: it verifies the token and streams body into the
// object store. The returned storage id is what entities persist.
func (s *UploadService) Accept(ctx context.Context, token, contentType string, body io.Reader) (*domain.StoredFile, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	claimed := false
	if s.used != nil {
		_, ok, err := s.used.Claim(ctx, uploadScope, claims.ID)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("upload token reuse check failed, accepting anyway")
		case !ok:
			return nil, domain.ErrInvalidUploadToken
		default:
			claimed = true
		}
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	file, err := s.store.Put(ctx, domain.ExternalID(claims.Subject), contentType, body)
	if err != nil {
		if claimed {
			if rerr := s.used.Release(ctx, uploadScope, claims.ID); rerr != nil {
				s.log.Warn().Err(rerr).Msg("failed to release upload token")
			}
		}
		return nil, fmt.Errorf("store upload: %w", err)
	}

	if claimed {
		if err := s.used.Complete(ctx, uploadScope, claims.ID, file.StorageID); err != nil {
			s.log.Warn().Err(err).Msg("failed to mark upload token as used")
		}
	}

	s.log.Info().
		Str("storage_id", file.StorageID).
		Str("owner", claims.Subject).
		Int64("size", file.Size).
		Msg("file uploaded")
	return file, nil
}

func (s *UploadService) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(uploadAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, domain.ErrInvalidUploadToken
	}
	return claims, nil
}

// ResolveURL exchanges a storage id for a URL the client can fetch.
func (s *UploadService) ResolveURL(ctx context.Context, storageID string) (string, error) {
	if _, err := s.store.Stat(ctx, storageID); err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			return "", err
		}
		return "", fmt.Errorf("resolve url: %w", err)
	}
	return s.baseURL + "/v1/storage/files/" + storageID, nil
}

func (s *UploadService) Open(ctx context.Context, storageID string) (io.ReadCloser, *domain.StoredFile, error) {
	return s.store.Open(ctx, storageID)
}
