package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/commons-hub/community-api/internal/core/domain"
)

const uploadPrefix = "https://api.test/v1/storage/upload/"

func newUploadFixture() (*UploadService, *stubObjectStore) {
	store := newStubObjectStore()
	svc := NewUploadService(store, newStubIdempotencyStore(), "secret", "https://api.test/", 0, zerolog.Nop())
	return svc, store
}

func uploadToken(t *testing.T, target *domain.UploadTarget) string {
	t.Helper()
	if !strings.HasPrefix(target.URL, uploadPrefix) {
		t.Fatalf("unexpected upload url %q", target.URL)
	}
	return strings.TrimPrefix(target.URL, uploadPrefix)
}

func TestUploadService_RoundTrip(t *testing.T) {
	svc, _ := newUploadFixture()
	ctx := context.Background()

	target, err := svc.GenerateUploadURL(ctx, actor("user_a"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(target.ExpiresAt) > defaultUploadTTL || time.Until(target.ExpiresAt) <= 0 {
		t.Fatalf("unexpected expiry %v", target.ExpiresAt)
	}

	file, err := svc.Accept(ctx, uploadToken(t, target), "image/png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if file.OwnerID != "user_a" || file.Size != int64(len("png-bytes")) {
		t.Fatalf("unexpected file %+v", file)
	}

	url, err := svc.ResolveURL(ctx, file.StorageID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if url != "https://api.test/v1/storage/files/"+file.StorageID {
		t.Fatalf("unexpected url %q", url)
	}

	rc, meta, err := svc.Open(ctx, file.StorageID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "png-bytes" || meta.ContentType != "image/png" {
		t.Fatalf("unexpected content %q %+v", body, meta)
	}
}

func TestUploadService_TokenIsSingleUse(t *testing.T) {
	svc, _ := newUploadFixture()
	ctx := context.Background()
	target, _ := svc.GenerateUploadURL(ctx, actor("user_a"))
	token := uploadToken(t, target)

	if _, err := svc.Accept(ctx, token, "", strings.NewReader("a")); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if _, err := svc.Accept(ctx, token, "", strings.NewReader("b")); !errors.Is(err, domain.ErrInvalidUploadToken) {
		t.Fatalf("expected ErrInvalidUploadToken, got %v", err)
	}
}

func TestUploadService_RejectsBadTokens(t *testing.T) {
	svc, _ := newUploadFixture()
	ctx := context.Background()

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID: "x", Subject: "user_a", Audience: jwt.ClaimStrings{uploadAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("secret"))

	wrongAudience, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID: "y", Subject: "user_a", Audience: jwt.ClaimStrings{"identity"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("secret"))

	wrongKey, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID: "z", Subject: "user_a", Audience: jwt.ClaimStrings{uploadAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("other"))

	for name, token := range map[string]string{"expired": expired, "audience": wrongAudience, "key": wrongKey, "garbage": "abc"} {
		if _, err := svc.Accept(ctx, token, "", strings.NewReader("x")); !errors.Is(err, domain.ErrInvalidUploadToken) {
			t.Fatalf("%s: expected ErrInvalidUploadToken, got %v", name, err)
		}
	}
}

func TestUploadService_ResolveUnknown(t *testing.T) {
	svc, _ := newUploadFixture()

	if _, err := svc.ResolveURL(context.Background(), "nope"); !errors.Is(err, domain.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}

func TestUploadService_RequiresActor(t *testing.T) {
	svc, _ := newUploadFixture()

	if _, err := svc.GenerateUploadURL(context.Background(), domain.Actor{}); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestUploadService_ConcurrentAcceptStoresOnce(t *testing.T) {
	svc, store := newUploadFixture()
	ctx := context.Background()
	target, _ := svc.GenerateUploadURL(ctx, actor("user_a"))
	token := uploadToken(t, target)
	store.putGate = newGate()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Accept(ctx, token, "", strings.NewReader("a"))
		done <- err
	}()
	<-store.putGate.entered

	if _, err := svc.Accept(ctx, token, "", strings.NewReader("b")); !errors.Is(err, domain.ErrInvalidUploadToken) {
		t.Fatalf("expected ErrInvalidUploadToken while the first upload runs, got %v", err)
	}

	close(store.putGate.release)
	if err := <-done; err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if len(store.files) != 1 {
		t.Fatalf("expected one stored file, got %d", len(store.files))
	}
}

func TestUploadService_FailedStoreReleasesToken(t *testing.T) {
	svc, store := newUploadFixture()
	ctx := context.Background()
	target, _ := svc.GenerateUploadURL(ctx, actor("user_a"))
	token := uploadToken(t, target)
	store.putErr = errors.New("gridfs unavailable")

	if _, err := svc.Accept(ctx, token, "", strings.NewReader("a")); err == nil {
		t.Fatalf("expected error")
	}

	store.putErr = nil
	if _, err := svc.Accept(ctx, token, "", strings.NewReader("a")); err != nil {
		t.Fatalf("expected the token to be usable after a failed store, got %v", err)
	}
}
