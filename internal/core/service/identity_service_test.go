package service

import (
	"context"
	"errors"
	"testing"

	"github.com/commons-hub/community-api/internal/core/domain"
)

func TestIdentityService_ExternalIDPassesThrough(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, "")

	got, err := svc.ResolveToExternalID(context.Background(), "user_abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "user_abc" {
		t.Fatalf("expected user_abc, got %s", got)
	}
}

func TestIdentityService_InternalIDIsTranslated(t *testing.T) {
	repo := newStubUserRepo(&domain.User{ID: "65f000000000000000000001", ExternalID: "user_bob"})
	svc := NewIdentityService(repo, "")

	got, err := svc.ResolveToExternalID(context.Background(), "65f000000000000000000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "user_bob" {
		t.Fatalf("expected user_bob, got %s", got)
	}
}

func TestIdentityService_UnknownInternalID(t *testing.T) {
	svc := NewIdentityService(newStubUserRepo(), "")

	_, err := svc.ResolveToExternalID(context.Background(), "65f0000000000000000000ff")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIdentityService_BlankCandidate(t *testing.T) {
	svc := NewIdentityService(newStubUserRepo(), "")

	if _, err := svc.ResolveToExternalID(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIdentityService_CustomPrefix(t *testing.T) {
	repo := newStubUserRepo(&domain.User{ID: "user_looks_external", ExternalID: "acct_1"})
	svc := NewIdentityService(repo, "acct_")

	got, err := svc.ResolveToExternalID(context.Background(), "user_looks_external")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "acct_1" {
		t.Fatalf("expected acct_1, got %s", got)
	}
}
