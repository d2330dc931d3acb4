package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/commons-hub/community-api/internal/core/domain"
)

func TestAccountService_Register_Success(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, "secret", "", "", time.Hour)

	account, err := svc.Register(context.Background(), " Alice@Example.com ", "pass1234", "Alice")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if account.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", account.Email)
	}
	if !strings.HasPrefix(account.ExternalID.String(), domain.DefaultExternalIDPrefix) {
		t.Fatalf("expected external id with prefix, got %q", account.ExternalID)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("pass1234")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAccountService_Register_Validation(t *testing.T) {
	svc := NewAccountService(newStubAccountRepo(), "secret", "", "", time.Hour)

	if _, err := svc.Register(context.Background(), "not-an-email", "pass1234", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for email, got %v", err)
	}
	if _, err := svc.Register(context.Background(), "bob@example.com", "short", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for password, got %v", err)
	}
}

func TestAccountService_Register_Duplicate(t *testing.T) {
	svc := NewAccountService(newStubAccountRepo(), "secret", "", "", time.Hour)

	_, _ = svc.Register(context.Background(), "bob@example.com", "pass1234", "")
	if _, err := svc.Register(context.Background(), "bob@example.com", "pass5678", ""); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAccountService_Login_Success(t *testing.T) {
	svc := NewAccountService(newStubAccountRepo(), "secret", "community", "", time.Hour)

	registered, err := svc.Register(context.Background(), "carol@example.com", "s3cret-pw", "Carol")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, account, err := svc.Login(context.Background(), "carol@example.com", "s3cret-pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if account.ExternalID != registered.ExternalID {
		t.Fatalf("unexpected account %+v", account)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}, jwt.WithIssuer("community"))
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sub"] != registered.ExternalID.String() || claims["name"] != "Carol" {
		t.Fatalf("unexpected claims %v", claims)
	}
}

func TestAccountService_Login_InvalidPassword(t *testing.T) {
	svc := NewAccountService(newStubAccountRepo(), "secret", "", "", time.Hour)

	_, _ = svc.Register(context.Background(), "dave@example.com", "goodpass", "")
	if _, _, err := svc.Login(context.Background(), "dave@example.com", "badpass1"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccountService_Login_UnknownEmail(t *testing.T) {
	svc := NewAccountService(newStubAccountRepo(), "secret", "", "", time.Hour)

	if _, _, err := svc.Login(context.Background(), "ghost@example.com", "pass1234"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
