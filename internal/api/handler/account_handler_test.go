package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/commons-hub/community-api/internal/core/domain"
)

func TestAccountHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, email, password, displayName string) (*domain.Account, error) {
			if email != "ada@example.com" || password != "correct-horse" || displayName != "Ada" {
				t.Fatalf("unexpected args: %s %s %s", email, password, displayName)
			}
			return &domain.Account{ExternalID: "user_1", Email: email, DisplayName: displayName, PasswordHash: "hash"}, nil
		},
	}
	handler := NewAccountHandler(stub)

	body := strings.NewReader(`{"email":"ada@example.com","password":"correct-horse","display_name":"Ada"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	account, ok := resp["account"].(map[string]any)
	if !ok {
		t.Fatalf("expected account in response")
	}
	if account["external_id"] != "user_1" {
		t.Fatalf("unexpected account payload: %+v", account)
	}
	if _, leaked := account["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}
}

func TestAccountHandler_Register_ValidationFails(t *testing.T) {
	e := newEcho()
	handler := NewAccountHandler(&stubAccountService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(`{"email":"not-an-email","password":"short"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := handler.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	msg := he.Message.(string)
	if !strings.Contains(msg, "email must be a valid email") || !strings.Contains(msg, "password must be at least 8") {
		t.Fatalf("unexpected validation message %q", msg)
	}
}

func TestAccountHandler_Register_UserExists(t *testing.T) {
	e := newEcho()
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, email, password, displayName string) (*domain.Account, error) {
			return nil, domain.ErrUserExists
		},
	}
	handler := NewAccountHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(`{"email":"ada@example.com","password":"correct-horse"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := handler.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAccountHandler_Login_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAccountService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.Account, error) {
			return "signed.jwt.token", &domain.Account{ExternalID: "user_1", Email: email}, nil
		},
	}
	handler := NewAccountHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"email":"ada@example.com","password":"correct-horse"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "signed.jwt.token" {
		t.Fatalf("unexpected token %q", resp.Token)
	}
}

func TestAccountHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAccountService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.Account, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAccountHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"email":"ada@example.com","password":"wrong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccountHandler_Login_InvalidPayload(t *testing.T) {
	e := newEcho()
	handler := NewAccountHandler(&stubAccountService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"email":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := handler.Login(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
