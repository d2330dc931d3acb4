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
	"github.com/commons-hub/community-api/internal/core/ports"
)

func TestConversationHandler_Start(t *testing.T) {
	cases := []struct {
		name    string
		created bool
		code    int
	}{
		{"new conversation", true, http.StatusCreated},
		{"existing conversation", false, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEcho()
			stub := &stubConversationService{
				startFn: func(ctx context.Context, actor domain.Actor, otherID string) (*ports.StartConversationResult, error) {
					if actor.ExternalID != "user_a" || otherID != "64b7f0c2a1b2c3d4e5f60718" {
						t.Fatalf("unexpected args %v %s", actor, otherID)
					}
					return &ports.StartConversationResult{ConversationID: "conv-1", Created: tc.created}, nil
				},
			}
			req := httptest.NewRequest(http.MethodPost, "/v1/conversations", strings.NewReader(`{"other_user_id":"64b7f0c2a1b2c3d4e5f60718"}`))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := as(e.NewContext(req, rec), "user_a")

			if err := NewConversationHandler(stub).Start(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var resp startConversationResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.ConversationID != "conv-1" || resp.Created != tc.created {
				t.Fatalf("unexpected response %+v", resp)
			}
		})
	}
}

func TestConversationHandler_Start_UnknownUser(t *testing.T) {
	e := newEcho()
	stub := &stubConversationService{
		startFn: func(ctx context.Context, actor domain.Actor, otherID string) (*ports.StartConversationResult, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/conversations", strings.NewReader(`{"other_user_id":"nobody"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := as(e.NewContext(req, httptest.NewRecorder()), "user_a")

	if err := NewConversationHandler(stub).Start(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestConversationHandler_With_NoConversation(t *testing.T) {
	e := newEcho()
	stub := &stubConversationService{
		findFn: func(ctx context.Context, a, b string) (*domain.Conversation, error) {
			if a != "user_a" || b != "user_b" {
				t.Fatalf("unexpected pair %s %s", a, b)
			}
			return nil, nil
		},
	}
	c := as(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()), "user_a")
	c.SetParamNames("user_id")
	c.SetParamValues("user_b")

	if err := NewConversationHandler(stub).With(c); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestConversationHandler_List(t *testing.T) {
	e := newEcho()
	stub := &stubConversationService{
		listFn: func(ctx context.Context, actor domain.Actor) ([]domain.ConversationWithOtherUser, error) {
			return []domain.ConversationWithOtherUser{
				{Conversation: domain.Conversation{ID: "conv-2"}, OtherUserID: "user_c"},
				{Conversation: domain.Conversation{ID: "conv-1"}, OtherUserID: "user_b", OtherUser: &domain.User{DisplayName: "Bea"}},
			}, nil
		},
	}
	rec := httptest.NewRecorder()
	c := as(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), "user_a")

	if err := NewConversationHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(rows) != 2 || rows[0]["id"] != "conv-2" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if _, ok := rows[0]["other_user"]; ok {
		t.Fatalf("unsynced counterpart must be omitted")
	}
	if rows[1]["other_user"] == nil {
		t.Fatalf("expected counterpart profile")
	}
}
