package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/commons-hub/community-api/internal/api/metrics"
	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

// ConversationHandler serves the conversation list and direct threads.
type ConversationHandler struct {
	conversations ports.ConversationService
}

func NewConversationHandler(conversations ports.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

type startConversationRequest struct {
	OtherUserID string `json:"other_user_id" validate:"required"`
}

type startConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Created        bool   `json:"created"`
}

// Start finds or creates the direct conversation with another user.
//
// @Summary      Start a direct conversation
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      startConversationRequest  true  "Counterpart, internal or external id"
// @Success      200   {object}  startConversationResponse  "Existing conversation"
// @Success      201   {object}  startConversationResponse  "New conversation"
// @Failure      404   {object}  errorResponse
// @Router       /v1/conversations [post]
func (h *ConversationHandler) Start(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req startConversationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.conversations.StartConversation(c.Request().Context(), actor, req.OtherUserID)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
		metrics.ConversationsStartedTotal.WithLabelValues("created").Inc()
	} else {
		metrics.ConversationsStartedTotal.WithLabelValues("existing").Inc()
	}
	return c.JSON(status, startConversationResponse{
		ConversationID: result.ConversationID,
		Created:        result.Created,
	})
}

// List returns the caller's conversations, newest activity first.
//
// @Summary      List conversations
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.ConversationWithOtherUser
// @Failure      401  {object}  errorResponse
// @Router       /v1/conversations [get]
func (h *ConversationHandler) List(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	rows, err := h.conversations.ListConversations(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []domain.ConversationWithOtherUser{}
	}
	return c.JSON(http.StatusOK, rows)
}

// Get returns one conversation the caller belongs to.
//
// @Summary      Get conversation
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation id"
// @Success      200  {object}  domain.Conversation
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/conversations/{id} [get]
func (h *ConversationHandler) Get(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	conv, err := h.conversations.GetConversation(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, conv)
}

// With returns the direct conversation between the caller and another user
// without creating one.
//
// @Summary      Find direct conversation
// @Tags         conversations
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string  true  "Counterpart, internal or external id"
// @Success      200      {object}  domain.Conversation
// @Failure      404      {object}  errorResponse
// @Router       /v1/conversations/with/{user_id} [get]
func (h *ConversationHandler) With(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	conv, err := h.conversations.FindConversation(c.Request().Context(), actor.ExternalID.String(), c.Param("user_id"))
	if err != nil {
		return err
	}
	if conv == nil {
		return domain.ErrConversationNotFound
	}
	return c.JSON(http.StatusOK, conv)
}
