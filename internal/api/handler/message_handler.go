package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/commons-hub/community-api/internal/api/metrics"
	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

// MessageHandler serves sending, reading and read receipts.
type MessageHandler struct {
	messages ports.MessageService
}

func NewMessageHandler(messages ports.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type sendMessageRequest struct {
	Content        string `json:"content"         validate:"required"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"     validate:"required"`
	ConversationID string `json:"conversation_id"`
}

type sendMessageResponse struct {
	ConversationID string          `json:"conversation_id"`
	Message        *domain.Message `json:"message,omitempty"`
	Replayed       bool            `json:"replayed,omitempty"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type markReadResponse struct {
	Updated int64 `json:"updated"`
}

// Send appends a message, creating the direct conversation when no id is
// given.
//
// @Summary      Send a message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Replays the first result for a repeated key"
// @Param        body             body      sendMessageRequest  true   "Message"
// @Success      201              {object}  sendMessageResponse
// @Success      200              {object}  sendMessageResponse  "Idempotent replay"
// @Failure      403              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse  "Same key still in progress"
// @Failure      422              {object}  errorResponse
// @Router       /v1/messages [post]
func (h *MessageHandler) Send(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	idempotencyKey := c.Request().Header.Get("Idempotency-Key")

	result, err := h.messages.SendMessage(c.Request().Context(), actor, ports.SendMessageInput{
		Content:        req.Content,
		SenderID:       req.SenderID,
		ReceiverID:     req.ReceiverID,
		ConversationID: req.ConversationID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		metrics.MessagesSentTotal.WithLabelValues("error").Inc()
		return err
	}

	if idempotencyKey != "" {
		if result.Replayed {
			metrics.SendDedupTotal.WithLabelValues("hit").Inc()
		} else {
			metrics.SendDedupTotal.WithLabelValues("miss").Inc()
		}
	}

	resp := sendMessageResponse{
		ConversationID: result.ConversationID,
		Message:        result.Message,
		Replayed:       result.Replayed,
	}
	if result.Replayed {
		metrics.MessagesSentTotal.WithLabelValues("replayed").Inc()
		return c.JSON(http.StatusOK, resp)
	}
	metrics.MessagesSentTotal.WithLabelValues("sent").Inc()
	if result.ConversationCreated {
		metrics.ConversationsStartedTotal.WithLabelValues("created").Inc()
	}
	return c.JSON(http.StatusCreated, resp)
}

// List returns a conversation's full message log, oldest first.
//
// @Summary      List messages
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation id"
// @Success      200  {array}   domain.Message
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/conversations/{id}/messages [get]
func (h *MessageHandler) List(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	msgs, err := h.messages.GetMessages(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return c.JSON(http.StatusOK, msgs)
}

// UnreadCount returns how many messages addressed to the caller are unread.
//
// @Summary      Unread message count
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Router       /v1/messages/unread-count [get]
func (h *MessageHandler) UnreadCount(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	n, err := h.messages.UnreadCount(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// MarkRead marks every message addressed to the caller in a conversation
// as read.
//
// @Summary      Mark conversation read
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Conversation id"
// @Success      200  {object}  markReadResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/conversations/{id}/read [post]
func (h *MessageHandler) MarkRead(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	n, err := h.messages.MarkConversationRead(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, markReadResponse{Updated: n})
}
