package handler

import (
	"context"

	"github.com/labstack/echo/v4"
	"nhooyr.io/websocket"

	"github.com/commons-hub/community-api/internal/core/domain"
)

type sessionServer interface {
	Serve(ctx context.Context, conn *websocket.Conn, user domain.ExternalID) error
}

// RealtimeHandler upgrades authenticated requests to websocket sessions
// that receive message and notification events.
type RealtimeHandler struct {
	hub            sessionServer
	originPatterns []string
	// base ends every session on shutdown; hijacked connections are not
	// closed by http.Server.Shutdown.
	base context.Context
}

func NewRealtimeHandler(base context.Context, hub sessionServer, originPatterns []string) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, originPatterns: originPatterns, base: base}
}

// Connect opens the caller's event stream.
//
// @Summary      Realtime event stream
// @Description  Upgrades to a websocket. Browsers pass the identity token as ?token=.
// @Tags         realtime
// @Param        token  query  string  false  "Identity token when no Authorization header can be sent"
// @Success      101
// @Failure      401  {object}  errorResponse
// @Router       /v1/ws [get]
func (h *RealtimeHandler) Connect(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}

	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		// Accept has already written the HTTP error response.
		return nil
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	stop := context.AfterFunc(h.base, cancel)
	defer stop()

	return h.hub.Serve(ctx, conn, actor.ExternalID)
}
