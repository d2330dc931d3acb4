// Package realtime pushes committed events to connected websocket sessions.
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/commons-hub/community-api/internal/api/metrics"
	"github.com/commons-hub/community-api/internal/core/domain"
)

const (
	sessionBuffer       = 64
	writeTimeout        = 10 * time.Second
	defaultPingInterval = 25 * time.Second
)

type session struct {
	user domain.ExternalID
	send chan domain.RealtimeEvent
}

// Hub tracks the websocket sessions open on this instance, keyed by the
// external id of the connected user. A user may hold several sessions.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[domain.ExternalID]map[*session]struct{}
	pingInterval time.Duration
	log          zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		sessions:     make(map[domain.ExternalID]map[*session]struct{}),
		pingInterval: defaultPingInterval,
		log:          log,
	}
}

func (h *Hub) register(user domain.ExternalID) *session {
	s := &session{user: user, send: make(chan domain.RealtimeEvent, sessionBuffer)}

	h.mu.Lock()
	if h.sessions[user] == nil {
		h.sessions[user] = make(map[*session]struct{})
	}
	h.sessions[user][s] = struct{}{}
	h.mu.Unlock()

	metrics.RealtimeConnections.Inc()
	return s
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	if set, ok := h.sessions[s.user]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.sessions, s.user)
		}
	}
	h.mu.Unlock()

	metrics.RealtimeConnections.Dec()
}

// Connected reports how many sessions user holds on this instance.
func (h *Hub) Connected(user domain.ExternalID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[user])
}

// Deliver hands event to every session of its recipients. A session whose
// buffer is full misses the event.
func (h *Hub) Deliver(event domain.RealtimeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, user := range event.Recipients {
		for s := range h.sessions[user] {
			select {
			case s.send <- event:
				metrics.RealtimeDeliveredTotal.WithLabelValues("delivered").Inc()
			default:
				metrics.RealtimeDeliveredTotal.WithLabelValues("dropped").Inc()
				h.log.Warn().Str("user", user.String()).Str("type", event.Type).Msg("slow realtime client, event dropped")
			}
		}
	}
}

// Publish delivers event to local sessions only. It lets the dispatcher
// feed the hub directly when no cross-instance broker is configured.
func (h *Hub) Publish(_ context.Context, event domain.RealtimeEvent) error {
	h.Deliver(event)
	return nil
}

// Serve pumps events to conn for user until the peer disconnects or ctx is
// cancelled. Clients never send application data; inbound frames are only
// read to process control frames.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, user domain.ExternalID) error {
	ctx = conn.CloseRead(ctx)

	s := h.register(user)
	defer h.unregister(s)

	h.log.Debug().Str("user", user.String()).Msg("realtime session opened")

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "bye")
			h.log.Debug().Str("user", user.String()).Msg("realtime session closed")
			return nil
		case event := <-s.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, event)
			cancel()
			if err != nil {
				return closeErr(err)
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return closeErr(err)
			}
		}
	}
}

// closeErr treats a peer-initiated or context-driven close as a clean exit.
func closeErr(err error) error {
	if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) != -1 {
		return nil
	}
	return err
}
