package events

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// WebSocketHandler streams hub events to a frontend over a websocket.
type WebSocketHandler struct {
	hub   *Hub
	isDev bool
}

// NewWebSocketHandler creates a handler streaming events from hub.
func NewWebSocketHandler(hub *Hub, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, isDev: isDev}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if h.isDev {
		// The Vite dev server runs on a different origin.
		opts.OriginPatterns = []string{"*"}
	}

	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("Failed to accept events WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close events websocket", "error", closeErr)
		}
	}()

	id, ch := h.hub.Subscribe()
	defer h.hub.Unsubscribe(id)
	slog.Info("Events subscriber connected", "subscriber_id", id, "ip", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reads are discarded, but reading is what surfaces the client closing
	// the connection.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, ws, ev); err != nil {
				slog.Debug("Events write failed", "error", err, "subscriber_id", id)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
