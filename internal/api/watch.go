package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWatchCatalog streams catalog refresh events over a websocket so
// the companion UI can reload rules without polling.
func (s *Server) handleWatchCatalog(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := s.catalogManager.Subscribe()
	defer unsubscribe()

	slog.Info("catalog watch connected", "remote_addr", r.RemoteAddr)

	// Drain client messages so pings and close frames are processed;
	// the watch stream is write-only. The request context is not
	// consulted: the connection is hijacked and outlives the router's
	// timeout middleware.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			slog.Info("catalog watch disconnected", "remote_addr", r.RemoteAddr)
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				slog.Debug("failed to send catalog event", "error", err)
				return
			}
		}
	}
}
