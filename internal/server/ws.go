package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"chatwire/internal/push"
)

const (
	wsReadLimit    = 4096
	wsPongInterval = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect cross-origin during local development.
	CheckOrigin: func(*http.Request) bool { return true },
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = bearerToken(r)
	}
	user, ok := s.app.UserFromToken(token)
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}

	conn := push.NewConn(ws)
	s.registry.Register(user.ID, conn)
	s.dispatcher.BroadcastPresence()

	go s.readLoop(user.ID, conn, ws)
}

// readLoop drains client frames until the connection drops, then retracts
// the user's presence unless a newer connection has already replaced it.
func (s *Server) readLoop(userID string, conn *push.Conn, ws *websocket.Conn) {
	ws.SetReadLimit(wsReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongInterval))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongInterval))
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	conn.Close()
	if s.registry.Unregister(userID, conn) {
		s.dispatcher.BroadcastPresence()
	}
}
