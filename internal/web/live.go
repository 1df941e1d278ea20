package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// liveMessage tells the page which state version is current.
type liveMessage struct {
	Version uint64 `json:"version"`
	Busy    bool   `json:"busy"`
}

// handleLive pushes the state version to the page after every store change.
// The page reloads when the version differs from the one it was rendered with.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	changes, unsubscribe := s.store.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go s.readPump(conn, closed)
	s.writePump(conn, changes, closed)
}

// readPump discards client messages and closes closed when the peer goes away.
func (s *Server) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, changes <-chan struct{}, closed <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	if err := s.sendVersion(conn); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case <-changes:
			if err := s.sendVersion(conn); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) sendVersion(conn *websocket.Conn) error {
	snap := s.store.Snapshot()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(liveMessage{Version: snap.Version, Busy: snap.Busy})
}
