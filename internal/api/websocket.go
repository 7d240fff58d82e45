package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler pushes the state view on connect and after every state
// change. Incoming messages are ignored; a read error ends the session.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("HTTP: failed to upgrade websocket")
		return
	}
	defer ws.Close()

	changed := s.watch()
	defer s.unwatch(changed)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.log.Debug().Str("remote", r.RemoteAddr).Msg("HTTP: websocket client connected")
	for {
		ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteJSON(s.state.Snapshot()); err != nil {
			s.log.Debug().Err(err).Msg("HTTP: websocket write failed")
			return
		}
		select {
		case <-changed:
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
