package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robolab/robomgr/pkg/interactive"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Clients are local dashboards polling their own backend.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamFrame is one websocket message carrying an output increment.
type streamFrame struct {
	SessionID string             `json:"session_id"`
	Status    interactive.Status `json:"status"`
	Offset    int                `json:"offset"`
	Output    string             `json:"output,omitempty"`
}

// handleStreamSession pushes session output increments over a
// websocket, an alternative to polling for clients that can hold a
// connection. The stream closes after the final chunk of a terminal
// session.
func (s *Server) handleStreamSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Session(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Reader goroutine: we never expect client messages, but reading is
	// required to notice the peer closing the connection.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	offset := 0
	for {
		status := sess.Status()
		if chunk := sess.OutputSince(offset); len(chunk) > 0 {
			frame := streamFrame{
				SessionID: sess.ID(),
				Status:    status,
				Offset:    offset,
				Output:    string(chunk),
			}
			offset += len(chunk)
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}

		if status.Terminal() && offset >= sess.OutputLen() {
			final := streamFrame{SessionID: sess.ID(), Status: status, Offset: offset}
			_ = conn.WriteJSON(final)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(status)))
			return
		}

		select {
		case <-clientGone:
			return
		case <-sess.Done():
			// Loop once more to flush the tail and send the final frame.
		case <-ticker.C:
		}
	}
}
