package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/pageview/internal/logging"
	"github.com/ziadkadry99/pageview/internal/viewer"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client is one WebSocket connection following a session. Writes are
// serialized because events arrive from the render worker and the reader.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(ev event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(ev)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Logger().Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn}
	if !sess.attach(c) {
		sendError(c, sess.ID, "session closed")
		return
	}
	defer sess.detach(c)

	s.sendSnapshot(sess, c)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Logger().Warn("websocket read", "session", sess.ID, "error", err)
			}
			return
		}

		var a action
		if err := json.Unmarshal(msg, &a); err != nil {
			sendError(c, sess.ID, "invalid message format")
			continue
		}
		if err := sess.dispatch(r.Context(), a); err != nil {
			var limit *viewer.ScaleLimitError
			if errors.As(err, &limit) {
				sendEvent(c, event{Type: "zoom_limit", SessionID: sess.ID, Scale: limit.Limit, Error: err.Error()})
				continue
			}
			sendError(c, sess.ID, err.Error())
			continue
		}
		if a.Type == "snapshot" || a.Type == "resize" {
			s.sendSnapshot(sess, c)
		}
	}
}

func (s *Server) sendSnapshot(sess *session, c *client) {
	snap := sess.renderer.Snapshot()
	if err := c.send(event{Type: "snapshot", SessionID: sess.ID, Snapshot: &snap}); err != nil {
		logging.Logger().Debug("websocket write", "session", sess.ID, "error", err)
	}
}

func sendError(c *client, sessionID, message string) {
	sendEvent(c, event{Type: "error", SessionID: sessionID, Error: message})
}

func sendEvent(c *client, ev event) {
	if err := c.send(ev); err != nil {
		logging.Logger().Debug("websocket write", "session", ev.SessionID, "type", ev.Type, "error", err)
	}
}
