package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/Grooty887/Tomorrow-tracker/internal/notify"
	logx "github.com/Grooty887/Tomorrow-tracker/pkg/logx"
)

// wsSendBuffer is the per-connection event backlog a client may fall behind
// by before the hub drops it.
const wsSendBuffer = 16

// wsWriteTimeout bounds a single frame write to a client.
const wsWriteTimeout = 5 * time.Second

// handleNotificationsWS upgrades the connection and streams notification
// envelopes until the client goes away. Clients only listen; anything they
// send is discarded by CloseRead.
func (s *Server) handleNotificationsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Debug("websocket accept failed", logx.Err(err))
		return
	}

	events, unsubscribe := s.deps.Hub.Subscribe(wsSendBuffer)
	defer unsubscribe()

	s.log.Info("notification client connected", logx.Int("clients", s.deps.Hub.Len()))
	defer s.log.Info("notification client disconnected")

	// CloseRead reads and drops incoming frames, and cancels the returned
	// context when the peer closes or the read fails.
	ctx := conn.CloseRead(r.Context())
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				// The hub dropped this subscriber (backlog overflow) or
				// is shutting down.
				conn.Close(websocket.StatusPolicyViolation, "too slow")
				return
			}
			if err := writeEvent(ctx, conn, e); err != nil {
				s.log.Debug("websocket write failed", logx.Err(err))
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, e notify.Event) error {
	payload, err := json.Marshal(notify.Envelope(e))
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}
