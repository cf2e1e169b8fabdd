package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"nftmarket/core/events"
)

const (
	wsWriteTimeout = 10 * time.Second
)

// handleEventsWS streams committed events. The optional "module" query
// parameter restricts the stream to events of one module, matched on the
// event type prefix.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.node == nil {
		http.Error(w, "node unavailable", http.StatusServiceUnavailable)
		return
	}
	module := strings.TrimSpace(r.URL.Query().Get("module"))
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns()})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	ctx := conn.CloseRead(r.Context())
	if err := s.streamEvents(ctx, conn, module); err != nil {
		if status := websocket.CloseStatus(err); status == -1 {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) originPatterns() []string {
	if len(s.cfg.CORSOrigins) == 0 {
		return []string{"*"}
	}
	out := make([]string, 0, len(s.cfg.CORSOrigins))
	for _, origin := range s.cfg.CORSOrigins {
		origin = strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
		out = append(out, origin)
	}
	return out
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, module string) error {
	updates, cancel, backlog := s.node.Events().Subscribe()
	defer cancel()

	for _, evt := range backlog {
		if err := writeEvent(ctx, conn, evt, module); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeEvent(ctx, conn, evt, module); err != nil {
				return err
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt events.Event, module string) error {
	payload, ok := events.Payload(evt)
	if !ok {
		return nil
	}
	if module != "" && payload.Module() != module {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
