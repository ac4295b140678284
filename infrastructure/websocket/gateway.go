// Package websocket exposes the relay to browser-like clients.
// A client connects to /ws?name=<name>, receives every delivered message as a JSON
// ChatEvent and sends {"to": "...", "text": "..."} frames.
package websocket

import (
	"chat-relay/api/relay"
	"chat-relay/domain"
	"chat-relay/infrastructure/grpc/server"
	"chat-relay/sink"
	"context"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 8 * 1024
	// Control frame payload limit minus the two byte close code.
	maxCloseReason = 123
)

// OutgoingFrame is what a websocket client sends.
type OutgoingFrame struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type Gateway struct {
	relay      server.RelayService
	log        *slog.Logger
	upgrader   websocket.Upgrader
	bufferSize int
}

func NewGateway(log *slog.Logger, relayService server.RelayService, bufferSize int) *Gateway {
	return &Gateway{
		relay:      relayService,
		log:        log,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.serveWS)
	return mux
}

func (g *Gateway) serveWS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	handle := sink.NewConnectionSink(g.bufferSize)
	ctx := context.WithoutCancel(r.Context())
	record, err := g.relay.Register(ctx, name, handle)
	if err != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, closeReason(err)))
		return
	}
	defer func() {
		handle.Close()
		g.relay.Leave(ctx, record)
	}()

	go g.writeLoop(conn, handle)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(2 * pingPeriod))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * pingPeriod))
	})
	for {
		var frame OutgoingFrame
		if err := conn.ReadJSON(&frame); err != nil {
			g.log.Info("websocket client disconnected", "name", name, "error", err)
			return
		}
		if err := g.relay.SendMessage(ctx, name, frame.To, frame.Text); err != nil {
			g.log.Debug("websocket send rejected", "name", name, "error", err)
			// Unknown recipients are already notified by the router.
			notice := domain.NewMessage(domain.System, name, err.Error(), domain.KindNotice, time.Now().UTC())
			noticeCtx, cancel := context.WithTimeout(ctx, writeWait)
			_ = handle.Deliver(noticeCtx, notice)
			cancel()
		}
	}
}

// writeLoop is the single writer of the connection.
func (g *Gateway) writeLoop(conn *websocket.Conn, handle *sink.ConnectionSink) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		handle.Close()
		_ = conn.Close()
	}()
	for {
		select {
		case <-handle.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-handle.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(relay.FromMessage(msg)); err != nil {
				g.log.Warn("websocket write failed", "error", err)
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

// closeReason cuts the error text to fit a close frame, on a rune boundary.
func closeReason(err error) string {
	reason := err.Error()
	if len(reason) <= maxCloseReason {
		return reason
	}
	cut := maxCloseReason
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}
