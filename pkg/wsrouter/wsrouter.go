// Package wsrouter dispatches typed JSON messages read from a WebSocket
// connection to registered handlers.
package wsrouter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

// ReplyFunc delivers routing and handler errors back to the peer. The
// router never writes to the connection itself; the caller supplies its
// serialized write path, since gorilla allows one writer at a time.
type ReplyFunc func(v any) error

type WSRouter struct {
	routes map[string]HandlerFunc
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	r.routes[messageType] = handler
}

// ServeConn reads messages until the connection drops, routing each to its
// handler. Handler errors are reported back through reply, unknown message
// types too; neither closes the connection.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn, reply ReplyFunc) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		handler, ok := r.routes[msg.Type]
		if !ok {
			reply(map[string]string{"error": "unknown message type: " + msg.Type})
			continue
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)
		if err := handler(msgCtx, conn, msg.Payload); err != nil {
			reply(map[string]any{
				"error":        err.Error(),
				"message_type": msg.Type,
			})
		}
	}
}
