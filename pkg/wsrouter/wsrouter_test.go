package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeConnRepliesThroughWriter(t *testing.T) {
	mux := New()
	mux.Handle("ok", func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		assert.Equal(t, "ok", GetMessageTypeFromCtx(ctx))
		return nil
	})
	mux.Handle("boom", func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		return errors.New("handler failed")
	})

	var (
		mu      sync.Mutex
		replies []any
	)
	done := make(chan struct{})

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		mux.ServeConn(r.Context(), conn, func(v any) error {
			mu.Lock()
			replies = append(replies, v)
			mu.Unlock()
			return nil
		})
		close(done)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ok", "payload": map[string]any{}}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "nope", "payload": map[string]any{}}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "boom", "payload": map[string]any{}}))
	conn.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ServeConn did not return after the connection closed")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, replies, 2, "only the unknown type and the failing handler reply")

	unknown, ok := replies[0].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, unknown["error"], "unknown message type")

	failed, ok := replies[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "handler failed", failed["error"])
	assert.Equal(t, "boom", failed["message_type"])
}
