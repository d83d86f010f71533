package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/playtube/server/internal/session"
)

var (
	ErrNoSurface      = errors.New("no playback surface connected")
	ErrSurfaceDropped = errors.New("playback surface disconnected")
)

// engineCommand is pushed to the playback surface over the WebSocket.
type engineCommand struct {
	Command         string  `json:"command"`
	RequestID       string  `json:"request_id,omitempty"`
	URL             string  `json:"url,omitempty"`
	Track           string  `json:"track,omitempty"`
	Position        float64 `json:"position,omitempty"`
	ToleranceBefore float64 `json:"tolerance_before,omitempty"`
	ToleranceAfter  float64 `json:"tolerance_after,omitempty"`
	Rate            float64 `json:"rate,omitempty"`
}

// RemoteEngine implements session.Engine over the WebSocket connection of
// the currently attached playback surface. Loads are request/response: the
// command carries a request id, the surface answers asset_ready or
// asset_failed for it, and the blocked load call resolves.
type RemoteEngine struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	pending  map[string]chan error
	position float64
	rate     float64
}

func NewRemoteEngine() *RemoteEngine {
	return &RemoteEngine{
		pending: make(map[string]chan error),
		rate:    1.0,
	}
}

// Attach binds a surface connection, replacing any previous one. Loads
// pending on the old surface fail.
func (e *RemoteEngine) Attach(conn *websocket.Conn) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.failPendingLocked()
	e.conn = conn
}

// Release unbinds the surface if conn is still the active one.
func (e *RemoteEngine) Release(conn *websocket.Conn) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn != conn {
		return
	}
	e.failPendingLocked()
	e.conn = nil
}

func (e *RemoteEngine) failPendingLocked() {
	for id, ch := range e.pending {
		ch <- ErrSurfaceDropped
		delete(e.pending, id)
	}
}

func (e *RemoteEngine) send(cmd engineCommand) error {
	if err := e.Write(map[string]any{
		"type":    "engine_command",
		"payload": cmd,
	}); err != nil {
		if errors.Is(err, ErrNoSurface) {
			return err
		}
		return fmt.Errorf("failed to send engine command: %w", err)
	}

	return nil
}

// Write sends an arbitrary message to the surface. All writes to the
// surface connection go through here; gorilla allows one writer at a time.
func (e *RemoteEngine) Write(v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn == nil {
		return ErrNoSurface
	}

	return e.conn.WriteJSON(v)
}

func (e *RemoteEngine) awaitLoad(ctx context.Context, cmd engineCommand) error {
	requestID := uuid.NewString()
	cmd.RequestID = requestID

	ch := make(chan error, 1)
	e.mu.Lock()
	e.pending[requestID] = ch
	e.mu.Unlock()

	if err := e.send(cmd); err != nil {
		e.mu.Lock()
		delete(e.pending, requestID)
		e.mu.Unlock()
		return err
	}

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		e.mu.Lock()
		delete(e.pending, requestID)
		e.mu.Unlock()
		return ctx.Err()
	}
}

// Resolve completes a pending load. Unknown request ids are ignored; they
// belong to a load that was cancelled or superseded.
func (e *RemoteEngine) Resolve(requestID string, loadErr error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ch, ok := e.pending[requestID]
	if !ok {
		return
	}
	delete(e.pending, requestID)
	ch <- loadErr
}

// ReportProgress records the position and rate the surface reported with a
// time tick.
func (e *RemoteEngine) ReportProgress(position, rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.position = position
	if rate > 0 {
		e.rate = rate
	}
}

func (e *RemoteEngine) LoadAsset(ctx context.Context, url string) error {
	return e.awaitLoad(ctx, engineCommand{Command: "load_asset", URL: url})
}

func (e *RemoteEngine) LoadTrack(ctx context.Context, kind session.TrackKind, url string) error {
	return e.awaitLoad(ctx, engineCommand{Command: "load_track", Track: string(kind), URL: url})
}

func (e *RemoteEngine) Seek(position, toleranceBefore, toleranceAfter float64) error {
	return e.send(engineCommand{
		Command:         "seek",
		Position:        position,
		ToleranceBefore: toleranceBefore,
		ToleranceAfter:  toleranceAfter,
	})
}

func (e *RemoteEngine) Play() error {
	return e.send(engineCommand{Command: "play"})
}

func (e *RemoteEngine) Pause() error {
	return e.send(engineCommand{Command: "pause"})
}

func (e *RemoteEngine) SetRate(rate float64) error {
	if err := e.send(engineCommand{Command: "set_rate", Rate: rate}); err != nil {
		return err
	}

	// Optimistic: the next tick report corrects it if the surface refused.
	e.mu.Lock()
	e.rate = rate
	e.mu.Unlock()

	return nil
}

func (e *RemoteEngine) Rate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.rate
}

func (e *RemoteEngine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.position
}

func (e *RemoteEngine) Detach() error {
	err := e.send(engineCommand{Command: "detach"})
	if errors.Is(err, ErrNoSurface) {
		// Nothing attached, nothing to detach.
		return nil
	}

	return err
}
