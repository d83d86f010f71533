package controller

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/playtube/server/internal/session"
	"github.com/playtube/server/pkg/ctxlogger"
)

type queueEntry struct {
	ItemID  string `json:"item_id"`
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Length  int    `json:"length"`
}

type sessionSnapshot struct {
	State          session.State `json:"state"`
	CurrentVideoID string        `json:"current_video_id,omitempty"`
	Position       float64       `json:"position"`
	Rate           float64       `json:"rate"`
	Autoplay       bool          `json:"autoplay"`
	MaxQuality     int           `json:"max_quality"`
	Queue          []queueEntry  `json:"queue"`
}

func (c *controller) snapshot() sessionSnapshot {
	snap := sessionSnapshot{
		State:      c.sess.State(),
		Position:   c.engine.Position(),
		Rate:       c.settings.PlaybackRate(),
		Autoplay:   c.settings.AutoplayEnabled(),
		MaxQuality: c.settings.MaxQualityHeight(),
		Queue:      make([]queueEntry, 0),
	}

	if current := c.sess.Current(); current != nil {
		snap.CurrentVideoID = current.Video.ID
	}

	for _, item := range c.sess.Queue().List() {
		snap.Queue = append(snap.Queue, queueEntry{
			ItemID:  item.ID,
			VideoID: item.Video.ID,
			Title:   item.Video.Title,
			Author:  item.Video.Author,
			Length:  item.Video.Length,
		})
	}

	return snap
}

// pushEvent forwards a session event to the connected surface. Events
// raised while no surface is connected are dropped; the next surface gets
// a full snapshot on connect instead.
func (c *controller) pushEvent(ev session.Event) {
	c.peerMu.Lock()
	defer c.peerMu.Unlock()

	if c.peer == nil {
		return
	}

	payload := map[string]any{}
	if ev.State != "" {
		payload["state"] = ev.State
	}
	if ev.VideoID != "" {
		payload["video_id"] = ev.VideoID
	}
	if ev.Error != "" {
		payload["error"] = ev.Error
	}
	if ev.Type == session.EventQueueChanged {
		payload["queue"] = c.snapshot().Queue
	}

	if err := c.engine.Write(&Output{
		Type:    string(ev.Type),
		Payload: payload,
	}); err != nil {
		c.logger.Debug("failed to push event", "type", ev.Type, "error", err)
	}
}

func (c *controller) attachPeer(conn *websocket.Conn) {
	c.peerMu.Lock()
	defer c.peerMu.Unlock()

	if c.peer != nil {
		c.peer.Close()
	}
	c.peer = conn
}

func (c *controller) releasePeer(conn *websocket.Conn) {
	c.peerMu.Lock()
	defer c.peerMu.Unlock()

	if c.peer == conn {
		c.peer = nil
	}
}

func (c *controller) connectSession(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	sessionID := c.generator.GenerateRandomString(8)
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("session_id", sessionID))

	c.attachPeer(conn)
	c.engine.Attach(conn)
	defer func() {
		c.engine.Release(conn)
		c.releasePeer(conn)
	}()

	if err := c.engine.Write(&Output{
		Type: "session_started",
		Payload: map[string]any{
			"session_id": sessionID,
			"snapshot":   c.snapshot(),
		},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to write json", "error", err)
		return
	}

	c.logger.InfoContext(ctx, "playback surface connected")

	if err := c.wsRouter.ServeConn(ctx, conn, c.engine.Write); err != nil {
		c.logger.InfoContext(ctx, "playback surface disconnected", "error", err)
	}
}
