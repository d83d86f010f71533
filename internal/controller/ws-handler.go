package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/playtube/server/internal/catalog"
	"github.com/playtube/server/internal/session"
	"github.com/playtube/server/pkg/wsrouter"
)

var ErrValidationError = errors.New("validation error")

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c *controller) newWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	// playback
	mux.Handle("play", c.handlePlay)
	mux.Handle("pause", c.handlePause)
	mux.Handle("resume", c.handleResume)
	mux.Handle("set_rate", c.handleSetRate)
	mux.Handle("upgrade_stream", c.handleUpgradeStream)

	// queue
	mux.Handle("enqueue", c.handleEnqueue)
	mux.Handle("remove_video", c.handleRemoveVideo)
	mux.Handle("reorder_queue", c.handleReorderQueue)

	// surface feedback
	mux.Handle("tick", c.handleTick)
	mux.Handle("ready", c.handleReady)
	mux.Handle("load_failed", c.handleLoadFailed)
	mux.Handle("ended", c.handleEnded)

	// preferences
	mux.Handle("set_autoplay", c.handleSetAutoplay)
	mux.Handle("set_max_quality", c.handleSetMaxQuality)

	return mux
}

func (c *controller) decode(payload json.RawMessage, dst any) error {
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	if validationErrors, ok := c.validate.Validate(dst); !ok {
		return fmt.Errorf("%w: %v", ErrValidationError, validationErrors)
	}

	return nil
}

type PlayInput struct {
	VideoID string   `json:"video_id" validate:"required,len=11"`
	At      *float64 `json:"at"`
}

func (c *controller) handlePlay(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input PlayInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	video, err := c.api.Video(ctx, input.VideoID)
	if err != nil {
		return fmt.Errorf("failed to fetch video: %w", err)
	}

	if err := c.sess.Play(ctx, video, input.At); err != nil {
		return fmt.Errorf("failed to play video: %w", err)
	}

	return nil
}

func (c *controller) handlePause(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	if err := c.sess.Pause(ctx); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	return nil
}

func (c *controller) handleResume(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	if err := c.sess.Resume(ctx); err != nil {
		return fmt.Errorf("failed to resume: %w", err)
	}

	return nil
}

type SetRateInput struct {
	Rate float64 `json:"rate" validate:"required,gt=0"`
}

func (c *controller) handleSetRate(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input SetRateInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	c.settings.SetPlaybackRate(input.Rate)

	if c.sess.State() == session.StatePlaying {
		if err := c.engine.SetRate(input.Rate); err != nil {
			return fmt.Errorf("failed to set rate: %w", err)
		}
	}

	return nil
}

type UpgradeStreamInput struct {
	Height int `json:"height" validate:"required,gt=0"`
}

func (c *controller) handleUpgradeStream(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input UpgradeStreamInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	current := c.sess.Current()
	if current == nil {
		return errors.New("no active video")
	}

	target, ok := catalog.Preferred(current.Video.Streams, input.Height)
	if !ok {
		return errors.New("no playable stream for requested quality")
	}

	if err := c.sess.UpgradeStream(ctx, target); err != nil {
		return fmt.Errorf("failed to upgrade stream: %w", err)
	}

	return nil
}

type EnqueueInput struct {
	VideoID string `json:"video_id" validate:"required,len=11"`
}

func (c *controller) handleEnqueue(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input EnqueueInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	video, err := c.api.Video(ctx, input.VideoID)
	if err != nil {
		return fmt.Errorf("failed to fetch video: %w", err)
	}

	c.sess.Enqueue(ctx, video)

	return nil
}

type RemoveVideoInput struct {
	ItemID string `json:"item_id" validate:"required,uuid"`
}

func (c *controller) handleRemoveVideo(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input RemoveVideoInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	if err := c.sess.RemoveFromQueue(ctx, input.ItemID); err != nil {
		return fmt.Errorf("failed to remove video: %w", err)
	}

	return nil
}

type ReorderQueueInput struct {
	ItemID string `json:"item_id" validate:"required,uuid"`
	Index  int    `json:"index" validate:"gte=0"`
}

func (c *controller) handleReorderQueue(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input ReorderQueueInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	if err := c.sess.MoveInQueue(ctx, input.ItemID, input.Index); err != nil {
		return fmt.Errorf("failed to reorder queue: %w", err)
	}

	return nil
}

type TickInput struct {
	Position float64 `json:"position" validate:"gte=0"`
	Rate     float64 `json:"rate"`
}

func (c *controller) handleTick(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input TickInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	c.engine.ReportProgress(input.Position, input.Rate)
	c.sess.Tick(ctx, input.Position)

	return nil
}

type ReadyInput struct {
	RequestID string `json:"request_id" validate:"required"`
}

func (c *controller) handleReady(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input ReadyInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	c.engine.Resolve(input.RequestID, nil)

	return nil
}

type LoadFailedInput struct {
	RequestID string `json:"request_id" validate:"required"`
	Reason    string `json:"reason"`
}

func (c *controller) handleLoadFailed(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input LoadFailedInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	c.engine.Resolve(input.RequestID, fmt.Errorf("surface rejected load: %s", input.Reason))

	return nil
}

func (c *controller) handleEnded(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	if err := c.sess.Ended(ctx); err != nil {
		return fmt.Errorf("failed to advance after ended: %w", err)
	}

	return nil
}

type SetAutoplayInput struct {
	Enabled bool `json:"enabled"`
}

func (c *controller) handleSetAutoplay(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input SetAutoplayInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	c.settings.SetAutoplay(input.Enabled)

	return nil
}

type SetMaxQualityInput struct {
	Height int `json:"height" validate:"gte=0"`
}

func (c *controller) handleSetMaxQuality(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
	var input SetMaxQualityInput
	if err := c.decode(payload, &input); err != nil {
		return err
	}

	c.settings.SetMaxQualityHeight(input.Height)

	return nil
}
