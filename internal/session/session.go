// Package session owns the playback session: the current item, stream
// selection and reloading, queue advancement and watch-state persistence.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playtube/server/internal/catalog"
	"github.com/playtube/server/internal/metadata"
	"github.com/playtube/server/internal/repository/watch"
	"github.com/playtube/server/internal/sponsorblock"
)

var (
	ErrNoPlayableStream = errors.New("no playable stream")
	ErrAssetLoadFailed  = errors.New("asset load failed")
	ErrTrackLoadFailed  = errors.New("composition track load failed")
	ErrNoCurrentItem    = errors.New("no current item")
)

const (
	// seekToleranceBefore is the backward slack accepted when restoring a
	// position across a stream switch. Exact seeks stall on segmented
	// network assets; landing up to a second early is acceptable, landing
	// late would skip content.
	seekToleranceBefore = 1.0
	seekToleranceAfter  = 0.0

	// autoplaySkipWindow: a first segment starting this close to zero is
	// skipped before playback starts instead of right after.
	autoplaySkipWindow = 3.0
)

type Config struct {
	// LoadTimeout bounds a single asset or track load.
	LoadTimeout time.Duration
	// PersistInterval is the minimum spacing between watch-state writes.
	PersistInterval time.Duration
	// AllowDegraded accepts single-track playback when one composition
	// track fails to load. Off by default: a silent half-broken item is
	// worse than a reported failure.
	AllowDegraded bool
}

func (cfg Config) withDefaults() Config {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 30 * time.Second
	}
	if cfg.PersistInterval <= 0 {
		cfg.PersistInterval = 2 * time.Second
	}
	return cfg
}

// Controller is the playback-session state machine. All mutation goes
// through its mutex; asynchronous load results are checked against a
// generation counter and discarded when stale.
type Controller struct {
	engine        Engine
	segmentSource SegmentSource
	store         WatchStore
	settings      Settings
	cfg           Config

	queue *Queue

	mu            sync.Mutex
	state         State
	current       *Item
	currentStream metadata.Stream
	generation    uint64
	cancelLoad    context.CancelFunc
	lastPersist   time.Time

	listenersMu sync.Mutex
	listeners   []Listener

	now func() time.Time
}

func NewController(engine Engine, segmentSource SegmentSource, store WatchStore, settings Settings, cfg Config) *Controller {
	return &Controller{
		engine:        engine,
		segmentSource: segmentSource,
		store:         store,
		settings:      settings,
		cfg:           cfg.withDefaults(),
		queue:         NewQueue(),
		state:         StateIdle,
		now:           time.Now,
	}
}

func (c *Controller) Subscribe(l Listener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	c.listeners = append(c.listeners, l)
}

func (c *Controller) emit(events ...Event) {
	c.listenersMu.Lock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.listenersMu.Unlock()

	for _, event := range events {
		for _, l := range listeners {
			l(event)
		}
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *Controller) Current() *Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

func (c *Controller) CurrentStream() metadata.Stream {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.currentStream
}

func (c *Controller) Queue() *Queue {
	return c.queue
}

// Play makes video the current item and starts loading a stream for it. A
// nil at resumes from the persisted watch position when one exists; an
// in-flight load for a different video is cancelled.
func (c *Controller) Play(ctx context.Context, video metadata.Video, at *float64) error {
	c.mu.Lock()

	if c.state == StateLoading && c.current != nil && c.current.Video.ID == video.ID {
		c.mu.Unlock()
		return nil
	}

	start := 0.0
	switch {
	case at != nil:
		start = *at
	default:
		if state, err := c.store.GetWatchState(ctx, video.ID); err == nil && state.Position > 0 {
			start = state.Position
		}
	}

	item := NewItem(video)
	events, err := c.playLocked(item, start)
	c.mu.Unlock()

	c.emit(events...)
	if err != nil {
		return err
	}

	if err := c.store.SetLastPlayed(ctx, video.ID); err != nil {
		slog.Warn("failed to set last played", "err", err)
	}

	return nil
}

// playLocked runs the shared play protocol: cancel a stale load, select a
// stream and spawn the loader. Callers hold c.mu.
func (c *Controller) playLocked(item *Item, start float64) ([]Event, error) {
	c.cancelInflightLocked()

	c.current = item
	stream, ok := catalog.Preferred(item.Video.Streams, c.settings.MaxQualityHeight())
	if !ok {
		c.state = StateFailed
		return []Event{
			{Type: EventError, State: c.state, VideoID: item.Video.ID, Error: ErrNoPlayableStream.Error()},
		}, ErrNoPlayableStream
	}

	c.currentStream = stream
	c.state = StateLoading
	c.startLoadLocked(item, stream, start)

	return []Event{{Type: EventStateChanged, State: c.state, VideoID: item.Video.ID}}, nil
}

// cancelInflightLocked invalidates any pending load. The bumped generation
// makes a late completion a no-op even if the cancellation raced.
func (c *Controller) cancelInflightLocked() {
	c.generation++
	if c.cancelLoad != nil {
		c.cancelLoad()
		c.cancelLoad = nil
	}
}

func (c *Controller) startLoadLocked(item *Item, stream metadata.Stream, start float64) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.LoadTimeout)
	c.cancelLoad = cancel
	gen := c.generation

	go c.load(ctx, cancel, gen, item, stream, start)
}

func (c *Controller) load(ctx context.Context, cancel context.CancelFunc, gen uint64, item *Item, stream metadata.Stream, start float64) {
	defer cancel()

	var (
		loadErr  error
		degraded bool
	)
	if stream.Kind == metadata.StreamKindAdaptive {
		loadErr, degraded = c.loadComposition(ctx, stream)
	} else {
		loadErr = c.engine.LoadAsset(ctx, stream.URL)
	}

	var segments []sponsorblock.Segment
	if loadErr == nil && c.segmentSource != nil {
		var err error
		segments, err = c.segmentSource.Segments(ctx, item.Video.ID)
		if err != nil {
			slog.Warn("failed to fetch skip segments", "video_id", item.Video.ID, "err", err)
			segments = nil
		}
	}

	c.mu.Lock()
	if gen != c.generation {
		// Stale load: the selection changed while we were working.
		c.mu.Unlock()
		return
	}
	c.cancelLoad = nil

	if loadErr != nil {
		c.state = StateFailed
		events := []Event{{
			Type:    EventError,
			State:   c.state,
			VideoID: item.Video.ID,
			Error:   fmt.Errorf("%w: %v", ErrAssetLoadFailed, loadErr).Error(),
		}}
		c.mu.Unlock()
		c.emit(events...)
		return
	}

	item.Degraded = degraded
	item.setSegments(segments)
	events := c.readyLocked(item, start)
	c.mu.Unlock()
	c.emit(events...)
}

// loadComposition loads the audio and video tracks of an adaptive variant
// concurrently. Both must land for a full composition; a single failed
// track fails the load unless degraded playback is allowed.
func (c *Controller) loadComposition(ctx context.Context, stream metadata.Stream) (error, bool) {
	var (
		wg       sync.WaitGroup
		audioErr error
		videoErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		audioErr = c.engine.LoadTrack(ctx, TrackAudio, stream.AudioURL)
	}()
	go func() {
		defer wg.Done()
		videoErr = c.engine.LoadTrack(ctx, TrackVideo, stream.VideoURL)
	}()
	wg.Wait()

	if audioErr == nil && videoErr == nil {
		return nil, false
	}
	if audioErr != nil && videoErr != nil {
		return fmt.Errorf("%w: audio: %v, video: %v", ErrTrackLoadFailed, audioErr, videoErr), false
	}

	failed := audioErr
	failedTrack := TrackAudio
	if videoErr != nil {
		failed = videoErr
		failedTrack = TrackVideo
	}
	if !c.cfg.AllowDegraded {
		return fmt.Errorf("%w: %s: %v", ErrTrackLoadFailed, failedTrack, failed), false
	}

	slog.Warn("continuing with degraded composition", "missing_track", failedTrack, "err", failed)
	return nil, true
}

// readyLocked finishes a load: restore the position, re-apply the rate and
// either start playback (autoplay) or park in Ready.
func (c *Controller) readyLocked(item *Item, start float64) []Event {
	if start > 0 {
		if err := c.engine.Seek(start, seekToleranceBefore, seekToleranceAfter); err != nil {
			slog.Warn("failed to restore position", "err", err)
		}
	}
	if err := c.engine.SetRate(c.settings.PlaybackRate()); err != nil {
		slog.Warn("failed to set playback rate", "err", err)
	}

	position := start
	item.PlaybackTime = &position

	if !c.settings.AutoplayEnabled() {
		c.state = StateReady
		return []Event{{Type: EventStateChanged, State: c.state, VideoID: item.Video.ID}}
	}

	// A segment right at the start is skipped before playback begins so
	// the viewer never sees it. Only when starting from the top: a
	// restored or preserved position must not be dragged backward.
	if start == 0 && len(item.segments) > 0 && item.segments[0].Start <= autoplaySkipWindow && !item.anySegmentSkipped() {
		if err := c.engine.Seek(item.segments[0].End, 0, 0); err != nil {
			slog.Warn("failed to skip leading segment", "err", err)
		} else {
			item.skippedSegments[0] = true
			end := item.segments[0].End
			item.PlaybackTime = &end
		}
	}

	if err := c.engine.Play(); err != nil {
		slog.Warn("failed to start playback", "err", err)
	}
	c.state = StatePlaying

	return []Event{{Type: EventStateChanged, State: c.state, VideoID: item.Video.ID}}
}

func (i *Item) anySegmentSkipped() bool {
	return len(i.skippedSegments) > 0
}

// Tick consumes one periodic position report from the engine. It drives
// segment auto-skip, the playback-rate defense and throttled watch-state
// persistence.
func (c *Controller) Tick(ctx context.Context, position float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return
	}
	switch c.state {
	case StatePlaying, StatePaused, StateReady:
	default:
		return
	}

	item := c.current
	p := position
	item.PlaybackTime = &p

	for i, segment := range item.segments {
		if position >= segment.Start && position < segment.End {
			if !item.skippedSegments[i] {
				item.skippedSegments[i] = true
				if err := c.engine.Seek(segment.End, 0, 0); err != nil {
					slog.Warn("failed to skip segment", "category", segment.Category, "err", err)
				}
			}
			break
		}
	}

	// Some engine transitions silently reset the rate; put it back.
	if c.state == StatePlaying {
		if rate := c.settings.PlaybackRate(); c.engine.Rate() != rate {
			if err := c.engine.SetRate(rate); err != nil {
				slog.Warn("failed to reapply playback rate", "err", err)
			}
		}
	}

	now := c.now()
	if now.Sub(c.lastPersist) >= c.cfg.PersistInterval {
		c.lastPersist = now
		params := &watch.SetWatchStateParams{
			VideoID:   item.Video.ID,
			Position:  position,
			UpdatedAt: now.Unix(),
		}
		if item.Duration != nil {
			params.Duration = *item.Duration
		}
		if err := c.store.SetWatchState(ctx, params); err != nil {
			slog.Warn("failed to persist watch state", "video_id", item.Video.ID, "err", err)
		}
	}
}

// Ended handles end-of-media: the finished item moves to history and the
// queue head, if any, is promoted through the play protocol.
func (c *Controller) Ended(ctx context.Context) error {
	c.mu.Lock()

	if c.current == nil {
		c.mu.Unlock()
		return nil
	}

	finished := c.current
	c.current = nil
	c.queue.MoveToHistory(finished)

	next, ok := c.queue.Advance()
	if !ok {
		c.cancelInflightLocked()
		c.state = StateIdle
		c.currentStream = metadata.Stream{}
		if err := c.engine.Detach(); err != nil {
			slog.Warn("failed to detach asset", "err", err)
		}
		c.mu.Unlock()

		c.clearWatchState(ctx, finished.Video.ID)
		c.persistQueue(ctx)
		c.emit(
			Event{Type: EventStateChanged, State: StateIdle, VideoID: finished.Video.ID},
			Event{Type: EventQueueExhausted, State: StateIdle},
		)
		return nil
	}

	c.state = StateAdvancing
	events := []Event{{Type: EventStateChanged, State: StateAdvancing, VideoID: next.Video.ID}}

	start := 0.0
	playEvents, err := c.playLocked(next, start)
	events = append(events, playEvents...)
	c.mu.Unlock()

	c.clearWatchState(ctx, finished.Video.ID)
	c.persistQueue(ctx)
	c.emit(events...)
	if err != nil {
		return err
	}

	if err := c.store.SetLastPlayed(ctx, next.Video.ID); err != nil {
		slog.Warn("failed to set last played", "err", err)
	}

	return nil
}

// Enqueue appends a video to the up-next queue.
func (c *Controller) Enqueue(ctx context.Context, video metadata.Video) *Item {
	item := NewItem(video)
	c.queue.Enqueue(item)
	c.persistQueue(ctx)
	c.emit(Event{Type: EventQueueChanged, State: c.State(), VideoID: video.ID})

	return item
}

func (c *Controller) RemoveFromQueue(ctx context.Context, itemID string) error {
	if err := c.queue.Remove(itemID); err != nil {
		return err
	}
	if err := c.store.RemoveFromQueue(ctx, itemID); err != nil && !errors.Is(err, watch.ErrQueueItemNotFound) {
		slog.Warn("failed to remove persisted queue entry", "item_id", itemID, "err", err)
	}
	c.emit(Event{Type: EventQueueChanged, State: c.State()})

	return nil
}

// MoveInQueue repositions a pending item and persists the new order.
func (c *Controller) MoveInQueue(ctx context.Context, itemID string, index int) error {
	if err := c.queue.Move(itemID, index); err != nil {
		return err
	}
	c.persistQueue(ctx)
	c.emit(Event{Type: EventQueueChanged, State: c.State()})

	return nil
}

// clearWatchState drops the stored resume position of a finished video so
// the next play starts from the top.
func (c *Controller) clearWatchState(ctx context.Context, videoID string) {
	if err := c.store.RemoveWatchState(ctx, videoID); err != nil && !errors.Is(err, watch.ErrWatchStateNotFound) {
		slog.Warn("failed to clear watch state", "video_id", videoID, "err", err)
	}
}

// UpgradeStream reloads playback at a different variant of the current
// video, preserving the position within the seek tolerance window.
func (c *Controller) UpgradeStream(ctx context.Context, target metadata.Stream) error {
	c.mu.Lock()

	if c.current == nil {
		c.mu.Unlock()
		return ErrNoCurrentItem
	}

	cmd, ok := catalog.Upgrade(c.currentStream, target)
	if !ok {
		c.mu.Unlock()
		return nil
	}

	start := 0.0
	if cmd.PreservePosition {
		// Best effort: a non-positive position is not worth restoring.
		if position := c.engine.Position(); position > 0 {
			start = position
		}
	}

	c.cancelInflightLocked()
	if err := c.engine.Detach(); err != nil {
		slog.Warn("failed to detach asset", "err", err)
	}

	item := c.current
	c.currentStream = cmd.Target
	c.state = StateLoading
	c.startLoadLocked(item, cmd.Target, start)
	c.mu.Unlock()

	c.emit(Event{Type: EventStateChanged, State: StateLoading, VideoID: item.Video.ID})

	return nil
}

func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()

	if c.state != StatePlaying {
		c.mu.Unlock()
		return nil
	}
	if err := c.engine.Pause(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to pause: %w", err)
	}
	c.state = StatePaused
	event := Event{Type: EventStateChanged, State: StatePaused, VideoID: c.current.Video.ID}
	c.mu.Unlock()

	c.emit(event)
	return nil
}

func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()

	if c.state != StatePaused && c.state != StateReady {
		c.mu.Unlock()
		return nil
	}
	if err := c.engine.Play(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to resume: %w", err)
	}
	c.state = StatePlaying
	event := Event{Type: EventStateChanged, State: StatePlaying, VideoID: c.current.Video.ID}
	c.mu.Unlock()

	c.emit(event)
	return nil
}

// Restore loads the persisted queue back into memory and reports the
// last-played video id, if any, for the caller to refetch.
func (c *Controller) Restore(ctx context.Context) (*string, error) {
	records, err := c.store.GetQueue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore queue: %w", err)
	}

	for _, record := range records {
		var video metadata.Video
		if err := json.Unmarshal(record.Snapshot, &video); err != nil {
			slog.Warn("dropping unreadable queue snapshot", "item_id", record.ItemID, "err", err)
			continue
		}
		item := NewItem(video)
		if record.ItemID != "" {
			// Keep the persisted identity so removals still match.
			item.ID = record.ItemID
		}
		c.queue.Enqueue(item)
	}

	lastPlayed, err := c.store.GetLastPlayed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get last played: %w", err)
	}

	return lastPlayed, nil
}

// Close cancels any in-flight load, detaches the engine and persists the
// queue one final time.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	c.cancelInflightLocked()
	c.state = StateIdle
	c.current = nil
	c.currentStream = metadata.Stream{}
	if err := c.engine.Detach(); err != nil {
		slog.Warn("failed to detach asset", "err", err)
	}
	c.mu.Unlock()

	c.persistQueue(ctx)
	c.emit(Event{Type: EventStateChanged, State: StateIdle})

	return nil
}

func (c *Controller) persistQueue(ctx context.Context) {
	items := c.queue.List()
	records := make([]watch.QueueRecord, 0, len(items))
	for _, item := range items {
		snapshot, err := json.Marshal(item.Video)
		if err != nil {
			slog.Warn("failed to snapshot queue item", "video_id", item.Video.ID, "err", err)
			continue
		}
		records = append(records, watch.QueueRecord{
			ItemID:   item.ID,
			Snapshot: snapshot,
		})
	}

	if err := c.store.SetQueue(ctx, records); err != nil {
		slog.Warn("failed to persist queue", "err", err)
	}
}
