package session

import (
	"context"

	"github.com/playtube/server/internal/repository/watch"
	"github.com/playtube/server/internal/sponsorblock"
)

// TrackKind selects which track of a composition a load targets.
type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

// Engine is the external asset-loading and playback collaborator. Loads
// are asynchronous from the controller's point of view: LoadAsset and
// LoadTrack block until the engine reports the asset ready or failed and
// must honor context cancellation.
type Engine interface {
	// LoadAsset loads a single-asset variant (muxed file or HLS manifest).
	LoadAsset(ctx context.Context, url string) error
	// LoadTrack loads one track of an adaptive variant into the engine's
	// composition.
	LoadTrack(ctx context.Context, kind TrackKind, url string) error
	// Seek moves playback near position. toleranceBefore allows landing up
	// to that many seconds early; toleranceAfter allows landing late.
	Seek(position, toleranceBefore, toleranceAfter float64) error
	Play() error
	Pause() error
	SetRate(rate float64) error
	Rate() float64
	Position() float64
	// Detach releases the currently loaded asset and any observers on it.
	Detach() error
}

// SegmentSource supplies the auto-skip segments for a video.
type SegmentSource interface {
	Segments(ctx context.Context, videoID string) ([]sponsorblock.Segment, error)
}

// WatchStore is the injected persistence for playback state.
type WatchStore interface {
	SetWatchState(ctx context.Context, params *watch.SetWatchStateParams) error
	GetWatchState(ctx context.Context, videoID string) (watch.WatchState, error)
	RemoveWatchState(ctx context.Context, videoID string) error
	SetLastPlayed(ctx context.Context, videoID string) error
	GetLastPlayed(ctx context.Context) (*string, error)
	SetQueue(ctx context.Context, records []watch.QueueRecord) error
	GetQueue(ctx context.Context) ([]watch.QueueRecord, error)
	RemoveFromQueue(ctx context.Context, itemID string) error
}

// Settings exposes the externally owned playback preferences.
type Settings interface {
	AutoplayEnabled() bool
	// MaxQualityHeight caps stream selection, 0 meaning unlimited.
	MaxQualityHeight() int
	PlaybackRate() float64
}

type State string

const (
	StateIdle      State = "idle"
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StatePlaying   State = "playing"
	StatePaused    State = "paused"
	StateAdvancing State = "advancing"
	StateFailed    State = "failed"
)

type EventType string

const (
	EventStateChanged   EventType = "state_changed"
	EventQueueChanged   EventType = "queue_changed"
	EventQueueExhausted EventType = "queue_exhausted"
	EventError          EventType = "error"
)

// Event is a state-change notification pushed to subscribers on every
// transition.
type Event struct {
	Type    EventType `json:"type"`
	State   State     `json:"state"`
	VideoID string    `json:"video_id,omitempty"`
	Error   string    `json:"error,omitempty"`
}

type Listener func(Event)
