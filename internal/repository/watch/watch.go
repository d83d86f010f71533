// Package watch defines the persistence contract for playback state: the
// per-video watch position, the last-played item and the pending queue.
package watch

import "errors"

var (
	ErrWatchStateNotFound = errors.New("watch state not found")
	ErrQueueItemNotFound  = errors.New("queue item not found")
)

// WatchState is the persisted playback position of one video.
type WatchState struct {
	Position  float64 `redis:"position"`
	Duration  float64 `redis:"duration"`
	UpdatedAt int64   `redis:"updated_at"`
}

type SetWatchStateParams struct {
	VideoID   string
	Position  float64
	Duration  float64
	UpdatedAt int64
}

// QueueRecord is one persisted queue entry: the queue item id plus an
// opaque serialized snapshot of its video metadata, restored verbatim on
// session start. Keying by item id keeps duplicate enqueues of the same
// video as distinct entries.
type QueueRecord struct {
	ItemID   string
	Snapshot []byte
}
