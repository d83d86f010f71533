package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/playtube/server/internal/metadata"
	"github.com/playtube/server/internal/sponsorblock"
)

var ErrItemNotFound = errors.New("queue item not found")

// Item wraps a video with the mutable state of one playback session. It is
// created when a video is enqueued or made current and dropped when removed
// or replaced.
type Item struct {
	ID           string
	Video        metadata.Video
	PlaybackTime *float64
	Duration     *float64
	Degraded     bool

	segments        []sponsorblock.Segment
	skippedSegments map[int]bool
}

func NewItem(video metadata.Video) *Item {
	item := &Item{
		ID:              uuid.NewString(),
		Video:           video,
		skippedSegments: make(map[int]bool),
	}
	if video.Length > 0 {
		duration := float64(video.Length)
		item.Duration = &duration
	}
	return item
}

// setSegments installs freshly fetched segments. The skip bookkeeping is
// kept: a stream switch reloads the same item and must not re-trigger
// skips already performed.
func (i *Item) setSegments(segments []sponsorblock.Segment) {
	i.segments = segments
	if i.skippedSegments == nil {
		i.skippedSegments = make(map[int]bool)
	}
}

// Queue holds the pending "up next" items and the play history. An item is
// in at most one of queue, history or current at a time; the controller
// owns "current".
type Queue struct {
	mu      sync.Mutex
	items   []*Item
	history []*Item
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends an item at the tail.
func (q *Queue) Enqueue(item *Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, item)
}

// Advance pops and returns the head, or false when the queue is exhausted.
// What exhaustion means (stop, loop, fetch more) is the caller's call.
func (q *Queue) Advance() (*Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}

	head := q.items[0]
	q.items = q.items[1:]

	return head, true
}

func (q *Queue) Remove(itemID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, item := range q.items {
		if item.ID == itemID {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return nil
		}
	}

	return ErrItemNotFound
}

// Move repositions a pending item to index within the queue. Indexes past
// either end clamp to the nearest valid position.
func (q *Queue) Move(itemID string, index int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	from := -1
	for i, item := range q.items {
		if item.ID == itemID {
			from = i
			break
		}
	}
	if from == -1 {
		return ErrItemNotFound
	}

	item := q.items[from]
	q.items = append(q.items[:from], q.items[from+1:]...)

	if index < 0 {
		index = 0
	}
	if index > len(q.items) {
		index = len(q.items)
	}

	q.items = append(q.items[:index], append([]*Item{item}, q.items[index:]...)...)

	return nil
}

// MoveToHistory appends a finished item to the history list. The item must
// already have left the queue.
func (q *Queue) MoveToHistory(item *Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.history = append(q.history, item)
}

func (q *Queue) HistoryContains(videoID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, item := range q.history {
		if item.Video.ID == videoID {
			return true
		}
	}

	return false
}

func (q *Queue) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// List returns a snapshot of the pending items in play order.
func (q *Queue) List() []*Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]*Item, len(q.items))
	copy(items, q.items)

	return items
}

// History returns a snapshot of the played items, oldest first.
func (q *Queue) History() []*Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	history := make([]*Item, len(q.history))
	copy(history, q.history)

	return history
}
