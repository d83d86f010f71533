package session

import (
	"context"
	"sync"

	"github.com/playtube/server/internal/repository/watch"
	"github.com/playtube/server/internal/sponsorblock"
)

type seekCall struct {
	position        float64
	toleranceBefore float64
	toleranceAfter  float64
}

type trackLoad struct {
	kind TrackKind
	url  string
}

// fakeEngine records every interaction and lets tests block individual
// loads to exercise staleness handling.
type fakeEngine struct {
	mu sync.Mutex

	loadedAssets []string
	loadedTracks []trackLoad
	seeks        []seekCall
	playing      bool
	detached     int
	rate         float64
	position     float64

	loadErr  error
	trackErr map[TrackKind]error
	// blockURL, when set, makes loads for that url wait on blockCh.
	blockURL string
	blockCh  chan struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{rate: 1.0, trackErr: map[TrackKind]error{}}
}

func (e *fakeEngine) maybeBlock(ctx context.Context, url string) error {
	e.mu.Lock()
	blocked := e.blockURL != "" && url == e.blockURL
	ch := e.blockCh
	e.mu.Unlock()

	if !blocked {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *fakeEngine) LoadAsset(ctx context.Context, url string) error {
	if err := e.maybeBlock(ctx, url); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loadErr != nil {
		return e.loadErr
	}
	e.loadedAssets = append(e.loadedAssets, url)
	return nil
}

func (e *fakeEngine) LoadTrack(ctx context.Context, kind TrackKind, url string) error {
	if err := e.maybeBlock(ctx, url); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.trackErr[kind]; err != nil {
		return err
	}
	e.loadedTracks = append(e.loadedTracks, trackLoad{kind: kind, url: url})
	return nil
}

func (e *fakeEngine) Seek(position, toleranceBefore, toleranceAfter float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seeks = append(e.seeks, seekCall{position, toleranceBefore, toleranceAfter})
	e.position = position
	return nil
}

func (e *fakeEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = true
	return nil
}

func (e *fakeEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
	return nil
}

func (e *fakeEngine) SetRate(rate float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rate = rate
	return nil
}

func (e *fakeEngine) Rate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}

func (e *fakeEngine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *fakeEngine) Detach() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detached++
	return nil
}

func (e *fakeEngine) seekCalls() []seekCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	calls := make([]seekCall, len(e.seeks))
	copy(calls, e.seeks)
	return calls
}

func (e *fakeEngine) assets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	assets := make([]string, len(e.loadedAssets))
	copy(assets, e.loadedAssets)
	return assets
}

func (e *fakeEngine) tracks() []trackLoad {
	e.mu.Lock()
	defer e.mu.Unlock()
	tracks := make([]trackLoad, len(e.loadedTracks))
	copy(tracks, e.loadedTracks)
	return tracks
}

type fakeStore struct {
	mu           sync.Mutex
	states       map[string]watch.WatchState
	lastPlayed   string
	queue        []watch.QueueRecord
	setCalls     int
	queueRemoved []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: map[string]watch.WatchState{}}
}

func (s *fakeStore) SetWatchState(ctx context.Context, params *watch.SetWatchStateParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[params.VideoID] = watch.WatchState{
		Position:  params.Position,
		Duration:  params.Duration,
		UpdatedAt: params.UpdatedAt,
	}
	s.setCalls++
	return nil
}

func (s *fakeStore) GetWatchState(ctx context.Context, videoID string) (watch.WatchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[videoID]
	if !ok {
		return watch.WatchState{}, watch.ErrWatchStateNotFound
	}
	return state, nil
}

func (s *fakeStore) RemoveWatchState(ctx context.Context, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[videoID]; !ok {
		return watch.ErrWatchStateNotFound
	}
	delete(s.states, videoID)
	return nil
}

func (s *fakeStore) SetLastPlayed(ctx context.Context, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPlayed = videoID
	return nil
}

func (s *fakeStore) GetLastPlayed(ctx context.Context) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastPlayed == "" {
		return nil, nil
	}
	lastPlayed := s.lastPlayed
	return &lastPlayed, nil
}

func (s *fakeStore) SetQueue(ctx context.Context, records []watch.QueueRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = records
	return nil
}

func (s *fakeStore) GetQueue(ctx context.Context) ([]watch.QueueRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue, nil
}

func (s *fakeStore) RemoveFromQueue(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queueRemoved = append(s.queueRemoved, itemID)
	for i, record := range s.queue {
		if record.ItemID == itemID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return nil
		}
	}
	return watch.ErrQueueItemNotFound
}

func (s *fakeStore) watchStateCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCalls
}

func watchState(position float64) watch.WatchState {
	return watch.WatchState{Position: position}
}

type fakeSettings struct {
	mu        sync.Mutex
	autoplay  bool
	maxHeight int
	rate      float64
}

func (s *fakeSettings) AutoplayEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoplay
}

func (s *fakeSettings) MaxQualityHeight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxHeight
}

func (s *fakeSettings) PlaybackRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rate == 0 {
		return 1.0
	}
	return s.rate
}

type fakeSegments struct {
	segments map[string][]sponsorblock.Segment
}

func (f *fakeSegments) Segments(ctx context.Context, videoID string) ([]sponsorblock.Segment, error) {
	return f.segments[videoID], nil
}
