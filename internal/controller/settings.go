package controller

import "sync"

// Settings holds the user-tunable playback preferences. It is read by the
// session controller on every load and tick, and mutated from the WebSocket
// handlers.
type Settings struct {
	mu        sync.RWMutex
	autoplay  bool
	maxHeight int
	rate      float64
}

func NewSettings(autoplay bool, maxQualityHeight int) *Settings {
	return &Settings{
		autoplay:  autoplay,
		maxHeight: maxQualityHeight,
		rate:      1.0,
	}
}

func (s *Settings) AutoplayEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.autoplay
}

func (s *Settings) MaxQualityHeight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.maxHeight
}

func (s *Settings) PlaybackRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.rate
}

func (s *Settings) SetAutoplay(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.autoplay = enabled
}

func (s *Settings) SetMaxQualityHeight(height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maxHeight = height
}

func (s *Settings) SetPlaybackRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rate = rate
}
