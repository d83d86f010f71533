package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/playtube/server/internal/repository/watch"
)

func (r repo) SetWatchState(ctx context.Context, params *watch.SetWatchStateParams) error {
	state := watch.WatchState{
		Position:  params.Position,
		Duration:  params.Duration,
		UpdatedAt: params.UpdatedAt,
	}
	watchStateKey := r.getWatchStateKey(params.VideoID)
	if err := r.rc.HSet(ctx, watchStateKey, state).Err(); err != nil {
		return fmt.Errorf("failed to set watch state: %w", err)
	}

	r.rc.Expire(ctx, watchStateKey, r.expireDuration)

	return nil
}

func (r repo) GetWatchState(ctx context.Context, videoID string) (watch.WatchState, error) {
	watchStateKey := r.getWatchStateKey(videoID)
	res, err := r.rc.Exists(ctx, watchStateKey).Result()
	if err != nil {
		return watch.WatchState{}, fmt.Errorf("failed to check watch state: %w", err)
	}
	if res == 0 {
		return watch.WatchState{}, watch.ErrWatchStateNotFound
	}

	var state watch.WatchState
	if err := r.rc.HGetAll(ctx, watchStateKey).Scan(&state); err != nil {
		return watch.WatchState{}, fmt.Errorf("failed to get watch state: %w", err)
	}

	r.rc.Expire(ctx, watchStateKey, r.expireDuration)

	return state, nil
}

func (r repo) RemoveWatchState(ctx context.Context, videoID string) error {
	res, err := r.rc.Del(ctx, r.getWatchStateKey(videoID)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove watch state: %w", err)
	}
	if res == 0 {
		return watch.ErrWatchStateNotFound
	}

	return nil
}

func (r repo) SetLastPlayed(ctx context.Context, videoID string) error {
	lastPlayedKey := r.getLastPlayedKey()
	if err := r.rc.Set(ctx, lastPlayedKey, videoID, r.expireDuration).Err(); err != nil {
		return fmt.Errorf("failed to set last played: %w", err)
	}

	return nil
}

func (r repo) GetLastPlayed(ctx context.Context) (*string, error) {
	lastPlayed, err := r.rc.Get(ctx, r.getLastPlayedKey()).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get last played: %w", err)
	}

	if lastPlayed == "" {
		return nil, nil
	}

	r.rc.Expire(ctx, r.getLastPlayedKey(), r.expireDuration)

	return &lastPlayed, nil
}
