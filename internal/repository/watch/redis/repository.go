package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
}

func NewRepo(rc *redis.Client, expireDuration time.Duration) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
	}
}

func (r repo) getWatchStateKey(videoID string) string {
	return "watch:" + videoID
}

func (r repo) getLastPlayedKey() string {
	return "session:last-played"
}

func (r repo) getQueueKey() string {
	return "session:queue"
}

func (r repo) getQueueSnapshotKey(itemID string) string {
	return "session:queue-snapshot:" + itemID
}
