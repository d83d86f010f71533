package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/playtube/server/internal/repository/watch"
)

// SetQueue replaces the persisted queue wholesale. The queue is written as
// a sorted set of item ids (score = position) plus one snapshot value per
// entry, mirroring the in-memory order. Item ids keep duplicate enqueues
// of the same video as distinct entries.
func (r repo) SetQueue(ctx context.Context, records []watch.QueueRecord) error {
	pipe := r.rc.TxPipeline()

	queueKey := r.getQueueKey()
	pipe.Del(ctx, queueKey)
	for i, record := range records {
		pipe.ZAdd(ctx, queueKey, redis.Z{Score: float64(i), Member: record.ItemID})

		snapshotKey := r.getQueueSnapshotKey(record.ItemID)
		pipe.Set(ctx, snapshotKey, record.Snapshot, r.expireDuration)
	}
	pipe.Expire(ctx, queueKey, r.expireDuration)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set queue: %w", err)
	}

	return nil
}

func (r repo) GetQueue(ctx context.Context) ([]watch.QueueRecord, error) {
	queueKey := r.getQueueKey()
	itemIDs, err := r.rc.ZRange(ctx, queueKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}

	r.rc.Expire(ctx, queueKey, r.expireDuration)

	records := make([]watch.QueueRecord, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		snapshot, err := r.rc.Get(ctx, r.getQueueSnapshotKey(itemID)).Bytes()
		if err != nil {
			// An expired snapshot drops the entry, not the whole queue.
			continue
		}
		records = append(records, watch.QueueRecord{
			ItemID:   itemID,
			Snapshot: snapshot,
		})
	}

	return records, nil
}

func (r repo) RemoveFromQueue(ctx context.Context, itemID string) error {
	res, err := r.rc.ZRem(ctx, r.getQueueKey(), itemID).Result()
	if err != nil {
		return fmt.Errorf("failed to remove from queue: %w", err)
	}
	if res == 0 {
		return watch.ErrQueueItemNotFound
	}

	if err := r.rc.Del(ctx, r.getQueueSnapshotKey(itemID)).Err(); err != nil {
		return fmt.Errorf("failed to remove queue snapshot: %w", err)
	}

	return nil
}
