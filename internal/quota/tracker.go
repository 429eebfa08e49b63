// Package quota tracks per-owner analytics event volume in Redis.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix namespaces quota keys in Redis.
	keyPrefix = "quota:events"

	// periodFormat buckets counters by UTC day.
	periodFormat = "2006-01-02"

	// keyTTL keeps a period key around long enough to outlive its day.
	keyTTL = 48 * time.Hour
)

// Tracker counts analytics events per owner per UTC day.
// The INCR is atomic server-side, so concurrent events from multiple
// processes never under-count.
type Tracker struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewTracker creates a tracker on the given Redis client.
func NewTracker(client redis.UniversalClient) *Tracker {
	return &Tracker{
		client: client,
		now:    time.Now,
	}
}

// Increment bumps the owner's counter for the current period and returns
// the running total, including this event.
func (t *Tracker) Increment(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	key := t.key(ownerID)

	pipe := t.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, keyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("increment event quota: %w", err)
	}

	return incr.Val(), nil
}

// Count returns the owner's event total for the current period without
// modifying it.
func (t *Tracker) Count(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	count, err := t.client.Get(ctx, t.key(ownerID)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("read event quota: %w", err)
	}
	return count, nil
}

func (t *Tracker) key(ownerID uuid.UUID) string {
	period := t.now().UTC().Format(periodFormat)
	return fmt.Sprintf("%s:%s:%s", keyPrefix, ownerID, period)
}
