package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

const (
	lockKeyPrefix    = "barpulse:venue-stats:"
	lockPollInterval = 25 * time.Millisecond
	lockReleaseLimit = 2 * time.Second
)

// RedisLocker is a VenueLocker shared by every replica using the same Redis.
// A holder that dies keeps the venue locked for at most ttl.
type RedisLocker struct {
	client *redis.Client
	script *redis.Script
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisLocker builds a RedisLocker.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *zap.Logger) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		return nil, errors.New("lock ttl must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
		ttl:    ttl,
		logger: logger.Named("redis_lock"),
	}, nil
}

// Lock implements VenueLocker by polling SET NX until it wins or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, venueID int64) (func(), error) {
	key := lockKey(venueID)
	token := uuid.NewString()

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire venue lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), lockReleaseLimit)
		defer cancel()
		if err := l.script.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("release venue lock", zap.Int64("venue_id", venueID), zap.Error(err))
		}
	}, nil
}

func lockKey(venueID int64) string {
	return fmt.Sprintf("%s%d", lockKeyPrefix, venueID)
}
