package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

// releaseScript deletes the key only while it still holds our token, so an expired lock that
// another replica picked up is left alone.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived named locks shared by every replica pointed at the same redis.
type Locker struct {
	rdb    goredis.UniversalClient
	log    *logger.Logger
	prefix string
}

func NewLocker(rdb goredis.UniversalClient, log *logger.Logger) *Locker {
	if log == nil {
		log = logger.Nop()
	}
	return &Locker{rdb: rdb, log: log.With("client", "RedisLocker"), prefix: "autumn:lock:"}
}

// TryLock takes name for ttl. ok is false when another holder has it; release is nil then.
func (l *Locker) TryLock(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, ok bool, err error) {
	if l == nil || l.rdb == nil {
		return nil, false, errors.New("redis locker not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, errors.New("lock name required")
	}
	if ttl <= 0 {
		return nil, false, fmt.Errorf("lock ttl must be positive, got %s", ttl)
	}
	key := l.prefix + name
	token := uuid.NewString()

	ok, err = l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		l.log.Debug("lock held elsewhere", "key", key)
		return nil, false, nil
	}
	release = func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			return fmt.Errorf("release %s: %w", key, err)
		}
		return nil
	}
	return release, true, nil
}
