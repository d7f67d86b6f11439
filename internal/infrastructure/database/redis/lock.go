package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/pkg/errors"
)

var (
	// ErrLockNotAcquired is returned when the lock stays contended for the
	// whole retry budget.
	ErrLockNotAcquired = errors.New(errors.ErrCodeProfileLockTimeout, "failed to acquire profile lock")
	// ErrLockNotHeld is returned by Unlock when the lock expired or was
	// taken over by another owner.
	ErrLockNotHeld = errors.New(errors.ErrCodeConflict, "lock not held by this owner")
)

// unlockScript deletes the key only when the stored owner token matches, so
// an expired lock re-acquired by someone else is never released by the
// previous holder.
var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Mutex is a single-holder distributed lock over one profile.
type Mutex struct {
	client *Client
	key    string
	value  string
	config lockConfig
	logger logging.Logger
}

type lockConfig struct {
	ttl        time.Duration
	retryDelay time.Duration
	retryCount int
}

// LockOption configures a Mutex.
type LockOption func(*lockConfig)

// WithLockTTL bounds how long a crashed holder can block others.
func WithLockTTL(ttl time.Duration) LockOption {
	return func(c *lockConfig) { c.ttl = ttl }
}

// WithRetryDelay sets the pause between acquisition attempts.
func WithRetryDelay(delay time.Duration) LockOption {
	return func(c *lockConfig) { c.retryDelay = delay }
}

// WithRetryCount sets how many acquisition attempts Lock makes.
func WithRetryCount(count int) LockOption {
	return func(c *lockConfig) { c.retryCount = count }
}

// NewMutex builds a lock for the named profile.  Each Mutex carries its own
// owner token; locks are not reentrant.
func (c *Client) NewMutex(profileName string, opts ...LockOption) *Mutex {
	cfg := lockConfig{
		ttl:        30 * time.Second,
		retryDelay: 100 * time.Millisecond,
		retryCount: 30,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Mutex{
		client: c,
		key:    c.Key("lock", "profile", profileName),
		value:  uuid.NewString(),
		config: cfg,
		logger: c.logger.Named("lock"),
	}
}

// Lock blocks until the lock is acquired, the retry budget runs out, or the
// context is done.
func (m *Mutex) Lock(ctx context.Context) error {
	rdb, err := m.client.Underlying()
	if err != nil {
		return err
	}
	for i := 0; i < m.config.retryCount; i++ {
		ok, err := rdb.SetNX(ctx, m.key, m.value, m.config.ttl).Result()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.config.retryDelay):
		}
	}
	m.logger.Warn("lock retry budget exhausted", logging.String("key", m.key))
	return ErrLockNotAcquired
}

// TryLock attempts a single acquisition.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	rdb, err := m.client.Underlying()
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, m.key, m.value, m.config.ttl).Result()
}

// Unlock releases the lock if this Mutex still owns it.
func (m *Mutex) Unlock(ctx context.Context) error {
	rdb, err := m.client.Underlying()
	if err != nil {
		return err
	}
	res, err := unlockScript.Run(ctx, rdb, []string{m.key}, m.value).Result()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if n, ok := res.(int64); !ok || n == 0 {
		return ErrLockNotHeld
	}
	return nil
}
