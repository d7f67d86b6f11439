package redis

import (
	"context"
	"time"

	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
)

// Locker adapts the distributed mutex to the application's per-profile
// locking port: one Acquire/release pair per profile commit.
type Locker struct {
	client *Client
	opts   []LockOption
	logger logging.Logger
}

// NewLocker constructs a Locker; opts apply to every acquired mutex.
func NewLocker(client *Client, opts ...LockOption) *Locker {
	return &Locker{
		client: client,
		opts:   opts,
		logger: client.logger.Named("locker"),
	}
}

// Acquire takes the profile's mutex and returns its release function.
func (l *Locker) Acquire(ctx context.Context, profileName string) (func(), error) {
	m := l.client.NewMutex(profileName, l.opts...)
	if err := m.Lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		// Release must not depend on the request context still being
		// alive; the caller may release after its request was canceled.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Unlock(unlockCtx); err != nil {
			l.logger.Warn("profile lock release failed",
				logging.String("profile", profileName), logging.Err(err))
		}
	}, nil
}
