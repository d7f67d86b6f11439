package learning

import (
	"context"
	"sync"
	"time"

	"github.com/wucy1/ProDocuX/pkg/errors"
)

// LocalLocker serializes profile writes within one process.  It is the
// default when no redis is configured; single-binary deployments get the
// same per-profile exclusion without external infrastructure.
type LocalLocker struct {
	timeout time.Duration

	mu    sync.Mutex
	locks map[string]*profileLock
}

type profileLock struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker constructs a LocalLocker; timeout bounds how long Acquire
// waits for a contended profile.
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	return &LocalLocker{
		timeout: timeout,
		locks:   map[string]*profileLock{},
	}
}

// Acquire implements Locker.
func (l *LocalLocker) Acquire(ctx context.Context, profileName string) (func(), error) {
	l.mu.Lock()
	pl, ok := l.locks[profileName]
	if !ok {
		pl = &profileLock{sem: make(chan struct{}, 1)}
		l.locks[profileName] = pl
	}
	pl.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case pl.sem <- struct{}{}:
		return func() {
			<-pl.sem
			l.put(profileName, pl)
		}, nil
	case <-timer.C:
		l.put(profileName, pl)
		return nil, errors.New(errors.ErrCodeProfileLockTimeout, "profile is locked by another operation").
			WithDetail(profileName)
	case <-ctx.Done():
		l.put(profileName, pl)
		return nil, ctx.Err()
	}
}

// put drops a reference and frees the entry once nobody holds or waits on
// it, so the map does not grow with every profile name ever seen.
func (l *LocalLocker) put(profileName string, pl *profileLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, profileName)
	}
}
