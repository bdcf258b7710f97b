package reports

import (
	"context"
	"sync"
)

// VenueLocker serializes statistics recomputation per venue.
type VenueLocker interface {
	// Lock blocks until the venue is held or ctx ends. The returned func
	// releases the lock.
	Lock(ctx context.Context, venueID int64) (unlock func(), err error)
}

// LocalLocker is an in-process VenueLocker.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[int64]*venueLock
}

type venueLock struct {
	held chan struct{}
	refs int
}

// NewLocalLocker returns an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[int64]*venueLock)}
}

// Lock implements VenueLocker.
func (l *LocalLocker) Lock(ctx context.Context, venueID int64) (func(), error) {
	l.mu.Lock()
	vl, ok := l.locks[venueID]
	if !ok {
		vl = &venueLock{held: make(chan struct{}, 1)}
		l.locks[venueID] = vl
	}
	vl.refs++
	l.mu.Unlock()

	select {
	case vl.held <- struct{}{}:
	case <-ctx.Done():
		l.release(venueID, vl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-vl.held
			l.release(venueID, vl)
		})
	}, nil
}

func (l *LocalLocker) release(venueID int64, vl *venueLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	vl.refs--
	if vl.refs == 0 {
		delete(l.locks, venueID)
	}
}

// size reports how many venues have waiters or holders.
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
