package memory

import (
	"context"
	"sync"
)

// Locker is a keyed mutex. Acquire waits for the key or for ctx.
type Locker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch      chan struct{}
	waiters int
}

func NewLocker() *Locker {
	return &Locker{slots: make(map[string]*slot)}
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.waiters++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.leave(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func(context.Context) error {
		once.Do(func() {
			<-s.ch
			l.leave(key, s)
		})
		return nil
	}
	return release, nil
}

// leave drops the slot once nobody holds or waits for it.
func (l *Locker) leave(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.waiters--
	if s.waiters == 0 {
		delete(l.slots, key)
	}
}

//Personal.AI order the ending
