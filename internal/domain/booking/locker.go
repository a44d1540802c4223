package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KeyedMutex is an in-process Locker with one mutex per professional and
// date. Entries are dropped once no goroutine holds or waits on them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *KeyedMutex) WithinDay(ctx context.Context, professionalID uuid.UUID, date time.Time, fn func(context.Context) error) error {
	key := professionalID.String() + "|" + dateKey(date)
	l := k.acquire(key)
	defer k.release(key, l)
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func (k *KeyedMutex) acquire(key string) *keyedLock {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()
	l.mu.Lock()
	return l
}

func (k *KeyedMutex) release(key string, l *keyedLock) {
	l.mu.Unlock()
	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
