package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryLock struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker keeps locks inside the process. It is only safe with a single server instance.
type MemoryLocker struct {
	mu    sync.Mutex
	locks *expirable.LRU[string, memoryLock]
	now   func() time.Time
}

// NewMemoryLocker holds at most size locks. maxTTL must be at least the longest ttl passed to Acquire.
func NewMemoryLocker(size int, maxTTL time.Duration) *MemoryLocker {
	return &MemoryLocker{
		locks: expirable.NewLRU[string, memoryLock](size, nil, maxTTL),
		now:   time.Now,
	}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if existing, ok := l.locks.Get(key); ok && now.Before(existing.expiresAt) {
		return "", false, nil
	}

	token := uuid.New().String()
	l.locks.Add(key, memoryLock{token: token, expiresAt: now.Add(ttl)})
	return token, true, nil
}

func (l *MemoryLocker) Extend(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	existing, ok := l.locks.Peek(key)
	if !ok || existing.token != token || !now.Before(existing.expiresAt) {
		return false, nil
	}
	l.locks.Add(key, memoryLock{token: token, expiresAt: now.Add(ttl)})
	return true, nil
}

func (l *MemoryLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.locks.Peek(key); ok && existing.token == token {
		l.locks.Remove(key)
	}
	return nil
}
