package auth

import (
	"context"
	"sync"
	"time"
)

// TokenBlacklist stores revoked token ids until the token would have expired anyway.
type TokenBlacklist interface {
	Add(ctx context.Context, jti string, originalTokenExpTime time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// MemoryBlacklist is a process-local TokenBlacklist, used when Redis is not configured.
type MemoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]time.Time)}
}

func (b *MemoryBlacklist) Add(_ context.Context, jti string, originalTokenExpTime time.Time) error {
	if !time.Now().Before(originalTokenExpTime) {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[jti] = originalTokenExpTime
	return nil
}

func (b *MemoryBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.entries[jti]
	if !ok {
		return false, nil
	}
	if !time.Now().Before(exp) {
		delete(b.entries, jti)
		return false, nil
	}
	return true, nil
}
