package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter is the single-replica fallback used when Redis is not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	now     func() time.Time
}

type fixedWindow struct {
	start time.Time
	count int
}

// NewMemory creates an in-process limiter.
func NewMemory() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := windowStart(l.now(), window)
	w, ok := l.windows[key]
	if !ok || !w.start.Equal(start) {
		w = &fixedWindow{start: start}
		l.windows[key] = w
	}
	w.count++

	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return &Result{
		Allowed:   w.count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   start.Add(window),
	}, nil
}
