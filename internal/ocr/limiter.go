package ocr

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

var (
	limiterMu  sync.RWMutex
	ocrLimiter *semaphore.Weighted
)

// SetConcurrencyLimit caps recognitions in flight across every engine.
// A non-positive max removes the cap.
func SetConcurrencyLimit(max int64) {
	limiterMu.Lock()
	defer limiterMu.Unlock()
	if max <= 0 {
		ocrLimiter = nil
		return
	}
	ocrLimiter = semaphore.NewWeighted(max)
}

func WithConcurrencyLimit(ctx context.Context, fn func() (string, error)) (string, error) {
	limiterMu.RLock()
	limiter := ocrLimiter
	limiterMu.RUnlock()
	if limiter == nil {
		return fn()
	}
	if err := limiter.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer limiter.Release(1)
	return fn()
}
