// Package batchutil provides pure helpers for chunked batch execution:
// fixed-size slicing, capped exponential backoff, and context-aware sleep.
package batchutil

import (
	"context"
	"time"
)

const (
	baseDelay = time.Second
	maxDelay  = 10 * time.Second
)

// Chunk splits items into groups of at most size. The final group holds
// the remainder. Size must be positive; a nil or empty input yields no
// groups.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 || size <= 0 {
		return nil
	}
	groups := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		groups = append(groups, items[start:end])
	}
	return groups
}

// BackoffDelay returns the delay before retry attempt n: one second
// doubled per attempt, capped at ten seconds. Attempt 1 yields 2s,
// attempt 4 and beyond yield the 10s cap.
func BackoffDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// 1s << attempt overflows for large attempts; the cap hits first.
	if attempt > 3 {
		return maxDelay
	}
	d := baseDelay << uint(attempt)
	if d > maxDelay {
		d = maxDelay
	}
	return d
}

// Sleep blocks for d or until ctx is canceled, returning the context
// error on early wakeup.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
