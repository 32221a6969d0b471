package guard

import (
	"context"
	"sync"
	"time"

	"github.com/rentlover/platform/internal/domain"
)

// IdempotencyGuard short-circuits replays of the same key inside one
// process, such as a gateway re-sending a notification. Keys are forgotten
// after ttl. Durable idempotency lives in the ledger; this only saves work.
type IdempotencyGuard struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

// NewIdempotencyGuard creates a new in-memory idempotency guard. ttl <= 0
// keeps keys forever.
func NewIdempotencyGuard(ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// Check returns whether the given key has already been processed.
func (ig *IdempotencyGuard) Check(_ context.Context, key string) domain.GuardResult {
	if key == "" {
		return domain.GuardResult{Allowed: true}
	}

	ig.mu.Lock()
	defer ig.mu.Unlock()

	now := time.Now()
	if at, ok := ig.seen[key]; ok && (ig.ttl <= 0 || now.Sub(at) < ig.ttl) {
		return domain.GuardResult{
			Allowed: false,
			Reason:  "duplicate request: idempotency key already processed",
			Guard:   "idempotency",
		}
	}

	ig.seen[key] = now
	if len(ig.seen)%256 == 0 {
		ig.sweep(now)
	}
	return domain.GuardResult{Allowed: true}
}

// Remove forgets a key so a failed attempt can be retried.
func (ig *IdempotencyGuard) Remove(key string) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	delete(ig.seen, key)
}

func (ig *IdempotencyGuard) sweep(now time.Time) {
	if ig.ttl <= 0 {
		return
	}
	for k, at := range ig.seen {
		if now.Sub(at) >= ig.ttl {
			delete(ig.seen, k)
		}
	}
}
