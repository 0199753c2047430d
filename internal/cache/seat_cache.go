// Package cache provides a best-effort Redis fast path for seat hold
// existence checks.  The cache is advisory only: it never gates a seat
// transition and its failures are logged and swallowed, so an
// unavailable Redis degrades the service to ledger-only operation
// without surfacing errors to callers.
package cache

import (
    "context"
    "fmt"
    "log"
    "time"

    "github.com/redis/go-redis/v9"
)

// SeatHoldCache mirrors the hold ledger into Redis keys with a native
// TTL equal to the hold TTL.  A nil client disables the cache entirely;
// every method is safe to call in that state.
type SeatHoldCache struct {
    rdb    *redis.Client
    prefix string
}

// New returns a SeatHoldCache using the given client and key namespace.
// Pass a nil client to disable the fast path.
func New(rdb *redis.Client, prefix string) *SeatHoldCache {
    if prefix == "" {
        prefix = "seathold"
    }
    return &SeatHoldCache{rdb: rdb, prefix: prefix}
}

// Enabled reports whether a Redis client is configured.
func (c *SeatHoldCache) Enabled() bool { return c != nil && c.rdb != nil }

func (c *SeatHoldCache) key(eventSeatingID uint64, seatUID string) string {
    return fmt.Sprintf("%s:%d:%s", c.prefix, eventSeatingID, seatUID)
}

// MarkHeld records that a seat is held by a session, expiring with the
// hold itself.  Errors are logged and dropped.
func (c *SeatHoldCache) MarkHeld(ctx context.Context, eventSeatingID uint64, seatUID, sessionUID string, ttl time.Duration) {
    if !c.Enabled() {
        return
    }
    if err := c.rdb.Set(ctx, c.key(eventSeatingID, seatUID), sessionUID, ttl).Err(); err != nil {
        log.Printf("seat-cache: mark held failed for %s: %v", c.key(eventSeatingID, seatUID), err)
    }
}

// Evict removes the cache entry for a seat.  Errors are logged and
// dropped; a stale entry ages out with its TTL anyway.
func (c *SeatHoldCache) Evict(ctx context.Context, eventSeatingID uint64, seatUID string) {
    if !c.Enabled() {
        return
    }
    if err := c.rdb.Del(ctx, c.key(eventSeatingID, seatUID)).Err(); err != nil {
        log.Printf("seat-cache: evict failed for %s: %v", c.key(eventSeatingID, seatUID), err)
    }
}

// ProbablyHeld answers whether a seat is likely held without touching
// the ledger.  False negatives and positives are both possible; the
// answer is for display, never for transition decisions.
func (c *SeatHoldCache) ProbablyHeld(ctx context.Context, eventSeatingID uint64, seatUID string) bool {
    if !c.Enabled() {
        return false
    }
    n, err := c.rdb.Exists(ctx, c.key(eventSeatingID, seatUID)).Result()
    if err != nil {
        log.Printf("seat-cache: exists check failed for %s: %v", c.key(eventSeatingID, seatUID), err)
        return false
    }
    return n > 0
}
