package model

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestSeatHoldActive(t *testing.T) {
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

    h := SeatHold{ExpiresAt: now.Add(time.Minute)}
    assert.True(t, h.Active(now))

    h.ExpiresAt = now
    assert.False(t, h.Active(now), "a hold expiring exactly now is no longer active")

    h.ExpiresAt = now.Add(-time.Second)
    assert.False(t, h.Active(now))
}
