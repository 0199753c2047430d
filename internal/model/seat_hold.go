package model

import "time"

// SeatHold is the durable record of an in-progress reservation.  A row
// exists exactly while the corresponding EventSeat is in status held,
// modulo the short window in which an expiry sweep is converging the
// two.  Rows are created by holdSeats and removed by releaseSeats,
// confirmPurchase or the expiry reaper.
//
// Fields:
//  ID             – primary key identifier.
//  EventSeatingID – inventory snapshot of the held seat.
//  SeatUID        – the seat being held.
//  SessionUID     – opaque identifier of the holding cart/session.
//  ExpiresAt      – absolute expiry, set to now + TTL at creation.
//  CreatedAt      – when the hold was created.
type SeatHold struct {
    ID             uint64    // seat_holds.id
    EventSeatingID uint64    // seat_holds.event_seating_id
    SeatUID        string    // seat_holds.seat_uid
    SessionUID     string    // seat_holds.session_uid
    ExpiresAt      time.Time // seat_holds.expires_at
    CreatedAt      time.Time // seat_holds.created_at
}

// Active reports whether the hold is still live at the given instant.
func (h SeatHold) Active(now time.Time) bool {
    return h.ExpiresAt.After(now)
}
