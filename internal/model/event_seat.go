package model

import "time"

// SeatStatus is the lifecycle state of a single seat within an event's
// inventory snapshot.  Transitions between statuses are performed only
// through the conditional-update primitive in the repository layer.
type SeatStatus string

const (
    SeatAvailable SeatStatus = "available" // free to be held or sold
    SeatHeld      SeatStatus = "held"      // reserved by a session, TTL-bound
    SeatSold      SeatStatus = "sold"      // purchased, terminal
    SeatBlocked   SeatStatus = "blocked"   // administratively withheld (managed externally)
    SeatDisabled  SeatStatus = "disabled"  // not sellable at all (managed externally)
)

// EventSeat is one row per physical seat per event inventory snapshot.
// Seats are created by the seating-setup collaborator when an event's
// layout is instantiated; this service only transitions their status.
//
// Fields:
//  ID             – primary key identifier.
//  EventSeatingID – the inventory snapshot this seat belongs to.
//  SeatUID        – stable seat identifier, unique within the snapshot.
//  Status         – current availability status.
//  Version        – increments on every status change; a row's version
//                   never decreases, which makes stale reads detectable.
//  LastChangeAt   – timestamp of the last status mutation.
type EventSeat struct {
    ID             uint64     // event_seats.id
    EventSeatingID uint64     // event_seats.event_seating_id
    SeatUID        string     // event_seats.seat_uid
    Status         SeatStatus // event_seats.status
    Version        uint64     // event_seats.version
    LastChangeAt   time.Time  // event_seats.last_change_at
}
