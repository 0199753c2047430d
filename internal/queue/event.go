// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records confirmed sales.
package queue

// SeatsSoldEvent is published when a batch of seats is confirmed as sold.
// It carries enough information for downstream consumers (audit log,
// analytics, webhooks) without querying the primary database.
type SeatsSoldEvent struct {
    EventSeatingID  uint64   `json:"event_seating_id"`
    SeatUIDs        []string `json:"seat_uids"`
    SessionUID      string   `json:"session_uid"`
    PaidAmountCents int64    `json:"paid_amount_cents"`
    ConfirmedAt     string   `json:"confirmed_at"`
}
