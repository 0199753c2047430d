package inventory

import "time"

// FailureReason classifies why a seat could not complete an operation.
// Business conflicts are expected and frequent, so they travel as
// per-seat results instead of errors; only infrastructure failures are
// returned as Go errors.
type FailureReason string

const (
    // ReasonAlreadyHeldOrSold means another session won the race for the
    // seat before this hold attempt.
    ReasonAlreadyHeldOrSold FailureReason = "already_held_or_sold"
    // ReasonMaxHoldsExceeded means the session's outstanding holds plus
    // the request would exceed the per-session cap.
    ReasonMaxHoldsExceeded FailureReason = "max_holds_exceeded"
    // ReasonNotAvailable means the seat was neither available nor held
    // at confirm time.
    ReasonNotAvailable FailureReason = "not_available"
    // ReasonTransactionRollback marks a seat that did transition to sold
    // but was reverted because a sibling in the same confirm batch failed.
    ReasonTransactionRollback FailureReason = "transaction_rollback"
)

// SeatFailure is the per-seat outcome of a failed hold or confirm.
type SeatFailure struct {
    SeatUID string        `json:"seat_uid"`
    Reason  FailureReason `json:"reason"`
}

// HoldResult reports the outcome of a HoldSeats call.  Holds are
// partial-success: some seats may be held while siblings fail in the
// same call.  ExpiresAt is the single expiry applied to every seat held
// by this call; it is zero when nothing was held.
type HoldResult struct {
    Held      []string      `json:"held"`
    Failed    []SeatFailure `json:"failed"`
    ExpiresAt time.Time     `json:"expires_at"`
}

// ReleaseResult reports which of the requested seats were actually
// released.  Seats held by other sessions or already expired are
// silently absent.
type ReleaseResult struct {
    Released []string `json:"released"`
}

// ConfirmResult reports the outcome of a ConfirmPurchase call.  Confirm
// is all-or-nothing: Failed is empty exactly when Confirmed lists every
// requested seat.
type ConfirmResult struct {
    Confirmed []string      `json:"confirmed"`
    Failed    []SeatFailure `json:"failed"`
}
