package repository

import (
    "context"
    "database/sql"

    "github.com/ambilet/seat-inventory/internal/model"
)

// SeatInventoryRepo provides access to the event_seats table, the
// authoritative record of every seat's status.  Status changes happen
// exclusively through TryTransition, a conditional update whose
// affected-row count is the only signal by which concurrent callers
// racing on the same seat are resolved.
type SeatInventoryRepo struct {
    db *sql.DB
}

// NewSeatInventoryRepo returns a SeatInventoryRepo bound to the provided
// database handle.
func NewSeatInventoryRepo(db *sql.DB) *SeatInventoryRepo { return &SeatInventoryRepo{db: db} }

// TryTransition updates every listed seat whose current status equals
// from, setting status to, incrementing version and stamping
// last_change_at.  It returns the number of rows actually changed.
// Callers must never assume success: a count lower than len(seatUIDs)
// means another caller won the race for the remaining seats.  When the
// context carries a transaction the update joins it.
func (r *SeatInventoryRepo) TryTransition(ctx context.Context, eventSeatingID uint64, seatUIDs []string, from, to model.SeatStatus) (int64, error) {
    if len(seatUIDs) == 0 {
        return 0, nil
    }
    query := `UPDATE event_seats
              SET status = ?, version = version + 1, last_change_at = UTC_TIMESTAMP()
              WHERE event_seating_id = ? AND status = ? AND seat_uid IN (` + placeholders(len(seatUIDs)) + `)`
    args := make([]interface{}, 0, len(seatUIDs)+3)
    args = append(args, string(to), eventSeatingID, string(from))
    for _, uid := range seatUIDs {
        args = append(args, uid)
    }
    res, err := conn(ctx, r.db).ExecContext(ctx, query, args...)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// WithTx runs fn inside a single database transaction.  It is the
// boundary used by confirmPurchase so that the seat status updates and
// the ledger deletes commit or roll back as one unit.
func (r *SeatInventoryRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
    return runInTx(ctx, r.db, fn)
}

// SeatsByUIDs loads the current state of the given seats within one
// inventory snapshot.  Unknown seat UIDs are simply absent from the
// result; callers that need per-seat presence must compare lengths.
func (r *SeatInventoryRepo) SeatsByUIDs(ctx context.Context, eventSeatingID uint64, seatUIDs []string) ([]model.EventSeat, error) {
    if len(seatUIDs) == 0 {
        return []model.EventSeat{}, nil
    }
    query := `SELECT id, event_seating_id, seat_uid, status, version, last_change_at
              FROM event_seats
              WHERE event_seating_id = ? AND seat_uid IN (` + placeholders(len(seatUIDs)) + `)`
    args := make([]interface{}, 0, len(seatUIDs)+1)
    args = append(args, eventSeatingID)
    for _, uid := range seatUIDs {
        args = append(args, uid)
    }
    rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var seats []model.EventSeat
    for rows.Next() {
        var s model.EventSeat
        var status string
        if err := rows.Scan(&s.ID, &s.EventSeatingID, &s.SeatUID, &status, &s.Version, &s.LastChangeAt); err != nil {
            return nil, err
        }
        s.Status = model.SeatStatus(status)
        seats = append(seats, s)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return seats, nil
}
