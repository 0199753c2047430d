package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/ambilet/seat-inventory/internal/model"
)

// HoldLedgerRepo provides data access to the seat_holds table, the
// durable ledger of currently-held seats.  Expiry comparisons are done
// against a caller-supplied instant rather than the database clock so
// that the service layer owns the single notion of "now".  All
// timestamps are stored and compared in UTC.
type HoldLedgerRepo struct {
    db *sql.DB
}

// NewHoldLedgerRepo returns a HoldLedgerRepo bound to the provided database.
func NewHoldLedgerRepo(db *sql.DB) *HoldLedgerRepo { return &HoldLedgerRepo{db: db} }

const holdColumns = `id, event_seating_id, seat_uid, session_uid, expires_at, created_at`

// Create inserts a new hold row.  The created_at column defaults in the
// database.  Joins the context transaction when one is present.
func (r *HoldLedgerRepo) Create(ctx context.Context, hold model.SeatHold) error {
    const q = `INSERT INTO seat_holds (event_seating_id, seat_uid, session_uid, expires_at)
               VALUES (?, ?, ?, ?)`
    _, err := conn(ctx, r.db).ExecContext(ctx, q,
        hold.EventSeatingID, hold.SeatUID, hold.SessionUID, hold.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
    return err
}

// Delete removes the hold row for one seat, regardless of owner.  It is
// a no-op when no row exists; the ledger must never keep a row for a
// seat that has left the held status.
func (r *HoldLedgerRepo) Delete(ctx context.Context, eventSeatingID uint64, seatUID string) error {
    const q = `DELETE FROM seat_holds WHERE event_seating_id = ? AND seat_uid = ?`
    _, err := conn(ctx, r.db).ExecContext(ctx, q, eventSeatingID, seatUID)
    return err
}

// Get returns the hold row for one seat.  The boolean reports whether a
// row exists; absence is an ordinary outcome, not an error.
func (r *HoldLedgerRepo) Get(ctx context.Context, eventSeatingID uint64, seatUID string) (model.SeatHold, bool, error) {
    const q = `SELECT ` + holdColumns + ` FROM seat_holds
               WHERE event_seating_id = ? AND seat_uid = ?`
    var h model.SeatHold
    err := conn(ctx, r.db).QueryRowContext(ctx, q, eventSeatingID, seatUID).
        Scan(&h.ID, &h.EventSeatingID, &h.SeatUID, &h.SessionUID, &h.ExpiresAt, &h.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.SeatHold{}, false, nil
    }
    if err != nil {
        return model.SeatHold{}, false, err
    }
    return h, true, nil
}

// ActiveBySession retrieves all holds for a session within one inventory
// snapshot that are unexpired at now.  Expired rows are filtered out
// even before a reaper sweep has removed them.
func (r *HoldLedgerRepo) ActiveBySession(ctx context.Context, eventSeatingID uint64, sessionUID string, now time.Time) ([]model.SeatHold, error) {
    const q = `SELECT ` + holdColumns + ` FROM seat_holds
               WHERE event_seating_id = ? AND session_uid = ? AND expires_at > ?`
    return r.queryHolds(ctx, q, eventSeatingID, sessionUID, now.UTC())
}

// CountActiveBySession returns how many unexpired holds a session has on
// one inventory snapshot.  Used to enforce the per-session hold cap.
func (r *HoldLedgerRepo) CountActiveBySession(ctx context.Context, eventSeatingID uint64, sessionUID string, now time.Time) (int, error) {
    const q = `SELECT COUNT(*) FROM seat_holds
               WHERE event_seating_id = ? AND session_uid = ? AND expires_at > ?`
    var n int
    err := conn(ctx, r.db).QueryRowContext(ctx, q, eventSeatingID, sessionUID, now.UTC()).Scan(&n)
    return n, err
}

// ListExpired returns up to limit holds whose expiry has passed, across
// all inventory snapshots.  The reaper releases these in batches.
func (r *HoldLedgerRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.SeatHold, error) {
    const q = `SELECT ` + holdColumns + ` FROM seat_holds
               WHERE expires_at <= ? ORDER BY expires_at LIMIT ?`
    return r.queryHolds(ctx, q, now.UTC(), limit)
}

// ListExpiredBySeating returns every expired hold within one inventory
// snapshot.  Hold attempts sweep these before touching seat state so
// that an expired hold never blocks a new buyer.
func (r *HoldLedgerRepo) ListExpiredBySeating(ctx context.Context, eventSeatingID uint64, now time.Time) ([]model.SeatHold, error) {
    const q = `SELECT ` + holdColumns + ` FROM seat_holds
               WHERE event_seating_id = ? AND expires_at <= ?`
    return r.queryHolds(ctx, q, eventSeatingID, now.UTC())
}

func (r *HoldLedgerRepo) queryHolds(ctx context.Context, query string, args ...interface{}) ([]model.SeatHold, error) {
    rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var holds []model.SeatHold
    for rows.Next() {
        var h model.SeatHold
        if err := rows.Scan(&h.ID, &h.EventSeatingID, &h.SeatUID, &h.SessionUID, &h.ExpiresAt, &h.CreatedAt); err != nil {
            return nil, err
        }
        holds = append(holds, h)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return holds, nil
}
