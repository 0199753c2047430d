// Package inventory implements the seat hold and purchase protocol: the
// hold/release/confirm lifecycle of per-seat reservation records, the
// per-session hold cap, and expiry of stale holds.
//
// All coordination between concurrent callers happens through the
// inventory store's conditional update; the service keeps no shared
// in-process mutable state and may run in any number of processes at
// once.  Note the deliberate asymmetry callers must handle: holds are
// partial-success per seat, purchases are all-or-nothing per batch.
package inventory

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/ambilet/seat-inventory/internal/clock"
    "github.com/ambilet/seat-inventory/internal/model"
    "github.com/ambilet/seat-inventory/internal/queue"
)

// SeatInventory is the authoritative seat-state store.  TryTransition is
// the sole race-resolution mechanism: it changes only seats currently in
// the from status and reports how many rows it changed.  WithTx provides
// the transactional boundary required by ConfirmPurchase.
type SeatInventory interface {
    TryTransition(ctx context.Context, eventSeatingID uint64, seatUIDs []string, from, to model.SeatStatus) (int64, error)
    WithTx(ctx context.Context, fn func(ctx context.Context) error) error
    SeatsByUIDs(ctx context.Context, eventSeatingID uint64, seatUIDs []string) ([]model.EventSeat, error)
}

// HoldLedger is the durable, queryable record of currently-held seats.
type HoldLedger interface {
    Create(ctx context.Context, hold model.SeatHold) error
    Delete(ctx context.Context, eventSeatingID uint64, seatUID string) error
    Get(ctx context.Context, eventSeatingID uint64, seatUID string) (model.SeatHold, bool, error)
    ActiveBySession(ctx context.Context, eventSeatingID uint64, sessionUID string, now time.Time) ([]model.SeatHold, error)
    CountActiveBySession(ctx context.Context, eventSeatingID uint64, sessionUID string, now time.Time) (int, error)
    ListExpired(ctx context.Context, now time.Time, limit int) ([]model.SeatHold, error)
    ListExpiredBySeating(ctx context.Context, eventSeatingID uint64, now time.Time) ([]model.SeatHold, error)
}

// SeatCache is the optional ephemeral fast path.  Implementations must
// be advisory: they never fail an operation and never influence a
// transition decision.
type SeatCache interface {
    MarkHeld(ctx context.Context, eventSeatingID uint64, seatUID, sessionUID string, ttl time.Duration)
    Evict(ctx context.Context, eventSeatingID uint64, seatUID string)
    ProbablyHeld(ctx context.Context, eventSeatingID uint64, seatUID string) bool
}

// SalePublisher receives a sale event after a successful confirm.
// Publishing is best-effort; failures are logged, never surfaced.
type SalePublisher interface {
    PublishSeatsSold(ctx context.Context, event queue.SeatsSoldEvent) error
}

// Config carries the tuning knobs of the service.  Zero values fall back
// to the defaults below.
type Config struct {
    HoldTTL           time.Duration // how long a hold lives
    MaxHeldPerSession int           // cap on outstanding holds per session per seating
    ReaperBatchLimit  int           // max ledger rows per reaper sweep
}

const (
    defaultHoldTTL           = 15 * time.Minute
    defaultMaxHeldPerSession = 10
    defaultReaperBatchLimit  = 100
)

// Service orchestrates the inventory store, the hold ledger and the
// optional cache.  Construct with NewService; all collaborators are
// injected so tests can substitute in-memory fakes.
type Service struct {
    inv       SeatInventory
    ledger    HoldLedger
    cache     SeatCache     // may be nil
    publisher SalePublisher // may be nil
    clock     clock.Clock
    cfg       Config
}

// NewService wires a Service.  inv and ledger must be non-nil; cache and
// publisher are optional and may be nil.  A nil clk uses the wall clock.
func NewService(inv SeatInventory, ledger HoldLedger, cch SeatCache, publisher SalePublisher, clk clock.Clock, cfg Config) *Service {
    if inv == nil || ledger == nil {
        panic("nil store passed to NewService")
    }
    if clk == nil {
        clk = clock.System()
    }
    if cfg.HoldTTL <= 0 {
        cfg.HoldTTL = defaultHoldTTL
    }
    if cfg.MaxHeldPerSession <= 0 {
        cfg.MaxHeldPerSession = defaultMaxHeldPerSession
    }
    if cfg.ReaperBatchLimit <= 0 {
        cfg.ReaperBatchLimit = defaultReaperBatchLimit
    }
    return &Service{inv: inv, ledger: ledger, cache: cch, publisher: publisher, clock: clk, cfg: cfg}
}

// HoldTTL returns the configured hold lifetime.
func (s *Service) HoldTTL() time.Duration { return s.cfg.HoldTTL }

// HoldSeats attempts to hold each requested seat for sessionUID.  The
// call is partial-success: each seat is attempted independently and the
// result lists winners and losers side by side.  The whole call fails
// fast with max_holds_exceeded when the session's outstanding holds plus
// the request would exceed the cap, in which case no seat state changes.
// Infrastructure errors abort the call and leave already-held seats
// held; the caller may release them or let them expire.
func (s *Service) HoldSeats(ctx context.Context, eventSeatingID uint64, seatUIDs []string, sessionUID string) (HoldResult, error) {
    seatUIDs = dedupe(seatUIDs)
    now := s.clock.Now()

    // Converge any expired holds on this seating first, so a hold whose
    // TTL has lapsed never blocks a new buyer even before a reaper run.
    if err := s.sweepSeating(ctx, eventSeatingID, now); err != nil {
        return HoldResult{}, err
    }

    current, err := s.ledger.CountActiveBySession(ctx, eventSeatingID, sessionUID, now)
    if err != nil {
        return HoldResult{}, err
    }
    if current+len(seatUIDs) > s.cfg.MaxHeldPerSession {
        res := HoldResult{Held: []string{}}
        for _, uid := range seatUIDs {
            res.Failed = append(res.Failed, SeatFailure{SeatUID: uid, Reason: ReasonMaxHoldsExceeded})
        }
        return res, nil
    }

    expiresAt := now.Add(s.cfg.HoldTTL)
    res := HoldResult{Held: []string{}}
    for _, uid := range seatUIDs {
        n, err := s.inv.TryTransition(ctx, eventSeatingID, []string{uid}, model.SeatAvailable, model.SeatHeld)
        if err != nil {
            return HoldResult{}, err
        }
        if n == 0 {
            res.Failed = append(res.Failed, SeatFailure{SeatUID: uid, Reason: ReasonAlreadyHeldOrSold})
            continue
        }
        hold := model.SeatHold{
            EventSeatingID: eventSeatingID,
            SeatUID:        uid,
            SessionUID:     sessionUID,
            ExpiresAt:      expiresAt,
        }
        if err := s.ledger.Create(ctx, hold); err != nil {
            // The ledger row is the proof of ownership; without it the
            // seat must not stay held.
            if _, revErr := s.inv.TryTransition(ctx, eventSeatingID, []string{uid}, model.SeatHeld, model.SeatAvailable); revErr != nil {
                log.Printf("inventory: failed to revert seat %d/%s after ledger write error: %v", eventSeatingID, uid, revErr)
            }
            return HoldResult{}, err
        }
        if s.cache != nil {
            s.cache.MarkHeld(ctx, eventSeatingID, uid, sessionUID, s.cfg.HoldTTL)
        }
        res.Held = append(res.Held, uid)
    }
    if len(res.Held) > 0 {
        res.ExpiresAt = expiresAt
    }
    return res, nil
}

// ReleaseSeats releases the requested seats back to available, but only
// those whose hold is unexpired and owned by sessionUID.  Holds owned by
// other sessions or already expired are silently skipped.
func (s *Service) ReleaseSeats(ctx context.Context, eventSeatingID uint64, seatUIDs []string, sessionUID string) (ReleaseResult, error) {
    seatUIDs = dedupe(seatUIDs)
    now := s.clock.Now()
    res := ReleaseResult{Released: []string{}}
    for _, uid := range seatUIDs {
        hold, found, err := s.ledger.Get(ctx, eventSeatingID, uid)
        if err != nil {
            return ReleaseResult{}, err
        }
        if !found || hold.SessionUID != sessionUID || !hold.Active(now) {
            continue
        }
        n, err := s.inv.TryTransition(ctx, eventSeatingID, []string{uid}, model.SeatHeld, model.SeatAvailable)
        if err != nil {
            return ReleaseResult{}, err
        }
        if n == 0 {
            // The seat already left held (a confirm or sweep won); the
            // losing side takes the no-op path.
            continue
        }
        if err := s.ledger.Delete(ctx, eventSeatingID, uid); err != nil {
            return ReleaseResult{}, err
        }
        if s.cache != nil {
            s.cache.Evict(ctx, eventSeatingID, uid)
        }
        res.Released = append(res.Released, uid)
    }
    return res, nil
}

// errConfirmAborted marks a business-level confirm failure inside the
// transaction; it triggers the rollback and is then swallowed.
var errConfirmAborted = errors.New("confirm aborted")

// ConfirmPurchase transitions each seat to sold, accepting seats that
// are either available or held (a purchase may occur without a prior
// hold).  The batch is all-or-nothing: seat updates and ledger cleanup
// run inside a single transaction, and if any seat cannot be sold the
// whole batch rolls back.  In that case every seat is reported failed —
// the seats that had transitioned are tagged transaction_rollback, the
// ones that could not not_available.  Ownership of holds is not checked
// here: payment confirmation may arrive under a different session
// identifier than the one that placed the hold.
func (s *Service) ConfirmPurchase(ctx context.Context, eventSeatingID uint64, seatUIDs []string, sessionUID string, paidAmountCents int64) (ConfirmResult, error) {
    seatUIDs = dedupe(seatUIDs)
    var sold []string
    var failed []SeatFailure

    txErr := s.inv.WithTx(ctx, func(ctx context.Context) error {
        for _, uid := range seatUIDs {
            n, err := s.inv.TryTransition(ctx, eventSeatingID, []string{uid}, model.SeatHeld, model.SeatSold)
            if err != nil {
                return err
            }
            if n == 0 {
                n, err = s.inv.TryTransition(ctx, eventSeatingID, []string{uid}, model.SeatAvailable, model.SeatSold)
                if err != nil {
                    return err
                }
            }
            if n == 0 {
                failed = append(failed, SeatFailure{SeatUID: uid, Reason: ReasonNotAvailable})
                continue
            }
            if err := s.ledger.Delete(ctx, eventSeatingID, uid); err != nil {
                return err
            }
            sold = append(sold, uid)
        }
        if len(failed) > 0 {
            return errConfirmAborted
        }
        return nil
    })
    if txErr != nil {
        if !errors.Is(txErr, errConfirmAborted) {
            return ConfirmResult{}, txErr
        }
        res := ConfirmResult{Confirmed: []string{}, Failed: failed}
        for _, uid := range sold {
            res.Failed = append(res.Failed, SeatFailure{SeatUID: uid, Reason: ReasonTransactionRollback})
        }
        return res, nil
    }

    for _, uid := range sold {
        if s.cache != nil {
            s.cache.Evict(ctx, eventSeatingID, uid)
        }
    }
    if s.publisher != nil {
        ev := queue.SeatsSoldEvent{
            EventSeatingID:  eventSeatingID,
            SeatUIDs:        sold,
            SessionUID:      sessionUID,
            PaidAmountCents: paidAmountCents,
            ConfirmedAt:     s.clock.Now().Format(time.RFC3339),
        }
        if err := s.publisher.PublishSeatsSold(ctx, ev); err != nil {
            log.Printf("inventory: seats.sold publish failed for seating %d: %v", eventSeatingID, err)
        }
    }
    return ConfirmResult{Confirmed: sold, Failed: []SeatFailure{}}, nil
}

// GetSessionHolds returns the session's unexpired holds on one seating.
// Expired rows are filtered out even before any sweep removes them.
func (s *Service) GetSessionHolds(ctx context.Context, eventSeatingID uint64, sessionUID string) ([]model.SeatHold, error) {
    return s.ledger.ActiveBySession(ctx, eventSeatingID, sessionUID, s.clock.Now())
}

// GetSessionHoldCount returns how many unexpired holds the session has
// on one seating.
func (s *Service) GetSessionHoldCount(ctx context.Context, eventSeatingID uint64, sessionUID string) (int, error) {
    return s.ledger.CountActiveBySession(ctx, eventSeatingID, sessionUID, s.clock.Now())
}

// SeatsByUIDs returns the current state of the given seats.
func (s *Service) SeatsByUIDs(ctx context.Context, eventSeatingID uint64, seatUIDs []string) ([]model.EventSeat, error) {
    return s.inv.SeatsByUIDs(ctx, eventSeatingID, dedupe(seatUIDs))
}

// ProbablyHeld answers the cache's advisory view of one seat.  It is for
// display only; with no cache configured it always reports false.
func (s *Service) ProbablyHeld(ctx context.Context, eventSeatingID uint64, seatUID string) bool {
    if s.cache == nil {
        return false
    }
    return s.cache.ProbablyHeld(ctx, eventSeatingID, seatUID)
}

// ReleaseExpiredHolds scans the ledger for holds past their expiry and
// forces each seat back to available where the conditional update
// confirms it is still held.  The returned count includes only seats the
// sweep actually released; the ledger row is deleted either way, since a
// stale row must never survive a visit even if a confirm moved the seat
// in the interim.  Per-row failures are logged and do not abort the
// sweep of the remaining rows.
func (s *Service) ReleaseExpiredHolds(ctx context.Context) (int, error) {
    holds, err := s.ledger.ListExpired(ctx, s.clock.Now(), s.cfg.ReaperBatchLimit)
    if err != nil {
        return 0, err
    }
    return s.releaseExpired(ctx, holds, false)
}

// sweepSeating releases every expired hold within one seating.  Unlike
// the reaper it treats failures as fatal, since it runs on the hold path
// where the caller must not proceed on a half-converged seating.
func (s *Service) sweepSeating(ctx context.Context, eventSeatingID uint64, now time.Time) error {
    holds, err := s.ledger.ListExpiredBySeating(ctx, eventSeatingID, now)
    if err != nil {
        return err
    }
    _, err = s.releaseExpired(ctx, holds, true)
    return err
}

func (s *Service) releaseExpired(ctx context.Context, holds []model.SeatHold, stopOnError bool) (int, error) {
    released := 0
    for _, h := range holds {
        n, err := s.inv.TryTransition(ctx, h.EventSeatingID, []string{h.SeatUID}, model.SeatHeld, model.SeatAvailable)
        if err != nil {
            if stopOnError {
                return released, err
            }
            log.Printf("inventory: expiry release failed for %d/%s: %v", h.EventSeatingID, h.SeatUID, err)
            continue
        }
        if n == 1 {
            released++
        }
        if err := s.ledger.Delete(ctx, h.EventSeatingID, h.SeatUID); err != nil {
            if stopOnError {
                return released, err
            }
            log.Printf("inventory: expired ledger delete failed for %d/%s: %v", h.EventSeatingID, h.SeatUID, err)
            continue
        }
        if s.cache != nil {
            s.cache.Evict(ctx, h.EventSeatingID, h.SeatUID)
        }
    }
    return released, nil
}

// dedupe drops empty and duplicate seat UIDs, preserving request order.
func dedupe(seatUIDs []string) []string {
    out := make([]string, 0, len(seatUIDs))
    seen := make(map[string]struct{}, len(seatUIDs))
    for _, uid := range seatUIDs {
        if uid == "" {
            continue
        }
        if _, ok := seen[uid]; ok {
            continue
        }
        seen[uid] = struct{}{}
        out = append(out, uid)
    }
    return out
}
