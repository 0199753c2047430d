package inventory

import (
    "context"
    "log"
    "time"
)

// Reaper periodically sweeps the hold ledger and releases expired holds
// that their owning sessions never cleaned up.  It complements the
// passive filtering done by reads: both paths converge a lapsed hold to
// the same terminal state, available.
type Reaper struct {
    svc      *Service
    interval time.Duration
}

// NewReaper returns a Reaper sweeping at the given interval.  A
// non-positive interval falls back to one minute.
func NewReaper(svc *Service, interval time.Duration) *Reaper {
    if interval <= 0 {
        interval = time.Minute
    }
    return &Reaper{svc: svc, interval: interval}
}

// Run sweeps until the context is cancelled.  Sweep errors are logged
// and the loop keeps going; a failing sweep only delays convergence, it
// never corrupts seat state.
func (r *Reaper) Run(ctx context.Context) {
    ticker := time.NewTicker(r.interval)
    defer ticker.Stop()

    log.Printf("reaper: started, sweeping every %s", r.interval)
    for {
        select {
        case <-ctx.Done():
            log.Println("reaper: stopped")
            return
        case <-ticker.C:
            released, err := r.svc.ReleaseExpiredHolds(ctx)
            if err != nil {
                log.Printf("reaper: sweep failed: %v", err)
                continue
            }
            if released > 0 {
                log.Printf("reaper: released %d expired holds", released)
            }
        }
    }
}
