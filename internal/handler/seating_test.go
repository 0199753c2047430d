package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/ambilet/seat-inventory/internal/clock"
    "github.com/ambilet/seat-inventory/internal/inventory"
    "github.com/ambilet/seat-inventory/internal/model"
)

// memStore backs the seating service with in-memory maps for handler
// tests.  The conditional update is serialized by a mutex; WithTx
// snapshots state and restores it on failure, matching the rollback
// semantics the handlers surface as 409s.
type memStore struct {
    mu    sync.Mutex
    seats map[string]*model.EventSeat
    holds map[string]model.SeatHold
}

type memTxKey struct{}

func newMemStore(available ...string) *memStore {
    s := &memStore{
        seats: make(map[string]*model.EventSeat),
        holds: make(map[string]model.SeatHold),
    }
    for _, uid := range available {
        s.seats[uid] = &model.EventSeat{EventSeatingID: 7, SeatUID: uid, Status: model.SeatAvailable, Version: 1}
    }
    return s
}

func (s *memStore) lock(ctx context.Context) func() {
    if ctx.Value(memTxKey{}) != nil {
        return func() {}
    }
    s.mu.Lock()
    return s.mu.Unlock
}

func (s *memStore) TryTransition(ctx context.Context, _ uint64, uids []string, from, to model.SeatStatus) (int64, error) {
    unlock := s.lock(ctx)
    defer unlock()
    var n int64
    for _, uid := range uids {
        if seat, ok := s.seats[uid]; ok && seat.Status == from {
            seat.Status = to
            seat.Version++
            seat.LastChangeAt = time.Now().UTC()
            n++
        }
    }
    return n, nil
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    seatsSnap := make(map[string]*model.EventSeat, len(s.seats))
    for k, v := range s.seats {
        cp := *v
        seatsSnap[k] = &cp
    }
    holdsSnap := make(map[string]model.SeatHold, len(s.holds))
    for k, v := range s.holds {
        holdsSnap[k] = v
    }
    if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
        s.seats = seatsSnap
        s.holds = holdsSnap
        return err
    }
    return nil
}

func (s *memStore) SeatsByUIDs(ctx context.Context, _ uint64, uids []string) ([]model.EventSeat, error) {
    unlock := s.lock(ctx)
    defer unlock()
    var out []model.EventSeat
    for _, uid := range uids {
        if seat, ok := s.seats[uid]; ok {
            out = append(out, *seat)
        }
    }
    return out, nil
}

func (s *memStore) Create(ctx context.Context, hold model.SeatHold) error {
    unlock := s.lock(ctx)
    defer unlock()
    s.holds[hold.SeatUID] = hold
    return nil
}

func (s *memStore) Delete(ctx context.Context, _ uint64, uid string) error {
    unlock := s.lock(ctx)
    defer unlock()
    delete(s.holds, uid)
    return nil
}

func (s *memStore) Get(ctx context.Context, _ uint64, uid string) (model.SeatHold, bool, error) {
    unlock := s.lock(ctx)
    defer unlock()
    h, ok := s.holds[uid]
    return h, ok, nil
}

func (s *memStore) ActiveBySession(ctx context.Context, _ uint64, session string, now time.Time) ([]model.SeatHold, error) {
    unlock := s.lock(ctx)
    defer unlock()
    var out []model.SeatHold
    for _, h := range s.holds {
        if h.SessionUID == session && h.Active(now) {
            out = append(out, h)
        }
    }
    return out, nil
}

func (s *memStore) CountActiveBySession(ctx context.Context, seating uint64, session string, now time.Time) (int, error) {
    holds, err := s.ActiveBySession(ctx, seating, session, now)
    return len(holds), err
}

func (s *memStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.SeatHold, error) {
    unlock := s.lock(ctx)
    defer unlock()
    var out []model.SeatHold
    for _, h := range s.holds {
        if !h.Active(now) {
            out = append(out, h)
            if len(out) == limit {
                break
            }
        }
    }
    return out, nil
}

func (s *memStore) ListExpiredBySeating(ctx context.Context, _ uint64, now time.Time) ([]model.SeatHold, error) {
    return s.ListExpired(ctx, now, 0)
}

func newTestHandler(store *memStore) *SeatingHandler {
    svc := inventory.NewService(store, store, nil, nil, clock.NewFixed(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)), inventory.Config{
        HoldTTL:           10 * time.Minute,
        MaxHeldPerSession: 10,
    })
    return NewSeatingHandler(svc)
}

// doRequest runs one handler invocation with the session identifier
// pre-set, the way the auth middleware would leave it.
func doRequest(t *testing.T, h echo.HandlerFunc, method, target, body, session string, pathID string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    e.Validator = NewRequestValidator()

    var reader *strings.Reader
    if body != "" {
        reader = strings.NewReader(body)
    } else {
        reader = strings.NewReader("")
    }
    req := httptest.NewRequest(method, target, reader)
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    if pathID != "" {
        c.SetParamNames("id")
        c.SetParamValues(pathID)
    }
    if session != "" {
        c.Set("session_uid", session)
    }

    err := h(c)
    if err != nil {
        e.HTTPErrorHandler(err, c)
    }
    return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
    t.Helper()
    var out map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
    return out
}

func TestHoldSeatsHandler(t *testing.T) {
    t.Run("full success returns 201 with expiry", func(t *testing.T) {
        h := newTestHandler(newMemStore("A-1", "A-2"))
        rec := doRequest(t, h.HoldSeats, http.MethodPost, "/v1/seating/7/holds",
            `{"seat_uids":["A-1","A-2"]}`, "sess-a", "7")

        assert.Equal(t, http.StatusCreated, rec.Code)
        body := decodeBody(t, rec)
        assert.Len(t, body["held"], 2)
        assert.NotEmpty(t, body["expires_at"])
    })

    t.Run("conflict returns 409 with per-seat reasons", func(t *testing.T) {
        store := newMemStore("A-1")
        h := newTestHandler(store)
        first := doRequest(t, h.HoldSeats, http.MethodPost, "/v1/seating/7/holds",
            `{"seat_uids":["A-1"]}`, "sess-a", "7")
        require.Equal(t, http.StatusCreated, first.Code)

        rec := doRequest(t, h.HoldSeats, http.MethodPost, "/v1/seating/7/holds",
            `{"seat_uids":["A-1"]}`, "sess-b", "7")
        assert.Equal(t, http.StatusConflict, rec.Code)

        body := decodeBody(t, rec)
        failed, ok := body["failed"].([]any)
        require.True(t, ok)
        require.Len(t, failed, 1)
        entry := failed[0].(map[string]any)
        assert.Equal(t, "A-1", entry["seat_uid"])
        assert.Equal(t, "already_held_or_sold", entry["reason"])
    })

    t.Run("empty seat list fails validation", func(t *testing.T) {
        h := newTestHandler(newMemStore())
        rec := doRequest(t, h.HoldSeats, http.MethodPost, "/v1/seating/7/holds",
            `{"seat_uids":[]}`, "sess-a", "7")
        assert.Equal(t, http.StatusBadRequest, rec.Code)
    })

    t.Run("more than ten seats fails validation", func(t *testing.T) {
        uids := make([]string, 11)
        for i := range uids {
            uids[i] = "S-" + string(rune('a'+i))
        }
        raw, err := json.Marshal(map[string]any{"seat_uids": uids})
        require.NoError(t, err)

        h := newTestHandler(newMemStore())
        rec := doRequest(t, h.HoldSeats, http.MethodPost, "/v1/seating/7/holds",
            string(raw), "sess-a", "7")
        assert.Equal(t, http.StatusBadRequest, rec.Code)
    })

    t.Run("missing session returns 401", func(t *testing.T) {
        h := newTestHandler(newMemStore("A-1"))
        rec := doRequest(t, h.HoldSeats, http.MethodPost, "/v1/seating/7/holds",
            `{"seat_uids":["A-1"]}`, "", "7")
        assert.Equal(t, http.StatusUnauthorized, rec.Code)
    })

    t.Run("non-numeric seating id returns 400", func(t *testing.T) {
        h := newTestHandler(newMemStore("A-1"))
        rec := doRequest(t, h.HoldSeats, http.MethodPost, "/v1/seating/nope/holds",
            `{"seat_uids":["A-1"]}`, "sess-a", "nope")
        assert.Equal(t, http.StatusBadRequest, rec.Code)
    })
}

func TestReleaseSeatsHandler(t *testing.T) {
    store := newMemStore("A-1")
    h := newTestHandler(store)

    rec := doRequest(t, h.HoldSeats, http.MethodPost, "/v1/seating/7/holds",
        `{"seat_uids":["A-1"]}`, "sess-a", "7")
    require.Equal(t, http.StatusCreated, rec.Code)

    rec = doRequest(t, h.ReleaseSeats, http.MethodDelete, "/v1/seating/7/holds",
        `{"seat_uids":["A-1"]}`, "sess-a", "7")
    assert.Equal(t, http.StatusOK, rec.Code)
    body := decodeBody(t, rec)
    assert.Equal(t, []any{"A-1"}, body["released"])
}

func TestConfirmPurchaseHandler(t *testing.T) {
    t.Run("success returns 201", func(t *testing.T) {
        h := newTestHandler(newMemStore("A-1"))
        rec := doRequest(t, h.ConfirmPurchase, http.MethodPost, "/v1/seating/7/confirm",
            `{"seat_uids":["A-1"],"paid_amount_cents":2500}`, "sess-a", "7")
        assert.Equal(t, http.StatusCreated, rec.Code)
        body := decodeBody(t, rec)
        assert.Equal(t, []any{"A-1"}, body["confirmed"])
    })

    t.Run("conflict rolls back and returns 409", func(t *testing.T) {
        store := newMemStore("A-1")
        store.seats["A-2"] = &model.EventSeat{EventSeatingID: 7, SeatUID: "A-2", Status: model.SeatSold, Version: 3}
        h := newTestHandler(store)

        rec := doRequest(t, h.ConfirmPurchase, http.MethodPost, "/v1/seating/7/confirm",
            `{"seat_uids":["A-1","A-2"],"paid_amount_cents":5000}`, "sess-a", "7")
        assert.Equal(t, http.StatusConflict, rec.Code)

        body := decodeBody(t, rec)
        assert.Empty(t, body["confirmed"])
        failed, ok := body["failed"].([]any)
        require.True(t, ok)
        assert.Len(t, failed, 2)
        assert.Equal(t, model.SeatAvailable, store.seats["A-1"].Status)
    })

    t.Run("negative amount fails validation", func(t *testing.T) {
        h := newTestHandler(newMemStore("A-1"))
        rec := doRequest(t, h.ConfirmPurchase, http.MethodPost, "/v1/seating/7/confirm",
            `{"seat_uids":["A-1"],"paid_amount_cents":-1}`, "sess-a", "7")
        assert.Equal(t, http.StatusBadRequest, rec.Code)
    })
}

func TestGetSessionHoldsHandler(t *testing.T) {
    store := newMemStore("A-1", "A-2")
    h := newTestHandler(store)

    rec := doRequest(t, h.HoldSeats, http.MethodPost, "/v1/seating/7/holds",
        `{"seat_uids":["A-1","A-2"]}`, "sess-a", "7")
    require.Equal(t, http.StatusCreated, rec.Code)

    rec = doRequest(t, h.GetSessionHolds, http.MethodGet, "/v1/seating/7/holds", "", "sess-a", "7")
    assert.Equal(t, http.StatusOK, rec.Code)
    body := decodeBody(t, rec)
    assert.Equal(t, float64(2), body["count"])

    // Another session sees nothing.
    rec = doRequest(t, h.GetSessionHolds, http.MethodGet, "/v1/seating/7/holds", "", "sess-b", "7")
    body = decodeBody(t, rec)
    assert.Equal(t, float64(0), body["count"])
}

func TestGetSeatsHandler(t *testing.T) {
    t.Run("returns status and version per seat", func(t *testing.T) {
        store := newMemStore("A-1")
        store.seats["A-2"] = &model.EventSeat{EventSeatingID: 7, SeatUID: "A-2", Status: model.SeatSold, Version: 4}
        h := newTestHandler(store)

        rec := doRequest(t, h.GetSeats, http.MethodGet, "/v1/seating/7/seats?uids=A-1,A-2,ghost", "", "", "7")
        assert.Equal(t, http.StatusOK, rec.Code)

        body := decodeBody(t, rec)
        seats, ok := body["seats"].([]any)
        require.True(t, ok)
        require.Len(t, seats, 2) // unknown uids are simply absent

        first := seats[0].(map[string]any)
        assert.Equal(t, "A-1", first["seat_uid"])
        assert.Equal(t, "available", first["status"])
    })

    t.Run("missing uids parameter returns 400", func(t *testing.T) {
        h := newTestHandler(newMemStore())
        rec := doRequest(t, h.GetSeats, http.MethodGet, "/v1/seating/7/seats", "", "", "7")
        assert.Equal(t, http.StatusBadRequest, rec.Code)
    })
}
