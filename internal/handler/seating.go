package handler

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/ambilet/seat-inventory/internal/inventory"
    "github.com/ambilet/seat-inventory/internal/middleware"
)

// SeatingHandler exposes the hold/release/confirm protocol over HTTP.
// All methods assume session authentication has already been performed
// by middleware; business conflicts (seat taken, cap exceeded, seat not
// available at confirm time) come back as structured per-seat results
// with a reason code, never as opaque errors, so the caller's UI can
// react seat by seat.
type SeatingHandler struct {
    Svc *inventory.Service
}

// NewSeatingHandler constructs a SeatingHandler.  The service must be
// non-nil.
func NewSeatingHandler(svc *inventory.Service) *SeatingHandler {
    if svc == nil {
        panic("nil service passed to NewSeatingHandler")
    }
    return &SeatingHandler{Svc: svc}
}

// Seat limits per request mirror what the upstream cart accepts.
type holdRequest struct {
    SeatUIDs []string `json:"seat_uids" validate:"required,min=1,max=10,dive,required,max=32"`
}

type confirmRequest struct {
    SeatUIDs        []string `json:"seat_uids" validate:"required,min=1,max=10,dive,required,max=32"`
    PaidAmountCents int64    `json:"paid_amount_cents" validate:"gte=0"`
}

// HoldSeats handles POST /v1/seating/:id/holds.  Partial success is
// normal: the response lists held and failed seats side by side, and the
// status is 201 only when every requested seat was held.
func (h *SeatingHandler) HoldSeats(c echo.Context) error {
    seatingID, sessionUID, ok := h.requestIdentity(c)
    if !ok {
        return nil
    }
    var body holdRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return err
    }

    res, err := h.Svc.HoldSeats(c.Request().Context(), seatingID, body.SeatUIDs, sessionUID)
    if err != nil {
        c.Logger().Errorf("hold seats failed for seating %d: %v", seatingID, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hold seats"})
    }

    out := echo.Map{
        "held":   res.Held,
        "failed": res.Failed,
    }
    if !res.ExpiresAt.IsZero() {
        out["expires_at"] = res.ExpiresAt.Format(time.RFC3339)
    }
    status := http.StatusCreated
    if len(res.Failed) > 0 {
        status = http.StatusConflict
    }
    return c.JSON(status, out)
}

// ReleaseSeats handles DELETE /v1/seating/:id/holds.  Seats not owned by
// the calling session, or whose hold has expired, are silently skipped
// and simply absent from the released list.
func (h *SeatingHandler) ReleaseSeats(c echo.Context) error {
    seatingID, sessionUID, ok := h.requestIdentity(c)
    if !ok {
        return nil
    }
    var body holdRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return err
    }

    res, err := h.Svc.ReleaseSeats(c.Request().Context(), seatingID, body.SeatUIDs, sessionUID)
    if err != nil {
        c.Logger().Errorf("release seats failed for seating %d: %v", seatingID, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to release seats"})
    }
    return c.JSON(http.StatusOK, echo.Map{"released": res.Released})
}

// ConfirmPurchase handles POST /v1/seating/:id/confirm.  Unlike holds
// this is all-or-nothing: on any conflict the entire batch is rolled
// back and every seat is reported failed with its reason.
func (h *SeatingHandler) ConfirmPurchase(c echo.Context) error {
    seatingID, sessionUID, ok := h.requestIdentity(c)
    if !ok {
        return nil
    }
    var body confirmRequest
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if err := c.Validate(&body); err != nil {
        return err
    }

    res, err := h.Svc.ConfirmPurchase(c.Request().Context(), seatingID, body.SeatUIDs, sessionUID, body.PaidAmountCents)
    if err != nil {
        c.Logger().Errorf("confirm purchase failed for seating %d: %v", seatingID, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm purchase"})
    }

    out := echo.Map{
        "confirmed": res.Confirmed,
        "failed":    res.Failed,
    }
    if len(res.Failed) > 0 {
        return c.JSON(http.StatusConflict, out)
    }
    return c.JSON(http.StatusCreated, out)
}

// GetSessionHolds handles GET /v1/seating/:id/holds.  Only unexpired
// holds owned by the calling session are returned; a hold whose TTL has
// lapsed disappears from this view before any reaper run.
func (h *SeatingHandler) GetSessionHolds(c echo.Context) error {
    seatingID, sessionUID, ok := h.requestIdentity(c)
    if !ok {
        return nil
    }

    holds, err := h.Svc.GetSessionHolds(c.Request().Context(), seatingID, sessionUID)
    if err != nil {
        c.Logger().Errorf("list session holds failed for seating %d: %v", seatingID, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load holds"})
    }

    items := make([]echo.Map, 0, len(holds))
    for _, hold := range holds {
        items = append(items, echo.Map{
            "seat_uid":   hold.SeatUID,
            "expires_at": hold.ExpiresAt.Format(time.RFC3339),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{
        "holds": items,
        "count": len(items),
    })
}

// GetSeats handles GET /v1/seating/:id/seats?uids=a,b,c.  It returns the
// authoritative status of each known seat plus the cache's advisory
// probably_held flag for the seat-map UI.
func (h *SeatingHandler) GetSeats(c echo.Context) error {
    seatingID, ok := parseSeatingID(c)
    if !ok {
        return nil
    }
    raw := c.QueryParam("uids")
    if raw == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "uids query parameter is required"})
    }
    uids := strings.Split(raw, ",")
    if len(uids) > 100 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "too many seat uids"})
    }

    ctx := c.Request().Context()
    seats, err := h.Svc.SeatsByUIDs(ctx, seatingID, uids)
    if err != nil {
        c.Logger().Errorf("seat lookup failed for seating %d: %v", seatingID, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
    }

    items := make([]echo.Map, 0, len(seats))
    for _, s := range seats {
        items = append(items, echo.Map{
            "seat_uid":       s.SeatUID,
            "status":         s.Status,
            "version":        s.Version,
            "last_change_at": s.LastChangeAt.UTC().Format(time.RFC3339),
            "probably_held":  h.Svc.ProbablyHeld(ctx, seatingID, s.SeatUID),
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"seats": items})
}

// requestIdentity extracts the seating id path parameter and the
// authenticated session identifier.  On failure the error response has
// already been written and ok is false.
func (h *SeatingHandler) requestIdentity(c echo.Context) (uint64, string, bool) {
    seatingID, ok := parseSeatingID(c)
    if !ok {
        return 0, "", false
    }
    sessionUID := middleware.SessionUID(c)
    if sessionUID == "" {
        _ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        return 0, "", false
    }
    return seatingID, sessionUID, true
}

func parseSeatingID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        _ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event seating id"})
        return 0, false
    }
    return id, true
}
