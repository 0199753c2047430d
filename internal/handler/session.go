package handler

import (
    "net/http"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
)

// SessionHandler mints session tokens.  A session identifier is the
// unit of hold ownership across an entire checkout; issuing it as a
// signed JWT (sid claim) means later calls prove ownership instead of
// merely asserting it.
type SessionHandler struct {
    Secret string        // signing secret, shared with the auth middleware
    TTL    time.Duration // lifetime of an issued token
}

// CreateSession handles POST /v1/sessions.  It generates a fresh session
// identifier and returns it alongside a signed bearer token.  The token
// should outlive the hold TTL comfortably so a cart does not lose its
// identity mid-checkout.
func (h *SessionHandler) CreateSession(c echo.Context) error {
    sid := uuid.NewString()
    now := time.Now().UTC()
    exp := now.Add(h.TTL)

    claims := jwt.MapClaims{
        "sid": sid,
        "exp": exp.Unix(),
        "iat": now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.Secret))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue session token"})
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "session_uid": sid,
        "token":       signed,
        "expires_at":  exp.Format(time.RFC3339),
    })
}
