package middleware // reusable HTTP middleware for the seating API

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// sessionKey is the Echo context key under which the validated session
// identifier is stored.
const sessionKey = "session_uid"

// SessionAuth returns middleware that validates a Bearer session token
// and injects its sid claim into the request context.  The session
// identifier is the unit of hold ownership, so it travels as a signed
// claim rather than a plain header: a caller cannot release or
// enumerate another session's holds by guessing its identifier.
func SessionAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            sid, _ := claims["sid"].(string)
            if sid == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token has no session"})
            }

            c.Set(sessionKey, sid)
            return next(c)
        }
    }
}

// SessionUID returns the validated session identifier stored by
// SessionAuth, or "" when the request is unauthenticated.
func SessionUID(c echo.Context) string {
    if v := c.Get(sessionKey); v != nil {
        if s, ok := v.(string); ok {
            return s
        }
    }
    return ""
}
