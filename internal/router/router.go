// Package router wires the HTTP surface of the seat-inventory service.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/ambilet/seat-inventory/internal/config"
    "github.com/ambilet/seat-inventory/internal/handler"
    "github.com/ambilet/seat-inventory/internal/middleware"
)

// Deps carries everything route registration needs.
type Deps struct {
    Seating  *handler.SeatingHandler
    Sessions *handler.SessionHandler
    Redis    *redis.Client // may be nil; disables rate limiting
    RateCfg  config.RateLimitConfig
    Secret   string // session token signing secret
}

// Register mounts all routes on the Echo instance.  The seating group is
// session-authenticated and rate limited; session minting and the seat
// snapshot are public (the snapshot feeds the seat-map UI before a
// session exists).
func Register(e *echo.Echo, d Deps) {
    e.Validator = handler.NewRequestValidator()

    e.GET("/health", handler.Health)
    e.POST("/v1/sessions", d.Sessions.CreateSession)
    e.GET("/v1/seating/:id/seats", d.Seating.GetSeats)

    seating := e.Group("/v1/seating",
        middleware.SessionAuth(d.Secret),
        middleware.NewTokenBucket(d.RateCfg, d.Redis),
    )
    seating.POST("/:id/holds", d.Seating.HoldSeats)
    seating.DELETE("/:id/holds", d.Seating.ReleaseSeats)
    seating.GET("/:id/holds", d.Seating.GetSessionHolds)
    seating.POST("/:id/confirm", d.Seating.ConfirmPurchase)
}
