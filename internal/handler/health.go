package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health handles GET /health.  It reports process liveness only; the
// durable store proves itself on every operation.
func Health(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
