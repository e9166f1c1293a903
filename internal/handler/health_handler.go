package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"freshbasket/internal/logger"
)

// HealthHandler reports whether the service can reach its database.
type HealthHandler struct {
	ping func(ctx context.Context) error
	log  *logger.Logger
}

// NewHealthHandler creates a health handler. A nil ping always reports healthy.
func NewHealthHandler(ping func(ctx context.Context) error, log *logger.Logger) *HealthHandler {
	return &HealthHandler{ping: ping, log: log}
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce plain
// @Success 200 {string} string "Healthy"
// @Failure 503 {string} string "Unhealthy"
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	if h.ping != nil {
		ctx := c.Request().Context()
		if err := h.ping(ctx); err != nil {
			h.log.Error(ctx, "health: database unreachable", err)
			return c.String(http.StatusServiceUnavailable, "Unhealthy")
		}
	}
	return c.String(http.StatusOK, "Healthy")
}
