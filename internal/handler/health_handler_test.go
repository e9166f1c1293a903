package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"freshbasket/internal/logger"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		ping     func(ctx context.Context) error
		wantCode int
		wantBody string
	}{
		{name: "no check", ping: nil, wantCode: http.StatusOK, wantBody: "Healthy"},
		{name: "database up", ping: func(context.Context) error { return nil }, wantCode: http.StatusOK, wantBody: "Healthy"},
		{
			name:     "database down",
			ping:     func(context.Context) error { return errors.New("connection refused") },
			wantCode: http.StatusServiceUnavailable,
			wantBody: "Unhealthy",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

			err := NewHealthHandler(tt.ping, logger.Nop()).Health(c)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}
