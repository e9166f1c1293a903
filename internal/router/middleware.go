package router

import (
	"fmt"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"freshbasket/internal/logger"
	"freshbasket/internal/service"
	"freshbasket/internal/session"
)

const identityContextKey = "identity"

// requestContext assigns a request id and tags the request logger with it.
func requestContext(log *logger.Logger) echo.MiddlewareFunc {
	assignID := middleware.RequestID()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return assignID(func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := log.WithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		})
	}
}

// recoverer turns panics into 500s and logs them with the request fields.
func recoverer(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Zerolog(c.Request().Context()).Error().Err(err).Bytes("stack", stack).Msg("panic recovered")
			return err
		},
	})
}

func requestLogger(log *logger.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			l := log.Zerolog(c.Request().Context())
			event := l.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = l.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// identity attaches the visitor identity carried by the auth cookie to the
// session. Missing, invalid or revoked tokens leave the visitor anonymous.
func identity(cookieName string, auth service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  identityContextKey,
		TokenLookup: "cookie:" + cookieName,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			id, err := auth.ResolveToken(c.Request().Context(), token)
			if err != nil {
				return nil, fmt.Errorf("resolve identity: %w", err)
			}
			return id, nil
		},
		SuccessHandler: func(c echo.Context) {
			if id, ok := c.Get(identityContextKey).(*session.Identity); ok {
				session.FromContext(c).SetIdentity(id)
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}
