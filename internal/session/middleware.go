package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"freshbasket/internal/logger"
)

const contextKey = "freshbasket.session"

// Options configures the session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Middleware loads the visitor session named by the cookie, issuing a new
// one when absent or expired, and persists it after the handler if it changed.
// Requests of one session are serialized so cart updates are not lost.
func Middleware(store Store, opts Options, log *logger.Logger) echo.MiddlewareFunc {
	locks := &stripedLocks{}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			var sess *Session
			if cookie, err := c.Cookie(opts.CookieName); err == nil && cookie.Value != "" {
				mu := locks.forID(cookie.Value)
				mu.Lock()
				defer mu.Unlock()

				loaded, err := store.Load(ctx, cookie.Value)
				switch {
				case err == nil:
					sess = loaded
				case errors.Is(err, ErrNotFound):
				default:
					return err
				}
			}
			if sess == nil {
				sess = New("")
				c.SetCookie(&http.Cookie{
					Name:     opts.CookieName,
					Value:    sess.ID,
					Path:     "/",
					MaxAge:   int(opts.TTL.Seconds()),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx = log.WithSessionID(ctx, sess.ID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(contextKey, sess)

			handlerErr := next(c)

			switch {
			case sess.Invalidated():
				if err := store.Delete(ctx, sess.ID); err != nil {
					log.Error(ctx, "delete session", err)
				}
			case sess.Dirty():
				if err := store.Save(ctx, sess); err != nil {
					log.Error(ctx, "save session", err)
					if handlerErr == nil && !c.Response().Committed {
						return err
					}
				}
			}
			return handlerErr
		}
	}
}

// FromContext returns the request session. Outside the middleware it returns
// a fresh session that is never persisted.
func FromContext(c echo.Context) *Session {
	if s, ok := c.Get(contextKey).(*Session); ok {
		return s
	}
	return New("")
}
