package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "freshbasket/internal/errors"
	"freshbasket/internal/service"
	"freshbasket/internal/session"
)

// CookieOptions configures the identity cookie written at login.
type CookieOptions struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// AuthHandler handles signup, login and logout.
type AuthHandler struct {
	authService service.AuthService
	cookie      CookieOptions
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// SignupRequest represents a registration form.
type SignupRequest struct {
	FirstName string `form:"fname" validate:"required"`
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"required"`
}

// LoginRequest represents a login form.
type LoginRequest struct {
	Email    string `form:"email" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// LoginPage godoc
// @Summary Login page
// @Tags auth
// @Produce json
// @Success 200 {object} PageView
// @Router /login [get]
func (h *AuthHandler) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, newPageView(c, "login"))
}

// SignupPage godoc
// @Summary Signup page
// @Tags auth
// @Produce json
// @Success 200 {object} PageView
// @Router /signup [get]
func (h *AuthHandler) SignupPage(c echo.Context) error {
	return c.JSON(http.StatusOK, newPageView(c, "signup"))
}

// Signup godoc
// @Summary Register a new customer
// @Description Redirects to /login on success, back to /signup otherwise.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param fname formData string true "First name"
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Success 302
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth-signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return flashAndRedirect(c, "Invalid signup form", "/signup")
	}
	if err := c.Validate(&req); err != nil {
		return flashAndRedirect(c, "Please fill in name, a valid email and a password", "/signup")
	}

	_, err := h.authService.Register(c.Request().Context(), req.FirstName, req.Email, req.Password)
	switch {
	case err == nil:
		return flashAndRedirect(c, noticeAccountCreated, "/login")
	case apperrors.Is(err, apperrors.ErrDuplicateEmail):
		return flashAndRedirect(c, noticeDuplicateEmail, "/signup")
	case apperrors.Is(err, apperrors.ErrValidation):
		return flashAndRedirect(c, err.Error(), "/signup")
	default:
		return err
	}
}

// Login godoc
// @Summary Log in
// @Description Sets the identity cookie and redirects to /, or back to /login.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Success 302
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth-login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return flashAndRedirect(c, noticeInvalidCreds, "/login")
	}
	if err := c.Validate(&req); err != nil {
		return flashAndRedirect(c, noticeInvalidCreds, "/login")
	}

	token, identity, err := h.authService.Authenticate(c.Request().Context(), req.Email, req.Password)
	if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
		return flashAndRedirect(c, noticeInvalidCreds, "/login")
	}
	if err != nil {
		return err
	}

	session.FromContext(c).SetIdentity(identity)
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return redirect(c, "/")
}

// Logout godoc
// @Summary Log out
// @Description Revokes the identity token and drops the session, cart included.
// @Tags auth
// @Success 302
// @Failure 500 {object} errors.ErrorResponse
// @Router /logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), session.FromContext(c)); err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return redirect(c, "/")
}
