package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "freshbasket/internal/errors"
	"freshbasket/internal/session"
)

// Flash notices shown after redirects.
const (
	noticeLoginRequired         = "Please login first"
	noticeAdminRequired         = "Admin access required"
	noticeInvalidCreds          = "Invalid credentials!"
	noticeDuplicateEmail        = "Email already exists!"
	noticeAccountCreated        = "Account created! Please login."
	noticeOrderPlaced           = "Order Placed Successfully!"
	noticeOrderCancelled        = "Order Cancelled"
	noticeProductRemoved        = "Product removed from inventory."
	noticeInvalidProduct        = "Invalid product form"
	noticeProductFieldsRequired = "Name, price and category are required"
)

// UserView is the logged-in visitor as shown on pages.
type UserView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// PageView carries the fields every page shares.
type PageView struct {
	Page      string    `json:"page"`
	CartCount int       `json:"cart_count"`
	Flashes   []string  `json:"flashes,omitempty"`
	User      *UserView `json:"user,omitempty"`
}

// newPageView reads the shared fields from the request session and consumes
// its pending flash notices.
func newPageView(c echo.Context, page string) PageView {
	sess := session.FromContext(c)
	view := PageView{
		Page:      page,
		CartCount: sess.Cart.Len(),
		Flashes:   sess.PopFlashes(),
	}
	if id, ok := sess.Identity(); ok {
		view.User = &UserView{ID: id.UserID, Name: id.Name, Role: id.Role}
	}
	return view
}

func redirect(c echo.Context, path string) error {
	return c.Redirect(http.StatusFound, path)
}

func flashAndRedirect(c echo.Context, msg, path string) error {
	session.FromContext(c).Flash(msg)
	return redirect(c, path)
}

// parseID reads a numeric path parameter; malformed ids are treated as unknown routes.
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 0)
	if err != nil {
		return 0, echo.ErrNotFound
	}
	return uint(id), nil
}

// backTo returns the same-host path the visitor came from, or "/".
func backTo(c echo.Context) string {
	ref := c.Request().Referer()
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != c.Request().Host) || u.Path == "" {
		return "/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

// httpError converts a domain error into an echo error with a JSON body.
func httpError(err error) *echo.HTTPError {
	mapped := apperrors.MapErrorToHTTP(err)
	he := echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse())
	return he.SetInternal(err)
}

// accessDenied redirects sessions that fail an admin or login check.
func accessDenied(c echo.Context, err error) error {
	switch {
	case apperrors.Is(err, apperrors.ErrUnauthenticated):
		return flashAndRedirect(c, noticeLoginRequired, "/login")
	case apperrors.Is(err, apperrors.ErrForbidden):
		return flashAndRedirect(c, noticeAdminRequired, "/")
	default:
		return httpError(err)
	}
}
