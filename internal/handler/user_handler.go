package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "freshbasket/internal/errors"
	"freshbasket/internal/model"
	"freshbasket/internal/service"
	"freshbasket/internal/session"
)

// UserHandler serves the admin views of registered customers.
type UserHandler struct {
	svc service.CustomerService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.CustomerService) *UserHandler {
	return &UserHandler{svc: svc}
}

// CustomerListView lists registered users.
type CustomerListView struct {
	PageView
	Users []model.User `json:"users"`
}

// CustomerView shows one user and their orders.
type CustomerView struct {
	PageView
	Customer model.User    `json:"customer"`
	Orders   []model.Order `json:"orders"`
}

// ListUsers godoc
// @Summary List registered customers
// @Tags admin
// @Produce json
// @Success 200 {object} CustomerListView
// @Success 302
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListCustomers(c.Request().Context(), session.FromContext(c))
	if err != nil {
		return accessDenied(c, err)
	}
	if users == nil {
		users = []model.User{}
	}
	return c.JSON(http.StatusOK, CustomerListView{
		PageView: newPageView(c, "admin_users"),
		Users:    users,
	})
}

// GetUser godoc
// @Summary Get a customer and their orders
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} CustomerView
// @Success 302
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.svc.GetCustomer(c.Request().Context(), session.FromContext(c), id)
	if apperrors.Is(err, apperrors.ErrUserNotFound) {
		return httpError(err)
	}
	if err != nil {
		return accessDenied(c, err)
	}
	return c.JSON(http.StatusOK, CustomerView{
		PageView: newPageView(c, "admin_user"),
		Customer: detail.User,
		Orders:   detail.Orders,
	})
}
