package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "freshbasket/internal/errors"
	"freshbasket/internal/model"
	"freshbasket/internal/service"
	"freshbasket/internal/session"
)

// OrderHandler serves order history and receipts.
type OrderHandler struct {
	orders service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// OrderHistoryView is the visitor's order history page.
type OrderHistoryView struct {
	PageView
	Orders []model.Order `json:"orders"`
}

// Orders godoc
// @Summary The visitor's orders, newest first
// @Description Anonymous visitors are redirected to /login.
// @Tags orders
// @Produce json
// @Success 200 {object} OrderHistoryView
// @Success 302
// @Failure 500 {object} errors.ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) Orders(c echo.Context) error {
	identity, ok := session.FromContext(c).Identity()
	if !ok {
		return accessDenied(c, apperrors.ErrUnauthenticated)
	}
	orders, err := h.orders.ListForUser(c.Request().Context(), identity.UserID)
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return c.JSON(http.StatusOK, OrderHistoryView{
		PageView: newPageView(c, "history"),
		Orders:   orders,
	})
}

// Download godoc
// @Summary Download an order receipt
// @Tags orders
// @Produce plain
// @Param id path int true "Order ID"
// @Success 200 {string} string "receipt text"
// @Failure 404 {string} string "Not Found"
// @Router /download/{id} [get]
func (h *OrderHandler) Download(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	receipt, err := h.orders.GenerateReceipt(c.Request().Context(), id)
	if apperrors.Is(err, apperrors.ErrOrderNotFound) {
		return c.String(http.StatusNotFound, "Not Found")
	}
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=receipt_%d.txt", id))
	return c.String(http.StatusOK, receipt)
}
