package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "freshbasket/internal/errors"
	"freshbasket/internal/service"
	"freshbasket/internal/session"
)

// AdminHandler serves the admin dashboard and its catalog and order actions.
type AdminHandler struct {
	admin service.AdminService
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(admin service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// AddProductRequest represents the add-product form.
type AddProductRequest struct {
	Name     string `form:"name" validate:"required,max=100"`
	Price    string `form:"price" validate:"required"`
	Category string `form:"category" validate:"required,max=50"`
	Icon     string `form:"icon" validate:"max=10"`
}

// DashboardView is the admin page.
type DashboardView struct {
	PageView
	service.Dashboard
}

// Dashboard godoc
// @Summary Admin dashboard
// @Description Revenue, order count, product count, products and orders.
// @Tags admin
// @Produce json
// @Success 200 {object} DashboardView
// @Success 302
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin [get]
func (h *AdminHandler) Dashboard(c echo.Context) error {
	dash, err := h.admin.Dashboard(c.Request().Context(), session.FromContext(c))
	if err != nil {
		return accessDenied(c, err)
	}
	return c.JSON(http.StatusOK, DashboardView{
		PageView:  newPageView(c, "admin_dash"),
		Dashboard: *dash,
	})
}

// AddProduct godoc
// @Summary Add a product to the catalog
// @Tags admin
// @Accept x-www-form-urlencoded
// @Param name formData string true "Name"
// @Param price formData string true "Price"
// @Param category formData string true "Category"
// @Param icon formData string false "Icon glyph"
// @Success 302
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/add-product [post]
func (h *AdminHandler) AddProduct(c echo.Context) error {
	sess := session.FromContext(c)
	if err := h.admin.Authorize(sess); err != nil {
		return accessDenied(c, err)
	}

	var req AddProductRequest
	if err := c.Bind(&req); err != nil {
		return flashAndRedirect(c, noticeInvalidProduct, "/admin")
	}
	if err := c.Validate(&req); err != nil {
		return flashAndRedirect(c, noticeProductFieldsRequired, "/admin")
	}

	product, err := h.admin.CreateProduct(c.Request().Context(), sess, service.ProductInput{
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		Icon:     req.Icon,
	})
	switch {
	case err == nil:
		return flashAndRedirect(c, fmt.Sprintf("Product '%s' added successfully!", product.Name), "/admin")
	case apperrors.Is(err, apperrors.ErrValidation):
		return flashAndRedirect(c, err.Error(), "/admin")
	default:
		return accessDenied(c, err)
	}
}

// DeleteProduct godoc
// @Summary Remove a product from the catalog
// @Description Carts and orders holding the product keep their snapshots.
// @Tags admin
// @Param id path int true "Product ID"
// @Success 302
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/delete-product/{id} [get]
func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	deleted, err := h.admin.DeleteProduct(c.Request().Context(), session.FromContext(c), id)
	if err != nil {
		return accessDenied(c, err)
	}
	if deleted {
		return flashAndRedirect(c, noticeProductRemoved, "/admin")
	}
	return redirect(c, "/admin")
}

// DeleteOrder godoc
// @Summary Cancel an order
// @Tags admin
// @Param id path int true "Order ID"
// @Success 302
// @Failure 500 {object} errors.ErrorResponse
// @Router /del-order/{id} [get]
func (h *AdminHandler) DeleteOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	cancelled, err := h.admin.CancelOrder(c.Request().Context(), session.FromContext(c), id)
	if err != nil {
		return accessDenied(c, err)
	}
	if cancelled {
		return flashAndRedirect(c, noticeOrderCancelled, "/admin")
	}
	return redirect(c, "/admin")
}
