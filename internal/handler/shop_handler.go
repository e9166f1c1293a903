package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	apperrors "freshbasket/internal/errors"
	"freshbasket/internal/model"
	"freshbasket/internal/service"
	"freshbasket/internal/session"
)

// ShopHandler serves catalog browsing, the cart and checkout.
type ShopHandler struct {
	catalog service.CatalogService
	cart    service.CartService
	orders  service.OrderService
}

// NewShopHandler creates a new shop handler.
func NewShopHandler(catalog service.CatalogService, cart service.CartService, orders service.OrderService) *ShopHandler {
	return &ShopHandler{catalog: catalog, cart: cart, orders: orders}
}

// HomeView is the landing page.
type HomeView struct {
	PageView
	Fruits   []model.Product `json:"fruits"`
	Featured []model.Product `json:"featured"`
}

// ProductListView is any page listing products.
type ProductListView struct {
	PageView
	Title    string          `json:"title"`
	Query    string          `json:"query,omitempty"`
	Products []model.Product `json:"products"`
}

// CartView is the cart page.
type CartView struct {
	PageView
	Items []session.CartLine `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

// Home godoc
// @Summary Home page with catalog highlights
// @Tags shop
// @Produce json
// @Success 200 {object} HomeView
// @Failure 500 {object} errors.ErrorResponse
// @Router / [get]
func (h *ShopHandler) Home(c echo.Context) error {
	highlights, err := h.catalog.Highlights(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, HomeView{
		PageView: newPageView(c, "home"),
		Fruits:   highlights.Fruits,
		Featured: highlights.Featured,
	})
}

// Category godoc
// @Summary Products of one category
// @Tags shop
// @Produce json
// @Param cat path string true "Category, matched exactly"
// @Success 200 {object} ProductListView
// @Failure 500 {object} errors.ErrorResponse
// @Router /category/{cat} [get]
func (h *ShopHandler) Category(c echo.Context) error {
	category := c.Param("cat")
	products, err := h.catalog.ListByCategory(c.Request().Context(), category)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProductListView{
		PageView: newPageView(c, "category"),
		Title:    category,
		Products: nonNil(products),
	})
}

// Search godoc
// @Summary Search products by name
// @Tags shop
// @Produce json
// @Param q query string false "Case-sensitive name substring"
// @Success 200 {object} ProductListView
// @Failure 500 {object} errors.ErrorResponse
// @Router /search [get]
func (h *ShopHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	products, err := h.catalog.Search(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProductListView{
		PageView: newPageView(c, "search"),
		Title:    fmt.Sprintf("Results for '%s'", q),
		Query:    q,
		Products: nonNil(products),
	})
}

// ViewAll godoc
// @Summary Full catalog
// @Tags shop
// @Produce json
// @Success 200 {object} ProductListView
// @Failure 500 {object} errors.ErrorResponse
// @Router /view-all [get]
func (h *ShopHandler) ViewAll(c echo.Context) error {
	products, err := h.catalog.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProductListView{
		PageView: newPageView(c, "view_all"),
		Title:    "All Products",
		Products: nonNil(products),
	})
}

// AddToCart godoc
// @Summary Add a product snapshot to the cart
// @Description Unknown products are ignored. Redirects back to the referring page.
// @Tags cart
// @Param id path int true "Product ID"
// @Success 302
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /add-to-cart/{id} [post]
func (h *ShopHandler) AddToCart(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	sess := session.FromContext(c)
	line, err := h.cart.AddItem(c.Request().Context(), sess, id)
	if err != nil {
		return err
	}
	if line != nil {
		sess.Flash(fmt.Sprintf("%s added to basket!", line.Name))
	}
	return redirect(c, backTo(c))
}

// Cart godoc
// @Summary Current cart and total
// @Tags cart
// @Produce json
// @Success 200 {object} CartView
// @Router /cart [get]
func (h *ShopHandler) Cart(c echo.Context) error {
	sess := session.FromContext(c)
	return c.JSON(http.StatusOK, CartView{
		PageView: newPageView(c, "cart"),
		Items:    h.cart.ListItems(sess),
		Total:    h.cart.Total(sess),
	})
}

// Checkout godoc
// @Summary Place an order from the cart
// @Description Redirects to /orders, or to / when the cart is empty.
// @Tags cart
// @Success 302
// @Failure 500 {object} errors.ErrorResponse
// @Router /checkout [get]
func (h *ShopHandler) Checkout(c echo.Context) error {
	sess := session.FromContext(c)
	_, err := h.orders.Checkout(c.Request().Context(), sess)
	if apperrors.Is(err, apperrors.ErrEmptyCart) {
		return redirect(c, "/")
	}
	if err != nil {
		return err
	}
	return flashAndRedirect(c, noticeOrderPlaced, "/orders")
}

func nonNil(products []model.Product) []model.Product {
	if products == nil {
		return []model.Product{}
	}
	return products
}
