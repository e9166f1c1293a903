package router

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"freshbasket/internal/config"
	"freshbasket/internal/handler"
	"freshbasket/internal/logger"
	"freshbasket/internal/metrics"
	"freshbasket/internal/service"
	"freshbasket/internal/session"
)

// Deps bundles what Register wires into the echo instance.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Sessions session.Store
	Auth     service.AuthService

	Health    *handler.HealthHandler
	Shop      *handler.ShopHandler
	Accounts  *handler.AuthHandler
	Orders    *handler.OrderHandler
	Admin     *handler.AdminHandler
	Customers *handler.UserHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	cfg := d.Config

	e.Use(requestContext(d.Logger))
	e.Use(recoverer(d.Logger))
	e.Use(requestLogger(d.Logger))
	e.Use(d.Metrics.Middleware())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET(cfg.HealthPath, d.Health.Health)
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Storefront routes carry a visitor session and, when logged in, an identity.
	shop := e.Group("",
		session.Middleware(d.Sessions, session.Options{
			CookieName: cfg.SessionCookie,
			TTL:        cfg.SessionTTL,
			Secure:     cfg.IsProd(),
		}, d.Logger),
		identity(cfg.AuthCookie, d.Auth),
	)

	shop.GET("/", d.Shop.Home)
	shop.GET("/category/:cat", d.Shop.Category)
	shop.GET("/search", d.Shop.Search)
	shop.GET("/view-all", d.Shop.ViewAll)
	shop.POST("/add-to-cart/:id", d.Shop.AddToCart)
	shop.GET("/cart", d.Shop.Cart)
	shop.GET("/checkout", d.Shop.Checkout)

	shop.GET("/login", d.Accounts.LoginPage)
	shop.GET("/signup", d.Accounts.SignupPage)
	shop.POST("/auth-login", d.Accounts.Login)
	shop.POST("/auth-signup", d.Accounts.Signup)
	shop.GET("/logout", d.Accounts.Logout)

	shop.GET("/orders", d.Orders.Orders)
	shop.GET("/download/:id", d.Orders.Download)

	shop.GET("/admin", d.Admin.Dashboard)
	shop.POST("/admin/add-product", d.Admin.AddProduct)
	shop.GET("/admin/delete-product/:id", d.Admin.DeleteProduct)
	shop.GET("/del-order/:id", d.Admin.DeleteOrder)
	shop.GET("/admin/users", d.Customers.ListUsers)
	shop.GET("/admin/users/:id", d.Customers.GetUser)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
