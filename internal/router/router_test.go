package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshbasket/internal/auth"
	"freshbasket/internal/cache"
	"freshbasket/internal/config"
	"freshbasket/internal/db"
	"freshbasket/internal/handler"
	"freshbasket/internal/logger"
	"freshbasket/internal/metrics"
	"freshbasket/internal/repository"
	"freshbasket/internal/service"
	"freshbasket/internal/session"
)

type testApp struct {
	e    *echo.Echo
	auth service.AuthService
}

func newTestApp(t *testing.T, legacyAdmin bool) *testApp {
	t.Helper()
	cfg := &config.Config{
		HealthPath:        "/health",
		SessionCookie:     "fb_session",
		SessionTTL:        time.Hour,
		AuthCookie:        "fb_auth",
		LegacyAdminAccess: legacyAdmin,
	}
	gormDB, err := db.NewSQLiteMemory(uuid.NewString())
	require.NoError(t, err)

	log := logger.Nop()
	m := metrics.New()
	kv := cache.NewMemory()
	sessions := session.NewMemoryStore(cfg.SessionTTL)
	jwtService := auth.NewJWTService("test-secret", cfg.SessionTTL)

	productRepo := repository.NewProductRepository(gormDB)
	catalog := service.NewCatalogService(productRepo, kv, time.Minute, log)
	cart := service.NewCartService(productRepo, m, log)
	orders := service.NewOrderService(repository.NewOrderRepository(gormDB), sessions, m, log)
	admin := service.NewAdminService(catalog, orders, cfg.LegacyAdminAccess)
	userRepo := repository.NewUserRepository(gormDB)
	authService := service.NewAuthService(userRepo, jwtService, auth.NewTokenStore(kv), log)

	_, err = catalog.SeedDefaults(context.Background())
	require.NoError(t, err)

	e := echo.New()
	Register(e, Deps{
		Config:    cfg,
		Logger:    log,
		Metrics:   m,
		Sessions:  sessions,
		Auth:      authService,
		Health:    handler.NewHealthHandler(func(ctx context.Context) error { return db.Ping(ctx, gormDB) }, log),
		Shop:      handler.NewShopHandler(catalog, cart, orders),
		Accounts:  handler.NewAuthHandler(authService, handler.CookieOptions{Name: cfg.AuthCookie, TTL: cfg.SessionTTL}),
		Orders:    handler.NewOrderHandler(orders),
		Admin:     handler.NewAdminHandler(admin),
		Customers: handler.NewUserHandler(service.NewCustomerService(userRepo, orders, admin)),
	})
	return &testApp{e: e, auth: authService}
}

// visitor is a browser with a cookie jar.
type visitor struct {
	t       *testing.T
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) visitor(t *testing.T) *visitor {
	return &visitor{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

func (v *visitor) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range v.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	v.app.e.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(v.cookies, c.Name)
			continue
		}
		v.cookies[c.Name] = c
	}
	return rec
}

func (v *visitor) get(path string) *httptest.ResponseRecorder {
	return v.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (v *visitor) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return v.do(req)
}

func (v *visitor) page(path string) map[string]any {
	rec := v.get(path)
	require.Equal(v.t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(v.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (v *visitor) login(email, password string) *httptest.ResponseRecorder {
	return v.post("/auth-login", url.Values{"email": {email}, "password": {password}})
}

func (v *visitor) signup(name, email, password string) *httptest.ResponseRecorder {
	return v.post("/auth-signup", url.Values{"fname": {name}, "email": {email}, "password": {password}})
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	assert.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, location, rec.Header().Get(echo.HeaderLocation))
}

func flashes(page map[string]any) []string {
	raw, _ := page["flashes"].([]any)
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		out = append(out, f.(string))
	}
	return out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, false)
	rec := app.visitor(t).get("/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Healthy", rec.Body.String())
}

func TestBrowse(t *testing.T) {
	app := newTestApp(t, false)
	v := app.visitor(t)

	home := v.page("/")
	assert.Len(t, home["fruits"], 3)
	assert.Len(t, home["featured"], 4)
	assert.EqualValues(t, 0, home["cart_count"])

	dairy := v.page("/category/dairy")
	assert.Len(t, dairy["products"], 2)

	none := v.page("/category/Dairy")
	assert.Len(t, none["products"], 0)

	found := v.page("/search?q=Mango")
	require.Len(t, found["products"], 1)
	assert.Equal(t, "Results for 'Mango'", found["title"])

	all := v.page("/view-all")
	assert.Len(t, all["products"], 9)
}

func TestGuestCartAndCheckout(t *testing.T) {
	app := newTestApp(t, false)
	v := app.visitor(t)

	req := httptest.NewRequest(http.MethodPost, "/add-to-cart/1", nil)
	req.Header.Set("Referer", "http://example.com/category/fruits")
	assertRedirect(t, v.do(req), "/category/fruits")

	req = httptest.NewRequest(http.MethodPost, "/add-to-cart/7", nil)
	req.Header.Set("Referer", "http://evil.test/phish")
	assertRedirect(t, v.do(req), "/")

	assertRedirect(t, v.post("/add-to-cart/9999", nil), "/")
	assert.Equal(t, http.StatusNotFound, v.post("/add-to-cart/abc", nil).Code)

	cart := v.page("/cart")
	assert.EqualValues(t, 2, cart["cart_count"])
	assert.Equal(t, "210", cart["total"])
	assert.Equal(t, []string{"Royal Gala Apple added to basket!", "Fresh Farm Milk added to basket!"}, flashes(cart))

	assertRedirect(t, v.get("/checkout"), "/orders")
	assertRedirect(t, v.get("/orders"), "/login")

	login := v.page("/login")
	assert.Equal(t, []string{"Order Placed Successfully!", "Please login first"}, flashes(login))
	assert.EqualValues(t, 0, login["cart_count"])

	assertRedirect(t, v.get("/checkout"), "/")

	rec := v.get("/download/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=receipt_1.txt", rec.Header().Get(echo.HeaderContentDisposition))
	assert.Contains(t, rec.Body.String(), "Customer: Guest\nItems: Royal Gala Apple, Fresh Farm Milk\nTOTAL: Rs.210.0\n")

	rec = v.get("/download/77")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", rec.Body.String())
}

func TestSignupLoginOrdersLogout(t *testing.T) {
	app := newTestApp(t, false)
	v := app.visitor(t)

	assertRedirect(t, v.signup("Asha", "asha@example.com", "s3cret"), "/login")
	assertRedirect(t, v.signup("Asha", "asha@example.com", "other"), "/signup")
	assert.Equal(t, []string{"Account created! Please login.", "Email already exists!"}, flashes(v.page("/signup")))

	assertRedirect(t, v.login("asha@example.com", "wrong"), "/login")
	assert.Equal(t, []string{"Invalid credentials!"}, flashes(v.page("/login")))

	v.post("/add-to-cart/2", nil)
	assertRedirect(t, v.login("asha@example.com", "s3cret"), "/")
	require.Contains(t, v.cookies, "fb_auth")
	stolen := *v.cookies["fb_auth"]

	home := v.page("/")
	user := home["user"].(map[string]any)
	assert.Equal(t, "Asha", user["name"])
	assert.EqualValues(t, 1, home["cart_count"], "cart survives login")

	assertRedirect(t, v.get("/checkout"), "/orders")
	history := v.page("/orders")
	orders := history["orders"].([]any)
	require.Len(t, orders, 1)
	order := orders[0].(map[string]any)
	assert.Equal(t, "Asha", order["customer_name"])
	assert.Equal(t, "Alphonso Mango", order["items"])

	assertRedirect(t, v.get("/logout"), "/")
	assert.NotContains(t, v.cookies, "fb_auth")
	assertRedirect(t, v.get("/orders"), "/login")

	replay := app.visitor(t)
	replay.cookies["fb_auth"] = &stolen
	_, hasUser := replay.page("/")["user"]
	assert.False(t, hasUser, "revoked token is ignored")
}

func TestAdmin(t *testing.T) {
	app := newTestApp(t, false)
	created, err := app.auth.EnsureAdmin(context.Background(), "Root", "root@example.com", "rootpw")
	require.NoError(t, err)
	require.True(t, created)

	customer := app.visitor(t)
	assertRedirect(t, customer.get("/admin"), "/login")
	customer.signup("Ravi", "ravi@example.com", "pw")
	customer.login("ravi@example.com", "pw")
	assertRedirect(t, customer.get("/admin"), "/")
	assertRedirect(t, customer.get("/admin/delete-product/1"), "/")
	assertRedirect(t, customer.post("/admin/add-product", url.Values{"name": {"Kiwi"}}), "/")
	customer.post("/add-to-cart/7", nil)
	assertRedirect(t, customer.get("/checkout"), "/orders")

	admin := app.visitor(t)
	assertRedirect(t, admin.login("root@example.com", "rootpw"), "/")

	dash := admin.page("/admin")
	assert.Equal(t, "30", dash["revenue"])
	assert.EqualValues(t, 1, dash["order_count"])
	assert.EqualValues(t, 9, dash["product_count"])

	assertRedirect(t, admin.post("/admin/add-product", url.Values{
		"name": {"Kiwi"}, "price": {"55.50"}, "category": {"fruits"}, "icon": {"🥝"},
	}), "/admin")
	assertRedirect(t, admin.post("/admin/add-product", url.Values{
		"name": {"Bad"}, "price": {"-3"}, "category": {"fruits"},
	}), "/admin")

	assertRedirect(t, admin.post("/admin/add-product", url.Values{
		"name": {"Plum"}, "category": {"fruits"},
	}), "/admin")

	dash = admin.page("/admin")
	assert.Equal(t, []string{
		"Product 'Kiwi' added successfully!",
		"price: must not be negative",
		"Name, price and category are required",
	}, flashes(dash))
	assert.EqualValues(t, 10, dash["product_count"])

	assertRedirect(t, admin.get("/admin/delete-product/7"), "/admin")
	assertRedirect(t, admin.get("/admin/delete-product/7"), "/admin")
	assertRedirect(t, admin.get("/del-order/1"), "/admin")
	assertRedirect(t, admin.get("/del-order/1"), "/admin")

	dash = admin.page("/admin")
	assert.Equal(t, []string{"Product removed from inventory.", "Order Cancelled"}, flashes(dash))
	assert.EqualValues(t, 0, dash["order_count"])
	assert.EqualValues(t, 9, dash["product_count"])
	assert.Equal(t, "0", dash["revenue"])

	history := customer.page("/orders")
	assert.Len(t, history["orders"], 0)
}

func TestAdminCustomers(t *testing.T) {
	app := newTestApp(t, false)
	_, err := app.auth.EnsureAdmin(context.Background(), "Root", "root@example.com", "rootpw")
	require.NoError(t, err)

	customer := app.visitor(t)
	customer.signup("Ravi", "ravi@example.com", "pw")
	customer.login("ravi@example.com", "pw")
	customer.post("/add-to-cart/1", nil)
	customer.get("/checkout")
	assertRedirect(t, customer.get("/admin/users"), "/")

	admin := app.visitor(t)
	admin.login("root@example.com", "rootpw")

	list := admin.page("/admin/users")
	users, _ := list["users"].([]any)
	require.Len(t, users, 2)
	ravi := users[1].(map[string]any)
	assert.Equal(t, "ravi@example.com", ravi["email"])
	assert.NotContains(t, ravi, "password_hash")

	detail := admin.page(fmt.Sprintf("/admin/users/%v", ravi["id"]))
	assert.Equal(t, "Ravi", detail["customer"].(map[string]any)["first_name"])
	assert.Len(t, detail["orders"], 1)

	assert.Equal(t, http.StatusNotFound, admin.get("/admin/users/999").Code)
}

func TestLegacyAdminAccess(t *testing.T) {
	app := newTestApp(t, true)
	v := app.visitor(t)
	v.signup("Ravi", "ravi@example.com", "pw")
	v.login("ravi@example.com", "pw")

	dash := v.page("/admin")
	assert.EqualValues(t, 9, dash["product_count"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, false)
	v := app.visitor(t)
	v.post("/add-to-cart/1", nil)

	rec := v.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "freshbasket_cart_items_added_total 1")
}
