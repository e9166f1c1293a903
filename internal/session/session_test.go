package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshbasket/internal/logger"
)

func TestSession_CartSnapshots(t *testing.T) {
	s := New("")
	assert.NotEmpty(t, s.ID)
	assert.Empty(t, s.Cart.CheckoutKey)

	s.AddLine(CartLine{ProductID: 1, Name: "Royal Gala Apple", Price: decimal.RequireFromString("180")})
	key := s.Cart.CheckoutKey
	require.NotEmpty(t, key)

	s.AddLine(CartLine{ProductID: 1, Name: "Royal Gala Apple", Price: decimal.RequireFromString("180")})
	assert.Equal(t, key, s.Cart.CheckoutKey, "key is stable for one cart")
	assert.Equal(t, 2, s.Cart.Len())
	assert.True(t, s.Cart.Total().Equal(decimal.RequireFromString("360")))
	assert.Equal(t, []string{"Royal Gala Apple", "Royal Gala Apple"}, s.Cart.Names())

	s.ClearCart()
	assert.Equal(t, 0, s.Cart.Len())
	assert.Empty(t, s.Cart.CheckoutKey)

	s.AddLine(CartLine{ProductID: 2, Name: "Fresh Farm Milk", Price: decimal.RequireFromString("30")})
	assert.NotEqual(t, key, s.Cart.CheckoutKey, "a new cart gets a new key")
}

func TestSession_TotalHasNoDrift(t *testing.T) {
	s := New("")
	for i := 0; i < 10; i++ {
		s.AddLine(CartLine{Name: "x", Price: decimal.RequireFromString("0.1")})
	}
	assert.Equal(t, "1", s.Cart.Total().String())
}

func TestSession_ClearEmptyCartIsClean(t *testing.T) {
	s := New("id")
	s.ClearCart()
	assert.False(t, s.Dirty())
}

func TestSession_RetainLinesRekeys(t *testing.T) {
	s := New("id")
	eggs := CartLine{ProductID: 9, Name: "Fresh Eggs", Price: decimal.NewFromInt(110)}
	milk := CartLine{ProductID: 7, Name: "Fresh Farm Milk", Price: decimal.NewFromInt(30)}
	s.AddLine(eggs)
	s.AddLine(milk)
	oldKey := s.Cart.CheckoutKey

	s.RetainLines(s.Cart.Lines[1:])
	assert.Equal(t, []CartLine{milk}, s.Cart.Lines)
	assert.NotEmpty(t, s.Cart.CheckoutKey)
	assert.NotEqual(t, oldKey, s.Cart.CheckoutKey)
	assert.True(t, s.Dirty())

	s.RetainLines(nil)
	assert.Zero(t, s.Cart.Len())
	assert.Empty(t, s.Cart.CheckoutKey)
}

func TestStripedLocks_BoundedAndStable(t *testing.T) {
	var locks stripedLocks
	assert.Same(t, locks.forID("abc"), locks.forID("abc"))

	seen := map[*sync.Mutex]struct{}{}
	for i := 0; i < 10000; i++ {
		seen[locks.forID(fmt.Sprintf("visitor-%d", i))] = struct{}{}
	}
	assert.LessOrEqual(t, len(seen), lockStripes)
}

func TestSession_Flashes(t *testing.T) {
	s := New("")
	assert.Nil(t, s.PopFlashes())
	s.Flash("one")
	s.Flash("two")
	assert.Equal(t, []string{"one", "two"}, s.PopFlashes())
	assert.Nil(t, s.PopFlashes())
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	_, err := store.Load(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	s := New("abc")
	s.SetIdentity(&Identity{UserID: 3, Name: "Asha"})
	s.AddLine(CartLine{ProductID: 7, Name: "Whole Wheat Bread", Price: decimal.RequireFromString("45.50"), Icon: "🍞"})
	s.Flash("hi")
	require.NoError(t, store.Save(ctx, s))
	assert.False(t, s.Dirty())

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", loaded.ID)
	assert.Equal(t, s.Cart.CheckoutKey, loaded.Cart.CheckoutKey)
	require.Len(t, loaded.Cart.Lines, 1)
	assert.Equal(t, "Whole Wheat Bread", loaded.Cart.Lines[0].Name)
	assert.True(t, loaded.Cart.Lines[0].Price.Equal(decimal.RequireFromString("45.5")))
	assert.Equal(t, []string{"hi"}, loaded.Notices)
	assert.False(t, loaded.Authenticated(), "identity is not persisted")

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, New("abc")))
	now = now.Add(time.Minute)
	_, err := store.Load(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMiddleware_PersistsAcrossRequests(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	e := echo.New()
	e.Use(Middleware(store, Options{CookieName: "fb_session", TTL: time.Hour}, logger.Nop()))
	e.POST("/add", func(c echo.Context) error {
		FromContext(c).AddLine(CartLine{ProductID: 1, Name: "Egg", Price: decimal.NewFromInt(110)})
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/count", func(c echo.Context) error {
		return c.JSON(http.StatusOK, FromContext(c).Cart.Len())
	})
	e.GET("/logout", func(c echo.Context) error {
		FromContext(c).Invalidate()
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/add", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "fb_session", cookie.Name)

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	do(http.MethodPost, "/add")
	rec = do(http.MethodGet, "/count")
	assert.Equal(t, "2\n", rec.Body.String())
	assert.Empty(t, rec.Result().Cookies(), "known session keeps its cookie")

	do(http.MethodGet, "/logout")
	_, err := store.Load(context.Background(), cookie.Value)
	assert.ErrorIs(t, err, ErrNotFound)

	rec = do(http.MethodGet, "/count")
	assert.Equal(t, "0\n", rec.Body.String())
	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, cookie.Value, rec.Result().Cookies()[0].Value)
}

func TestMiddleware_SerializesConcurrentRequests(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	e := echo.New()
	e.Use(Middleware(store, Options{CookieName: "fb_session", TTL: time.Hour}, logger.Nop()))
	e.POST("/add", func(c echo.Context) error {
		FromContext(c).AddLine(CartLine{ProductID: 1, Name: "Egg", Price: decimal.NewFromInt(110)})
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/add", nil))
	cookie := rec.Result().Cookies()[0]

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/add", nil)
			req.AddCookie(cookie)
			e.ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	stored, err := store.Load(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, 21, stored.Cart.Len())
}
