package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bookhub/bookhub/internal/cart"
	"github.com/bookhub/bookhub/internal/catalog"
	"github.com/bookhub/bookhub/internal/order"
	"github.com/bookhub/bookhub/internal/store"
	"github.com/bookhub/bookhub/internal/user"
	"github.com/bookhub/bookhub/internal/web"
)

type approveAll struct{}

func (approveAll) Charge(ctx context.Context, userID, amountCents int64) (bool, string, error) {
	return true, "STUB", nil
}

type declineAll struct{}

func (declineAll) Charge(ctx context.Context, userID, amountCents int64) (bool, string, error) {
	return false, "STUB", nil
}

func newTestServer(t *testing.T, payments order.PaymentProvider) (*httptest.Server, *catalog.Service) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalogSvc := catalog.NewService(catalog.NewSQLiteRepo(db))
	userSvc := user.NewService(user.NewRepository(db), nil)
	cartSvc := cart.NewService(cart.NewSQLiteRepo(db), catalogSvc)
	orderSvc := order.NewService(cartSvc, order.NewRepository(db), payments, catalogSvc, nil)

	srv := web.NewServer(catalogSvc, userSvc, cartSvc, orderSvc, user.NewSessions())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, catalogSvc
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, c *http.Client, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := c.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func getJSON(t *testing.T, c *http.Client, url string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func register(t *testing.T, c *http.Client, base, username string) {
	t.Helper()
	resp, body := postJSON(t, c, base+"/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Sup3rsecret",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "%v", body)
}

func seedBook(t *testing.T, cat *catalog.Service, title string, price int64, stock int32) int64 {
	t.Helper()
	b, err := cat.CreateBook(context.Background(), catalog.BookInput{
		Title:      title,
		Author:     "Author",
		Category:   "Fiction",
		ISBN:       "isbn-" + title,
		PriceCents: price,
		Stock:      stock,
	})
	require.NoError(t, err)
	return b.ID
}

func TestShopFlow(t *testing.T) {
	ts, cat := newTestServer(t, approveAll{})
	bookID := seedBook(t, cat, "Dune", 999, 5)
	c := newClient(t)

	// anonymous badge is zero
	resp, body := getJSON(t, c, ts.URL+"/cart/count")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 0, body["cart_count"])

	register(t, c, ts.URL, "alice")

	resp, body = postJSON(t, c, fmt.Sprintf("%s/cart/add/%d", ts.URL, bookID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])
	require.EqualValues(t, 1, body["cart_count"])

	resp, body = postJSON(t, c, fmt.Sprintf("%s/cart/add/%d", ts.URL, bookID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = postJSON(t, c, ts.URL+"/checkout", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	o := body["order"].(map[string]any)
	require.Equal(t, "completed", o["status"])
	require.Equal(t, "19.98", o["total_amount"])
	require.Regexp(t, `^ORD-[A-Z0-9]{6}$`, o["order_number"])

	// cart cleared, stock down
	resp, body = getJSON(t, c, ts.URL+"/cart")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 0, body["cart_count"])

	b, err := cat.Get(context.Background(), bookID)
	require.NoError(t, err)
	require.Equal(t, int32(3), b.StockQuantity)

	resp, body = getJSON(t, c, ts.URL+"/orders")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["orders"], 1)
}

func TestCheckoutRequiresLogin(t *testing.T) {
	ts, _ := newTestServer(t, approveAll{})
	c := newClient(t)

	resp, _ := postJSON(t, c, ts.URL+"/checkout", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCheckoutEmptyCartOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t, approveAll{})
	c := newClient(t)
	register(t, c, ts.URL, "alice")

	resp, body := postJSON(t, c, ts.URL+"/checkout", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Your cart is empty.", body["message"])
}

func TestCheckoutPaymentDeclinedOverHTTP(t *testing.T) {
	ts, cat := newTestServer(t, declineAll{})
	bookID := seedBook(t, cat, "Dune", 999, 5)
	c := newClient(t)
	register(t, c, ts.URL, "alice")

	resp, _ := postJSON(t, c, fmt.Sprintf("%s/cart/add/%d", ts.URL, bookID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postJSON(t, c, ts.URL+"/checkout", nil)
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	require.Equal(t, false, body["success"])

	// cart preserved for retry
	resp, body = getJSON(t, c, ts.URL+"/cart")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 1, body["cart_count"])
}

func TestAdminEndpointsAreGated(t *testing.T) {
	ts, _ := newTestServer(t, approveAll{})
	c := newClient(t)
	register(t, c, ts.URL, "alice") // plain customer

	resp, _ := getJSON(t, c, ts.URL+"/admin/overview")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCartUpdateWithoutQuantityKeepsOneCopy(t *testing.T) {
	ts, cat := newTestServer(t, approveAll{})
	bookID := seedBook(t, cat, "Dune", 999, 5)
	c := newClient(t)
	register(t, c, ts.URL, "alice")

	// two copies in the cart
	for i := 0; i < 2; i++ {
		resp, _ := postJSON(t, c, fmt.Sprintf("%s/cart/add/%d", ts.URL, bookID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	_, body := getJSON(t, c, ts.URL+"/cart")
	items := body["items"].([]any)
	require.Len(t, items, 1)
	itemID := int64(items[0].(map[string]any)["id"].(float64))

	// a body with no quantity field resets the line to a single copy
	resp, body := postJSON(t, c, fmt.Sprintf("%s/cart/update/%d", ts.URL, itemID), map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])

	_, body = getJSON(t, c, ts.URL+"/cart")
	items = body["items"].([]any)
	require.Len(t, items, 1)
	require.EqualValues(t, 1, items[0].(map[string]any)["quantity"])

	// an explicit zero still removes the line
	resp, _ = postJSON(t, c, fmt.Sprintf("%s/cart/update/%d", ts.URL, itemID),
		map[string]any{"quantity": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, body = getJSON(t, c, ts.URL+"/cart")
	require.Empty(t, body["items"])
}

func TestAuthorsEndpoint(t *testing.T) {
	ts, cat := newTestServer(t, approveAll{})
	seedBook(t, cat, "Dune", 999, 5)
	c := newClient(t)

	resp, body := getJSON(t, c, ts.URL+"/authors")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	authors := body["authors"].([]any)
	require.Len(t, authors, 1)
	require.Equal(t, "Author", authors[0].(map[string]any)["name"])
}

func TestLiveSearchEndpoint(t *testing.T) {
	ts, cat := newTestServer(t, approveAll{})
	seedBook(t, cat, "Dune", 999, 5)
	seedBook(t, cat, "Emma", 799, 0) // sold out, hidden
	c := newClient(t)

	resp, body := getJSON(t, c, ts.URL+"/live-search?q=dune")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["books"], 1)

	resp, body = getJSON(t, c, ts.URL+"/live-search?q=emma")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, body["books"])
}
