package order_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bookhub/bookhub/internal/cart"
	"github.com/bookhub/bookhub/internal/catalog"
	"github.com/bookhub/bookhub/internal/order"
	"github.com/bookhub/bookhub/internal/store"
)

// stubProvider approves or declines every charge, recording the amounts.
type stubProvider struct {
	approve bool
	charged []int64
}

func (p *stubProvider) Charge(ctx context.Context, userID, amountCents int64) (bool, string, error) {
	p.charged = append(p.charged, amountCents)
	return p.approve, "STUB", nil
}

// capturePub records published events.
type capturePub struct {
	keys     []string
	payloads []any
}

func (p *capturePub) Publish(rk string, v any) error {
	p.keys = append(p.keys, rk)
	p.payloads = append(p.payloads, v)
	return nil
}

type fixture struct {
	db       *sql.DB
	catalog  *catalog.Service
	carts    *cart.Service
	orders   *order.Service
	payments *stubProvider
	events   *capturePub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		payments: &stubProvider{approve: true},
		events:   &capturePub{},
	}
	f.catalog = catalog.NewService(catalog.NewSQLiteRepo(db))
	f.carts = cart.NewService(cart.NewSQLiteRepo(db), f.catalog)
	f.orders = order.NewService(f.carts, order.NewRepository(db), f.payments, f.catalog, f.events)
	return f
}

func (f *fixture) seedUser(t *testing.T, name string) int64 {
	t.Helper()
	res, err := f.db.Exec(`
		INSERT INTO users(username, email, password_hash, role, created_unix)
		VALUES(?, ?, 'x', 'customer', 0)`, name, name+"@example.com")
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func (f *fixture) seedBook(t *testing.T, title string, priceCents int64, stock int32) int64 {
	t.Helper()
	b, err := f.catalog.CreateBook(context.Background(), catalog.BookInput{
		Title:      title,
		Author:     "Test Author",
		Category:   "Fiction",
		ISBN:       "isbn-" + title,
		PriceCents: priceCents,
		Stock:      stock,
	})
	require.NoError(t, err)
	return b.ID
}

func (f *fixture) stock(t *testing.T, bookID int64) int32 {
	t.Helper()
	b, err := f.catalog.Get(context.Background(), bookID)
	require.NoError(t, err)
	return b.StockQuantity
}

func (f *fixture) orderRows(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(1) FROM orders`).Scan(&n))
	return n
}

func (f *fixture) addToCart(t *testing.T, userID, bookID int64, qty int32) {
	t.Helper()
	ctx := context.Background()
	c, err := f.carts.AddItem(ctx, userID, bookID, 1)
	require.NoError(t, err)
	if qty > 1 {
		for _, it := range c.Items {
			if it.BookID == bookID {
				_, err = f.carts.SetQuantity(ctx, userID, it.ID, qty)
				require.NoError(t, err)
			}
		}
	}
}

var orderNumberRe = regexp.MustCompile(`^ORD-[A-Z0-9]{6}$`)

func TestCheckoutSuccess(t *testing.T) {
	f := newFixture(t)
	uid := f.seedUser(t, "alice")
	bookID := f.seedBook(t, "Dune", 999, 5)
	f.addToCart(t, uid, bookID, 2)
	ctx := context.Background()

	o, err := f.orders.Checkout(ctx, uid)
	require.NoError(t, err)

	require.Equal(t, order.StatusCompleted, o.Status)
	require.Equal(t, int64(1998), o.TotalCents)
	require.Regexp(t, orderNumberRe, o.OrderNumber)
	require.Len(t, o.Items, 1)
	require.Equal(t, int64(999), o.Items[0].UnitCents)
	require.Equal(t, int32(2), o.Items[0].Qty)

	// charge used the snapshotted total
	require.Equal(t, []int64{1998}, f.payments.charged)

	// stock decremented, cart cleared
	require.Equal(t, int32(3), f.stock(t, bookID))
	c, err := f.carts.Get(ctx, uid)
	require.NoError(t, err)
	require.True(t, c.Empty())

	// event published
	require.Equal(t, []string{order.RKOrderCreated}, f.events.keys)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	uid := f.seedUser(t, "alice")

	_, err := f.orders.Checkout(context.Background(), uid)
	require.ErrorIs(t, err, order.ErrEmptyCart)
	require.Zero(t, f.orderRows(t))
	require.Empty(t, f.payments.charged) // aborted before the charge
}

func TestCheckoutPaymentFailure(t *testing.T) {
	f := newFixture(t)
	f.payments.approve = false
	uid := f.seedUser(t, "alice")
	bookID := f.seedBook(t, "Dune", 999, 5)
	f.addToCart(t, uid, bookID, 2)
	ctx := context.Background()

	_, err := f.orders.Checkout(ctx, uid)
	require.ErrorIs(t, err, order.ErrPaymentFailed)

	require.Zero(t, f.orderRows(t))
	require.Equal(t, int32(5), f.stock(t, bookID))
	c, err := f.carts.Get(ctx, uid)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Equal(t, int32(2), c.Items[0].Qty)
	require.Empty(t, f.events.keys)
}

func TestCheckoutStaleStockFailsWholeOrder(t *testing.T) {
	f := newFixture(t)
	uid := f.seedUser(t, "alice")
	dune := f.seedBook(t, "Dune", 999, 5)
	hobbit := f.seedBook(t, "Hobbit", 500, 5)
	f.addToCart(t, uid, dune, 2)
	f.addToCart(t, uid, hobbit, 1)
	ctx := context.Background()

	// stock drops after the cart was filled
	_, err := f.db.Exec(`UPDATE books SET stock_quantity=1 WHERE id=?`, dune)
	require.NoError(t, err)

	_, err = f.orders.Checkout(ctx, uid)
	require.ErrorIs(t, err, cart.ErrInsufficientStock)

	// nothing applied: no order, both stocks as they were, cart intact
	require.Zero(t, f.orderRows(t))
	require.Equal(t, int32(1), f.stock(t, dune))
	require.Equal(t, int32(5), f.stock(t, hobbit))
	c, err := f.carts.Get(ctx, uid)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
}

func TestOrderSnapshotSurvivesPriceChange(t *testing.T) {
	f := newFixture(t)
	uid := f.seedUser(t, "alice")
	bookA := f.seedBook(t, "A", 1000, 10)
	bookB := f.seedBook(t, "B", 500, 10)
	f.addToCart(t, uid, bookA, 2)
	f.addToCart(t, uid, bookB, 1)
	ctx := context.Background()

	o, err := f.orders.Checkout(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, int64(2500), o.TotalCents)

	// catalog prices move on
	require.NoError(t, f.catalog.UpdatePrice(ctx, bookA, 9999))
	require.NoError(t, f.catalog.UpdatePrice(ctx, bookB, 1))

	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2500), got.TotalCents)

	var sum int64
	prices := map[int64]int64{}
	for _, it := range got.Items {
		sum += it.LineTotal().Cents
		prices[it.BookID] = it.UnitCents
	}
	require.Equal(t, got.TotalCents, sum)
	require.Equal(t, int64(1000), prices[bookA])
	require.Equal(t, int64(500), prices[bookB])
}

func TestCheckoutDropsCachedSearchResults(t *testing.T) {
	f := newFixture(t)
	uid := f.seedUser(t, "alice")
	bookID := f.seedBook(t, "Dune", 999, 1)
	ctx := context.Background()

	// warm the search cache while the last copy is still in stock
	hits, err := f.catalog.LiveSearch(ctx, "Dune")
	require.NoError(t, err)
	require.Len(t, hits, 1)

	f.addToCart(t, uid, bookID, 1)
	_, err = f.orders.Checkout(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, int32(0), f.stock(t, bookID))

	hits, err = f.catalog.LiveSearch(ctx, "Dune")
	require.NoError(t, err)
	require.Empty(t, hits, "sold-out book must not survive in search results")
}

func TestOrderNumbersAreUniqueAndWellFormed(t *testing.T) {
	f := newFixture(t)
	uid := f.seedUser(t, "alice")
	bookID := f.seedBook(t, "Dune", 999, 100)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		f.addToCart(t, uid, bookID, 1)
		o, err := f.orders.Checkout(ctx, uid)
		require.NoError(t, err)
		require.Regexp(t, orderNumberRe, o.OrderNumber)
		require.False(t, seen[o.OrderNumber], "duplicate order number %s", o.OrderNumber)
		seen[o.OrderNumber] = true
	}
}

func TestListByUserNewestFirst(t *testing.T) {
	f := newFixture(t)
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	bookID := f.seedBook(t, "Dune", 999, 100)
	ctx := context.Background()

	f.addToCart(t, alice, bookID, 1)
	first, err := f.orders.Checkout(ctx, alice)
	require.NoError(t, err)
	f.addToCart(t, alice, bookID, 1)
	second, err := f.orders.Checkout(ctx, alice)
	require.NoError(t, err)

	orders, err := f.orders.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, second.ID, orders[0].ID)
	require.Equal(t, first.ID, orders[1].ID)
	require.Len(t, orders[0].Items, 1)

	others, err := f.orders.ListByUser(ctx, bob)
	require.NoError(t, err)
	require.Empty(t, others)
}
