package catalog_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bookhub/bookhub/internal/catalog"
	"github.com/bookhub/bookhub/internal/store"
)

func newService(t *testing.T) *catalog.Service {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return catalog.NewService(catalog.NewSQLiteRepo(db))
}

func input(title, author, cat, isbn string, price int64, stock int32) catalog.BookInput {
	return catalog.BookInput{
		Title:      title,
		Author:     author,
		Category:   cat,
		ISBN:       isbn,
		PriceCents: price,
		Stock:      stock,
	}
}

func TestCreateBookResolvesAuthorAndCategory(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	b, err := svc.CreateBook(ctx, input("Dune", "Frank Herbert", "Science Fiction", "9780441172719", 999, 5))
	require.NoError(t, err)
	require.Equal(t, "Frank Herbert", b.AuthorName)
	require.Equal(t, "Science Fiction", b.CategoryName)
	require.Equal(t, "9.99", b.Price().String())

	// same author, new book: no duplicate author row
	b2, err := svc.CreateBook(ctx, input("Dune Messiah", "Frank Herbert", "Science Fiction", "9780441172702", 899, 3))
	require.NoError(t, err)
	require.Equal(t, b.AuthorID, b2.AuthorID)
	require.Equal(t, b.CategoryID, b2.CategoryID)
}

func TestCreateBookValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateBook(ctx, input("", "A", "C", "i1", 100, 1))
	require.ErrorIs(t, err, catalog.ErrMissingField)

	_, err = svc.CreateBook(ctx, input("T", "A", "C", "i1", 0, 1))
	require.ErrorIs(t, err, catalog.ErrInvalidPrice)

	_, err = svc.CreateBook(ctx, input("T", "A", "C", "i1", 100, -1))
	require.ErrorIs(t, err, catalog.ErrInvalidStock)
}

func TestBrowseFiltersOutOfStock(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateBook(ctx, input("In Stock", "A", "C", "i1", 100, 3))
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, input("Sold Out", "A", "C", "i2", 100, 0))
	require.NoError(t, err)

	books, err := svc.Browse(ctx, 0, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, "In Stock", books[0].Title)

	// admin search sees everything
	all, err := svc.AdminSearch(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestBrowseSearchMatchesTitleAuthorISBN(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateBook(ctx, input("Dune", "Frank Herbert", "SF", "9780441172719", 999, 5))
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, input("Emma", "Jane Austen", "Classics", "9780141439587", 799, 5))
	require.NoError(t, err)

	for _, q := range []string{"dune", "herbert", "9780441"} {
		books, err := svc.Browse(ctx, 0, q, 0, 0)
		require.NoError(t, err)
		require.Len(t, books, 1, "query %q", q)
		require.Equal(t, "Dune", books[0].Title)
	}
}

func TestLiveSearchCacheInvalidatedOnWrite(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	b, err := svc.CreateBook(ctx, input("Dune", "Frank Herbert", "SF", "9780441172719", 999, 5))
	require.NoError(t, err)

	hits, err := svc.LiveSearch(ctx, "dune")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "9.99", hits[0].Price)

	require.NoError(t, svc.UpdatePrice(ctx, b.ID, 1299))

	hits, err = svc.LiveSearch(ctx, "dune")
	require.NoError(t, err)
	require.Equal(t, "12.99", hits[0].Price)
}

func TestLiveSearchEmptyQuery(t *testing.T) {
	svc := newService(t)
	hits, err := svc.LiveSearch(context.Background(), "   ")
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestUpdatePriceRejectsNonPositive(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	b, err := svc.CreateBook(ctx, input("Dune", "A", "C", "i1", 999, 5))
	require.NoError(t, err)

	require.ErrorIs(t, svc.UpdatePrice(ctx, b.ID, 0), catalog.ErrInvalidPrice)
	require.ErrorIs(t, svc.UpdatePrice(ctx, b.ID, -5), catalog.ErrInvalidPrice)

	got, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, int64(999), got.PriceCents)

	require.ErrorIs(t, svc.UpdatePrice(ctx, 9999, 100), catalog.ErrNotFound)
}
