package catalog

import (
	"context"
	"errors"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	liveSearchLimit = 10
	adminListLimit  = 20
	searchCacheSize = 256
)

var (
	ErrInvalidPrice = errors.New("catalog: price must be positive")
	ErrInvalidStock = errors.New("catalog: stock must not be negative")
	ErrMissingField = errors.New("catalog: missing required field")
)

// Service is the catalog façade. Live-search results are held in a small LRU
// keyed by the lowered query; the cache is purged on every catalog write so
// stale hits never outlive a price or stock edit.
type Service struct {
	repo  Repository
	cache *lru.Cache[string, []SearchHit]
}

func NewService(repo Repository) *Service {
	cache, _ := lru.New[string, []SearchHit](searchCacheSize)
	return &Service{repo: repo, cache: cache}
}

// InvalidateSearch drops every cached live-search result. Catalog writes
// call it internally; the checkout engine calls it after decrementing stock,
// which happens outside this package.
func (s *Service) InvalidateSearch() { s.cache.Purge() }

// BookInput is the admin create/update form. Author and category are given
// by name and resolved get-or-create, as the original book form does.
type BookInput struct {
	Title       string
	Author      string
	Category    string
	ISBN        string
	Description string
	PriceCents  int64
	Stock       int32
	CoverURL    string
}

func (s *Service) CreateBook(ctx context.Context, in BookInput) (*Book, error) {
	b, err := s.resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.CreateBook(ctx, b)
	if err != nil {
		return nil, err
	}
	s.InvalidateSearch()
	return s.repo.GetBook(ctx, id)
}

func (s *Service) UpdateBook(ctx context.Context, bookID int64, in BookInput) (*Book, error) {
	b, err := s.resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	b.ID = bookID
	if err := s.repo.UpdateBook(ctx, b); err != nil {
		return nil, err
	}
	s.InvalidateSearch()
	return s.repo.GetBook(ctx, bookID)
}

func (s *Service) resolve(ctx context.Context, in BookInput) (*Book, error) {
	if in.Title == "" || in.Author == "" || in.Category == "" || in.ISBN == "" {
		return nil, ErrMissingField
	}
	if in.PriceCents <= 0 {
		return nil, ErrInvalidPrice
	}
	if in.Stock < 0 {
		return nil, ErrInvalidStock
	}
	author, err := s.repo.GetOrCreateAuthor(ctx, in.Author)
	if err != nil {
		return nil, err
	}
	cat, err := s.repo.GetOrCreateCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	return &Book{
		Title:         in.Title,
		AuthorID:      author.ID,
		CategoryID:    cat.ID,
		ISBN:          in.ISBN,
		Description:   in.Description,
		PriceCents:    in.PriceCents,
		StockQuantity: in.Stock,
		CoverURL:      in.CoverURL,
	}, nil
}

// UpdatePrice rejects non-positive prices and leaves the row untouched.
func (s *Service) UpdatePrice(ctx context.Context, bookID, priceCents int64) error {
	if priceCents <= 0 {
		return ErrInvalidPrice
	}
	if err := s.repo.UpdateBookPrice(ctx, bookID, priceCents); err != nil {
		return err
	}
	s.InvalidateSearch()
	return nil
}

func (s *Service) DeleteBook(ctx context.Context, bookID int64) error {
	if err := s.repo.DeleteBook(ctx, bookID); err != nil {
		return err
	}
	s.InvalidateSearch()
	return nil
}

func (s *Service) Get(ctx context.Context, bookID int64) (*Book, error) {
	return s.repo.GetBook(ctx, bookID)
}

// Browse lists in-stock books for the storefront, optionally narrowed by
// category and search query.
func (s *Service) Browse(ctx context.Context, categoryID int64, query string, limit, offset int32) ([]*Book, error) {
	return s.repo.ListBooks(ctx, ListFilter{
		CategoryID:  categoryID,
		Query:       query,
		InStockOnly: true,
		Limit:       limit,
		Offset:      offset,
	})
}

// LiveSearch returns up to ten in-stock matches for the storefront search box.
func (s *Service) LiveSearch(ctx context.Context, query string) ([]SearchHit, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	if hits, ok := s.cache.Get(q); ok {
		return hits, nil
	}
	books, err := s.repo.ListBooks(ctx, ListFilter{
		Query:       q,
		InStockOnly: true,
		Limit:       liveSearchLimit,
	})
	if err != nil {
		return nil, err
	}
	hits := make([]SearchHit, 0, len(books))
	for _, b := range books {
		hits = append(hits, SearchHit{
			ID:       b.ID,
			Title:    b.Title,
			Author:   b.AuthorName,
			Price:    b.Price().String(),
			CoverURL: b.CoverURL,
		})
	}
	s.cache.Add(q, hits)
	return hits, nil
}

// AdminSearch covers the back-office book table: no stock filter, newest
// first, capped at twenty rows.
func (s *Service) AdminSearch(ctx context.Context, query string) ([]*Book, error) {
	return s.repo.ListBooks(ctx, ListFilter{
		Query: strings.TrimSpace(query),
		Limit: adminListLimit,
	})
}

func (s *Service) Categories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) Authors(ctx context.Context) ([]*Author, error) {
	return s.repo.ListAuthors(ctx)
}

func (s *Service) Counts(ctx context.Context) (books, categories int64, err error) {
	if books, err = s.repo.CountBooks(ctx); err != nil {
		return 0, 0, err
	}
	if categories, err = s.repo.CountCategories(ctx); err != nil {
		return 0, 0, err
	}
	return books, categories, nil
}
