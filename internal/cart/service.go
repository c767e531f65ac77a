package cart

import (
	"context"
	"errors"

	"github.com/bookhub/bookhub/internal/catalog"
)

var (
	ErrOutOfStock        = errors.New("cart: book is out of stock")
	ErrInsufficientStock = errors.New("cart: insufficient stock")
)

// BookLookup is the slice of the catalog the cart consumes: price and stock
// by book id.
type BookLookup interface {
	Get(ctx context.Context, bookID int64) (*catalog.Book, error)
}

type Service struct {
	repo  Repository
	books BookLookup
}

func NewService(repo Repository, books BookLookup) *Service {
	return &Service{repo: repo, books: books}
}

// AddItem puts delta more copies of a book in the user's cart, creating the
// cart row and the line as needed. Stock is checked before anything is
// written; a failed check leaves the cart untouched.
func (s *Service) AddItem(ctx context.Context, userID, bookID int64, delta int32) (*Cart, error) {
	if delta <= 0 {
		delta = 1
	}
	book, err := s.books.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.StockQuantity <= 0 {
		return nil, ErrOutOfStock
	}

	cartID, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, cartID, bookID)
	switch {
	case errors.Is(err, ErrItemNotFound):
		if err := s.repo.InsertItem(ctx, cartID, bookID, 1); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if item.Qty+delta > book.StockQuantity {
			return nil, ErrInsufficientStock
		}
		if err := s.repo.UpdateItemQty(ctx, item.ID, item.Qty+delta); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, userID)
}

// SetQuantity sets a line to an absolute quantity. Zero or less removes the
// line; more than current stock fails and leaves the line as it was.
func (s *Service) SetQuantity(ctx context.Context, userID, itemID int64, qty int32) (*Cart, error) {
	item, err := s.repo.GetItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	switch {
	case qty <= 0:
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return nil, err
		}
	case qty > item.Stock:
		return nil, ErrInsufficientStock
	case qty != item.Qty:
		if err := s.repo.UpdateItemQty(ctx, item.ID, qty); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, userID)
}

// RemoveItem deletes a line. Removing a line that is already gone is a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) (*Cart, error) {
	item, err := s.repo.GetItem(ctx, userID, itemID)
	if errors.Is(err, ErrItemNotFound) {
		return s.repo.Get(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *Service) Get(ctx context.Context, userID int64) (*Cart, error) {
	return s.repo.Get(ctx, userID)
}

// Count is the storefront badge: number of lines in the user's cart.
func (s *Service) Count(ctx context.Context, userID int64) (int32, error) {
	return s.repo.CountItems(ctx, userID)
}
