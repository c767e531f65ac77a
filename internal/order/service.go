package order

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/bookhub/bookhub/internal/cart"
)

var (
	ErrEmptyCart     = errors.New("order: cart is empty")
	ErrPaymentFailed = errors.New("order: payment failed")
)

// EventPublisher is satisfied by events.Rabbit; a nil publisher disables
// event emission.
type EventPublisher interface {
	Publish(routingKey string, v any) error
}

// SearchInvalidator is satisfied by catalog.Service. Placing an order
// decrements stock behind the catalog's back, so its search cache has to
// be dropped here.
type SearchInvalidator interface {
	InvalidateSearch()
}

// Service is the checkout engine: it turns the user's cart into an immutable
// order snapshot, charging the payment provider first and applying all
// writes in one transaction.
type Service struct {
	carts    *cart.Service
	repo     *Repository
	payments PaymentProvider
	search   SearchInvalidator
	events   EventPublisher
}

func NewService(carts *cart.Service, repo *Repository, payments PaymentProvider, search SearchInvalidator, events EventPublisher) *Service {
	return &Service{carts: carts, repo: repo, payments: payments, search: search, events: events}
}

// Checkout runs one attempt end to end.
//
// The total is fixed from the cart snapshot before the charge and never
// recomputed. A declined payment or a stale stock line leaves catalog and
// cart exactly as they were, so the user can retry.
func (s *Service) Checkout(ctx context.Context, userID int64) (*Order, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, ErrEmptyCart
	}
	total := c.Total()

	ok, ref, err := s.payments.Charge(ctx, userID, total.Cents)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Info().Int64("user", userID).Str("ref", ref).Msg("payment declined")
		return nil, ErrPaymentFailed
	}

	o, err := s.repo.Place(ctx, userID, c.ID, c.Items, total.Cents)
	if err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.InvalidateSearch()
	}

	log.Info().
		Int64("user", userID).
		Str("order", o.OrderNumber).
		Str("total", o.Total().String()).
		Msg("order placed")

	if s.events != nil {
		payload := OrderCreatedPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			UserID:      o.UserID,
			TotalCents:  o.TotalCents,
		}
		for _, it := range o.Items {
			payload.Items = append(payload.Items, OrderItemEvt{
				BookID:    it.BookID,
				Title:     it.Title,
				Qty:       it.Qty,
				UnitCents: it.UnitCents,
				LineCents: it.LineTotal().Cents,
			})
		}
		if err := s.events.Publish(RKOrderCreated, payload); err != nil {
			log.Error().Err(err).Str("order", o.OrderNumber).Msg("publish order.created")
		}
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, orderID int64) (*Order, error) {
	return s.repo.Get(ctx, orderID)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]*Order, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
