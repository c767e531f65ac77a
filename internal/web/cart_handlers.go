package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bookhub/bookhub/internal/cart"
	"github.com/bookhub/bookhub/internal/money"
	"github.com/bookhub/bookhub/internal/order"
)

type cartItemView struct {
	ID        int64  `json:"id"`
	BookID    int64  `json:"book_id"`
	Title     string `json:"title"`
	UnitPrice string `json:"unit_price"`
	Qty       int32  `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type cartView struct {
	Items []cartItemView `json:"items"`
	Total string         `json:"total"`
	Count int32          `json:"cart_count"`
}

func toCartView(c *cart.Cart) cartView {
	v := cartView{Items: []cartItemView{}, Total: c.Total().String(), Count: int32(len(c.Items))}
	for _, it := range c.Items {
		v.Items = append(v.Items, cartItemView{
			ID:        it.ID,
			BookID:    it.BookID,
			Title:     it.Title,
			UnitPrice: money.FromCents(it.UnitCents).String(),
			Qty:       it.Qty,
			LineTotal: it.LineTotal().String(),
		})
	}
	return v
}

func (s *Server) handleCartDetail(w http.ResponseWriter, r *http.Request) {
	c, err := s.carts.Get(r.Context(), requestUserID(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Could not load cart."))
		return
	}
	writeJSON(w, http.StatusOK, toCartView(c))
}

// handleCartCount serves the navbar badge; anonymous visitors get zero.
func (s *Server) handleCartCount(w http.ResponseWriter, r *http.Request) {
	userID := s.currentUserID(r)
	if userID == 0 {
		writeJSON(w, http.StatusOK, map[string]int32{"cart_count": 0})
		return
	}
	n, err := s.carts.Count(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Could not load cart."))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int32{"cart_count": n})
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.ParseInt(r.PathValue("bookID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid book id."))
		return
	}
	c, err := s.carts.AddItem(r.Context(), requestUserID(r), bookID, 1)
	switch {
	case errors.Is(err, cart.ErrOutOfStock):
		writeJSON(w, http.StatusConflict, nok("This book is out of stock."))
		return
	case errors.Is(err, cart.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, nok("Insufficient stock."))
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, nok("Could not update cart."))
		return
	}
	n := int32(len(c.Items))
	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Message:   "Added to your cart.",
		CartCount: &n,
	})
}

// Quantity is a pointer so an absent field is distinguishable from an
// explicit zero; absent means "keep one copy", zero removes the line.
type updateQtyRequest struct {
	Quantity *int32 `json:"quantity"`
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("itemID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid item id."))
		return
	}
	var req updateQtyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid request body."))
		return
	}
	qty := int32(1)
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	c, err := s.carts.SetQuantity(r.Context(), requestUserID(r), itemID, qty)
	switch {
	case errors.Is(err, cart.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, nok("Insufficient stock."))
		return
	case errors.Is(err, cart.ErrItemNotFound):
		writeJSON(w, http.StatusNotFound, nok("Item not found."))
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, nok("Could not update cart."))
		return
	}
	n := int32(len(c.Items))
	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Message:   "Quantity updated.",
		CartCount: &n,
		Total:     c.Total().String(),
	})
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("itemID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid item id."))
		return
	}
	c, err := s.carts.RemoveItem(r.Context(), requestUserID(r), itemID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Could not update cart."))
		return
	}
	n := int32(len(c.Items))
	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Message:   "Item removed from cart.",
		CartCount: &n,
	})
}

type orderView struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	Total       string          `json:"total_amount"`
	CreatedAt   string          `json:"created_at"`
	Items       []orderItemView `json:"items"`
}

type orderItemView struct {
	BookID    int64  `json:"book_id"`
	Title     string `json:"title"`
	Qty       int32  `json:"quantity"`
	UnitPrice string `json:"price"`
}

func toOrderView(o *order.Order) orderView {
	v := orderView{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Total:       o.Total().String(),
		CreatedAt:   time.Unix(o.CreatedUnix, 0).UTC().Format(time.RFC3339),
		Items:       []orderItemView{},
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, orderItemView{
			BookID:    it.BookID,
			Title:     it.Title,
			Qty:       it.Qty,
			UnitPrice: money.FromCents(it.UnitCents).String(),
		})
	}
	return v
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	o, err := s.orders.Checkout(r.Context(), requestUserID(r))
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, nok("Your cart is empty."))
		return
	case errors.Is(err, order.ErrPaymentFailed):
		writeJSON(w, http.StatusPaymentRequired, nok("Payment failed. Please try again."))
		return
	case errors.Is(err, cart.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, nok("Insufficient stock."))
		return
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, nok("Checkout failed."))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Payment successful! Order " + o.OrderNumber + " confirmed.",
		"order":   toOrderView(o),
	})
}

func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orders.ListByUser(r.Context(), requestUserID(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Could not load orders."))
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": views})
}
