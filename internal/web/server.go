// Package web exposes the JSON surface of the store: storefront browsing and
// live search, cart and checkout for logged-in users, and the admin
// back-office endpoints.
package web

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"

	"github.com/bookhub/bookhub/internal/cart"
	"github.com/bookhub/bookhub/internal/catalog"
	"github.com/bookhub/bookhub/internal/order"
	"github.com/bookhub/bookhub/internal/user"
)

type Server struct {
	catalog  *catalog.Service
	users    *user.Service
	carts    *cart.Service
	orders   *order.Service
	sessions *user.Sessions
}

func NewServer(cat *catalog.Service, users *user.Service, carts *cart.Service, orders *order.Service, sessions *user.Sessions) *Server {
	return &Server{
		catalog:  cat,
		users:    users,
		carts:    carts,
		orders:   orders,
		sessions: sessions,
	}
}

// Handler assembles the route table with CORS and request logging around it.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// storefront
	mux.HandleFunc("GET /books", s.handleBrowse)
	mux.HandleFunc("GET /books/{id}", s.handleBookDetail)
	mux.HandleFunc("GET /categories", s.handleCategories)
	mux.HandleFunc("GET /authors", s.handleAuthors)
	mux.HandleFunc("GET /live-search", s.handleLiveSearch)

	// accounts
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /validate/username", s.handleValidateUsername)
	mux.HandleFunc("GET /validate/email", s.handleValidateEmail)
	mux.HandleFunc("GET /validate/password", s.handleValidatePassword)

	// cart and checkout
	mux.Handle("GET /cart", s.requireUser(s.handleCartDetail))
	mux.HandleFunc("GET /cart/count", s.handleCartCount)
	mux.Handle("POST /cart/add/{bookID}", s.requireUser(s.handleCartAdd))
	mux.Handle("POST /cart/update/{itemID}", s.requireUser(s.handleCartUpdate))
	mux.Handle("POST /cart/remove/{itemID}", s.requireUser(s.handleCartRemove))
	mux.Handle("POST /checkout", s.requireUser(s.handleCheckout))
	mux.Handle("GET /orders", s.requireUser(s.handleMyOrders))

	// back-office
	mux.Handle("GET /admin/overview", s.requireAdmin(s.handleAdminOverview))
	mux.Handle("GET /admin/users", s.requireAdmin(s.handleAdminUsers))
	mux.Handle("POST /admin/users", s.requireAdmin(s.handleAdminCreateUser))
	mux.Handle("POST /admin/users/{id}/delete", s.requireAdmin(s.handleAdminDeleteUser))
	mux.Handle("GET /admin/orders", s.requireAdmin(s.handleAdminOrders))
	mux.Handle("GET /admin/books/search", s.requireAdmin(s.handleAdminBookSearch))
	mux.Handle("POST /admin/books", s.requireAdmin(s.handleAdminCreateBook))
	mux.Handle("POST /admin/books/{id}/price", s.requireAdmin(s.handleAdminUpdatePrice))
	mux.Handle("POST /admin/books/{id}/delete", s.requireAdmin(s.handleAdminDeleteBook))

	return logRequests(cors.Default().Handler(mux))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// envelope mirrors the ajax responses of the storefront scripts.
type envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	CartCount *int32 `json:"cart_count,omitempty"`
	Total     string `json:"total,omitempty"`
}

func ok(message string) envelope  { return envelope{Success: true, Message: message} }
func nok(message string) envelope { return envelope{Success: false, Message: message} }
