package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bookhub/bookhub/internal/catalog"
	"github.com/bookhub/bookhub/internal/user"
)

// handleAdminOverview is the dashboard: entity counts, both raw and
// human-formatted for display.
func (s *Server) handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	usersCount, err := s.users.Count(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Could not load overview."))
		return
	}
	booksCount, categoriesCount, err := s.catalog.Counts(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Could not load overview."))
		return
	}
	ordersCount, err := s.orders.Count(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Could not load overview."))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users_count":      usersCount,
		"books_count":      booksCount,
		"orders_count":     ordersCount,
		"categories_count": categoriesCount,
		"display": map[string]string{
			"users":      humanize.Comma(usersCount),
			"books":      humanize.Comma(booksCount),
			"orders":     humanize.Comma(ordersCount),
			"categories": humanize.Comma(categoriesCount),
		},
	})
}

type userView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Could not load users."))
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Role:      u.Role,
			Phone:     u.Phone,
			CreatedAt: humanize.Time(time.Unix(u.CreatedUnix, 0)),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": views})
}

type adminCreateUserRequest struct {
	registerRequest
	Role string `json:"role"`
}

func (s *Server) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req adminCreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid request body."))
		return
	}
	reg := user.Registration{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	}
	var err error
	if req.Role == user.RoleAdmin {
		_, err = s.users.CreateAdmin(r.Context(), reg)
	} else {
		_, err = s.users.Register(r.Context(), reg)
	}
	if err != nil {
		writeJSON(w, registerStatus(err), nok(registerMessage(err)))
		return
	}
	writeJSON(w, http.StatusCreated, ok("User created successfully!"))
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid user id."))
		return
	}
	if err := s.users.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Could not delete user."))
		return
	}
	writeJSON(w, http.StatusOK, ok("User deleted."))
}

func (s *Server) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.orders.ListAll(r.Context())
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

func (s *Server) handleAdminBookSearch(w http.ResponseWriter, r *http.Request) {
	books, err := s.catalog.AdminSearch(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Search failed."))
		return
	}
	views := make([]bookView, 0, len(books))
	for _, b := range books {
		views = append(views, toBookView(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": views})
}

type createBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	ISBN        string `json:"isbn"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Stock       int32  `json:"stock_quantity"`
	CoverURL    string `json:"cover_url"`
}

func (s *Server) handleAdminCreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid request body."))
		return
	}
	b, err := s.catalog.CreateBook(r.Context(), catalog.BookInput{
		Title:       req.Title,
		Author:      req.Author,
		Category:    req.Category,
		ISBN:        req.ISBN,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Stock:       req.Stock,
		CoverURL:    req.CoverURL,
	})
	if err != nil {
		writeJSON(w, catalogStatus(err), nok("Error creating book: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Book added successfully!",
		"book":    toBookView(b),
	})
}

type updatePriceRequest struct {
	PriceCents int64 `json:"price_cents"`
}

func (s *Server) handleAdminUpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid book id."))
		return
	}
	var req updatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid request body."))
		return
	}
	switch err := s.catalog.UpdatePrice(r.Context(), id, req.PriceCents); {
	case errors.Is(err, catalog.ErrInvalidPrice):
		writeJSON(w, http.StatusBadRequest, nok("Invalid price"))
	case errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, nok("Book not found."))
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, nok("Could not update price."))
	default:
		writeJSON(w, http.StatusOK, ok("Price updated successfully"))
	}
}

func (s *Server) handleAdminDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid book id."))
		return
	}
	switch err := s.catalog.DeleteBook(r.Context(), id); {
	case errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, nok("Book not found."))
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, nok("Could not delete book."))
	default:
		writeJSON(w, http.StatusOK, ok("Book deleted."))
	}
}

func catalogStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidStock),
		errors.Is(err, catalog.ErrMissingField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
