package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bookhub/bookhub/internal/catalog"
)

const browsePageSize = 24

type bookView struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Category  string `json:"category"`
	ISBN      string `json:"isbn"`
	Price     string `json:"price"`
	Stock     int32  `json:"stock_quantity"`
	CoverURL  string `json:"cover_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toBookView(b *catalog.Book) bookView {
	return bookView{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.AuthorName,
		Category:  b.CategoryName,
		ISBN:      b.ISBN,
		Price:     b.Price().String(),
		Stock:     b.StockQuantity,
		CoverURL:  b.CoverURL,
		CreatedAt: time.Unix(b.CreatedUnix, 0).UTC().Format("Jan 02, 2006"),
	}
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	categoryID, _ := strconv.ParseInt(q.Get("category"), 10, 64)
	page, _ := strconv.ParseInt(q.Get("page"), 10, 32)
	if page < 1 {
		page = 1
	}
	books, err := s.catalog.Browse(r.Context(), categoryID, q.Get("search"),
		browsePageSize, int32(page-1)*browsePageSize)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Could not load books."))
		return
	}
	views := make([]bookView, 0, len(books))
	for _, b := range books {
		views = append(views, toBookView(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": views})
}

func (s *Server) handleBookDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, nok("Invalid book id."))
		return
	}
	b, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, nok("Book not found."))
		return
	}
	v := toBookView(b)
	writeJSON(w, http.StatusOK, map[string]any{
		"book":        v,
		"description": b.Description,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.catalog.Categories(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Could not load categories."))
		return
	}
	type catView struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	views := make([]catView, 0, len(cats))
	for _, c := range cats {
		views = append(views, catView{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": views})
}

func (s *Server) handleAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := s.catalog.Authors(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Could not load authors."))
		return
	}
	type authorView struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	views := make([]authorView, 0, len(authors))
	for _, a := range authors {
		views = append(views, authorView{ID: a.ID, Name: a.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"authors": views})
}

func (s *Server) handleLiveSearch(w http.ResponseWriter, r *http.Request) {
	hits, err := s.catalog.LiveSearch(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, nok("Search failed."))
		return
	}
	if hits == nil {
		hits = []catalog.SearchHit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": hits})
}
