package catalog

import "github.com/bookhub/bookhub/internal/money"

type Book struct {
	ID            int64
	Title         string
	AuthorID      int64
	AuthorName    string
	CategoryID    int64
	CategoryName  string
	ISBN          string
	Description   string
	PriceCents    int64
	StockQuantity int32
	CoverURL      string
	CreatedUnix   int64
	UpdatedUnix   int64
}

func (b *Book) Price() money.Money { return money.FromCents(b.PriceCents) }

type Author struct {
	ID          int64
	Name        string
	CreatedUnix int64
}

type Category struct {
	ID          int64
	Name        string
	CreatedUnix int64
}

// SearchHit is the live-search projection served to the storefront.
type SearchHit struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	Price    string `json:"price"`
	CoverURL string `json:"cover_url,omitempty"`
}
