package order

import "github.com/bookhub/bookhub/internal/money"

// Orders are only written after a successful charge, so every stored row is
// completed today. Pending and failed exist for readers of the status column
// once asynchronous payment capture lands.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Order is the frozen record of a purchase. Everything but Status is
// immutable once the row exists.
type Order struct {
	ID          int64
	UserID      int64
	OrderNumber string
	Status      string
	TotalCents  int64
	CreatedUnix int64
	UpdatedUnix int64
	Items       []Item
}

// Item captures book, quantity and unit price at purchase time. UnitCents is
// a value copy, deliberately decoupled from later catalog price edits.
type Item struct {
	ID        int64
	OrderID   int64
	BookID    int64
	Title     string
	Qty       int32
	UnitCents int64
}

func (it Item) LineTotal() money.Money {
	return money.FromCents(it.UnitCents).Mul(it.Qty)
}

func (o *Order) Total() money.Money { return money.FromCents(o.TotalCents) }
