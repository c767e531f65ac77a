package cart

import "github.com/bookhub/bookhub/internal/money"

// Cart is the per-user aggregate. An absent cart row and a cart with zero
// items are the same empty state; readers always get a Cart value, never a
// lookup failure.
type Cart struct {
	ID     int64
	UserID int64
	Items  []Item
}

// Item is one cart line joined with the book fields the cart logic needs.
// UnitCents and Stock reflect the catalog at read time; prices are only
// frozen when an order is placed.
type Item struct {
	ID        int64
	CartID    int64
	BookID    int64
	Title     string
	UnitCents int64
	Stock     int32
	Qty       int32
	AddedUnix int64
}

func (it Item) LineTotal() money.Money {
	return money.FromCents(it.UnitCents).Mul(it.Qty)
}

// Total is the live sum over current lines; zero for an empty cart.
func (c *Cart) Total() money.Money {
	var total money.Money
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (c *Cart) Empty() bool { return len(c.Items) == 0 }
