package money

import "fmt"

// Money is an integer amount of cents. Catalog prices and order totals are
// stored and computed in cents so sums stay exact.
type Money struct{ Cents int64 }

func FromCents(c int64) Money { return Money{Cents: c} }

func (m Money) Add(o Money) Money   { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Mul(qty int32) Money { return Money{Cents: m.Cents * int64(qty)} }

func (m Money) String() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
