package order

import (
	"math/rand"
	"strings"
)

const (
	numberPrefix   = "ORD-"
	numberLen      = 6
	numberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// newOrderNumber draws a candidate like ORD-7KQ2ZD. Uniqueness is enforced
// by the orders table; Place retries generation on a collision.
func newOrderNumber() string {
	var b strings.Builder
	b.WriteString(numberPrefix)
	for i := 0; i < numberLen; i++ {
		b.WriteByte(numberAlphabet[rand.Intn(len(numberAlphabet))])
	}
	return b.String()
}
