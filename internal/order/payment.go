package order

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// PaymentProvider is the pluggable gateway boundary. Charge reports whether
// the payment went through; an error means the attempt itself could not be
// made (network, misconfiguration), not a declined payment.
type PaymentProvider interface {
	Charge(ctx context.Context, userID, amountCents int64) (ok bool, providerRef string, err error)
}

// fakeProvider approves a configurable fraction of charges after a short
// simulated round-trip. It stands in for a real gateway in dev and demos.
type fakeProvider struct {
	successRate float64
	delay       time.Duration
}

func NewFakeProvider(successRate float64) PaymentProvider {
	return &fakeProvider{successRate: successRate, delay: time.Second}
}

func (f *fakeProvider) Charge(ctx context.Context, userID, amountCents int64) (bool, string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return false, "", ctx.Err()
		}
	}
	ref := fmt.Sprintf("FAKE-%d-%d", userID, time.Now().UnixNano())
	return rand.Float64() < f.successRate, ref, nil
}
