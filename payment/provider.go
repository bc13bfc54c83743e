package payment

import (
	"context"
	"math"

	"github.com/thebrando/brando/apperror"
)

// Provider creates a payment intent with an external processor and returns
// the client secret the browser completes it with.
type Provider interface {
	Name() string
	CreateIntent(ctx context.Context, amountCents int64, currency string) (string, error)
}

// AmountCents converts a price to minor units, rounding down.
func AmountCents(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, apperror.Invalidf("price must be a positive number")
	}
	return int64(math.Floor(price * 100)), nil
}
