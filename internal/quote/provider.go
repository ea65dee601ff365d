// Package quote looks up current market prices.
package quote

import (
	"context"
	"errors"
)

// ErrPriceUnavailable is returned when a provider has no usable price for a ticker.
var ErrPriceUnavailable = errors.New("price unavailable")

// Provider returns the most recent trading price of a ticker.
type Provider interface {
	CurrentPrice(ctx context.Context, ticker string) (float64, error)
	Name() string
}
