package quote

import (
	"context"
	"fmt"
	"strings"
)

// StaticProvider answers from a fixed price table. Useful offline and in tests.
type StaticProvider struct {
	Prices map[string]float64
}

// NewStaticProvider copies prices with upper-cased tickers.
func NewStaticProvider(prices map[string]float64) *StaticProvider {
	p := &StaticProvider{Prices: make(map[string]float64, len(prices))}
	for k, v := range prices {
		p.Prices[strings.ToUpper(k)] = v
	}
	return p
}

func (s *StaticProvider) Name() string { return "static" }

func (s *StaticProvider) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	price, ok := s.Prices[strings.ToUpper(ticker)]
	if !ok {
		return 0, fmt.Errorf("%w: no static price for %s", ErrPriceUnavailable, ticker)
	}
	return price, nil
}
