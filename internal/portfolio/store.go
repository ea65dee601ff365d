package portfolio

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"StockTracker/internal/model"
)

// DefaultQuoteTimeout bounds a single price lookup.
const DefaultQuoteTimeout = 10 * time.Second

// QuoteProvider supplies the most recent trading price of a ticker.
type QuoteProvider interface {
	CurrentPrice(ctx context.Context, ticker string) (float64, error)
}

// Store owns the portfolio and writes it through to a Backend after every
// mutation.
type Store struct {
	mu           sync.Mutex
	backend      Backend
	portfolio    *model.Portfolio
	quoteTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithQuoteTimeout sets the per-ticker lookup timeout used by Performance.
func WithQuoteTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.quoteTimeout = d
		}
	}
}

// Open loads the portfolio from the backend.
func Open(backend Backend, opts ...Option) (*Store, error) {
	s := &Store{backend: backend, quoteTimeout: DefaultQuoteTimeout}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory portfolio with the persisted one. On error the
// current portfolio is kept.
func (s *Store) Reload() error {
	p, err := s.backend.Load()
	if err != nil {
		return fmt.Errorf("load portfolio: %w", err)
	}
	s.mu.Lock()
	s.portfolio = p
	s.mu.Unlock()
	log.WithFields(log.Fields{"backend": s.backend.Name(), "positions": p.Len()}).Debug("portfolio loaded")
	return nil
}

// AddResult describes the position after an Add.
type AddResult struct {
	Position model.Position
	// Merged is true when the ticker was already held.
	Merged bool
}

// Add buys shares of ticker. An existing position gets the shares added and
// its purchase price set to the plain mean of the old price and the new one;
// the mean is not weighted by shares.
func (s *Store) Add(ticker string, shares int64, price float64) (AddResult, error) {
	ticker = model.NormalizeTicker(ticker)
	switch {
	case ticker == "":
		return AddResult{}, fmt.Errorf("%w: empty ticker", ErrInvalidPosition)
	case shares < 0:
		return AddResult{}, fmt.Errorf("%w: negative shares %d", ErrInvalidPosition, shares)
	case price < 0 || math.IsNaN(price) || math.IsInf(price, 0):
		return AddResult{}, fmt.Errorf("%w: purchase price %v", ErrInvalidPosition, price)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.portfolio.Clone()
	res := AddResult{Position: model.Position{Ticker: ticker, Shares: shares, PurchasePrice: price}}
	if old, ok := next.Get(ticker); ok {
		if shares > math.MaxInt64-old.Shares {
			return AddResult{}, fmt.Errorf("%w: %s holds %d shares, adding %d overflows", ErrInvalidPosition, ticker, old.Shares, shares)
		}
		res.Merged = true
		res.Position.Shares = old.Shares + shares
		res.Position.PurchasePrice = (old.PurchasePrice + price) / 2
	}
	next.Set(res.Position)

	if err := s.commit(next); err != nil {
		return AddResult{}, err
	}
	log.WithFields(log.Fields{
		"ticker": ticker,
		"shares": res.Position.Shares,
		"price":  res.Position.PurchasePrice,
		"merged": res.Merged,
	}).Info("position added")
	return res, nil
}

// Remove deletes a ticker. It returns ErrTickerNotFound, without saving, when
// the ticker is not held.
func (s *Store) Remove(ticker string) error {
	ticker = model.NormalizeTicker(ticker)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.portfolio.Get(ticker); !ok {
		return fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}
	next := s.portfolio.Clone()
	next.Delete(ticker)
	if err := s.commit(next); err != nil {
		return err
	}
	log.WithField("ticker", ticker).Info("position removed")
	return nil
}

// commit saves next and makes it current. Callers hold mu.
func (s *Store) commit(next *model.Portfolio) error {
	if err := s.backend.Save(next); err != nil {
		return fmt.Errorf("save portfolio: %w", err)
	}
	s.portfolio = next
	return nil
}

// Positions returns the held positions in storage order.
func (s *Store) Positions() []model.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portfolio.Positions()
}

// Get returns the position held for ticker.
func (s *Store) Get(ticker string) (model.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portfolio.Get(model.NormalizeTicker(ticker))
}

// Performance prices every position. A failed lookup is recorded in
// Failures and the remaining tickers are still priced.
func (s *Store) Performance(ctx context.Context, quotes QuoteProvider) *model.PerformanceReport {
	positions := s.Positions()
	report := &model.PerformanceReport{}
	if len(positions) == 0 {
		report.Empty = true
		return report
	}

	var cost, value, pl decimal.Decimal
	for _, pos := range positions {
		price, err := s.lookup(ctx, quotes, pos.Ticker)
		if err != nil {
			log.WithError(err).WithField("ticker", pos.Ticker).Warn("price lookup failed")
			report.Failures = append(report.Failures, model.QuoteFailure{Ticker: pos.Ticker, Err: err})
			continue
		}

		shares := decimal.NewFromInt(pos.Shares)
		purchase := decimal.NewFromFloat(pos.PurchasePrice)
		current := decimal.NewFromFloat(price)
		rowPL := current.Sub(purchase).Mul(shares)

		cost = cost.Add(purchase.Mul(shares))
		value = value.Add(current.Mul(shares))
		pl = pl.Add(rowPL)

		report.Rows = append(report.Rows, model.PerformanceRow{
			Ticker:        pos.Ticker,
			Shares:        pos.Shares,
			PurchasePrice: pos.PurchasePrice,
			CurrentPrice:  price,
			ProfitLoss:    rowPL.InexactFloat64(),
		})
	}
	report.TotalCost = cost.InexactFloat64()
	report.TotalValue = value.InexactFloat64()
	report.TotalProfitLoss = pl.InexactFloat64()
	return report
}

func (s *Store) lookup(ctx context.Context, quotes QuoteProvider, ticker string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.quoteTimeout)
	defer cancel()

	price, err := quotes.CurrentPrice(ctx, ticker)
	if err != nil {
		return 0, err
	}
	if !(price > 0) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidQuote, price)
	}
	return price, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
