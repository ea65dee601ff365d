package portfolio

import (
	"errors"

	"StockTracker/internal/model"
)

var (
	// ErrStateUnreadable means persisted state exists but is not a valid portfolio.
	ErrStateUnreadable = errors.New("persisted portfolio state is unreadable")
	// ErrTickerNotFound is returned when removing a ticker that is not held.
	ErrTickerNotFound = errors.New("ticker not found in portfolio")
	// ErrInvalidPosition rejects add requests that would break the position invariants.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrInvalidQuote marks a provider answer that is not a usable price.
	ErrInvalidQuote = errors.New("quote provider returned a non-positive price")
)

// Backend persists a whole portfolio. Load returns an empty portfolio when no
// state has been stored yet, and an error wrapping ErrStateUnreadable when the
// stored state cannot be decoded. Save replaces the stored state entirely.
type Backend interface {
	Load() (*model.Portfolio, error)
	Save(p *model.Portfolio) error
	Name() string
	Close() error
}
