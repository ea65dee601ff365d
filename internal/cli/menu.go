// Package cli implements the interactive portfolio menu.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"StockTracker/internal/model"
	"StockTracker/internal/notifier"
	"StockTracker/internal/portfolio"
)

// ErrInvalidInput is returned for shares or prices that do not parse.
var ErrInvalidInput = errors.New("invalid input")

// Menu is the interactive add/remove/report loop.
type Menu struct {
	Store    *portfolio.Store
	Quotes   portfolio.QuoteProvider
	Currency string
	In       io.Reader
	Out      io.Writer
}

// Run prompts until the user exits or input ends.
func (m *Menu) Run(ctx context.Context) error {
	sc := bufio.NewScanner(m.In)
	for {
		fmt.Fprintln(m.Out, "\n--- Stock Portfolio Tracker ---")
		fmt.Fprintln(m.Out, "1. Add Stock")
		fmt.Fprintln(m.Out, "2. Remove Stock")
		fmt.Fprintln(m.Out, "3. View Performance")
		fmt.Fprintln(m.Out, "4. Exit")

		choice, ok := m.prompt(sc, "Enter your choice: ")
		if !ok {
			return sc.Err()
		}

		switch choice {
		case "1":
			if !m.add(sc) {
				return sc.Err()
			}
		case "2":
			ticker, ok := m.prompt(sc, "Enter stock ticker to remove: ")
			if !ok {
				return sc.Err()
			}
			if err := Remove(m.Store, m.Out, ticker); err != nil {
				fmt.Fprintln(m.Out, err)
			}
		case "3":
			fmt.Fprint(m.Out, notifier.FormatPerformance(m.Store.Performance(ctx, m.Quotes), m.Currency))
		case "4":
			fmt.Fprintln(m.Out, "Goodbye!")
			return nil
		default:
			fmt.Fprintln(m.Out, "Invalid choice. Please try again.")
		}
	}
}

// add returns false when input ended.
func (m *Menu) add(sc *bufio.Scanner) bool {
	ticker, ok := m.prompt(sc, "Enter stock ticker: ")
	if !ok {
		return false
	}
	sharesText, ok := m.prompt(sc, "Enter number of shares: ")
	if !ok {
		return false
	}
	shares, err := ParseShares(sharesText)
	if err != nil {
		fmt.Fprintln(m.Out, err)
		return true
	}
	priceText, ok := m.prompt(sc, "Enter purchase price per share: ")
	if !ok {
		return false
	}
	price, err := ParsePrice(priceText)
	if err != nil {
		fmt.Fprintln(m.Out, err)
		return true
	}
	if err := Add(m.Store, m.Out, ticker, shares, price); err != nil {
		fmt.Fprintln(m.Out, err)
	}
	return true
}

func (m *Menu) prompt(sc *bufio.Scanner, label string) (string, bool) {
	fmt.Fprint(m.Out, label)
	if !sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sc.Text()), true
}

// ParseShares parses a whole, non-negative number of shares.
func ParseShares(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: shares must be a whole number >= 0, got %q", ErrInvalidInput, s)
	}
	return n, nil
}

// ParsePrice parses a finite, non-negative price.
func ParsePrice(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: price must be a number >= 0, got %q", ErrInvalidInput, s)
	}
	return f, nil
}

// Add adds a position and reports the outcome to out.
func Add(store *portfolio.Store, out io.Writer, ticker string, shares int64, price float64) error {
	res, err := store.Add(ticker, shares, price)
	if err != nil {
		return err
	}
	if res.Merged {
		fmt.Fprintf(out, "%s already exists in your portfolio. Updated shares and price.\n", res.Position.Ticker)
	}
	fmt.Fprintf(out, "Added %s to your portfolio.\n", res.Position.Ticker)
	return nil
}

// Remove removes a position and reports the outcome to out. A ticker that is
// not held is reported, not returned.
func Remove(store *portfolio.Store, out io.Writer, ticker string) error {
	ticker = model.NormalizeTicker(ticker)
	err := store.Remove(ticker)
	switch {
	case errors.Is(err, portfolio.ErrTickerNotFound):
		fmt.Fprintf(out, "%s not found in your portfolio.\n", ticker)
		return nil
	case err != nil:
		return err
	}
	fmt.Fprintf(out, "Removed %s from your portfolio.\n", ticker)
	return nil
}
