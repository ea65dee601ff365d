package model

import "strings"

// Position is a holding of a single ticker.
type Position struct {
	Ticker        string  `json:"-"`
	Shares        int64   `json:"shares"`
	PurchasePrice float64 `json:"purchase_price"` // average cost basis per share
}

// NormalizeTicker returns the portfolio key for a user supplied symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Portfolio maps tickers to positions and remembers the order in which
// tickers were first stored.
type Portfolio struct {
	order     []string
	positions map[string]Position
}

// NewPortfolio creates an empty portfolio.
func NewPortfolio() *Portfolio {
	return &Portfolio{positions: make(map[string]Position)}
}

// Len returns the number of positions.
func (p *Portfolio) Len() int { return len(p.order) }

// Get returns the position for an already normalized ticker.
func (p *Portfolio) Get(ticker string) (Position, bool) {
	pos, ok := p.positions[ticker]
	return pos, ok
}

// Set inserts or replaces a position. New tickers go to the end.
func (p *Portfolio) Set(pos Position) {
	if p.positions == nil {
		p.positions = make(map[string]Position)
	}
	if _, exists := p.positions[pos.Ticker]; !exists {
		p.order = append(p.order, pos.Ticker)
	}
	p.positions[pos.Ticker] = pos
}

// Delete removes a ticker and reports whether it was present.
func (p *Portfolio) Delete(ticker string) bool {
	if _, exists := p.positions[ticker]; !exists {
		return false
	}
	delete(p.positions, ticker)
	for i, t := range p.order {
		if t == ticker {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

// Positions returns a copy of all positions in storage order.
func (p *Portfolio) Positions() []Position {
	out := make([]Position, 0, len(p.order))
	for _, t := range p.order {
		out = append(out, p.positions[t])
	}
	return out
}

// Clone returns a deep copy.
func (p *Portfolio) Clone() *Portfolio {
	c := &Portfolio{
		order:     make([]string, len(p.order)),
		positions: make(map[string]Position, len(p.positions)),
	}
	copy(c.order, p.order)
	for k, v := range p.positions {
		c.positions[k] = v
	}
	return c
}
