package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/Rhymond/go-money"

	"StockTracker/internal/model"
)

// EmptyPortfolioMessage is shown instead of a report when nothing is held.
const EmptyPortfolioMessage = "Your portfolio is empty."

const ruleWidth = 65

// FormatPerformance renders a performance report as a fixed-width table
// followed by one line per failed lookup and the totals.
func FormatPerformance(r *model.PerformanceReport, currency string) string {
	if r.Empty {
		return EmptyPortfolioMessage + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-10s%-10s%-15s%-15s%-15s\n", "Ticker", "Shares", "Purchase Price", "Current Price", "Profit/Loss")
	b.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	for _, row := range r.Rows {
		fmt.Fprintf(&b, "%-10s%-10d%-15.2f%-15.2f%-15.2f\n",
			row.Ticker, row.Shares, row.PurchasePrice, row.CurrentPrice, row.ProfitLoss)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "Error fetching data for %s: %v\n", f.Ticker, f.Err)
	}
	if len(r.Rows) > 0 {
		b.WriteString(strings.Repeat("-", ruleWidth) + "\n")
		fmt.Fprintf(&b, "Cost basis: %s | Market value: %s | Profit/Loss: %s\n",
			display(r.TotalCost, currency), display(r.TotalValue, currency), display(r.TotalProfitLoss, currency))
	}
	return b.String()
}

// FormatHoldings lists positions with their cost basis.
func FormatHoldings(positions []model.Position, currency string) string {
	if len(positions) == 0 {
		return EmptyPortfolioMessage + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-10s%-10s%-15s%-15s\n", "Ticker", "Shares", "Purchase Price", "Cost Basis")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	var total float64
	for _, p := range positions {
		cost := float64(p.Shares) * p.PurchasePrice
		total += cost
		fmt.Fprintf(&b, "%-10s%-10d%-15.2f%-15s\n", p.Ticker, p.Shares, p.PurchasePrice, display(cost, currency))
	}
	fmt.Fprintf(&b, "Total cost basis: %s\n", display(total, currency))
	return b.String()
}

// Preformatted wraps plain text for a Telegram HTML message.
func Preformatted(title, text string) string {
	return fmt.Sprintf("<b>%s</b>\n<pre>%s</pre>", html.EscapeString(title), html.EscapeString(text))
}

func display(amount float64, currency string) string {
	return money.NewFromFloat(amount, currency).Display()
}
