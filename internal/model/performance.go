package model

// PerformanceRow is the unrealized result of one position at the current price.
type PerformanceRow struct {
	Ticker        string
	Shares        int64
	PurchasePrice float64
	CurrentPrice  float64
	ProfitLoss    float64
}

// QuoteFailure annotates a ticker whose current price could not be obtained.
type QuoteFailure struct {
	Ticker string
	Err    error
}

func (f QuoteFailure) Error() string {
	return f.Ticker + ": " + f.Err.Error()
}

// PerformanceReport is the output of a performance run. Rows and Failures
// follow portfolio order.
type PerformanceReport struct {
	Empty    bool
	Rows     []PerformanceRow
	Failures []QuoteFailure

	// Totals over Rows only.
	TotalCost       float64
	TotalValue      float64
	TotalProfitLoss float64
}
