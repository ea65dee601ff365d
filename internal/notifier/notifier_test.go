package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockTracker/internal/model"
)

func TestFormatPerformance(t *testing.T) {
	r := &model.PerformanceReport{
		Rows: []model.PerformanceRow{
			{Ticker: "AAPL", Shares: 10, PurchasePrice: 100, CurrentPrice: 120, ProfitLoss: 200},
		},
		Failures:        []model.QuoteFailure{{Ticker: "BOGUS", Err: errors.New("no trading data")}},
		TotalCost:       1000,
		TotalValue:      1200,
		TotalProfitLoss: 200,
	}
	out := FormatPerformance(r, "USD")
	lines := strings.Split(out, "\n")

	assert.Equal(t, "Ticker    Shares    Purchase Price Current Price  Profit/Loss    ", lines[0])
	assert.Equal(t, strings.Repeat("-", 65), lines[1])
	assert.Equal(t, "AAPL      10        100.00         120.00         200.00         ", lines[2])
	assert.Equal(t, "Error fetching data for BOGUS: no trading data", lines[3])
	assert.Contains(t, out, "Profit/Loss: $200.00")
	assert.Contains(t, out, "Market value: $1,200.00")
}

func TestFormatPerformance_Empty(t *testing.T) {
	out := FormatPerformance(&model.PerformanceReport{Empty: true}, "USD")
	assert.Equal(t, "Your portfolio is empty.\n", out)
}

func TestFormatPerformance_AllFailedHasNoTotals(t *testing.T) {
	r := &model.PerformanceReport{Failures: []model.QuoteFailure{{Ticker: "X", Err: errors.New("boom")}}}
	out := FormatPerformance(r, "USD")
	assert.Contains(t, out, "Error fetching data for X: boom")
	assert.NotContains(t, out, "Cost basis")
}

func TestFormatHoldings(t *testing.T) {
	out := FormatHoldings([]model.Position{
		{Ticker: "AAPL", Shares: 10, PurchasePrice: 150},
		{Ticker: "MSFT", Shares: 2, PurchasePrice: 300},
	}, "USD")
	assert.Contains(t, out, "AAPL      10        150.00         $1,500.00")
	assert.Contains(t, out, "Total cost basis: $2,100.00")

	assert.Equal(t, "Your portfolio is empty.\n", FormatHoldings(nil, "USD"))
}

func TestPreformatted_Escapes(t *testing.T) {
	assert.Equal(t, "<b>P&amp;L</b>\n<pre>a &lt; b</pre>", Preformatted("P&L", "a < b"))
}

func newTestNotifier(srv *httptest.Server) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	n.BaseBackoff = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).SendWithRetry(context.Background(), "hi", 3))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier(srv).SendWithRetry(context.Background(), "hi", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestPollOnce(t *testing.T) {
	var replies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			assert.Equal(t, "7", r.URL.Query().Get("offset"))
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /report "}},
				{"update_id":8},
				{"update_id":9,"message":{"text":"/quiet"}}]}`))
		case "/botTOKEN/sendMessage":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			replies = append(replies, body["text"])
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	var seen []string
	handler := func(cmd string) string {
		seen = append(seen, cmd)
		if cmd == "/report" {
			return "report!"
		}
		return ""
	}

	next, err := newTestNotifier(srv).PollOnce(context.Background(), srv.Client(), 7, 0, handler)
	require.NoError(t, err)
	assert.Equal(t, 10, next)
	assert.Equal(t, []string{"/report", "/quiet"}, seen)
	assert.Equal(t, []string{"report!"}, replies)
}

func TestPollOnce_NotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	next, err := newTestNotifier(srv).PollOnce(context.Background(), srv.Client(), 3, 0, func(string) string { return "" })
	assert.Error(t, err)
	assert.Equal(t, 3, next)
}
