package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockTracker/internal/model"
)

func samplePortfolio() *model.Portfolio {
	p := model.NewPortfolio()
	p.Set(model.Position{Ticker: "MSFT", Shares: 3, PurchasePrice: 310.25})
	p.Set(model.Position{Ticker: "AAPL", Shares: 10, PurchasePrice: 150})
	p.Set(model.Position{Ticker: "GOOG", Shares: 0, PurchasePrice: 0})
	return p
}

func TestFileBackend_MissingFileIsEmpty(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "portfolio.json"))
	p, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, p.Len())
}

func TestFileBackend_RoundTrip(t *testing.T) {
	b := NewFileBackend(filepath.Join(t.TempDir(), "nested", "portfolio.json"))
	want := samplePortfolio()
	require.NoError(t, b.Save(want))

	got, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Positions(), got.Positions())
}

func TestFileBackend_SaveIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	b := NewFileBackend(path)

	require.NoError(t, b.Save(samplePortfolio()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	p, err := b.Load()
	require.NoError(t, err)
	require.NoError(t, b.Save(p))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFileBackend_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	b := NewFileBackend(filepath.Join(dir, "portfolio.json"))
	require.NoError(t, b.Save(samplePortfolio()))
	require.NoError(t, b.Save(model.NewPortfolio()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "portfolio.json", entries[0].Name())
}

func TestFileBackend_SaveCreatesMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "portfolio.json")
	b := NewFileBackend(path)
	require.NoError(t, b.Save(samplePortfolio()))

	got, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, samplePortfolio().Positions(), got.Positions())
}

func TestSyncDir(t *testing.T) {
	assert.NoError(t, syncDir(t.TempDir()))
	assert.Error(t, syncDir(filepath.Join(t.TempDir(), "missing")))
}

func TestEncodeState_Layout(t *testing.T) {
	p := model.NewPortfolio()
	p.Set(model.Position{Ticker: "AAPL", Shares: 10, PurchasePrice: 150.5})

	data, err := EncodeState(p)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"AAPL\": {\n        \"shares\": 10,\n        \"purchase_price\": 150.5\n    }\n}\n", string(data))

	empty, err := EncodeState(model.NewPortfolio())
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(empty))
}

func TestDecodeState_PreservesOrderAndNormalizes(t *testing.T) {
	p, err := DecodeState([]byte(`{"tsla": {"shares": 1, "purchase_price": 200},
		"AAPL": {"purchase_price": 150.0, "shares": 10}}`))
	require.NoError(t, err)

	got := p.Positions()
	require.Len(t, got, 2)
	assert.Equal(t, model.Position{Ticker: "TSLA", Shares: 1, PurchasePrice: 200}, got[0])
	assert.Equal(t, model.Position{Ticker: "AAPL", Shares: 10, PurchasePrice: 150}, got[1])
}

func TestDecodeState_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty file":         ``,
		"not json":           `hello`,
		"array":              `[]`,
		"truncated":          `{"AAPL": {"shares": 1,`,
		"value not object":   `{"AAPL": 5}`,
		"null value":         `{"AAPL": null}`,
		"fractional shares":  `{"AAPL": {"shares": 1.5, "purchase_price": 1}}`,
		"string price":       `{"AAPL": {"shares": 1, "purchase_price": "1"}}`,
		"missing shares":     `{"AAPL": {"purchase_price": 1}}`,
		"missing price":      `{"AAPL": {"shares": 1}}`,
		"unknown field":      `{"AAPL": {"shares": 1, "purchase_price": 1, "note": "x"}}`,
		"negative shares":    `{"AAPL": {"shares": -1, "purchase_price": 1}}`,
		"negative price":     `{"AAPL": {"shares": 1, "purchase_price": -1}}`,
		"blank ticker":       `{" ": {"shares": 1, "purchase_price": 1}}`,
		"duplicate by case":  `{"aapl": {"shares": 1, "purchase_price": 1}, "AAPL": {"shares": 2, "purchase_price": 2}}`,
		"trailing garbage":   `{} {}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeState([]byte(input))
			assert.ErrorIs(t, err, ErrStateUnreadable)
		})
	}
}

func TestFileBackend_LoadMalformedIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"AAPL": "ten"}`), 0644))

	_, err := NewFileBackend(path).Load()
	assert.ErrorIs(t, err, ErrStateUnreadable)
}
