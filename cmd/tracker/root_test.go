package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) (cfgPath, statePath string) {
	t.Helper()
	dir := t.TempDir()
	statePath = filepath.Join(dir, "portfolio.json")
	cfgPath = filepath.Join(dir, "tracker.yaml")
	body := fmt.Sprintf(`portfolio:
  file: %s
quote:
  provider: static
  static_prices:
    AAPL: 120
log:
  level: error
`, statePath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0644))
	return cfgPath, statePath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	closeApp()
	return buf.String(), err
}

func TestTracker_AddListReportRemove(t *testing.T) {
	cfg, state := writeConfig(t)

	out, err := execute(t, "--config", cfg, "add", "aapl", "10", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Added AAPL to your portfolio.")
	assert.FileExists(t, state)

	out, err = execute(t, "--config", cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Total cost basis: $1,000.00")

	out, err = execute(t, "--config", cfg, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "AAPL      10        100.00         120.00         200.00")

	out, err = execute(t, "--config", cfg, "remove", "tsla")
	require.NoError(t, err)
	assert.Contains(t, out, "TSLA not found in your portfolio.")

	out, err = execute(t, "--config", cfg, "remove", "AAPL")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed AAPL from your portfolio.")
}

func TestTracker_AddRejectsBadShares(t *testing.T) {
	cfg, state := writeConfig(t)

	_, err := execute(t, "--config", cfg, "add", "AAPL", "ten", "100")
	assert.Error(t, err)
	assert.NoFileExists(t, state)
}

func TestTracker_CorruptStateStops(t *testing.T) {
	cfg, state := writeConfig(t)
	require.NoError(t, os.WriteFile(state, []byte(`{"AAPL": []}`), 0644))

	_, err := execute(t, "--config", cfg, "add", "MSFT", "1", "1")
	assert.Error(t, err)

	data, err := os.ReadFile(state)
	require.NoError(t, err)
	assert.Equal(t, `{"AAPL": []}`, string(data))
}

func writeSQLiteConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tracker.yaml")
	body := fmt.Sprintf(`portfolio:
  backend: sqlite
  sqlite_path: %s
quote:
  provider: static
  static_prices:
    AAPL: 120
log:
  level: error
`, filepath.Join(dir, "portfolio.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0644))
	return cfgPath
}

func TestTracker_FailedCommandClosesStore(t *testing.T) {
	cfg := writeSQLiteConfig(t)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"--config", cfg, "add", "AAPL", "ten", "100"})
	require.Error(t, rootCmd.Execute())
	require.NotNil(t, app.store)

	closeApp()
	assert.Nil(t, app.store)

	out, err := execute(t, "--config", cfg, "add", "AAPL", "2", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Added AAPL to your portfolio.")
}
