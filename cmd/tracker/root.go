package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"StockTracker/internal/config"
	"StockTracker/internal/logging"
	"StockTracker/internal/portfolio"
	"StockTracker/internal/quote"
)

var (
	cfgFile  string
	logLevel string
)

// app holds what every command needs once the root pre-run has succeeded.
var app struct {
	cfg    *config.Config
	store  *portfolio.Store
	quotes quote.Provider
}

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Track stock holdings and their unrealized profit/loss",
	Long: `tracker keeps a local portfolio of stock positions and reports
unrealized profit/loss against current market prices.

Without a subcommand it starts the interactive menu.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp()
	},
	RunE: runMenu,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $TRACKER_CONFIG or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level: trace, debug, info, warn, error")

	rootCmd.AddCommand(menuCmd, addCmd, removeCmd, listCmd, reportCmd, watchCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("TRACKER_CONFIG"); v != "" {
		return v
	}
	return config.DefaultPath
}

func initApp() error {
	// .env is optional, the environment alone is enough
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	logging.Config{Level: cfg.Log.Level, JSON: cfg.Log.Format == "json"}.Set()

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	store, err := portfolio.Open(backend, portfolio.WithQuoteTimeout(cfg.QuoteTimeout()))
	if err != nil {
		backend.Close()
		return err
	}

	app.cfg = cfg
	app.store = store
	app.quotes = newQuoteProvider(cfg)
	log.WithFields(log.Fields{
		"backend":   backend.Name(),
		"quotes":    app.quotes.Name(),
		"positions": len(store.Positions()),
	}).Debug("tracker ready")
	return nil
}

// closeApp releases the store. cobra skips post-run hooks when a command
// fails, so main calls this after every run.
func closeApp() {
	if app.store == nil {
		return
	}
	if err := app.store.Close(); err != nil {
		log.WithError(err).Warn("close portfolio store")
	}
	app.store = nil
}

func openBackend(cfg *config.Config) (portfolio.Backend, error) {
	if cfg.Portfolio.Backend == "sqlite" {
		return portfolio.NewSQLiteBackend(cfg.Portfolio.SQLitePath)
	}
	return portfolio.NewFileBackend(cfg.Portfolio.File), nil
}

func newQuoteProvider(cfg *config.Config) quote.Provider {
	if cfg.Quote.Provider == "static" {
		return quote.NewStaticProvider(cfg.Quote.StaticPrices)
	}
	return quote.NewYahooProvider(cfg.Proxy, cfg.QuoteTimeout())
}
