package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"StockTracker/internal/cli"
	"StockTracker/internal/notifier"
	"StockTracker/internal/scheduler"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive add/remove/report menu",
	Args:  cobra.NoArgs,
	RunE:  runMenu,
}

func runMenu(cmd *cobra.Command, args []string) error {
	m := &cli.Menu{
		Store:    app.store,
		Quotes:   app.quotes,
		Currency: app.cfg.Report.Currency,
		In:       cmd.InOrStdin(),
		Out:      cmd.OutOrStdout(),
	}
	return m.Run(cmd.Context())
}

var addCmd = &cobra.Command{
	Use:   "add TICKER SHARES PRICE",
	Short: "Add shares bought at PRICE per share",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		shares, err := cli.ParseShares(args[1])
		if err != nil {
			return err
		}
		price, err := cli.ParsePrice(args[2])
		if err != nil {
			return err
		}
		return cli.Add(app.store, cmd.OutOrStdout(), args[0], shares, price)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove TICKER",
	Short: "Remove a position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Remove(app.store, cmd.OutOrStdout(), args[0])
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List positions and cost basis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), notifier.FormatHoldings(app.store.Positions(), app.cfg.Report.Currency))
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show unrealized profit/loss at current prices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report := app.store.Performance(cmd.Context(), app.quotes)
		fmt.Fprint(cmd.OutOrStdout(), notifier.FormatPerformance(report, app.cfg.Report.Currency))
		return nil
	},
}

var runNow bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Send scheduled reports to Telegram and answer chat commands",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&runNow, "now", false, "send a report immediately on start")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := app.cfg
	if err := cfg.ValidateTelegram(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	sched := scheduler.NewScheduler(ctx, app.store, app.quotes, tn, cfg.Report.Currency)
	if err := sched.Register(cfg.Schedule.ReportCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info("telegram polling started")

	if runNow || os.Getenv("RUN_ON_START") == "true" {
		go sched.RunReportNow()
	}

	log.WithField("cron", cfg.Schedule.ReportCron).Info("tracker is watching, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info("shutdown signal received, stopping")
	return nil
}
