package scheduler

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"StockTracker/internal/notifier"
	"StockTracker/internal/portfolio"
)

// Scheduler runs periodic performance reports and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Store    *portfolio.Store
	Quotes   portfolio.QuoteProvider
	Notifier notifier.Sender
	Currency string
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, store *portfolio.Store, quotes portfolio.QuoteProvider, n notifier.Sender, currency string) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Store:    store,
		Quotes:   quotes,
		Notifier: n,
		Currency: currency,
		Ctx:      ctx,
	}
}

// Register schedules the performance report.
func (s *Scheduler) Register(reportCron string) error {
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info("scheduler stopped")
}

// RunReportNow executes the report task immediately.
func (s *Scheduler) RunReportNow() {
	s.reportTask()
}

func (s *Scheduler) reportTask() {
	log.Info("running performance report")
	if msg, ok := s.reload("report"); !ok {
		s.trySend(msg)
		return
	}
	s.trySend(s.performanceMessage())
}

// reload picks up changes other CLI invocations made to the portfolio. On
// failure it returns the message to send instead of the reply.
func (s *Scheduler) reload(what string) (string, bool) {
	if err := s.Store.Reload(); err != nil {
		log.WithError(err).WithField("command", what).Error("reload portfolio")
		return html.EscapeString(fmt.Sprintf("Portfolio %s failed: %v", what, err)), false
	}
	return "", true
}

func (s *Scheduler) performanceMessage() string {
	report := s.Store.Performance(s.Ctx, s.Quotes)
	title := fmt.Sprintf("Portfolio performance | %s", time.Now().Format("2006-01-02"))
	return notifier.Preformatted(title, notifier.FormatPerformance(report, s.Currency))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/report":
		if msg, ok := s.reload("report"); !ok {
			return msg
		}
		return s.performanceMessage()
	case "/holdings":
		if msg, ok := s.reload("holdings"); !ok {
			return msg
		}
		return notifier.Preformatted("Holdings", notifier.FormatHoldings(s.Store.Positions(), s.Currency))
	default:
		return "Available commands:\n/report - current profit/loss\n/holdings - positions and cost basis"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.WithError(err).Error("send notification")
	}
}
