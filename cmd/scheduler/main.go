package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/emi-ledger/internal/config"
	"github.com/segyhp/emi-ledger/internal/logger"
	"github.com/segyhp/emi-ledger/internal/notify"
	"github.com/segyhp/emi-ledger/internal/repository"
	"github.com/segyhp/emi-ledger/internal/service"
)

// sweepTimeout bounds a single sweep run
const sweepTimeout = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(cfg.Logging)
	log.Info("Starting EMI scheduler...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.URL, repository.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	cancel()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	sweeps := service.NewSweepService(
		repository.NewPurchaseRepository(db),
		repository.NewCustomerRepository(db),
		notify.New(cfg.Notification, log),
		cfg,
		log,
	)

	// Initialize cron scheduler in the shop's timezone
	loc := cfg.GetLocation()
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	// Schedule tasks
	if err := setupCronJobs(c, cfg, sweeps, loc, log); err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}

	// Start the scheduler
	c.Start()
	log.Info("Scheduler started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	log.Info("Scheduler stopped")
}

type sweepFunc func(ctx context.Context, today time.Time) (*service.SweepReport, error)

func setupCronJobs(c *cron.Cron, cfg *config.Config, sweeps *service.SweepService, loc *time.Location, log *logrus.Logger) error {
	// Daily reminder for installments due in the next few days
	if _, err := c.AddFunc(cfg.Scheduler.ReminderCron, runSweep(sweeps.SendDueReminders, loc, log)); err != nil {
		return err
	}

	// Daily notice for installments past the grace period
	if _, err := c.AddFunc(cfg.Scheduler.OverdueCron, runSweep(sweeps.SendOverdueNotices, loc, log)); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"reminder_cron": cfg.Scheduler.ReminderCron,
		"overdue_cron":  cfg.Scheduler.OverdueCron,
		"timezone":      loc.String(),
	}).Info("Cron jobs scheduled successfully")
	return nil
}

func runSweep(sweep sweepFunc, loc *time.Location, log *logrus.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		report, err := sweep(ctx, time.Now().In(loc))
		if err != nil {
			log.WithError(err).Error("Sweep failed")
			return
		}
		log.WithFields(logrus.Fields{
			"job":      report.Job,
			"scanned":  report.Scanned,
			"notified": report.Notified,
			"failed":   report.Failed,
		}).Info("Sweep completed")
	}
}
