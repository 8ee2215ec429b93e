package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/segyhp/emi-ledger/internal/config"
	"github.com/segyhp/emi-ledger/internal/domain"
	"github.com/segyhp/emi-ledger/internal/ledger"
	"github.com/segyhp/emi-ledger/internal/notify"
	"github.com/segyhp/emi-ledger/internal/repository"
	customError "github.com/segyhp/emi-ledger/pkg/errors"
)

const (
	JobDueReminders  = "due_reminders"
	JobOverdueNotice = "overdue_notices"
)

// SweepReport summarises one run of a notification sweep
type SweepReport struct {
	Job      string `json:"job"`
	Scanned  int    `json:"scanned"`
	Notified int    `json:"notified"`
	Failed   int    `json:"failed"`
}

// SweepService scans open purchases and notifies customers. It never changes ledger state.
type SweepService struct {
	PurchaseRepo repository.PurchaseRepository
	CustomerRepo repository.CustomerRepository
	notifier     notify.Notifier
	templates    *notify.Templates
	config       *config.Config
	logger       *logrus.Logger
}

func NewSweepService(
	purchaseRepo repository.PurchaseRepository,
	customerRepo repository.CustomerRepository,
	notifier notify.Notifier,
	config *config.Config,
	logger *logrus.Logger,
) *SweepService {
	return &SweepService{
		PurchaseRepo: purchaseRepo,
		CustomerRepo: customerRepo,
		notifier:     notifier,
		templates:    notify.NewTemplates(config.Business.ShopName),
		config:       config,
		logger:       logger,
	}
}

// SendDueReminders reminds customers of installments due within the reminder window
func (s *SweepService) SendDueReminders(ctx context.Context, today time.Time) (*SweepReport, error) {
	until := today.AddDate(0, 0, s.config.Business.ReminderDaysAhead)

	return s.sweep(ctx, JobDueReminders, []string{domain.PurchaseStatusActive},
		func(schedule []*domain.Installment) []*domain.Installment {
			return ledger.DueBetween(schedule, today, until)
		},
		func(customer *domain.Customer, inst *domain.Installment) notify.Message {
			return s.templates.Reminder(customer, inst.TotalAmount, inst.DueDate)
		},
	)
}

// SendOverdueNotices tells customers about installments past the grace period and the fee accrued so far
func (s *SweepService) SendOverdueNotices(ctx context.Context, today time.Time) (*SweepReport, error) {
	feePerDay := s.config.GetLateFeePerDay()

	return s.sweep(ctx, JobOverdueNotice, []string{domain.PurchaseStatusActive, domain.PurchaseStatusDefaulted},
		func(schedule []*domain.Installment) []*domain.Installment {
			return ledger.Overdue(schedule, today)
		},
		func(customer *domain.Customer, inst *domain.Installment) notify.Message {
			fee := ledger.ComputeLateFee(inst.DueDate, today, feePerDay)
			return s.templates.LateFee(customer, inst.TotalAmount, fee.Fee)
		},
	)
}

func (s *SweepService) sweep(
	ctx context.Context,
	job string,
	statuses []string,
	selectDue func([]*domain.Installment) []*domain.Installment,
	render func(*domain.Customer, *domain.Installment) notify.Message,
) (*SweepReport, error) {
	report := &SweepReport{Job: job}
	log := s.logger.WithField("job", job)

	var purchases []*domain.Purchase
	for _, status := range statuses {
		found, err := s.PurchaseRepo.ListByStatus(ctx, status)
		if err != nil {
			return report, customError.WrapDatabaseError(err)
		}
		purchases = append(purchases, found...)
	}

	customers := make(map[string]*domain.Customer)
	for _, purchase := range purchases {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		plog := log.WithField("purchase_id", purchase.ID)

		schedule, err := s.PurchaseRepo.GetSchedule(ctx, purchase.ID)
		if err != nil {
			plog.WithError(err).Error("Failed to load schedule")
			continue
		}

		due := selectDue(schedule)
		if len(due) == 0 {
			continue
		}
		report.Scanned += len(due)

		customer, ok := customers[purchase.CustomerID]
		if !ok {
			customer, err = customerFor(ctx, s.CustomerRepo, purchase.CustomerID, s.logger)
			if err != nil {
				plog.WithError(err).Error("Failed to load customer")
				report.Failed += len(due)
				continue
			}
			customers[purchase.CustomerID] = customer
		}

		for _, inst := range due {
			if err := s.notifier.Send(ctx, render(customer, inst)); err != nil {
				plog.WithError(err).WithField("sequence", inst.Sequence).Warn("Notification not delivered")
				report.Failed++
				continue
			}
			report.Notified++
		}
	}

	log.WithFields(logrus.Fields{
		"purchases": len(purchases),
		"scanned":   report.Scanned,
		"notified":  report.Notified,
		"failed":    report.Failed,
	}).Info("Sweep finished")

	return report, nil
}
