package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/emi-ledger/internal/cache"
	"github.com/segyhp/emi-ledger/internal/config"
	"github.com/segyhp/emi-ledger/internal/domain"
	"github.com/segyhp/emi-ledger/internal/ledger"
	"github.com/segyhp/emi-ledger/internal/repository"
	customError "github.com/segyhp/emi-ledger/pkg/errors"
	"github.com/segyhp/emi-ledger/pkg/utils"
)

type PurchaseService struct {
	PurchaseRepo repository.PurchaseRepository
	cache        cache.ScheduleCache
	config       *config.Config
	logger       *logrus.Logger
	now          Clock
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	scheduleCache cache.ScheduleCache,
	config *config.Config,
	logger *logrus.Logger,
) *PurchaseService {
	return &PurchaseService{
		PurchaseRepo: purchaseRepo,
		cache:        scheduleCache,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

// CreatePurchase finances a purchase and persists it with its full schedule
func (s *PurchaseService) CreatePurchase(ctx context.Context, request *domain.CreatePurchaseRequest) (*domain.CreatePurchaseResponse, error) {
	// 1. Resolve the annual rate, falling back to the shop default
	rate := s.config.GetDefaultInterestRate()
	if request.InterestRate != nil {
		rate = *request.InterestRate
	}

	// 2. Financed amount: price net of down payment plus itemized charges
	loanAmount, err := ledger.LoanAmount(request.TotalPrice, request.DownPayment, request.Charges.List()...)
	if err != nil {
		return nil, err
	}

	installmentAmount, err := ledger.ComputeInstallmentAmount(loanAmount, rate, request.Tenure)
	if err != nil {
		return nil, err
	}

	// 3. Build the purchase and its schedule
	startDate := today(s.now, s.config.GetLocation())
	if request.StartDate != nil {
		startDate = request.StartDate.Time
	}

	now := s.now().UTC()
	purchase := &domain.Purchase{
		ID:                uuid.New(),
		CustomerID:        request.CustomerID,
		ProductName:       request.ProductName,
		TotalPrice:        request.TotalPrice,
		DownPayment:       request.DownPayment,
		Charges:           request.Charges,
		LoanAmount:        loanAmount,
		Tenure:            request.Tenure,
		InterestRate:      rate,
		InstallmentAmount: installmentAmount,
		StartDate:         utils.DateOnly(startDate),
		Status:            domain.PurchaseStatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	schedule, err := ledger.GenerateSchedule(ledger.ScheduleParams{
		PurchaseID:        purchase.ID,
		LoanAmount:        loanAmount,
		InstallmentAmount: installmentAmount,
		AnnualRatePercent: rate,
		Tenure:            request.Tenure,
		StartDate:         purchase.StartDate,
		Rounding:          s.config.GetScheduleRounding(),
	})
	if err != nil {
		return nil, err
	}
	for _, inst := range schedule {
		inst.CreatedAt = now
	}

	// 4. Purchase and schedule are stored in one transaction
	if err := s.PurchaseRepo.CreateWithSchedule(ctx, purchase, schedule); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	// A new purchase has never been invalidated
	s.cacheSchedule(ctx, purchase.ID, 0, schedule)

	s.logger.WithFields(logrus.Fields{
		"purchase_id":        purchase.ID,
		"customer_id":        purchase.CustomerID,
		"loan_amount":        loanAmount.String(),
		"installment_amount": installmentAmount.String(),
		"tenure":             purchase.Tenure,
	}).Info("Purchase created")

	return &domain.CreatePurchaseResponse{Purchase: purchase, Schedule: schedule}, nil
}

// Quote previews an EMI and its schedule without persisting anything
func (s *PurchaseService) Quote(_ context.Context, request *domain.QuoteRequest) (*domain.QuoteResponse, error) {
	installmentAmount, err := ledger.ComputeInstallmentAmount(request.Principal, request.InterestRate, request.Tenure)
	if err != nil {
		return nil, err
	}

	startDate := today(s.now, s.config.GetLocation())
	if request.StartDate != nil {
		startDate = request.StartDate.Time
	}

	schedule, err := ledger.GenerateSchedule(ledger.ScheduleParams{
		LoanAmount:        request.Principal,
		InstallmentAmount: installmentAmount,
		AnnualRatePercent: request.InterestRate,
		Tenure:            request.Tenure,
		StartDate:         startDate,
		Rounding:          s.config.GetScheduleRounding(),
	})
	if err != nil {
		return nil, err
	}

	totals := make([]decimal.Decimal, 0, len(schedule))
	for _, inst := range schedule {
		totals = append(totals, inst.TotalAmount)
	}
	totalPayable := utils.SumMoney(totals...)

	return &domain.QuoteResponse{
		InstallmentAmount: installmentAmount,
		TotalPayable:      totalPayable,
		TotalInterest:     totalPayable.Sub(request.Principal),
		Schedule:          schedule,
	}, nil
}

func (s *PurchaseService) GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	return getPurchase(ctx, s.PurchaseRepo, id)
}

// UpdateStatus marks a purchase defaulted or active again. Completion is reached only
// by paying the last installment, so a completed purchase keeps its status.
func (s *PurchaseService) UpdateStatus(ctx context.Context, id uuid.UUID, request *domain.UpdateStatusRequest) (*domain.Purchase, error) {
	if request.Status != domain.PurchaseStatusActive && request.Status != domain.PurchaseStatusDefaulted {
		return nil, customError.WrapInvalidInput("status must be active or defaulted, got %q", request.Status)
	}

	purchase, err := getPurchase(ctx, s.PurchaseRepo, id)
	if err != nil {
		return nil, err
	}
	if purchase.IsCompleted() {
		return nil, customError.WrapPurchaseCompleted(id.String())
	}

	if err := s.PurchaseRepo.UpdateStatus(ctx, id, request.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Completed between the read and the update
			return nil, customError.WrapPurchaseCompleted(id.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"purchase_id": id,
		"from":        purchase.Status,
		"to":          request.Status,
	}).Info("Purchase status changed")

	purchase.Status = request.Status
	return purchase, nil
}

// GetSchedule returns the schedule as seen on the given day, with live late fees
func (s *PurchaseService) GetSchedule(ctx context.Context, id uuid.UUID, on time.Time) (*domain.ScheduleResponse, error) {
	schedule, err := s.loadSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.ScheduleResponse{
		PurchaseID: id,
		Schedule:   ledger.ViewSchedule(schedule, on, s.config.GetLateFeePerDay()),
	}, nil
}

// GetSummary derives the ledger state of a purchase on the given day
func (s *PurchaseService) GetSummary(ctx context.Context, id uuid.UUID, on time.Time) (*domain.PurchaseSummary, error) {
	purchase, err := getPurchase(ctx, s.PurchaseRepo, id)
	if err != nil {
		return nil, err
	}

	schedule, err := s.loadSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	return ledger.Summarize(purchase, schedule, on, s.config.GetLateFeePerDay()), nil
}

// loadSchedule reads through the cache; a cache outage falls back to the database
func (s *PurchaseService) loadSchedule(ctx context.Context, id uuid.UUID) ([]*domain.Installment, error) {
	schedule, ok, err := s.cache.GetSchedule(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("purchase_id", id).Warn("Schedule cache read failed")
	}
	if ok {
		return schedule, nil
	}

	// The version is read before the database so a payment committed meanwhile
	// keeps this snapshot out of the cache
	version, versionErr := s.cache.Version(ctx, id)
	if versionErr != nil {
		s.logger.WithError(versionErr).WithField("purchase_id", id).Warn("Schedule cache version read failed")
	}

	schedule, err = s.PurchaseRepo.GetSchedule(ctx, id)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if len(schedule) == 0 {
		// Every stored purchase has at least one installment
		return nil, customError.WrapPurchaseNotFound(id.String())
	}

	if versionErr == nil {
		s.cacheSchedule(ctx, id, version, schedule)
	}
	return schedule, nil
}

func (s *PurchaseService) cacheSchedule(ctx context.Context, id uuid.UUID, version int64, schedule []*domain.Installment) {
	if err := s.cache.SetSchedule(ctx, id, version, schedule); err != nil {
		s.logger.WithError(err).WithField("purchase_id", id).Warn("Schedule cache write failed")
	}
}
