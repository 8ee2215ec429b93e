package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/emi-ledger/internal/cache"
	"github.com/segyhp/emi-ledger/internal/certificate"
	"github.com/segyhp/emi-ledger/internal/config"
	"github.com/segyhp/emi-ledger/internal/domain"
	"github.com/segyhp/emi-ledger/internal/ledger"
	"github.com/segyhp/emi-ledger/internal/notify"
	"github.com/segyhp/emi-ledger/internal/repository"
	customError "github.com/segyhp/emi-ledger/pkg/errors"
)

type PaymentService struct {
	PurchaseRepo repository.PurchaseRepository
	PaymentRepo  repository.PaymentRepository
	CustomerRepo repository.CustomerRepository
	issuer       certificate.Issuer
	notifier     notify.Notifier
	templates    *notify.Templates
	cache        cache.ScheduleCache
	locker       cache.Locker
	config       *config.Config
	logger       *logrus.Logger
	now          Clock
}

func NewPaymentService(
	purchaseRepo repository.PurchaseRepository,
	paymentRepo repository.PaymentRepository,
	customerRepo repository.CustomerRepository,
	issuer certificate.Issuer,
	notifier notify.Notifier,
	scheduleCache cache.ScheduleCache,
	locker cache.Locker,
	config *config.Config,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		PurchaseRepo: purchaseRepo,
		PaymentRepo:  paymentRepo,
		CustomerRepo: customerRepo,
		issuer:       issuer,
		notifier:     notifier,
		templates:    notify.NewTemplates(config.Business.ShopName),
		cache:        scheduleCache,
		locker:       locker,
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

// PayInstallment records the payment of installment seq of a purchase.
// Installments are paid strictly in order and each at most once.
func (s *PaymentService) PayInstallment(ctx context.Context, purchaseID uuid.UUID, seq int, request *domain.MakePaymentRequest) (*domain.MakePaymentResponse, error) {
	log := s.logger.WithFields(logrus.Fields{
		"purchase_id": purchaseID,
		"sequence":    seq,
	})

	// 1. One payment per purchase at a time
	release, err := s.locker.Acquire(ctx, cache.PurchaseLockKey(purchaseID))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to release payment lock")
		}
	}()

	// 2. Read the purchase and its authoritative schedule
	purchase, err := getPurchase(ctx, s.PurchaseRepo, purchaseID)
	if err != nil {
		return nil, err
	}

	schedule, err := s.PurchaseRepo.GetSchedule(ctx, purchaseID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	// 3. Apply the payment to the ledger
	paymentDate := today(s.now, s.config.GetLocation())
	method := ""
	if request != nil {
		if request.PaymentDate != nil {
			paymentDate = request.PaymentDate.Time
		}
		method = request.Method
	}

	result, err := ledger.ApplyPayment(schedule, seq, paymentDate, s.config.GetLateFeePerDay(), method)
	if err != nil {
		log.WithError(err).Info("Payment rejected")
		return nil, err
	}
	result.Payment.CreatedAt = s.now().UTC()

	// 4. Persist installment, payment and completion together
	completion := ledger.CheckCompletion(purchase.Status, result.Schedule)

	completed, err := s.PaymentRepo.RecordPayment(ctx, result.Installment, result.Payment, completion.JustCompleted)
	if err != nil {
		var be *customError.BusinessError
		if errors.As(err, &be) {
			return nil, err
		}
		return nil, customError.WrapDatabaseError(err)
	}

	s.invalidateSchedule(ctx, purchaseID, log)

	log.WithFields(logrus.Fields{
		"amount":   result.Payment.AmountPaid.String(),
		"late_fee": result.Payment.LateFeePaid.String(),
		"method":   result.Payment.Method,
	}).Info("Installment paid")

	response := &domain.MakePaymentResponse{
		Installment:    result.Installment,
		Payment:        result.Payment,
		RemainingCount: completion.RemainingCount,
		PurchaseStatus: purchase.Status,
	}

	customer, err := customerFor(ctx, s.CustomerRepo, purchase.CustomerID, s.logger)
	if err != nil {
		log.WithError(err).Warn("Skipping payment notification")
	}

	// 5. Completion fires once: only the call that moved the purchase to completed issues the NOC
	if completed {
		response.PurchaseStatus = domain.PurchaseStatusCompleted
		purchase.Status = domain.PurchaseStatusCompleted

		cert, err := s.issuer.Issue(ctx, purchase)
		if err != nil {
			log.WithError(err).Error("Failed to issue NOC; it is issued on the next certificate request")
		} else {
			response.CertificateNo = cert.Number
			log.WithField("certificate_no", cert.Number).Info("Purchase completed")
		}

		if customer != nil {
			s.send(ctx, s.templates.NOC(customer, purchase.ProductName, response.CertificateNo), log)
		}
		return response, nil
	}

	if customer != nil {
		s.send(ctx, s.templates.PaymentConfirmation(customer, result.Payment.Total(), seq, completion.RemainingCount), log)
	}

	return response, nil
}

// GetPayments lists the payments recorded for a purchase in installment order
func (s *PaymentService) GetPayments(ctx context.Context, purchaseID uuid.UUID) (*domain.PaymentHistoryResponse, error) {
	if _, err := getPurchase(ctx, s.PurchaseRepo, purchaseID); err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.GetByPurchaseID(ctx, purchaseID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	total, err := s.PaymentRepo.GetTotalPaid(ctx, purchaseID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	if payments == nil {
		payments = []*domain.PaymentEvent{}
	}

	return &domain.PaymentHistoryResponse{
		PurchaseID:     purchaseID,
		Payments:       payments,
		TotalCollected: total,
	}, nil
}

// GetCertificate returns the NOC of a completed purchase. If issuing failed when the
// last installment was paid, the certificate is issued now.
func (s *PaymentService) GetCertificate(ctx context.Context, purchaseID uuid.UUID) (*domain.Certificate, error) {
	purchase, err := getPurchase(ctx, s.PurchaseRepo, purchaseID)
	if err != nil {
		return nil, err
	}

	if !purchase.IsCompleted() {
		return nil, customError.WrapCertificateNotAvailable(purchaseID.String(), purchase.Status)
	}

	cert, err := s.issuer.Issue(ctx, purchase)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return cert, nil
}

func (s *PaymentService) send(ctx context.Context, msg notify.Message, log *logrus.Entry) {
	if err := s.notifier.Send(ctx, msg); err != nil {
		log.WithError(err).WithField("kind", msg.Kind).Warn("Notification not delivered")
	}
}

func (s *PaymentService) invalidateSchedule(ctx context.Context, purchaseID uuid.UUID, log *logrus.Entry) {
	if err := s.cache.Invalidate(ctx, purchaseID); err != nil {
		log.WithError(err).Warn("Failed to invalidate schedule cache")
	}
}
