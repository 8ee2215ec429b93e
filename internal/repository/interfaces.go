package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/emi-ledger/internal/domain"
)

// PurchaseRepository defines the interface for purchase and schedule data operations
type PurchaseRepository interface {
	// CreateWithSchedule stores a purchase and all of its installments in one transaction
	CreateWithSchedule(ctx context.Context, purchase *domain.Purchase, schedule []*domain.Installment) error

	// GetByID retrieves a purchase; sql.ErrNoRows when it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error)

	// ListByStatus retrieves purchases in the given lifecycle status
	ListByStatus(ctx context.Context, status string) ([]*domain.Purchase, error)

	// UpdateStatus sets the lifecycle status of a purchase that is not completed;
	// sql.ErrNoRows when no such purchase exists
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	// GetSchedule retrieves the installments of a purchase ordered by sequence
	GetSchedule(ctx context.Context, purchaseID uuid.UUID) ([]*domain.Installment, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// RecordPayment commits a paid installment and its payment event atomically.
	// The installment update only applies while it is still unpaid, otherwise
	// ErrConcurrentUpdate is returned and nothing is written. When markCompleted is
	// set the purchase is moved to completed in the same transaction; completed reports
	// whether this call performed that transition.
	RecordPayment(ctx context.Context, installment *domain.Installment, payment *domain.PaymentEvent, markCompleted bool) (completed bool, err error)

	// GetByPurchaseID retrieves all payments for a purchase
	GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) ([]*domain.PaymentEvent, error)

	// GetTotalPaid sums installment amounts and late fees collected for a purchase
	GetTotalPaid(ctx context.Context, purchaseID uuid.UUID) (decimal.Decimal, error)
}

// CustomerRepository gives read access to customer contact data
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

// CertificateRepository stores issued completion certificates
type CertificateRepository interface {
	Create(ctx context.Context, certificate *domain.Certificate) error
	// GetByPurchaseID returns sql.ErrNoRows when no certificate was issued yet
	GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*domain.Certificate, error)
}
