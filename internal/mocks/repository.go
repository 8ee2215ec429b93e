package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/emi-ledger/internal/domain"
)

type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) CreateWithSchedule(ctx context.Context, purchase *domain.Purchase, schedule []*domain.Installment) error {
	args := m.Called(ctx, purchase, schedule)
	return args.Error(0)
}

func (m *MockPurchaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) ListByStatus(ctx context.Context, status string) ([]*domain.Purchase, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockPurchaseRepository) GetSchedule(ctx context.Context, purchaseID uuid.UUID) ([]*domain.Installment, error) {
	args := m.Called(ctx, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Installment), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) RecordPayment(ctx context.Context, installment *domain.Installment, payment *domain.PaymentEvent, markCompleted bool) (bool, error) {
	args := m.Called(ctx, installment, payment, markCompleted)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) ([]*domain.PaymentEvent, error) {
	args := m.Called(ctx, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PaymentEvent), args.Error(1)
}

func (m *MockPaymentRepository) GetTotalPaid(ctx context.Context, purchaseID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, purchaseID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

type MockCertificateRepository struct {
	mock.Mock
}

func (m *MockCertificateRepository) Create(ctx context.Context, certificate *domain.Certificate) error {
	args := m.Called(ctx, certificate)
	return args.Error(0)
}

func (m *MockCertificateRepository) GetByPurchaseID(ctx context.Context, purchaseID uuid.UUID) (*domain.Certificate, error) {
	args := m.Called(ctx, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Certificate), args.Error(1)
}
