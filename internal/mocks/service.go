package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/emi-ledger/internal/domain"
)

type MockPurchaseService struct {
	mock.Mock
}

func (m *MockPurchaseService) CreatePurchase(ctx context.Context, request *domain.CreatePurchaseRequest) (*domain.CreatePurchaseResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CreatePurchaseResponse), args.Error(1)
}

func (m *MockPurchaseService) Quote(ctx context.Context, request *domain.QuoteRequest) (*domain.QuoteResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteResponse), args.Error(1)
}

func (m *MockPurchaseService) GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Purchase), args.Error(1)
}

func (m *MockPurchaseService) GetSchedule(ctx context.Context, id uuid.UUID, on time.Time) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, id, on)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockPurchaseService) GetSummary(ctx context.Context, id uuid.UUID, on time.Time) (*domain.PurchaseSummary, error) {
	args := m.Called(ctx, id, on)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PurchaseSummary), args.Error(1)
}

func (m *MockPurchaseService) UpdateStatus(ctx context.Context, id uuid.UUID, request *domain.UpdateStatusRequest) (*domain.Purchase, error) {
	args := m.Called(ctx, id, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Purchase), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) PayInstallment(ctx context.Context, purchaseID uuid.UUID, seq int, request *domain.MakePaymentRequest) (*domain.MakePaymentResponse, error) {
	args := m.Called(ctx, purchaseID, seq, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MakePaymentResponse), args.Error(1)
}

func (m *MockPaymentService) GetPayments(ctx context.Context, purchaseID uuid.UUID) (*domain.PaymentHistoryResponse, error) {
	args := m.Called(ctx, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentHistoryResponse), args.Error(1)
}

func (m *MockPaymentService) GetCertificate(ctx context.Context, purchaseID uuid.UUID) (*domain.Certificate, error) {
	args := m.Called(ctx, purchaseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Certificate), args.Error(1)
}
