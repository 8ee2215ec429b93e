package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/emi-ledger/internal/cache"
	"github.com/segyhp/emi-ledger/internal/domain"
	"github.com/segyhp/emi-ledger/internal/mocks"
	customError "github.com/segyhp/emi-ledger/pkg/errors"
)

func newPurchaseService(repo *mocks.MockPurchaseRepository, scheduleCache cache.ScheduleCache) *PurchaseService {
	svc := NewPurchaseService(repo, scheduleCache, testConfig(), testLogger())
	svc.now = fixedClock(time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC))
	return svc
}

func TestCreatePurchase_Success(t *testing.T) {
	repo := &mocks.MockPurchaseRepository{}
	svc := newPurchaseService(repo, cache.NoopCache{})

	request := &domain.CreatePurchaseRequest{
		CustomerID:  "CUST001",
		ProductName: "Smartphone",
		TotalPrice:  decimal.NewFromInt(11500),
		DownPayment: decimal.NewFromInt(2000),
		Charges: domain.Charges{
			ProcessingFee:        decimal.NewFromInt(300),
			DocumentationCharges: decimal.NewFromInt(200),
		},
		Tenure: 6,
	}

	repo.On("CreateWithSchedule", mock.Anything,
		mock.MatchedBy(func(p *domain.Purchase) bool { return p.CustomerID == "CUST001" }),
		mock.MatchedBy(func(s []*domain.Installment) bool { return len(s) == 6 }),
	).Return(nil)

	resp, err := svc.CreatePurchase(context.Background(), request)
	require.NoError(t, err)

	purchase := resp.Purchase
	assert.True(t, purchase.LoanAmount.Equal(decimal.NewFromInt(10000)))
	assert.True(t, purchase.InterestRate.Equal(decimal.NewFromInt(24)), "default rate applies")
	assert.True(t, purchase.InstallmentAmount.Equal(decimal.RequireFromString("1785.26")))
	assert.Equal(t, domain.PurchaseStatusActive, purchase.Status)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), purchase.StartDate)

	require.Len(t, resp.Schedule, 6)
	assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), resp.Schedule[0].DueDate)
	for _, inst := range resp.Schedule {
		assert.Equal(t, purchase.ID, inst.PurchaseID)
		assert.False(t, inst.CreatedAt.IsZero())
	}

	repo.AssertExpectations(t)
}

func TestCreatePurchase_ExplicitRateAndStart(t *testing.T) {
	repo := &mocks.MockPurchaseRepository{}
	svc := newPurchaseService(repo, cache.NoopCache{})

	rate := decimal.Zero
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	request := &domain.CreatePurchaseRequest{
		CustomerID:   "CUST001",
		ProductName:  "Television",
		TotalPrice:   decimal.NewFromInt(3000),
		Tenure:       3,
		InterestRate: &rate,
		StartDate:    domain.NewDate(start),
	}

	repo.On("CreateWithSchedule", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.CreatePurchase(context.Background(), request)
	require.NoError(t, err)

	assert.True(t, resp.Purchase.InstallmentAmount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), resp.Schedule[0].DueDate)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), resp.Schedule[2].DueDate)
}

func TestCreatePurchase_InvalidInput(t *testing.T) {
	repo := &mocks.MockPurchaseRepository{}
	svc := newPurchaseService(repo, cache.NoopCache{})

	tests := []struct {
		name    string
		request *domain.CreatePurchaseRequest
	}{
		{
			name: "down payment covers the price",
			request: &domain.CreatePurchaseRequest{
				TotalPrice:  decimal.NewFromInt(5000),
				DownPayment: decimal.NewFromInt(5000),
				Tenure:      6,
			},
		},
		{
			name: "zero tenure",
			request: &domain.CreatePurchaseRequest{
				TotalPrice: decimal.NewFromInt(5000),
				Tenure:     0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePurchase(context.Background(), tt.request)
			assert.ErrorIs(t, err, customError.ErrInvalidInput)
		})
	}

	repo.AssertNotCalled(t, "CreateWithSchedule", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePurchase_DatabaseError(t *testing.T) {
	repo := &mocks.MockPurchaseRepository{}
	svc := newPurchaseService(repo, cache.NoopCache{})

	repo.On("CreateWithSchedule", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := svc.CreatePurchase(context.Background(), &domain.CreatePurchaseRequest{
		TotalPrice: decimal.NewFromInt(5000),
		Tenure:     5,
	})
	assert.Equal(t, customError.ErrCodeDatabaseError, customError.CodeOf(err))
}

func TestQuote(t *testing.T) {
	svc := newPurchaseService(&mocks.MockPurchaseRepository{}, cache.NoopCache{})

	resp, err := svc.Quote(context.Background(), &domain.QuoteRequest{
		Principal:    decimal.NewFromInt(10000),
		InterestRate: decimal.NewFromInt(24),
		Tenure:       6,
	})
	require.NoError(t, err)

	assert.True(t, resp.InstallmentAmount.Equal(decimal.RequireFromString("1785.26")))
	assert.True(t, resp.TotalPayable.Equal(decimal.RequireFromString("10711.56")))
	assert.True(t, resp.TotalInterest.Equal(decimal.RequireFromString("711.56")))
	assert.Len(t, resp.Schedule, 6)
}

func TestQuote_InvalidInput(t *testing.T) {
	svc := newPurchaseService(&mocks.MockPurchaseRepository{}, cache.NoopCache{})

	_, err := svc.Quote(context.Background(), &domain.QuoteRequest{
		Principal:    decimal.NewFromInt(10000),
		InterestRate: decimal.NewFromInt(-1),
		Tenure:       6,
	})
	assert.ErrorIs(t, err, customError.ErrInvalidInput)
}

func TestGetPurchase_NotFound(t *testing.T) {
	repo := &mocks.MockPurchaseRepository{}
	svc := newPurchaseService(repo, cache.NoopCache{})
	id := uuid.New()

	repo.On("GetByID", mock.Anything, id).Return(nil, sql.ErrNoRows)

	_, err := svc.GetPurchase(context.Background(), id)
	assert.ErrorIs(t, err, customError.ErrPurchaseNotFound)
}

func TestGetSchedule_LiveView(t *testing.T) {
	repo := &mocks.MockPurchaseRepository{}
	svc := newPurchaseService(repo, cache.NoopCache{})
	purchase, schedule := newTestPurchase(t, 3)

	repo.On("GetSchedule", mock.Anything, purchase.ID).Return(schedule, nil)

	// Installment 1 (due Feb 2) is 5 days past grace on Feb 10
	resp, err := svc.GetSchedule(context.Background(), purchase.ID, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, resp.Schedule, 3)

	assert.Equal(t, domain.InstallmentStatusOverdue, resp.Schedule[0].DisplayStatus)
	assert.True(t, resp.Schedule[0].LiveLateFee.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, domain.InstallmentStatusPending, resp.Schedule[1].DisplayStatus)

	// Nothing is written back
	assert.Equal(t, domain.InstallmentStatusPending, schedule[0].Status)
	assert.True(t, schedule[0].LateFee.IsZero())
}

func TestGetSchedule_EmptyIsNotFound(t *testing.T) {
	repo := &mocks.MockPurchaseRepository{}
	svc := newPurchaseService(repo, cache.NoopCache{})
	id := uuid.New()

	repo.On("GetSchedule", mock.Anything, id).Return([]*domain.Installment{}, nil)

	_, err := svc.GetSchedule(context.Background(), id, time.Now())
	assert.ErrorIs(t, err, customError.ErrPurchaseNotFound)
}

func TestGetSchedule_ReadsThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo := &mocks.MockPurchaseRepository{}
	svc := newPurchaseService(repo, cache.NewRedisCache(client, time.Minute, time.Second))
	purchase, schedule := newTestPurchase(t, 2)

	repo.On("GetSchedule", mock.Anything, purchase.ID).Return(schedule, nil).Once()

	on := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	_, err := svc.GetSchedule(context.Background(), purchase.ID, on)
	require.NoError(t, err)

	resp, err := svc.GetSchedule(context.Background(), purchase.ID, on)
	require.NoError(t, err)
	assert.Len(t, resp.Schedule, 2)

	repo.AssertNumberOfCalls(t, "GetSchedule", 1)
}

func TestGetSummary_PaymentDuringLoadIsNotCachedStale(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	scheduleCache := cache.NewRedisCache(client, time.Minute, time.Second)
	repo := &mocks.MockPurchaseRepository{}
	svc := newPurchaseService(repo, scheduleCache)
	purchase, schedule := newTestPurchase(t, 3)
	paid := markPaid(schedule, 1)
	ctx := context.Background()

	repo.On("GetByID", mock.Anything, purchase.ID).Return(purchase, nil)
	// The first load reads the unpaid schedule, then installment 1 is paid and the
	// cache invalidated before the loader writes its snapshot back
	repo.On("GetSchedule", mock.Anything, purchase.ID).
		Run(func(mock.Arguments) {
			require.NoError(t, scheduleCache.Invalidate(ctx, purchase.ID))
		}).
		Return(schedule, nil).Once()
	repo.On("GetSchedule", mock.Anything, purchase.ID).Return(paid, nil).Once()

	on := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	summary, err := svc.GetSummary(ctx, purchase.ID, on)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.PaidCount)

	_, ok, err := scheduleCache.GetSchedule(ctx, purchase.ID)
	require.NoError(t, err)
	assert.False(t, ok, "snapshot loaded before the payment must not be cached")

	summary, err = svc.GetSummary(ctx, purchase.ID, on)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PaidCount)
	assert.Equal(t, 2, summary.RemainingCount)
	assert.True(t, summary.Outstanding.Equal(decimal.NewFromInt(2000)))

	// The fresh snapshot is cached
	summary, err = svc.GetSummary(ctx, purchase.ID, on)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PaidCount)
	repo.AssertNumberOfCalls(t, "GetSchedule", 2)
}

func TestGetSummary(t *testing.T) {
	repo := &mocks.MockPurchaseRepository{}
	svc := newPurchaseService(repo, cache.NoopCache{})
	purchase, schedule := newTestPurchase(t, 3)
	schedule = markPaid(schedule, 1)

	repo.On("GetByID", mock.Anything, purchase.ID).Return(purchase, nil)
	repo.On("GetSchedule", mock.Anything, purchase.ID).Return(schedule, nil)

	summary, err := svc.GetSummary(context.Background(), purchase.ID, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.PaidCount)
	assert.Equal(t, 2, summary.RemainingCount)
	assert.True(t, summary.Outstanding.Equal(decimal.NewFromInt(2000)))
	assert.True(t, summary.AccruedLateFees.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, 2, summary.NextDueSequence)
}

func TestUpdateStatus(t *testing.T) {
	repo := &mocks.MockPurchaseRepository{}
	svc := newPurchaseService(repo, cache.NoopCache{})
	purchase, _ := newTestPurchase(t, 3)

	repo.On("GetByID", mock.Anything, purchase.ID).Return(purchase, nil)
	repo.On("UpdateStatus", mock.Anything, purchase.ID, domain.PurchaseStatusDefaulted).Return(nil)

	got, err := svc.UpdateStatus(context.Background(), purchase.ID, &domain.UpdateStatusRequest{Status: domain.PurchaseStatusDefaulted})
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseStatusDefaulted, got.Status)
	repo.AssertExpectations(t)
}

func TestUpdateStatus_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("completion cannot be set by hand", func(t *testing.T) {
		repo := &mocks.MockPurchaseRepository{}
		svc := newPurchaseService(repo, cache.NoopCache{})

		_, err := svc.UpdateStatus(ctx, uuid.New(), &domain.UpdateStatusRequest{Status: domain.PurchaseStatusCompleted})
		assert.ErrorIs(t, err, customError.ErrInvalidInput)
		repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("completed purchase keeps its status", func(t *testing.T) {
		repo := &mocks.MockPurchaseRepository{}
		svc := newPurchaseService(repo, cache.NoopCache{})
		purchase, _ := newTestPurchase(t, 1)
		purchase.Status = domain.PurchaseStatusCompleted

		repo.On("GetByID", mock.Anything, purchase.ID).Return(purchase, nil)

		_, err := svc.UpdateStatus(ctx, purchase.ID, &domain.UpdateStatusRequest{Status: domain.PurchaseStatusDefaulted})
		assert.ErrorIs(t, err, customError.ErrPurchaseCompleted)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("completed between read and update", func(t *testing.T) {
		repo := &mocks.MockPurchaseRepository{}
		svc := newPurchaseService(repo, cache.NoopCache{})
		purchase, _ := newTestPurchase(t, 1)

		repo.On("GetByID", mock.Anything, purchase.ID).Return(purchase, nil)
		repo.On("UpdateStatus", mock.Anything, purchase.ID, domain.PurchaseStatusDefaulted).Return(sql.ErrNoRows)

		_, err := svc.UpdateStatus(ctx, purchase.ID, &domain.UpdateStatusRequest{Status: domain.PurchaseStatusDefaulted})
		assert.ErrorIs(t, err, customError.ErrPurchaseCompleted)
	})
}
