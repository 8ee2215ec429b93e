package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/emi-ledger/internal/config"
	"github.com/segyhp/emi-ledger/internal/domain"
	"github.com/segyhp/emi-ledger/internal/ledger"
)

var scheduleStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Scheduler: config.SchedulerConfig{Timezone: "UTC"},
		Business: config.BusinessConfig{
			DefaultInterestRate: "24",
			LateFeePerDay:       "50",
			ScheduleRounding:    "faithful",
			ReminderDaysAhead:   3,
			PaymentLockTTL:      time.Second,
			ShopName:            "EMI Store",
		},
	}
}

func testLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	return logger
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// newTestPurchase returns an active purchase with n zero-interest installments of 1000,
// due on the 2nd of Feb, Mar, Apr and so on
func newTestPurchase(t *testing.T, n int) (*domain.Purchase, []*domain.Installment) {
	t.Helper()

	purchase := &domain.Purchase{
		ID:                uuid.New(),
		CustomerID:        "CUST001",
		ProductName:       "Smartphone",
		LoanAmount:        decimal.NewFromInt(int64(1000 * n)),
		Tenure:            n,
		InstallmentAmount: decimal.NewFromInt(1000),
		StartDate:         scheduleStart,
		Status:            domain.PurchaseStatusActive,
	}

	schedule, err := ledger.GenerateSchedule(ledger.ScheduleParams{
		PurchaseID:        purchase.ID,
		LoanAmount:        purchase.LoanAmount,
		InstallmentAmount: purchase.InstallmentAmount,
		AnnualRatePercent: decimal.Zero,
		Tenure:            n,
		StartDate:         scheduleStart,
	})
	require.NoError(t, err)

	return purchase, schedule
}

// markPaid returns a copy of the schedule with the first k installments paid on their due date
func markPaid(schedule []*domain.Installment, k int) []*domain.Installment {
	out := make([]*domain.Installment, len(schedule))
	for i, inst := range schedule {
		out[i] = inst.Clone()
		if i < k {
			paid := inst.DueDate
			out[i].Status = domain.InstallmentStatusPaid
			out[i].PaidDate = &paid
		}
	}
	return out
}

var testCustomer = &domain.Customer{
	ID:     "CUST001",
	Name:   "Asha",
	Mobile: "9876543210",
	Email:  "asha@example.com",
}
