package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/emi-ledger/internal/domain"
	"github.com/segyhp/emi-ledger/internal/mocks"
	"github.com/segyhp/emi-ledger/internal/notify"
	customError "github.com/segyhp/emi-ledger/pkg/errors"
)

func newSweepService() (*SweepService, *mocks.MockPurchaseRepository, *mocks.MockCustomerRepository, *mocks.MockNotifier) {
	purchases := &mocks.MockPurchaseRepository{}
	customers := &mocks.MockCustomerRepository{}
	notifier := &mocks.MockNotifier{}
	return NewSweepService(purchases, customers, notifier, testConfig(), testLogger()), purchases, customers, notifier
}

func TestSendDueReminders(t *testing.T) {
	svc, purchases, customers, notifier := newSweepService()
	purchase, schedule := newTestPurchase(t, 3) // due Feb 2, Mar 2, Apr 2
	schedule = markPaid(schedule, 1)

	purchases.On("ListByStatus", mock.Anything, domain.PurchaseStatusActive).Return([]*domain.Purchase{purchase}, nil)
	purchases.On("GetSchedule", mock.Anything, purchase.ID).Return(schedule, nil)
	customers.On("GetByID", mock.Anything, "CUST001").Return(testCustomer, nil)
	notifier.On("Send", mock.Anything, mock.MatchedBy(func(msg notify.Message) bool {
		return msg.Kind == notify.KindPaymentReminder && strings.Contains(msg.Body, "due on 02 Mar 2024")
	})).Return(nil).Once()

	// Mar 2 is three days after Feb 28 in a leap year
	report, err := svc.SendDueReminders(context.Background(), time.Date(2024, 2, 28, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, &SweepReport{Job: JobDueReminders, Scanned: 1, Notified: 1}, report)
	notifier.AssertExpectations(t)
}

func TestSendDueReminders_NothingDue(t *testing.T) {
	svc, purchases, _, notifier := newSweepService()
	purchase, schedule := newTestPurchase(t, 3)

	purchases.On("ListByStatus", mock.Anything, domain.PurchaseStatusActive).Return([]*domain.Purchase{purchase}, nil)
	purchases.On("GetSchedule", mock.Anything, purchase.ID).Return(schedule, nil)

	report, err := svc.SendDueReminders(context.Background(), time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 0, report.Scanned)
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSendOverdueNotices(t *testing.T) {
	svc, purchases, customers, notifier := newSweepService()
	purchase, schedule := newTestPurchase(t, 3)

	purchases.On("ListByStatus", mock.Anything, domain.PurchaseStatusActive).Return([]*domain.Purchase{purchase}, nil)
	purchases.On("ListByStatus", mock.Anything, domain.PurchaseStatusDefaulted).Return([]*domain.Purchase{}, nil)
	purchases.On("GetSchedule", mock.Anything, purchase.ID).Return(schedule, nil)
	customers.On("GetByID", mock.Anything, "CUST001").Return(testCustomer, nil).Once()

	// Mar 10: installment 1 is 34 days past grace, installment 2 is 5 days past grace
	notifier.On("Send", mock.Anything, mock.MatchedBy(func(msg notify.Message) bool {
		return strings.Contains(msg.Body, "Late fee of Rs.1700.00")
	})).Return(nil).Once()
	notifier.On("Send", mock.Anything, mock.MatchedBy(func(msg notify.Message) bool {
		return strings.Contains(msg.Body, "Late fee of Rs.250.00")
	})).Return(errors.New("smtp down")).Once()

	report, err := svc.SendOverdueNotices(context.Background(), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, &SweepReport{Job: JobOverdueNotice, Scanned: 2, Notified: 1, Failed: 1}, report)
	notifier.AssertExpectations(t)
	customers.AssertExpectations(t)

	// Sweeps never touch ledger state
	assert.Equal(t, domain.InstallmentStatusPending, schedule[0].Status)
	assert.True(t, schedule[0].LateFee.IsZero())
}

func TestSendOverdueNotices_ListFailure(t *testing.T) {
	svc, purchases, _, _ := newSweepService()
	purchases.On("ListByStatus", mock.Anything, domain.PurchaseStatusActive).Return(nil, errors.New("connection reset"))

	_, err := svc.SendOverdueNotices(context.Background(), time.Now())
	assert.Equal(t, customError.ErrCodeDatabaseError, customError.CodeOf(err))
}

func TestSweep_StopsOnCancelledContext(t *testing.T) {
	svc, purchases, _, notifier := newSweepService()
	purchase, _ := newTestPurchase(t, 3)
	purchases.On("ListByStatus", mock.Anything, domain.PurchaseStatusActive).Return([]*domain.Purchase{purchase}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.SendDueReminders(ctx, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, context.Canceled)
	notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
