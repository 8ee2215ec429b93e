package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/emi-ledger/internal/domain"
	customError "github.com/segyhp/emi-ledger/pkg/errors"
	"github.com/segyhp/emi-ledger/pkg/utils"
)

// PaymentResult is what a successful ApplyPayment hands back to the caller for persistence
type PaymentResult struct {
	Installment *domain.Installment
	Payment     *domain.PaymentEvent
	// Schedule is the post-payment snapshot; feed it to CheckCompletion
	Schedule []*domain.Installment
}

// ApplyPayment settles installment seq of a schedule.
//
// Two invariants are enforced: an installment is paid at most once, and only after every
// installment with a lower sequence is paid. The late fee is computed for the payment date
// and frozen into the returned installment. The input schedule is not modified.
func ApplyPayment(schedule []*domain.Installment, seq int, paymentDate time.Time, feePerDay decimal.Decimal, method string) (*PaymentResult, error) {
	if paymentDate.IsZero() {
		return nil, customError.WrapInvalidInput("payment date is required")
	}
	if feePerDay.IsNegative() {
		return nil, customError.WrapInvalidInput("late fee per day cannot be negative, got %s", feePerDay)
	}

	target := findInstallment(schedule, seq)
	if target == nil {
		return nil, customError.WrapInvalidInput("installment %d does not exist in the schedule", seq)
	}

	if target.IsPaid() {
		return nil, customError.WrapAlreadyPaid(seq)
	}

	if blocking := firstUnpaidBefore(schedule, seq); blocking > 0 {
		return nil, customError.WrapOutOfOrderPayment(seq, blocking)
	}

	if method == "" {
		method = domain.PaymentMethodCash
	}

	fee := ComputeLateFee(target.DueDate, paymentDate, feePerDay)
	paidOn := utils.DateOnly(paymentDate)

	updated := target.Clone()
	updated.Status = domain.InstallmentStatusPaid
	updated.PaidDate = &paidOn
	updated.LateFee = fee.Fee

	payment := &domain.PaymentEvent{
		ID:            uuid.New(),
		InstallmentID: updated.ID,
		PurchaseID:    updated.PurchaseID,
		Sequence:      updated.Sequence,
		AmountPaid:    updated.TotalAmount,
		LateFeePaid:   fee.Fee,
		PaymentDate:   paidOn,
		Method:        method,
	}

	snapshot := make([]*domain.Installment, len(schedule))
	for i, inst := range schedule {
		if inst.Sequence == seq {
			snapshot[i] = updated
			continue
		}
		snapshot[i] = inst
	}

	return &PaymentResult{
		Installment: updated,
		Payment:     payment,
		Schedule:    snapshot,
	}, nil
}

func findInstallment(schedule []*domain.Installment, seq int) *domain.Installment {
	for _, inst := range schedule {
		if inst.Sequence == seq {
			return inst
		}
	}
	return nil
}

// firstUnpaidBefore returns the lowest unpaid sequence below seq, or 0 if all are paid
func firstUnpaidBefore(schedule []*domain.Installment, seq int) int {
	blocking := 0
	for _, inst := range schedule {
		if inst.Sequence >= seq || inst.IsPaid() {
			continue
		}
		if blocking == 0 || inst.Sequence < blocking {
			blocking = inst.Sequence
		}
	}
	return blocking
}
