package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/emi-ledger/internal/domain"
	"github.com/segyhp/emi-ledger/pkg/utils"
)

// GracePeriodDays is the number of calendar days after the due date during which no fee accrues.
// Due on the 2nd: the grace period covers the whole of the 5th, so a payment at 14:00 on the
// 5th is free and the first fee day is the 6th. Fees count whole calendar days, never hours
// elapsed since the due instant.
const GracePeriodDays = 3

// LateFee is the result of the late fee policy for one installment on one day
type LateFee struct {
	Fee         decimal.Decimal `json:"fee"`
	DaysOverdue int             `json:"days_overdue"`
	Eligible    bool            `json:"eligible"`
}

// ComputeLateFee applies the grace period policy. Dates are compared as calendar days,
// so the time of day of either argument does not matter.
func ComputeLateFee(dueDate, today time.Time, feePerDay decimal.Decimal) LateFee {
	graceEnd := utils.DateOnly(dueDate).AddDate(0, 0, GracePeriodDays)

	days := utils.DaysBetween(graceEnd, today)
	if days <= 0 {
		return LateFee{Fee: decimal.Zero}
	}

	return LateFee{
		Fee:         utils.RoundMoney(feePerDay.Mul(decimal.NewFromInt(int64(days)))),
		DaysOverdue: days,
		Eligible:    true,
	}
}

// EffectiveLateFee returns the fee frozen at payment time for paid installments
// and the live fee otherwise.
func EffectiveLateFee(inst *domain.Installment, today time.Time, feePerDay decimal.Decimal) LateFee {
	if inst.IsPaid() {
		return LateFee{Fee: inst.LateFee, Eligible: inst.LateFee.IsPositive()}
	}
	return ComputeLateFee(inst.DueDate, today, feePerDay)
}

// DisplayStatus derives the status shown for an installment on a given day.
// A pending installment past its due date shows as overdue; nothing is persisted.
func DisplayStatus(inst *domain.Installment, today time.Time) string {
	if inst.IsPaid() {
		return domain.InstallmentStatusPaid
	}
	if utils.IsDateOverdue(inst.DueDate, today) {
		return domain.InstallmentStatusOverdue
	}
	return domain.InstallmentStatusPending
}

// View renders an installment for display on a given day
func View(inst *domain.Installment, today time.Time, feePerDay decimal.Decimal) *domain.InstallmentView {
	fee := EffectiveLateFee(inst, today, feePerDay)
	return &domain.InstallmentView{
		Installment:   inst,
		DisplayStatus: DisplayStatus(inst, today),
		LiveLateFee:   fee.Fee,
		DaysOverdue:   fee.DaysOverdue,
	}
}

// ViewSchedule renders a whole schedule for display on a given day
func ViewSchedule(schedule []*domain.Installment, today time.Time, feePerDay decimal.Decimal) []*domain.InstallmentView {
	views := make([]*domain.InstallmentView, 0, len(schedule))
	for _, inst := range schedule {
		views = append(views, View(inst, today, feePerDay))
	}
	return views
}
