package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/emi-ledger/internal/domain"
	"github.com/segyhp/emi-ledger/pkg/utils"
)

// RemainingCount counts installments not yet paid (pending or overdue)
func RemainingCount(schedule []*domain.Installment) int {
	count := 0
	for _, inst := range schedule {
		if !inst.IsPaid() {
			count++
		}
	}
	return count
}

// PendingCount counts unpaid installments that are not yet past their due date
func PendingCount(schedule []*domain.Installment, today time.Time) int {
	count := 0
	for _, inst := range schedule {
		if DisplayStatus(inst, today) == domain.InstallmentStatusPending {
			count++
		}
	}
	return count
}

// Outstanding is the sum of the amounts of all unpaid installments, late fees excluded
func Outstanding(schedule []*domain.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range schedule {
		if !inst.IsPaid() {
			total = total.Add(inst.TotalAmount)
		}
	}
	return total
}

// TotalPaid returns the installment amounts and the late fees collected so far
func TotalPaid(schedule []*domain.Installment) (amount, lateFees decimal.Decimal) {
	amount, lateFees = decimal.Zero, decimal.Zero
	for _, inst := range schedule {
		if inst.IsPaid() {
			amount = amount.Add(inst.TotalAmount)
			lateFees = lateFees.Add(inst.LateFee)
		}
	}
	return amount, lateFees
}

// NextDue returns the lowest-sequence unpaid installment, the only one that can be paid next
func NextDue(schedule []*domain.Installment) *domain.Installment {
	var next *domain.Installment
	for _, inst := range schedule {
		if inst.IsPaid() {
			continue
		}
		if next == nil || inst.Sequence < next.Sequence {
			next = inst
		}
	}
	return next
}

// DueBetween returns unpaid installments due within [from, to], compared as calendar days
func DueBetween(schedule []*domain.Installment, from, to time.Time) []*domain.Installment {
	var due []*domain.Installment
	for _, inst := range schedule {
		if inst.IsPaid() {
			continue
		}
		if utils.DaysBetween(from, inst.DueDate) >= 0 && utils.DaysBetween(inst.DueDate, to) >= 0 {
			due = append(due, inst)
		}
	}
	return due
}

// Overdue returns unpaid installments already accruing a late fee on the given day
func Overdue(schedule []*domain.Installment, today time.Time) []*domain.Installment {
	var overdue []*domain.Installment
	for _, inst := range schedule {
		if inst.IsPaid() {
			continue
		}
		if ComputeLateFee(inst.DueDate, today, decimal.Zero).Eligible {
			overdue = append(overdue, inst)
		}
	}
	return overdue
}

// Summarize derives the ledger state of a purchase as of a given day
func Summarize(purchase *domain.Purchase, schedule []*domain.Installment, today time.Time, feePerDay decimal.Decimal) *domain.PurchaseSummary {
	paid, lateFeesPaid := TotalPaid(schedule)
	remaining := RemainingCount(schedule)

	summary := &domain.PurchaseSummary{
		PurchaseID:      purchase.ID,
		Status:          purchase.Status,
		Tenure:          len(schedule),
		PaidCount:       len(schedule) - remaining,
		RemainingCount:  remaining,
		TotalPaid:       paid,
		LateFeesPaid:    lateFeesPaid,
		Outstanding:     Outstanding(schedule),
		AccruedLateFees: decimal.Zero,
		NextDueAmount:   decimal.Zero,
	}

	for _, inst := range schedule {
		if inst.IsPaid() {
			continue
		}
		if DisplayStatus(inst, today) == domain.InstallmentStatusOverdue {
			summary.OverdueCount++
		}
		summary.AccruedLateFees = summary.AccruedLateFees.Add(ComputeLateFee(inst.DueDate, today, feePerDay).Fee)
	}

	if next := NextDue(schedule); next != nil {
		due := next.DueDate
		summary.NextDueSequence = next.Sequence
		summary.NextDueDate = &due
		summary.NextDueAmount = next.TotalAmount
	}

	return summary
}
