package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	InstallmentStatusPending = "pending"
	InstallmentStatusPaid    = "paid"
	// InstallmentStatusOverdue is a display state of a pending installment past its due date
	InstallmentStatusOverdue = "overdue"
)

// Installment represents one entry of a purchase's repayment schedule
type Installment struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	PurchaseID      uuid.UUID       `json:"purchase_id" db:"purchase_id"`
	Sequence        int             `json:"sequence" db:"sequence"`
	DueDate         time.Time       `json:"due_date" db:"due_date"`
	PrincipalAmount decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	InterestAmount  decimal.Decimal `json:"interest_amount" db:"interest_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	LateFee         decimal.Decimal `json:"late_fee" db:"late_fee"`
	Status          string          `json:"status" db:"status"` // pending, paid, overdue
	PaidDate        *time.Time      `json:"paid_date,omitempty" db:"paid_date"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// IsPaid reports whether the installment has been settled
func (i *Installment) IsPaid() bool {
	return i.Status == InstallmentStatusPaid
}

// Clone returns a copy that can be mutated without touching the original
func (i *Installment) Clone() *Installment {
	c := *i
	if i.PaidDate != nil {
		paid := *i.PaidDate
		c.PaidDate = &paid
	}
	return &c
}

// InstallmentView is an installment as presented on a given day
type InstallmentView struct {
	*Installment
	DisplayStatus string          `json:"display_status"`
	LiveLateFee   decimal.Decimal `json:"live_late_fee"`
	DaysOverdue   int             `json:"days_overdue"`
}

type ScheduleResponse struct {
	PurchaseID uuid.UUID          `json:"purchase_id"`
	Schedule   []*InstallmentView `json:"schedule"`
}
