package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentMethodCash = "cash"
	PaymentMethodUPI  = "upi"
)

// PaymentEvent records the settlement of exactly one installment
type PaymentEvent struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	InstallmentID uuid.UUID       `json:"installment_id" db:"installment_id"`
	PurchaseID    uuid.UUID       `json:"purchase_id" db:"purchase_id"`
	Sequence      int             `json:"sequence" db:"sequence"`
	AmountPaid    decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	LateFeePaid   decimal.Decimal `json:"late_fee_paid" db:"late_fee_paid"`
	PaymentDate   time.Time       `json:"payment_date" db:"payment_date"`
	Method        string          `json:"method" db:"method"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Total returns the amount collected, late fee included
func (p *PaymentEvent) Total() decimal.Decimal {
	return p.AmountPaid.Add(p.LateFeePaid)
}

type MakePaymentRequest struct {
	PaymentDate *Date  `json:"payment_date,omitempty"`
	Method      string `json:"method" validate:"omitempty,oneof=cash upi card bank_transfer"`
}

type PaymentHistoryResponse struct {
	PurchaseID     uuid.UUID       `json:"purchase_id"`
	Payments       []*PaymentEvent `json:"payments"`
	TotalCollected decimal.Decimal `json:"total_collected"` // installments plus late fees
}

type MakePaymentResponse struct {
	Installment    *Installment  `json:"installment"`
	Payment        *PaymentEvent `json:"payment"`
	RemainingCount int           `json:"remaining_count"`
	PurchaseStatus string        `json:"purchase_status"`
	CertificateNo  string        `json:"certificate_no,omitempty"`
}
