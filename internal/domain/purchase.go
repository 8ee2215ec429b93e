package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PurchaseStatusActive    = "active"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusDefaulted = "defaulted"
)

// Charges are the itemized amounts financed on top of the price net of down payment
type Charges struct {
	ProcessingFee        decimal.Decimal `json:"processing_fee" db:"processing_fee"`
	TDSAmount            decimal.Decimal `json:"tds_amount" db:"tds_amount"`
	InsuranceAmount      decimal.Decimal `json:"insurance_amount" db:"insurance_amount"`
	DocumentationCharges decimal.Decimal `json:"documentation_charges" db:"documentation_charges"`
	OtherCharges         decimal.Decimal `json:"other_charges" db:"other_charges"`
}

// List returns the charges as a slice, in a fixed order
func (c Charges) List() []decimal.Decimal {
	return []decimal.Decimal{c.ProcessingFee, c.TDSAmount, c.InsuranceAmount, c.DocumentationCharges, c.OtherCharges}
}

// Purchase represents a financed transaction. It owns its installment schedule.
type Purchase struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	CustomerID        string          `json:"customer_id" db:"customer_id"`
	ProductName       string          `json:"product_name" db:"product_name"`
	TotalPrice        decimal.Decimal `json:"total_price" db:"total_price"`
	DownPayment       decimal.Decimal `json:"down_payment" db:"down_payment"`
	Charges                           // flattened into the purchase row
	LoanAmount        decimal.Decimal `json:"loan_amount" db:"loan_amount"`
	Tenure            int             `json:"tenure" db:"tenure"`
	InterestRate      decimal.Decimal `json:"interest_rate" db:"interest_rate"` // annual, percent
	InstallmentAmount decimal.Decimal `json:"installment_amount" db:"installment_amount"`
	StartDate         time.Time       `json:"start_date" db:"start_date"`
	Status            string          `json:"status" db:"status"` // active, completed, defaulted
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// IsCompleted reports whether the purchase was already certified as fully repaid
func (p *Purchase) IsCompleted() bool {
	return p.Status == PurchaseStatusCompleted
}

// Customer is the contact data needed by notification collaborators
type Customer struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Mobile  string `json:"mobile" db:"mobile"`
	Email   string `json:"email" db:"email"`
	Address string `json:"address" db:"address"`
}

// DTOs for requests and responses

type CreatePurchaseRequest struct {
	CustomerID  string          `json:"customer_id" validate:"required"`
	ProductName string          `json:"product_name" validate:"required"`
	TotalPrice  decimal.Decimal `json:"total_price" validate:"decimal_gt=0"`
	DownPayment decimal.Decimal `json:"down_payment" validate:"decimal_gte=0"`
	Charges
	Tenure int `json:"tenure" validate:"required,gt=0"`
	// InterestRate is the annual percentage; nil falls back to the configured default
	InterestRate *decimal.Decimal `json:"interest_rate,omitempty"`
	StartDate    *Date            `json:"start_date,omitempty"`
}

// UpdateStatusRequest marks a purchase defaulted or reinstates it; completion is never set by hand
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active defaulted"`
}

type CreatePurchaseResponse struct {
	Purchase *Purchase      `json:"purchase"`
	Schedule []*Installment `json:"schedule"`
}

type QuoteRequest struct {
	Principal    decimal.Decimal `json:"principal" validate:"decimal_gt=0"`
	InterestRate decimal.Decimal `json:"interest_rate" validate:"decimal_gte=0"`
	Tenure       int             `json:"tenure" validate:"required,gt=0"`
	StartDate    *Date           `json:"start_date,omitempty"`
}

type QuoteResponse struct {
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	TotalPayable      decimal.Decimal `json:"total_payable"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	Schedule          []*Installment  `json:"schedule"`
}

// PurchaseSummary is the derived ledger state of a purchase
type PurchaseSummary struct {
	PurchaseID      uuid.UUID       `json:"purchase_id"`
	Status          string          `json:"status"`
	Tenure          int             `json:"tenure"`
	PaidCount       int             `json:"paid_count"`
	RemainingCount  int             `json:"remaining_count"`
	OverdueCount    int             `json:"overdue_count"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	LateFeesPaid    decimal.Decimal `json:"late_fees_paid"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	AccruedLateFees decimal.Decimal `json:"accrued_late_fees"`
	NextDueSequence int             `json:"next_due_sequence,omitempty"`
	NextDueDate     *time.Time      `json:"next_due_date,omitempty"`
	NextDueAmount   decimal.Decimal `json:"next_due_amount"`
}
