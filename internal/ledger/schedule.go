package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/emi-ledger/internal/domain"
	customError "github.com/segyhp/emi-ledger/pkg/errors"
	"github.com/segyhp/emi-ledger/pkg/utils"
)

// RoundingMode decides what happens to the cents lost by rounding each
// installment's principal and interest independently.
type RoundingMode string

const (
	// RoundingFaithful leaves the residual where it falls; the principal column may
	// not add up exactly to the loan amount.
	RoundingFaithful RoundingMode = "faithful"
	// RoundingAdjustFinal assigns the residual to the final installment's principal,
	// so its total can differ from the fixed installment amount.
	RoundingAdjustFinal RoundingMode = "adjust_final"
)

// ParseRoundingMode accepts the configuration spelling of a rounding mode; empty means faithful
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch RoundingMode(s) {
	case "", RoundingFaithful:
		return RoundingFaithful, nil
	case RoundingAdjustFinal:
		return RoundingAdjustFinal, nil
	default:
		return "", fmt.Errorf("unknown rounding mode %q", s)
	}
}

// ScheduleParams are the inputs of GenerateSchedule
type ScheduleParams struct {
	PurchaseID        uuid.UUID
	LoanAmount        decimal.Decimal
	InstallmentAmount decimal.Decimal
	AnnualRatePercent decimal.Decimal
	Tenure            int
	StartDate         time.Time
	Rounding          RoundingMode
}

func (p ScheduleParams) validate() error {
	if p.LoanAmount.LessThanOrEqual(decimal.Zero) {
		return customError.WrapInvalidInput("loan amount must be positive, got %s", p.LoanAmount)
	}
	if p.InstallmentAmount.LessThanOrEqual(decimal.Zero) {
		return customError.WrapInvalidInput("installment amount must be positive, got %s", p.InstallmentAmount)
	}
	if p.Tenure <= 0 {
		return customError.WrapInvalidInput("tenure must be positive, got %d", p.Tenure)
	}
	if p.AnnualRatePercent.IsNegative() {
		return customError.WrapInvalidInput("interest rate cannot be negative, got %s", p.AnnualRatePercent)
	}
	if p.StartDate.IsZero() {
		return customError.WrapInvalidInput("start date is required")
	}
	return nil
}

// GenerateSchedule builds the ordered installment list of a purchase.
// Installment k is due k calendar months after the start date.
func GenerateSchedule(p ScheduleParams) ([]*domain.Installment, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	rounding := p.Rounding
	if rounding == "" {
		rounding = RoundingFaithful
	}

	rate := MonthlyRate(p.AnnualRatePercent)
	start := utils.DateOnly(p.StartDate)
	remaining := p.LoanAmount
	scheduledPrincipal := decimal.Zero

	schedules := make([]*domain.Installment, 0, p.Tenure)
	for seq := 1; seq <= p.Tenure; seq++ {
		interest := remaining.Mul(rate)
		principalPortion := p.InstallmentAmount.Sub(interest)
		remaining = remaining.Sub(principalPortion)

		installment := &domain.Installment{
			ID:              uuid.New(),
			PurchaseID:      p.PurchaseID,
			Sequence:        seq,
			DueDate:         utils.CalculateDueDate(start, seq),
			PrincipalAmount: utils.RoundMoney(principalPortion),
			InterestAmount:  utils.RoundMoney(interest),
			TotalAmount:     p.InstallmentAmount,
			LateFee:         decimal.Zero,
			Status:          domain.InstallmentStatusPending,
		}

		if seq == p.Tenure && rounding == RoundingAdjustFinal {
			installment.PrincipalAmount = p.LoanAmount.Sub(scheduledPrincipal)
			installment.TotalAmount = installment.PrincipalAmount.Add(installment.InterestAmount)
		}

		scheduledPrincipal = scheduledPrincipal.Add(installment.PrincipalAmount)
		schedules = append(schedules, installment)
	}

	return schedules, nil
}

// PrincipalResidual is loan amount minus the scheduled principal; zero under RoundingAdjustFinal
func PrincipalResidual(loanAmount decimal.Decimal, schedule []*domain.Installment) decimal.Decimal {
	scheduled := decimal.Zero
	for _, inst := range schedule {
		scheduled = scheduled.Add(inst.PrincipalAmount)
	}
	return loanAmount.Sub(scheduled)
}
