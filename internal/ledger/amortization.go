// Package ledger holds the amortization and repayment rules of an EMI purchase.
// Everything here is synchronous and side-effect free: callers load a consistent
// schedule snapshot, call into the ledger, and persist what it returns.
package ledger

import (
	"github.com/shopspring/decimal"

	customError "github.com/segyhp/emi-ledger/pkg/errors"
	"github.com/segyhp/emi-ledger/pkg/utils"
)

// powPrecision bounds the digits kept while compounding (1+r)^n
const powPrecision = 24

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
	one          = decimal.NewFromInt(1)
)

// MonthlyRate converts an annual percentage rate to a monthly fraction: 24 -> 0.02
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(hundred).Div(monthsInYear)
}

// ComputeInstallmentAmount returns the fixed monthly installment of a reducing-balance loan
// Formula: P * r * (1+r)^n / ((1+r)^n - 1), with r the monthly rate
func ComputeInstallmentAmount(principal, annualRatePercent decimal.Decimal, tenureMonths int) (decimal.Decimal, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, customError.WrapInvalidInput("principal must be positive, got %s", principal)
	}
	if tenureMonths <= 0 {
		return decimal.Zero, customError.WrapInvalidInput("tenure must be positive, got %d", tenureMonths)
	}
	if annualRatePercent.IsNegative() {
		return decimal.Zero, customError.WrapInvalidInput("interest rate cannot be negative, got %s", annualRatePercent)
	}

	tenure := decimal.NewFromInt(int64(tenureMonths))

	// The formula degenerates at r = 0; the limit is an even split
	if annualRatePercent.IsZero() {
		return utils.RoundMoney(principal.Div(tenure)), nil
	}

	rate := MonthlyRate(annualRatePercent)
	factor := compound(one.Add(rate), tenureMonths)

	amount := principal.Mul(rate).Mul(factor).Div(factor.Sub(one))
	return utils.RoundMoney(amount), nil
}

// compound raises base to a positive integer power by repeated multiplication
func compound(base decimal.Decimal, n int) decimal.Decimal {
	result := one
	for i := 0; i < n; i++ {
		result = result.Mul(base).Round(powPrecision)
	}
	return result
}

// LoanAmount is the financed amount: total price - down payment + sum of charges
func LoanAmount(totalPrice, downPayment decimal.Decimal, charges ...decimal.Decimal) (decimal.Decimal, error) {
	if totalPrice.IsNegative() || downPayment.IsNegative() {
		return decimal.Zero, customError.WrapInvalidInput("price and down payment cannot be negative")
	}
	for _, c := range charges {
		if c.IsNegative() {
			return decimal.Zero, customError.WrapInvalidInput("charges cannot be negative, got %s", c)
		}
	}

	amount := totalPrice.Sub(downPayment).Add(utils.SumMoney(charges...))
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, customError.WrapInvalidInput("loan amount must be positive, got %s", amount)
	}

	return amount, nil
}

// TotalPayable is the sum of all scheduled installment amounts
func TotalPayable(installmentAmount decimal.Decimal, tenureMonths int) decimal.Decimal {
	return installmentAmount.Mul(decimal.NewFromInt(int64(tenureMonths)))
}
