package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/emi-ledger/internal/domain"
	customError "github.com/segyhp/emi-ledger/pkg/errors"
)

func exampleParams(mode RoundingMode) ScheduleParams {
	return ScheduleParams{
		PurchaseID:        uuid.New(),
		LoanAmount:        decimal.NewFromInt(10000),
		InstallmentAmount: decimal.RequireFromString("1785.26"),
		AnnualRatePercent: decimal.NewFromInt(24),
		Tenure:            6,
		StartDate:         time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Rounding:          mode,
	}
}

func TestGenerateSchedule_Faithful(t *testing.T) {
	params := exampleParams(RoundingFaithful)

	schedule, err := GenerateSchedule(params)
	require.NoError(t, err)
	require.Len(t, schedule, 6)

	expected := []struct {
		principal string
		interest  string
	}{
		{"1585.26", "200.00"},
		{"1616.97", "168.29"},
		{"1649.30", "135.96"},
		{"1682.29", "102.97"},
		{"1715.94", "69.32"},
		{"1750.26", "35.00"},
	}

	for i, inst := range schedule {
		assert.Equal(t, i+1, inst.Sequence)
		assert.Equal(t, params.PurchaseID, inst.PurchaseID)
		assert.NotEqual(t, uuid.Nil, inst.ID)
		assert.True(t, inst.PrincipalAmount.Equal(decimal.RequireFromString(expected[i].principal)),
			"seq %d principal: got %v", inst.Sequence, inst.PrincipalAmount)
		assert.True(t, inst.InterestAmount.Equal(decimal.RequireFromString(expected[i].interest)),
			"seq %d interest: got %v", inst.Sequence, inst.InterestAmount)
		assert.True(t, inst.TotalAmount.Equal(params.InstallmentAmount))
		assert.True(t, inst.LateFee.IsZero())
		assert.Equal(t, domain.InstallmentStatusPending, inst.Status)
		assert.Nil(t, inst.PaidDate)
	}

	// The residual is left in place, not folded into the final installment
	assert.True(t, PrincipalResidual(params.LoanAmount, schedule).Equal(decimal.RequireFromString("-0.02")))
}

func TestGenerateSchedule_AdjustFinal(t *testing.T) {
	params := exampleParams(RoundingAdjustFinal)

	schedule, err := GenerateSchedule(params)
	require.NoError(t, err)
	require.Len(t, schedule, 6)

	assert.True(t, PrincipalResidual(params.LoanAmount, schedule).IsZero())

	last := schedule[5]
	assert.True(t, last.PrincipalAmount.Equal(decimal.RequireFromString("1750.24")))
	assert.True(t, last.InterestAmount.Equal(decimal.RequireFromString("35.00")))
	assert.True(t, last.TotalAmount.Equal(decimal.RequireFromString("1785.24")))

	for _, inst := range schedule[:5] {
		assert.True(t, inst.TotalAmount.Equal(params.InstallmentAmount))
	}
}

func TestGenerateSchedule_DueDates(t *testing.T) {
	params := exampleParams(RoundingFaithful)
	params.StartDate = time.Date(2024, 1, 31, 15, 30, 0, 0, time.UTC)
	params.Tenure = 13

	schedule, err := GenerateSchedule(params)
	require.NoError(t, err)
	require.Len(t, schedule, 13)

	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), schedule[0].DueDate)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), schedule[1].DueDate)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), schedule[2].DueDate)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), schedule[11].DueDate)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), schedule[12].DueDate)

	for i := 1; i < len(schedule); i++ {
		assert.True(t, schedule[i].DueDate.After(schedule[i-1].DueDate))
		assert.Equal(t, schedule[i-1].Sequence+1, schedule[i].Sequence)
	}
}

func TestGenerateSchedule_CountMatchesTenure(t *testing.T) {
	for _, tenure := range []int{1, 3, 12, 24, 60} {
		amount, err := ComputeInstallmentAmount(decimal.NewFromInt(50000), decimal.NewFromInt(15), tenure)
		require.NoError(t, err)

		params := exampleParams(RoundingFaithful)
		params.LoanAmount = decimal.NewFromInt(50000)
		params.InstallmentAmount = amount
		params.AnnualRatePercent = decimal.NewFromInt(15)
		params.Tenure = tenure

		schedule, err := GenerateSchedule(params)
		require.NoError(t, err)
		assert.Len(t, schedule, tenure)

		for i, inst := range schedule {
			assert.Equal(t, i+1, inst.Sequence)
		}

		// Rounding drift stays within a cent per installment
		residual := PrincipalResidual(params.LoanAmount, schedule).Abs()
		assert.True(t, residual.LessThanOrEqual(decimal.RequireFromString("0.01").Mul(decimal.NewFromInt(int64(tenure)))))
	}
}

func TestGenerateSchedule_ZeroRate(t *testing.T) {
	params := exampleParams(RoundingFaithful)
	params.AnnualRatePercent = decimal.Zero
	params.Tenure = 3
	params.InstallmentAmount = decimal.RequireFromString("3333.33")

	schedule, err := GenerateSchedule(params)
	require.NoError(t, err)

	for _, inst := range schedule {
		assert.True(t, inst.InterestAmount.IsZero())
		assert.True(t, inst.PrincipalAmount.Equal(decimal.RequireFromString("3333.33")))
	}
	assert.True(t, PrincipalResidual(params.LoanAmount, schedule).Equal(decimal.RequireFromString("0.01")))
}

func TestGenerateSchedule_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ScheduleParams)
	}{
		{name: "zero loan amount", modify: func(p *ScheduleParams) { p.LoanAmount = decimal.Zero }},
		{name: "zero installment", modify: func(p *ScheduleParams) { p.InstallmentAmount = decimal.Zero }},
		{name: "zero tenure", modify: func(p *ScheduleParams) { p.Tenure = 0 }},
		{name: "negative rate", modify: func(p *ScheduleParams) { p.AnnualRatePercent = decimal.NewFromInt(-2) }},
		{name: "missing start date", modify: func(p *ScheduleParams) { p.StartDate = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := exampleParams(RoundingFaithful)
			tt.modify(&params)

			schedule, err := GenerateSchedule(params)
			assert.True(t, errors.Is(err, customError.ErrInvalidInput))
			assert.Nil(t, schedule)
		})
	}
}

func TestParseRoundingMode(t *testing.T) {
	mode, err := ParseRoundingMode("")
	require.NoError(t, err)
	assert.Equal(t, RoundingFaithful, mode)

	mode, err = ParseRoundingMode("adjust_final")
	require.NoError(t, err)
	assert.Equal(t, RoundingAdjustFinal, mode)

	_, err = ParseRoundingMode("banker")
	assert.Error(t, err)
}
