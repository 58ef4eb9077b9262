package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlannedChange_Validate(t *testing.T) {
	portfolioID := uuid.New()
	date := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	assetA := uuid.New()
	assetB := uuid.New()

	tests := []struct {
		name    string
		change  *PlannedChange
		wantErr bool
		errMsg  string
	}{
		{
			name:    "Contribution with positive amount should pass",
			change:  NewContribution(portfolioID, date, decimal.NewFromInt(500)),
			wantErr: false,
		},
		{
			name:    "Withdrawal with positive amount should pass",
			change:  NewWithdrawal(portfolioID, date, decimal.NewFromInt(200)),
			wantErr: false,
		},
		{
			name:    "Contribution with zero amount should fail",
			change:  NewContribution(portfolioID, date, decimal.Zero),
			wantErr: true,
			errMsg:  "cash change amount must be positive",
		},
		{
			name:    "Withdrawal with negative amount should fail",
			change:  NewWithdrawal(portfolioID, date, decimal.NewFromInt(-50)),
			wantErr: true,
			errMsg:  "cash change amount must be positive",
		},
		{
			name: "Reallocation summing to 100 should pass",
			change: NewReallocation(portfolioID, date, map[uuid.UUID]decimal.Decimal{
				assetA: decimal.NewFromInt(70),
				assetB: decimal.NewFromInt(30),
			}),
			wantErr: false,
		},
		{
			name: "Reallocation within tolerance should pass",
			change: NewReallocation(portfolioID, date, map[uuid.UUID]decimal.Decimal{
				assetA: decimal.NewFromFloat(70.05),
				assetB: decimal.NewFromFloat(29.99),
			}),
			wantErr: false,
		},
		{
			name: "Reallocation summing to 90 should fail",
			change: NewReallocation(portfolioID, date, map[uuid.UUID]decimal.Decimal{
				assetA: decimal.NewFromInt(60),
				assetB: decimal.NewFromInt(30),
			}),
			wantErr: true,
			errMsg:  "reallocation target percentages must sum to 100",
		},
		{
			name: "Reallocation with negative percent should fail",
			change: NewReallocation(portfolioID, date, map[uuid.UUID]decimal.Decimal{
				assetA: decimal.NewFromInt(110),
				assetB: decimal.NewFromInt(-10),
			}),
			wantErr: true,
			errMsg:  "reallocation target percent must be between 0 and 100",
		},
		{
			name:    "Reallocation with empty target should fail",
			change:  NewReallocation(portfolioID, date, nil),
			wantErr: true,
			errMsg:  "reallocation must carry a target allocation",
		},
		{
			name:    "Dividend with positive amount should pass",
			change:  NewDividend(portfolioID, date, decimal.NewFromInt(25)),
			wantErr: false,
		},
		{
			name:    "Interest with positive amount should pass",
			change:  NewInterest(portfolioID, date, decimal.NewFromFloat(3.5)),
			wantErr: false,
		},
		{
			name:    "Zero date should fail",
			change:  NewContribution(portfolioID, time.Time{}, decimal.NewFromInt(100)),
			wantErr: true,
			errMsg:  "planned change date is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.change.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPlannedChange_SignedAmount(t *testing.T) {
	portfolioID := uuid.New()
	date := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	assert.True(t, NewContribution(portfolioID, date, decimal.NewFromInt(100)).SignedAmount().Equal(decimal.NewFromInt(100)))
	assert.True(t, NewWithdrawal(portfolioID, date, decimal.NewFromInt(100)).SignedAmount().Equal(decimal.NewFromInt(-100)))
	assert.True(t, NewDividend(portfolioID, date, decimal.NewFromInt(100)).SignedAmount().Equal(decimal.NewFromInt(100)))
	assert.True(t, NewInterest(portfolioID, date, decimal.NewFromInt(100)).SignedAmount().Equal(decimal.NewFromInt(100)))

	realloc := NewReallocation(portfolioID, date, map[uuid.UUID]decimal.Decimal{uuid.New(): decimal.NewFromInt(100)})
	assert.True(t, realloc.SignedAmount().IsZero())
}

func TestPlannedChange_VariantAccessors(t *testing.T) {
	portfolioID := uuid.New()
	date := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	cash := NewContribution(portfolioID, date, decimal.NewFromInt(100))
	amount, ok := cash.CashAmount()
	assert.True(t, ok)
	assert.True(t, amount.Equal(decimal.NewFromInt(100)))
	_, ok = cash.TargetAllocation()
	assert.False(t, ok)

	assetID := uuid.New()
	realloc := NewReallocation(portfolioID, date, map[uuid.UUID]decimal.Decimal{assetID: decimal.NewFromInt(100)})
	_, ok = realloc.CashAmount()
	assert.False(t, ok)
	target, ok := realloc.TargetAllocation()
	assert.True(t, ok)
	assert.True(t, target[assetID].Equal(decimal.NewFromInt(100)))
}

func TestPlannedChange_OccurrenceOn(t *testing.T) {
	portfolioID := uuid.New()
	original := NewContribution(portfolioID, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(100))
	original.Recurrence = &Recurrence{Frequency: FrequencyMonthly}

	assert.True(t, original.IsRecurring())

	pinned := original.OccurrenceOn(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, pinned)
	assert.Equal(t, original.ID, pinned.ID)
	assert.True(t, pinned.Date.Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, pinned.IsRecurring())

	// The original keeps its rule and date.
	assert.True(t, original.IsRecurring())
	assert.True(t, original.Date.Equal(time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)))
}

func TestNetCashFlow(t *testing.T) {
	portfolioID := uuid.New()
	date := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

	occurrences := []*PlannedChange{
		NewContribution(portfolioID, date, decimal.NewFromInt(500)),
		NewWithdrawal(portfolioID, date, decimal.NewFromInt(200)),
		NewDividend(portfolioID, date, decimal.NewFromInt(50)),
		NewReallocation(portfolioID, date, map[uuid.UUID]decimal.Decimal{uuid.New(): decimal.NewFromInt(100)}),
	}

	assert.True(t, NetCashFlow(occurrences).Equal(decimal.NewFromInt(350)))
	assert.True(t, NetCashFlow(nil).IsZero())
}
