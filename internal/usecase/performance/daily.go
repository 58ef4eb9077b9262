package performance

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/usecase/returns"
)

// DayState is the running state of the day-by-day walk: the portfolio
// value and the net contributions poured in so far.
type DayState struct {
	Value            decimal.Decimal
	NetContributions decimal.Decimal
}

// DailyCalculator computes one day's blended growth, cash flow and
// cumulative-return figure.
type DailyCalculator struct {
	strategy *returns.Strategy
}

// NewDailyCalculator creates a new DailyCalculator instance
func NewDailyCalculator(strategy *returns.Strategy) *DailyCalculator {
	return &DailyCalculator{strategy: strategy}
}

// BlendedDailyRate is the allocation-weighted average of the daily
// growth rates of all assets that have both a defined return and a
// positive allocation on the day.
func (c *DailyCalculator) BlendedDailyRate(assets []*domain.Asset, allocation map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	blended := decimal.Zero
	for _, asset := range assets {
		fraction, ok := allocation[asset.ID]
		if !ok || !fraction.IsPositive() {
			continue
		}
		if _, defined := c.strategy.AnnualReturn(asset); !defined {
			continue
		}
		blended = blended.Add(fraction.Mul(c.strategy.DailyRate(asset)))
	}
	return blended
}

// Step advances the state by one day and returns the day's cumulative
// return.
//
// Growth only applies to a positive value. The day's contributions and
// withdrawals move both the value and the net-contributions counter;
// dividends and interest raise the value only, since they are gains
// rather than money poured in.
//
// Cumulative return is (value - netContrib) / netContrib, rounded to 6
// decimal places; +Inf when there is value but no net contributions;
// 0 otherwise.
func (c *DailyCalculator) Step(
	state DayState,
	assets []*domain.Asset,
	allocation map[uuid.UUID]decimal.Decimal,
	occurrences []*domain.PlannedChange,
) (DayState, float64) {
	if state.Value.IsPositive() {
		rate := c.BlendedDailyRate(assets, allocation)
		state.Value = state.Value.Mul(decimal.NewFromInt(1).Add(rate))
	}

	for _, occ := range occurrences {
		amount, ok := occ.CashAmount()
		if !ok {
			continue
		}
		switch occ.Type {
		case domain.ChangeTypeContribution:
			state.Value = state.Value.Add(amount)
			state.NetContributions = state.NetContributions.Add(amount)
		case domain.ChangeTypeWithdrawal:
			state.Value = state.Value.Sub(amount)
			state.NetContributions = state.NetContributions.Sub(amount)
		case domain.ChangeTypeDividend, domain.ChangeTypeInterest:
			state.Value = state.Value.Add(amount)
		}
	}

	return state, cumulativeReturn(state)
}

// cumulativeReturn folds the state into the single float the series
// reports. Only this final ratio leaves decimal arithmetic.
func cumulativeReturn(state DayState) float64 {
	if state.NetContributions.IsPositive() {
		ratio := state.Value.Sub(state.NetContributions).Div(state.NetContributions)
		return ratio.Round(6).InexactFloat64()
	}
	if state.Value.IsPositive() {
		return math.Inf(1)
	}
	return 0
}
