package projection

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
)

// Calculator performs one month's state transition: growth, net cash
// flow, proportional distribution.
type Calculator struct {
	log *logger.Logger
}

// NewCalculator creates a new Calculator instance
func NewCalculator(log *logger.Logger) *Calculator {
	return &Calculator{log: log}
}

// Step advances the per-asset values by one month.
//
// 1. Growth: each value is compounded by its monthly rate.
// 2. Net change: signed sum of the period's cash occurrences.
//    Reallocations contribute nothing here; they only matter to the
//    historical engine's allocation weights.
// 3. Distribution: the net change is split across assets proportionally
//    to their share of the post-growth total, and the new total is
//    recomputed from the finalized values to absorb rounding.
//
// When the post-growth total is not positive there is no share to
// distribute by: a positive net change goes entirely to the first asset
// in iteration order (the assets slice fixes the order), while any other
// net change is applied to the aggregate total only, which may go
// negative without touching per-asset values.
func (c *Calculator) Step(
	assets []*domain.Asset,
	values map[uuid.UUID]decimal.Decimal,
	rates map[uuid.UUID]decimal.Decimal,
	occurrences []*domain.PlannedChange,
) (map[uuid.UUID]decimal.Decimal, decimal.Decimal) {
	one := decimal.NewFromInt(1)

	// 1. Growth.
	grown := make(map[uuid.UUID]decimal.Decimal, len(assets))
	preCashflowTotal := decimal.Zero
	for _, asset := range assets {
		value := values[asset.ID].Mul(one.Add(rates[asset.ID]))
		grown[asset.ID] = value
		preCashflowTotal = preCashflowTotal.Add(value)
	}

	// 2. Net period change.
	netChange := domain.NetCashFlow(occurrences)

	// 3. Distribution.
	if preCashflowTotal.IsPositive() {
		newTotal := decimal.Zero
		for _, asset := range assets {
			share := grown[asset.ID].Div(preCashflowTotal)
			value := grown[asset.ID].Add(netChange.Mul(share))
			grown[asset.ID] = value
			newTotal = newTotal.Add(value)
		}
		return grown, newTotal
	}

	if netChange.IsPositive() && len(assets) > 0 {
		// No positive total to apportion by: park the inflow on the
		// first asset in iteration order.
		first := assets[0].ID
		grown[first] = grown[first].Add(netChange)
		newTotal := decimal.Zero
		for _, asset := range assets {
			newTotal = newTotal.Add(grown[asset.ID])
		}
		return grown, newTotal
	}

	return grown, preCashflowTotal.Add(netChange)
}
