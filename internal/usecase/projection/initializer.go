package projection

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
	"github.com/simaogato/portfolio-engine/internal/usecase/returns"
)

// Initializer resolves the starting state of a projection: each asset's
// starting value, its monthly growth rate, and the portfolio's starting
// total.
type Initializer struct {
	strategy *returns.Strategy
	// mismatchTolerance is the relative tolerance between a supplied
	// starting-total override and the computed asset sum.
	mismatchTolerance decimal.Decimal
	log               *logger.Logger
}

// NewInitializer creates a new Initializer instance
func NewInitializer(strategy *returns.Strategy, mismatchTolerance float64, log *logger.Logger) *Initializer {
	return &Initializer{
		strategy:          strategy,
		mismatchTolerance: decimal.NewFromFloat(mismatchTolerance),
		log:               log,
	}
}

// Initialize computes per-asset starting values and monthly rates.
//
// Two passes: the first sums fixed-value assets, the second resolves
// percentage-allocated assets against totalOverride when supplied, else
// against the fixed-value sum. An asset with neither a fixed value nor
// an allocation starts at zero.
//
// When a supplied override disagrees with the computed sum beyond
// max(1, |override|) x tolerance, the computed sum wins: the override
// is advisory, the asset records are authoritative.
func (i *Initializer) Initialize(assets []*domain.Asset, totalOverride *decimal.Decimal) (map[uuid.UUID]decimal.Decimal, map[uuid.UUID]decimal.Decimal, decimal.Decimal) {
	values := make(map[uuid.UUID]decimal.Decimal, len(assets))
	rates := make(map[uuid.UUID]decimal.Decimal, len(assets))

	// Pass 1: fixed-value assets establish the base total.
	fixedSum := decimal.Zero
	for _, asset := range assets {
		rates[asset.ID] = i.strategy.MonthlyRate(asset)
		if asset.FixedValue != nil {
			values[asset.ID] = *asset.FixedValue
			fixedSum = fixedSum.Add(*asset.FixedValue)
		}
	}

	// Pass 2: percentage assets resolve against the override when given,
	// else against the fixed-value sum.
	percentBase := fixedSum
	if totalOverride != nil {
		percentBase = *totalOverride
	}
	for _, asset := range assets {
		if asset.FixedValue != nil {
			continue
		}
		fraction, ok := asset.AllocationFraction()
		if !ok {
			i.log.Warnw("asset has neither fixed value nor allocation, starting at 0",
				"portfolio_id", asset.PortfolioID,
				"asset_id", asset.ID)
			values[asset.ID] = decimal.Zero
			continue
		}
		values[asset.ID] = percentBase.Mul(fraction)
	}

	computedTotal := decimal.Zero
	for _, value := range values {
		computedTotal = computedTotal.Add(value)
	}

	if totalOverride != nil {
		threshold := decimal.Max(decimal.NewFromInt(1), totalOverride.Abs()).Mul(i.mismatchTolerance)
		if computedTotal.Sub(*totalOverride).Abs().GreaterThan(threshold) {
			i.log.Warnw("starting total override disagrees with computed asset sum, using computed sum",
				"override", totalOverride.String(),
				"computed", computedTotal.String())
		}
	}

	return values, rates, computedTotal
}
