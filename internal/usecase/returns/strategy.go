package returns

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
)

// Strategy resolves the expected growth rate of an asset.
//
// A manual per-asset override always wins; otherwise the type-default
// annual return applies. Types without a default grow at 0%.
type Strategy struct {
	defaults map[string]decimal.Decimal
	log      *logger.Logger
}

// NewStrategy creates a new Strategy instance.
// defaultAnnualReturns maps asset type (case-insensitive) to default
// annual return percent, usually sourced from config.EngineConfig.
func NewStrategy(defaultAnnualReturns map[string]float64, log *logger.Logger) *Strategy {
	defaults := make(map[string]decimal.Decimal, len(defaultAnnualReturns))
	for assetType, percent := range defaultAnnualReturns {
		defaults[strings.ToLower(assetType)] = decimal.NewFromFloat(percent)
	}
	return &Strategy{defaults: defaults, log: log}
}

// AnnualReturn resolves the annual return percent of an asset.
// The boolean reports whether the asset has a defined return at all:
// false means neither a manual override nor a type default exists.
func (s *Strategy) AnnualReturn(asset *domain.Asset) (decimal.Decimal, bool) {
	if asset.ManualReturn != nil {
		return *asset.ManualReturn, true
	}

	annual, ok := s.defaults[strings.ToLower(string(asset.Type))]
	if !ok {
		return decimal.Zero, false
	}
	return annual, true
}

// MonthlyRate converts the asset's annual return into a compounded
// monthly growth rate: (1 + R/100)^(1/12) - 1.
// Assets without a defined return grow at 0%.
func (s *Strategy) MonthlyRate(asset *domain.Asset) decimal.Decimal {
	annual, ok := s.AnnualReturn(asset)
	if !ok {
		return decimal.Zero
	}
	return s.periodRate(annual, 12, asset)
}

// DailyRate converts the asset's annual return into a compounded daily
// growth rate: (1 + R/100)^(1/365) - 1.
func (s *Strategy) DailyRate(asset *domain.Asset) decimal.Decimal {
	annual, ok := s.AnnualReturn(asset)
	if !ok {
		return decimal.Zero
	}
	return s.periodRate(annual, 365, asset)
}

// periodRate compounds an annual percent down to one of periodsPerYear
// equal periods. An annual return of -100% or worse clamps to exactly
// -1 (total loss) instead of attempting a fractional power of a
// non-positive base.
func (s *Strategy) periodRate(annualPercent decimal.Decimal, periodsPerYear int64, asset *domain.Asset) decimal.Decimal {
	base := decimal.NewFromInt(1).Add(annualPercent.Div(decimal.NewFromInt(100)))
	if base.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(-1)
	}

	exponent := decimal.NewFromInt(1).Div(decimal.NewFromInt(periodsPerYear))
	compounded, err := base.PowWithPrecision(exponent, 16)
	if err != nil {
		// Positive base should never fail; neutralize to 0% growth and
		// keep the run going.
		s.log.Warnw("failed to compound annual return, using 0%",
			"asset_id", asset.ID,
			"portfolio_id", asset.PortfolioID,
			"annual_percent", annualPercent.String(),
			"error", err)
		return decimal.Zero
	}

	return compounded.Sub(decimal.NewFromInt(1))
}
