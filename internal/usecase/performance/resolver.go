package performance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
)

// sumEpsilon decides whether a base-allocation sum counts as "zero" or
// "one" before normalization kicks in.
var sumEpsilon = decimal.NewFromFloat(1e-6)

// Resolver computes the effective per-asset allocation fractions for a
// given day, honoring reallocation events.
type Resolver struct {
	// sumTolerance is the allowed deviation of a reallocation's
	// fractions from 1.0 before the event is skipped wholesale.
	sumTolerance decimal.Decimal
	log          *logger.Logger
}

// NewResolver creates a new Resolver instance
func NewResolver(sumTolerance float64, log *logger.Logger) *Resolver {
	return &Resolver{
		sumTolerance: decimal.NewFromFloat(sumTolerance),
		log:          log,
	}
}

// Resolve returns each asset's allocation fraction (0-1) effective on
// the given day.
//
// The latest valid reallocation dated on or before the day wins, and
// its fractions apply verbatim, regardless of when assets were created.
// Without one, the base allocations of assets created on or before the
// day apply: normalized when their sum is neither ~0 nor ~1, split
// equally when the sum is ~0, empty when no asset is eligible.
func (r *Resolver) Resolve(day time.Time, assets []*domain.Asset, reallocations []*domain.PlannedChange) map[uuid.UUID]decimal.Decimal {
	if fractions, ok := r.latestReallocation(day, reallocations); ok {
		return fractions
	}
	return r.baseFractions(day, assets)
}

// latestReallocation picks the most recent valid reallocation effective
// on or before day. Events whose fractions do not sum to ~1 are skipped
// wholesale so an older valid event can still apply.
func (r *Resolver) latestReallocation(day time.Time, reallocations []*domain.PlannedChange) (map[uuid.UUID]decimal.Decimal, bool) {
	var latest *domain.PlannedChange
	for _, realloc := range reallocations {
		target, ok := realloc.TargetAllocation()
		if !ok || realloc.Date.After(day) {
			continue
		}
		if !r.targetSumValid(realloc, target) {
			continue
		}
		if latest == nil || realloc.Date.After(latest.Date) {
			latest = realloc
		}
	}
	if latest == nil {
		return nil, false
	}

	target, _ := latest.TargetAllocation()
	hundred := decimal.NewFromInt(100)
	fractions := make(map[uuid.UUID]decimal.Decimal, len(target))
	for assetID, percent := range target {
		fractions[assetID] = percent.Div(hundred)
	}
	return fractions, true
}

// targetSumValid checks the ~100% invariant of a reallocation and logs
// the audit trail when the event has to be dropped.
func (r *Resolver) targetSumValid(realloc *domain.PlannedChange, target map[uuid.UUID]decimal.Decimal) bool {
	sum := decimal.Zero
	for _, percent := range target {
		sum = sum.Add(percent)
	}

	tolerance := r.sumTolerance.Mul(decimal.NewFromInt(100))
	if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(tolerance) {
		r.log.Warnw("skipping reallocation whose targets do not sum to 100%",
			"portfolio_id", realloc.PortfolioID,
			"change_id", realloc.ID,
			"date", realloc.Date.Format("2006-01-02"),
			"sum", sum.String())
		return false
	}
	return true
}

// baseFractions derives allocation weights from the assets' own
// percentage allocations.
func (r *Resolver) baseFractions(day time.Time, assets []*domain.Asset) map[uuid.UUID]decimal.Decimal {
	eligible := make([]*domain.Asset, 0, len(assets))
	for _, asset := range assets {
		if !asset.CreatedAt.After(day) {
			eligible = append(eligible, asset)
		}
	}
	if len(eligible) == 0 {
		return map[uuid.UUID]decimal.Decimal{}
	}

	fractions := make(map[uuid.UUID]decimal.Decimal, len(eligible))
	sum := decimal.Zero
	for _, asset := range eligible {
		fraction, ok := asset.AllocationFraction()
		if !ok {
			fraction = decimal.Zero
		}
		fractions[asset.ID] = fraction
		sum = sum.Add(fraction)
	}

	if sum.Abs().LessThanOrEqual(sumEpsilon) {
		// Nothing declared: split equally across eligible assets.
		equal := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(eligible))))
		for _, asset := range eligible {
			fractions[asset.ID] = equal
		}
		return fractions
	}

	if sum.Sub(decimal.NewFromInt(1)).Abs().LessThanOrEqual(sumEpsilon) {
		return fractions
	}

	for assetID, fraction := range fractions {
		fractions[assetID] = fraction.Div(sum)
	}
	return fractions
}
