package performance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
)

func newTestResolver() *Resolver {
	return NewResolver(0.001, logger.NewNop())
}

func allocatedAsset(percent int64, createdAt time.Time) *domain.Asset {
	asset := &domain.Asset{ID: uuid.New(), Type: domain.AssetTypeStock, Name: "asset", CreatedAt: createdAt}
	asset.SetAllocation(decimal.NewFromInt(percent))
	return asset
}

func TestResolve_BaseAllocationsVerbatim(t *testing.T) {
	resolver := newTestResolver()

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assets := []*domain.Asset{allocatedAsset(60, created), allocatedAsset(40, created)}

	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	fractions := resolver.Resolve(day, assets, nil)

	assert.True(t, fractions[assets[0].ID].Equal(decimal.NewFromFloat(0.6)))
	assert.True(t, fractions[assets[1].ID].Equal(decimal.NewFromFloat(0.4)))
}

func TestResolve_BaseAllocationsNormalized(t *testing.T) {
	resolver := newTestResolver()

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assets := []*domain.Asset{allocatedAsset(30, created), allocatedAsset(30, created)}

	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	fractions := resolver.Resolve(day, assets, nil)

	// 30/30 sums to 0.6, normalized to 0.5 each.
	assert.True(t, fractions[assets[0].ID].Equal(decimal.NewFromFloat(0.5)))
	assert.True(t, fractions[assets[1].ID].Equal(decimal.NewFromFloat(0.5)))
}

func TestResolve_NoDeclaredAllocationsSplitEqually(t *testing.T) {
	resolver := newTestResolver()

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	a := &domain.Asset{ID: uuid.New(), Type: domain.AssetTypeStock, Name: "a", CreatedAt: created}
	b := &domain.Asset{ID: uuid.New(), Type: domain.AssetTypeBond, Name: "b", CreatedAt: created}

	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	fractions := resolver.Resolve(day, []*domain.Asset{a, b}, nil)

	assert.InDelta(t, 0.5, fractions[a.ID].InexactFloat64(), 1e-9)
	assert.InDelta(t, 0.5, fractions[b.ID].InexactFloat64(), 1e-9)
}

func TestResolve_AssetsCreatedAfterDayExcluded(t *testing.T) {
	resolver := newTestResolver()

	early := allocatedAsset(50, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	late := allocatedAsset(50, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	fractions := resolver.Resolve(day, []*domain.Asset{early, late}, nil)

	require.Len(t, fractions, 1)
	// The lone eligible asset's 0.5 normalizes to 1.
	assert.True(t, fractions[early.ID].Equal(decimal.NewFromInt(1)))
}

func TestResolve_NoEligibleAssets(t *testing.T) {
	resolver := newTestResolver()

	late := allocatedAsset(100, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	fractions := resolver.Resolve(day, []*domain.Asset{late}, nil)
	assert.Empty(t, fractions)
}

func TestResolve_LatestReallocationWins(t *testing.T) {
	resolver := newTestResolver()

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assets := []*domain.Asset{allocatedAsset(50, created), allocatedAsset(50, created)}

	first := domain.NewReallocation(uuid.New(), time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), map[uuid.UUID]decimal.Decimal{
		assets[0].ID: decimal.NewFromInt(80),
		assets[1].ID: decimal.NewFromInt(20),
	})
	second := domain.NewReallocation(uuid.New(), time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), map[uuid.UUID]decimal.Decimal{
		assets[0].ID: decimal.NewFromInt(10),
		assets[1].ID: decimal.NewFromInt(90),
	})

	day := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	fractions := resolver.Resolve(day, assets, []*domain.PlannedChange{first, second})

	assert.True(t, fractions[assets[0].ID].Equal(decimal.NewFromFloat(0.1)))
	assert.True(t, fractions[assets[1].ID].Equal(decimal.NewFromFloat(0.9)))
}

func TestResolve_FutureReallocationIgnored(t *testing.T) {
	resolver := newTestResolver()

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assets := []*domain.Asset{allocatedAsset(60, created), allocatedAsset(40, created)}

	future := domain.NewReallocation(uuid.New(), time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), map[uuid.UUID]decimal.Decimal{
		assets[0].ID: decimal.NewFromInt(100),
	})

	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	fractions := resolver.Resolve(day, assets, []*domain.PlannedChange{future})

	assert.True(t, fractions[assets[0].ID].Equal(decimal.NewFromFloat(0.6)))
	assert.True(t, fractions[assets[1].ID].Equal(decimal.NewFromFloat(0.4)))
}

func TestResolve_InvalidReallocationSkippedForOlderValidOne(t *testing.T) {
	resolver := newTestResolver()

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assets := []*domain.Asset{allocatedAsset(50, created), allocatedAsset(50, created)}

	valid := domain.NewReallocation(uuid.New(), time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), map[uuid.UUID]decimal.Decimal{
		assets[0].ID: decimal.NewFromInt(70),
		assets[1].ID: decimal.NewFromInt(30),
	})
	// Sums to 80: skipped wholesale.
	broken := domain.NewReallocation(uuid.New(), time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), map[uuid.UUID]decimal.Decimal{
		assets[0].ID: decimal.NewFromInt(40),
		assets[1].ID: decimal.NewFromInt(40),
	})

	day := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	fractions := resolver.Resolve(day, assets, []*domain.PlannedChange{valid, broken})

	assert.True(t, fractions[assets[0].ID].Equal(decimal.NewFromFloat(0.7)))
	assert.True(t, fractions[assets[1].ID].Equal(decimal.NewFromFloat(0.3)))
}

func TestResolve_ReallocationAppliesVerbatimDespiteLateAsset(t *testing.T) {
	resolver := newTestResolver()

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	early := allocatedAsset(100, created)
	late := allocatedAsset(0, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

	realloc := domain.NewReallocation(uuid.New(), time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), map[uuid.UUID]decimal.Decimal{
		early.ID: decimal.NewFromInt(40),
		late.ID:  decimal.NewFromInt(60),
	})

	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	fractions := resolver.Resolve(day, []*domain.Asset{early, late}, []*domain.PlannedChange{realloc})

	// Reallocation fractions apply as stated even for the not-yet-created asset.
	assert.True(t, fractions[early.ID].Equal(decimal.NewFromFloat(0.4)))
	assert.True(t, fractions[late.ID].Equal(decimal.NewFromFloat(0.6)))
}
