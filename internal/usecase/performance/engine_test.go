package performance

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
	"github.com/simaogato/portfolio-engine/internal/usecase/recurrence"
	"github.com/simaogato/portfolio-engine/internal/usecase/returns"
)

type MockPortfolioRepository struct {
	mock.Mock
}

func (m *MockPortfolioRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Portfolio), args.Error(1)
}

func (m *MockPortfolioRepository) Create(ctx context.Context, portfolio *domain.Portfolio) error {
	args := m.Called(ctx, portfolio)
	return args.Error(0)
}

func (m *MockPortfolioRepository) List(ctx context.Context) ([]*domain.Portfolio, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Portfolio), args.Error(1)
}

type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *MockAssetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockAssetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockAssetRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Asset, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Asset), args.Error(1)
}

type MockPlannedChangeRepository struct {
	mock.Mock
}

func (m *MockPlannedChangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PlannedChange, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlannedChange), args.Error(1)
}

func (m *MockPlannedChangeRepository) Create(ctx context.Context, change *domain.PlannedChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockPlannedChangeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPlannedChangeRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*domain.PlannedChange, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PlannedChange), args.Error(1)
}

func newTestPerformanceEngine(portfolios *MockPortfolioRepository, assets *MockAssetRepository, changes *MockPlannedChangeRepository) *Engine {
	log := logger.NewNop()
	strategy := returns.NewStrategy(map[string]float64{"stock": 10.0}, log)
	return NewEngine(
		portfolios,
		assets,
		changes,
		recurrence.NewExpander(log),
		NewResolver(0.001, log),
		NewDailyCalculator(strategy),
		log,
	)
}

func TestPerformance_TwoDayContribution(t *testing.T) {
	ctx := context.Background()

	portfolioID := uuid.New()
	portfolios := new(MockPortfolioRepository)
	assets := new(MockAssetRepository)
	changes := new(MockPlannedChangeRepository)

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	asset := &domain.Asset{ID: uuid.New(), PortfolioID: portfolioID, Type: domain.AssetTypeStock, Name: "Index fund", CreatedAt: created}
	asset.SetAllocation(decimal.NewFromInt(100))

	deposit := domain.NewContribution(portfolioID, created, decimal.NewFromInt(1000))

	portfolios.On("GetByID", ctx, portfolioID).Return(&domain.Portfolio{ID: portfolioID, Name: "Main", CreatedAt: created}, nil)
	assets.On("ListByPortfolio", ctx, portfolioID).Return([]*domain.Asset{asset}, nil)
	changes.On("ListByPortfolio", ctx, portfolioID).Return([]*domain.PlannedChange{deposit}, nil)

	engine := newTestPerformanceEngine(portfolios, assets, changes)

	end := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	points, err := engine.Performance(ctx, portfolioID, created, end)
	require.NoError(t, err)

	require.Len(t, points, 2)
	// Deposit day: value equals contributions, return is 0.
	assert.Equal(t, 0.0, points[0].CumulativeReturn)
	// One day of growth at the stock's daily-equivalent rate.
	dailyRate := math.Pow(1.10, 1.0/365.0) - 1
	assert.InDelta(t, dailyRate, points[1].CumulativeReturn, 1e-6)
}

func TestPerformance_DaysBeforeCreationReportZero(t *testing.T) {
	ctx := context.Background()

	portfolioID := uuid.New()
	portfolios := new(MockPortfolioRepository)
	assets := new(MockAssetRepository)
	changes := new(MockPlannedChangeRepository)

	created := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	asset := &domain.Asset{ID: uuid.New(), PortfolioID: portfolioID, Type: domain.AssetTypeStock, Name: "Index fund", CreatedAt: created}
	asset.SetAllocation(decimal.NewFromInt(100))

	deposit := domain.NewContribution(portfolioID, created, decimal.NewFromInt(1000))

	portfolios.On("GetByID", ctx, portfolioID).Return(&domain.Portfolio{ID: portfolioID, Name: "Main", CreatedAt: created}, nil)
	assets.On("ListByPortfolio", ctx, portfolioID).Return([]*domain.Asset{asset}, nil)
	changes.On("ListByPortfolio", ctx, portfolioID).Return([]*domain.PlannedChange{deposit}, nil)

	engine := newTestPerformanceEngine(portfolios, assets, changes)

	start := time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 11, 0, 0, 0, 0, time.UTC)
	points, err := engine.Performance(ctx, portfolioID, start, end)
	require.NoError(t, err)

	require.Len(t, points, 4)
	assert.Equal(t, 0.0, points[0].CumulativeReturn)
	assert.Equal(t, 0.0, points[1].CumulativeReturn)
	// Creation day carries the deposit, still flat.
	assert.Equal(t, 0.0, points[2].CumulativeReturn)
	assert.Greater(t, points[3].CumulativeReturn, 0.0)
}

func TestPerformance_PreWindowCashFoldedWithoutGrowth(t *testing.T) {
	ctx := context.Background()

	portfolioID := uuid.New()
	portfolios := new(MockPortfolioRepository)
	assets := new(MockAssetRepository)
	changes := new(MockPlannedChangeRepository)

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	asset := &domain.Asset{ID: uuid.New(), PortfolioID: portfolioID, Type: domain.AssetTypeStock, Name: "Index fund", CreatedAt: created}
	asset.SetAllocation(decimal.NewFromInt(100))

	deposit := domain.NewContribution(portfolioID, created, decimal.NewFromInt(1000))
	dividend := domain.NewDividend(portfolioID, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(100))

	portfolios.On("GetByID", ctx, portfolioID).Return(&domain.Portfolio{ID: portfolioID, Name: "Main", CreatedAt: created}, nil)
	assets.On("ListByPortfolio", ctx, portfolioID).Return([]*domain.Asset{asset}, nil)
	changes.On("ListByPortfolio", ctx, portfolioID).Return([]*domain.PlannedChange{deposit, dividend}, nil)

	engine := newTestPerformanceEngine(portfolios, assets, changes)

	// Window starts well after both events; the baseline is their plain
	// sum: value 1100 on contributions of 1000.
	start := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	points, err := engine.Performance(ctx, portfolioID, start, start)
	require.NoError(t, err)

	require.Len(t, points, 1)
	dailyRate := math.Pow(1.10, 1.0/365.0) - 1
	expected := (1100.0*(1+dailyRate) - 1000.0) / 1000.0
	assert.InDelta(t, expected, points[0].CumulativeReturn, 1e-6)
}

func TestPerformance_UnknownPortfolioFailsFast(t *testing.T) {
	ctx := context.Background()

	portfolioID := uuid.New()
	portfolios := new(MockPortfolioRepository)
	assets := new(MockAssetRepository)
	changes := new(MockPlannedChangeRepository)

	portfolios.On("GetByID", ctx, portfolioID).Return(nil, domain.ErrPortfolioNotFound)

	engine := newTestPerformanceEngine(portfolios, assets, changes)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := engine.Performance(ctx, portfolioID, start, start.AddDate(0, 0, 7))
	assert.ErrorIs(t, err, domain.ErrPortfolioNotFound)

	assets.AssertNotCalled(t, "ListByPortfolio", mock.Anything, mock.Anything)
}

func TestPerformance_ReversedRangeRejected(t *testing.T) {
	ctx := context.Background()

	portfolioID := uuid.New()
	portfolios := new(MockPortfolioRepository)
	assets := new(MockAssetRepository)
	changes := new(MockPlannedChangeRepository)

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	portfolios.On("GetByID", ctx, portfolioID).Return(&domain.Portfolio{ID: portfolioID, Name: "Main", CreatedAt: created}, nil)

	engine := newTestPerformanceEngine(portfolios, assets, changes)

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := engine.Performance(ctx, portfolioID, start, end)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestPerformance_ReallocationShiftsBlendedRate(t *testing.T) {
	ctx := context.Background()

	portfolioID := uuid.New()
	portfolios := new(MockPortfolioRepository)
	assets := new(MockAssetRepository)
	changes := new(MockPlannedChangeRepository)

	created := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	stock := &domain.Asset{ID: uuid.New(), PortfolioID: portfolioID, Type: domain.AssetTypeStock, Name: "Index fund", CreatedAt: created}
	stock.SetAllocation(decimal.NewFromInt(100))
	idle := &domain.Asset{ID: uuid.New(), PortfolioID: portfolioID, Type: domain.AssetTypeOther, Name: "Vault", CreatedAt: created}
	idle.SetAllocation(decimal.Zero)

	deposit := domain.NewContribution(portfolioID, created, decimal.NewFromInt(1000))
	// Move everything into the asset with no defined return: growth stops.
	realloc := domain.NewReallocation(portfolioID, time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC), map[uuid.UUID]decimal.Decimal{
		stock.ID: decimal.Zero,
		idle.ID:  decimal.NewFromInt(100),
	})

	portfolios.On("GetByID", ctx, portfolioID).Return(&domain.Portfolio{ID: portfolioID, Name: "Main", CreatedAt: created}, nil)
	assets.On("ListByPortfolio", ctx, portfolioID).Return([]*domain.Asset{stock, idle}, nil)
	changes.On("ListByPortfolio", ctx, portfolioID).Return([]*domain.PlannedChange{deposit, realloc}, nil)

	engine := newTestPerformanceEngine(portfolios, assets, changes)

	end := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	points, err := engine.Performance(ctx, portfolioID, created, end)
	require.NoError(t, err)

	require.Len(t, points, 5)
	// Growth on day 2, flat from the reallocation on.
	assert.Greater(t, points[1].CumulativeReturn, points[0].CumulativeReturn)
	assert.Equal(t, points[2].CumulativeReturn, points[3].CumulativeReturn)
	assert.Equal(t, points[3].CumulativeReturn, points[4].CumulativeReturn)
}
