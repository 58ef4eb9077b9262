package domain

import (
	"context"

	"github.com/google/uuid"
)

// PortfolioRepository defines the interface for portfolio persistence operations
type PortfolioRepository interface {
	// GetByID retrieves a portfolio by its ID.
	// Returns ErrPortfolioNotFound when no portfolio exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Portfolio, error)

	// Create creates a new portfolio
	Create(ctx context.Context, portfolio *Portfolio) error

	// List retrieves all portfolios
	List(ctx context.Context) ([]*Portfolio, error)
}

// AssetRepository defines the interface for asset persistence operations
type AssetRepository interface {
	// GetByID retrieves an asset by its ID.
	// Returns ErrAssetNotFound when no asset exists.
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)

	// Create creates a new asset
	Create(ctx context.Context, asset *Asset) error

	// Update replaces an existing asset
	Update(ctx context.Context, asset *Asset) error

	// ListByPortfolio retrieves all assets of a portfolio ordered by
	// creation date
	ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*Asset, error)
}

// PlannedChangeRepository defines the interface for planned change persistence operations
type PlannedChangeRepository interface {
	// GetByID retrieves a planned change by its ID.
	// Returns ErrChangeNotFound when no change exists.
	GetByID(ctx context.Context, id uuid.UUID) (*PlannedChange, error)

	// Create creates a new planned change
	Create(ctx context.Context, change *PlannedChange) error

	// Delete removes a planned change
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByPortfolio retrieves all planned changes of a portfolio
	// ordered by date
	ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*PlannedChange, error)
}
