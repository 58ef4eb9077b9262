// Package memory provides in-memory repository implementations used by
// tests and local development runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/simaogato/portfolio-engine/internal/domain"
)

// PortfolioRepository is an in-memory domain.PortfolioRepository
type PortfolioRepository struct {
	mu         sync.RWMutex
	portfolios map[uuid.UUID]*domain.Portfolio
}

// NewPortfolioRepository creates a new in-memory portfolio repository
func NewPortfolioRepository() *PortfolioRepository {
	return &PortfolioRepository{portfolios: make(map[uuid.UUID]*domain.Portfolio)}
}

func (r *PortfolioRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	portfolio, ok := r.portfolios[id]
	if !ok {
		return nil, domain.ErrPortfolioNotFound
	}
	copied := *portfolio
	return &copied, nil
}

func (r *PortfolioRepository) Create(_ context.Context, portfolio *domain.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *portfolio
	r.portfolios[portfolio.ID] = &copied
	return nil
}

func (r *PortfolioRepository) List(_ context.Context) ([]*domain.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	portfolios := make([]*domain.Portfolio, 0, len(r.portfolios))
	for _, portfolio := range r.portfolios {
		copied := *portfolio
		portfolios = append(portfolios, &copied)
	}
	sort.Slice(portfolios, func(i, j int) bool {
		return portfolios[i].CreatedAt.Before(portfolios[j].CreatedAt)
	})
	return portfolios, nil
}

// AssetRepository is an in-memory domain.AssetRepository
type AssetRepository struct {
	mu     sync.RWMutex
	assets map[uuid.UUID]*domain.Asset
}

// NewAssetRepository creates a new in-memory asset repository
func NewAssetRepository() *AssetRepository {
	return &AssetRepository{assets: make(map[uuid.UUID]*domain.Asset)}
}

func (r *AssetRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	asset, ok := r.assets[id]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	copied := *asset
	return &copied, nil
}

func (r *AssetRepository) Create(_ context.Context, asset *domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *asset
	r.assets[asset.ID] = &copied
	return nil
}

func (r *AssetRepository) Update(_ context.Context, asset *domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[asset.ID]; !ok {
		return domain.ErrAssetNotFound
	}
	copied := *asset
	r.assets[asset.ID] = &copied
	return nil
}

func (r *AssetRepository) ListByPortfolio(_ context.Context, portfolioID uuid.UUID) ([]*domain.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	assets := make([]*domain.Asset, 0)
	for _, asset := range r.assets {
		if asset.PortfolioID == portfolioID {
			copied := *asset
			assets = append(assets, &copied)
		}
	}
	// Stable order mirrors the postgres repository: creation date, then id.
	sort.Slice(assets, func(i, j int) bool {
		if assets[i].CreatedAt.Equal(assets[j].CreatedAt) {
			return assets[i].ID.String() < assets[j].ID.String()
		}
		return assets[i].CreatedAt.Before(assets[j].CreatedAt)
	})
	return assets, nil
}

// PlannedChangeRepository is an in-memory domain.PlannedChangeRepository
type PlannedChangeRepository struct {
	mu      sync.RWMutex
	changes map[uuid.UUID]*domain.PlannedChange
}

// NewPlannedChangeRepository creates a new in-memory planned change repository
func NewPlannedChangeRepository() *PlannedChangeRepository {
	return &PlannedChangeRepository{changes: make(map[uuid.UUID]*domain.PlannedChange)}
}

func (r *PlannedChangeRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.PlannedChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	change, ok := r.changes[id]
	if !ok {
		return nil, domain.ErrChangeNotFound
	}
	copied := *change
	return &copied, nil
}

func (r *PlannedChangeRepository) Create(_ context.Context, change *domain.PlannedChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *change
	r.changes[change.ID] = &copied
	return nil
}

func (r *PlannedChangeRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.changes[id]; !ok {
		return domain.ErrChangeNotFound
	}
	delete(r.changes, id)
	return nil
}

func (r *PlannedChangeRepository) ListByPortfolio(_ context.Context, portfolioID uuid.UUID) ([]*domain.PlannedChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	changes := make([]*domain.PlannedChange, 0)
	for _, change := range r.changes {
		if change.PortfolioID == portfolioID {
			copied := *change
			changes = append(changes, &copied)
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		if changes[i].Date.Equal(changes[j].Date) {
			return changes[i].ID.String() < changes[j].ID.String()
		}
		return changes[i].Date.Before(changes[j].Date)
	})
	return changes, nil
}
