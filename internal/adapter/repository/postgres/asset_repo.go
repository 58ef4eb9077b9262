package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
)

// assetRepository implements domain.AssetRepository
type assetRepository struct {
	db  *DB
	log *logger.Logger
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *DB, log *logger.Logger) domain.AssetRepository {
	return &assetRepository{db: db, log: log}
}

// GetByID retrieves an asset by its ID
func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	query := `
		SELECT id, portfolio_id, name, asset_type, fixed_value, allocation, manual_return, created_at
		FROM assets
		WHERE id = $1
	`

	asset, err := r.scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset by ID: %w", err)
	}

	return asset, nil
}

// Create creates a new asset
func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	query := `
		INSERT INTO assets (id, portfolio_id, name, asset_type, fixed_value, allocation, manual_return, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		asset.ID,
		asset.PortfolioID,
		asset.Name,
		string(asset.Type),
		decimalOrNil(asset.FixedValue),
		decimalOrNil(asset.Allocation),
		decimalOrNil(asset.ManualReturn),
		asset.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}

	return nil
}

// Update replaces an existing asset
func (r *assetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	query := `
		UPDATE assets
		SET name = $2, asset_type = $3, fixed_value = $4, allocation = $5, manual_return = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		asset.ID,
		asset.Name,
		string(asset.Type),
		decimalOrNil(asset.FixedValue),
		decimalOrNil(asset.Allocation),
		decimalOrNil(asset.ManualReturn),
	)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrAssetNotFound
	}

	return nil
}

// ListByPortfolio retrieves all assets of a portfolio ordered by creation date
func (r *assetRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*domain.Asset, error) {
	query := `
		SELECT id, portfolio_id, name, asset_type, fixed_value, allocation, manual_return, created_at
		FROM assets
		WHERE portfolio_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]*domain.Asset, 0)
	for rows.Next() {
		asset, err := r.scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}

	return assets, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *assetRepository) scanAsset(row rowScanner) (*domain.Asset, error) {
	var asset domain.Asset
	var fixedValueStr, allocationStr, manualReturnStr sql.NullString

	err := row.Scan(
		&asset.ID,
		&asset.PortfolioID,
		&asset.Name,
		&asset.Type,
		&fixedValueStr,
		&allocationStr,
		&manualReturnStr,
		&asset.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	asset.FixedValue = r.parseNullDecimal(fixedValueStr, "fixed_value", asset.ID)
	asset.Allocation = r.parseNullDecimal(allocationStr, "allocation", asset.ID)
	asset.ManualReturn = r.parseNullDecimal(manualReturnStr, "manual_return", asset.ID)

	return &asset, nil
}

// parseNullDecimal parses a nullable numeric column. A malformed value
// is neutralized to nil with a warning so one bad row cannot break a
// whole calculation run.
func (r *assetRepository) parseNullDecimal(value sql.NullString, column string, assetID uuid.UUID) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	parsed, err := decimal.NewFromString(value.String)
	if err != nil {
		r.log.Warnw("ignoring malformed numeric column on asset",
			"asset_id", assetID,
			"column", column,
			"value", value.String,
			"error", err)
		return nil
	}
	return &parsed
}

func decimalOrNil(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}
