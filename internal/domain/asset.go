package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType represents the type of asset in the system
type AssetType string

const (
	AssetTypeStock      AssetType = "STOCK"
	AssetTypeETF        AssetType = "ETF"
	AssetTypeBond       AssetType = "BOND"
	AssetTypeCash       AssetType = "CASH"
	AssetTypeCrypto     AssetType = "CRYPTO"
	AssetTypeRealEstate AssetType = "REAL_ESTATE"
	AssetTypeCommodity  AssetType = "COMMODITY"
	AssetTypeOther      AssetType = "OTHER"
)

// Asset represents a single holding of a portfolio.
//
// An asset is sized either by an absolute fixed value or by a percentage
// allocation of the portfolio total; the two are mutually exclusive.
// Use SetFixedValue/SetAllocation to keep that exclusivity structural.
type Asset struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	Name        string
	Type        AssetType

	// FixedValue is the absolute starting value of the asset.
	// NULL when the asset is sized by Allocation.
	FixedValue *decimal.Decimal
	// Allocation is the percentage (0-100) of the portfolio total
	// assigned to this asset. NULL when the asset has a FixedValue.
	Allocation *decimal.Decimal

	// ManualReturn is an optional annual return override in percent.
	// When nil, the type-default annual return applies.
	ManualReturn *decimal.Decimal

	CreatedAt time.Time
}

// SetFixedValue sizes the asset by an absolute value and clears any
// percentage allocation.
func (a *Asset) SetFixedValue(value decimal.Decimal) {
	a.FixedValue = &value
	a.Allocation = nil
}

// SetAllocation sizes the asset by a percentage (0-100) of the portfolio
// total and clears any fixed value.
func (a *Asset) SetAllocation(percent decimal.Decimal) {
	a.Allocation = &percent
	a.FixedValue = nil
}

// AllocationFraction returns the percentage allocation normalized to 0-1,
// or false when the asset is not percentage-sized.
func (a *Asset) AllocationFraction() (decimal.Decimal, bool) {
	if a.Allocation == nil {
		return decimal.Zero, false
	}
	return a.Allocation.Div(decimal.NewFromInt(100)), true
}

// Validate ensures the asset adheres to domain rules
// Returns an error if validation fails
func (a *Asset) Validate() error {
	if a.Name == "" {
		return errors.New("asset name cannot be empty")
	}

	// Fixed value and percentage allocation are mutually exclusive
	if a.FixedValue != nil && a.Allocation != nil {
		return errors.New("asset cannot have both a fixed value and a percentage allocation")
	}

	if a.FixedValue != nil && a.FixedValue.IsNegative() {
		return errors.New("asset fixed value cannot be negative")
	}

	if a.Allocation != nil {
		if a.Allocation.IsNegative() || a.Allocation.GreaterThan(decimal.NewFromInt(100)) {
			return errors.New("asset allocation must be between 0 and 100")
		}
	}

	return nil
}
