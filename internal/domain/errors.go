package domain

import "errors"

// Sentinel errors returned by repositories so callers can map them to
// not-found responses without inspecting driver errors.
var (
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrAssetNotFound     = errors.New("asset not found")
	ErrChangeNotFound    = errors.New("planned change not found")
)
