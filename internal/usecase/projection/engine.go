package projection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
	"github.com/simaogato/portfolio-engine/internal/usecase/recurrence"
)

// ErrInvalidRange is returned when the requested window is empty or
// reversed.
var ErrInvalidRange = errors.New("projection start date must not be after end date")

// Engine orchestrates the month-by-month forward projection of a
// portfolio's total value.
type Engine struct {
	portfolios  domain.PortfolioRepository
	assets      domain.AssetRepository
	changes     domain.PlannedChangeRepository
	expander    *recurrence.Expander
	initializer *Initializer
	calculator  *Calculator
	log         *logger.Logger
}

// NewEngine creates a new projection Engine instance
func NewEngine(
	portfolios domain.PortfolioRepository,
	assets domain.AssetRepository,
	changes domain.PlannedChangeRepository,
	expander *recurrence.Expander,
	initializer *Initializer,
	calculator *Calculator,
	log *logger.Logger,
) *Engine {
	return &Engine{
		portfolios:  portfolios,
		assets:      assets,
		changes:     changes,
		expander:    expander,
		initializer: initializer,
		calculator:  calculator,
		log:         log,
	}
}

// Project computes the monthly value trajectory of a portfolio over
// [start, end].
//
// The series starts with (start, startingTotal) and appends one point
// per calendar month end, the last one clamped to the requested end
// date. A whole calendar year therefore yields 13 points.
//
// totalOverride optionally replaces the computed starting total as the
// base for percentage-allocated assets. drafts are ephemeral changes
// included in this one calculation only; they are never persisted.
//
// An unknown portfolio fails before any computation starts.
func (e *Engine) Project(
	ctx context.Context,
	portfolioID uuid.UUID,
	start, end time.Time,
	totalOverride *decimal.Decimal,
	drafts []*domain.PlannedChange,
) ([]domain.ProjectionPoint, error) {
	if _, err := e.portfolios.GetByID(ctx, portfolioID); err != nil {
		return nil, err
	}

	start = dateOnly(start)
	end = dateOnly(end)
	if start.After(end) {
		return nil, ErrInvalidRange
	}

	assets, err := e.assets.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	persisted, err := e.changes.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list planned changes: %w", err)
	}

	allChanges := make([]*domain.PlannedChange, 0, len(persisted)+len(drafts))
	allChanges = append(allChanges, persisted...)
	allChanges = append(allChanges, drafts...)

	values, rates, startingTotal := e.initializer.Initialize(assets, totalOverride)

	points := make([]domain.ProjectionPoint, 0, monthsBetween(start, end)+2)
	points = append(points, domain.ProjectionPoint{Date: start, Total: startingTotal})

	current := start
	for !current.After(end) {
		periodEnd := endOfMonth(current)
		if periodEnd.After(end) {
			periodEnd = end
		}

		occurrences := e.expander.ExpandAll(allChanges, current, periodEnd)
		var total decimal.Decimal
		values, total = e.calculator.Step(assets, values, rates, occurrences)

		points = append(points, domain.ProjectionPoint{Date: periodEnd, Total: total})

		if !periodEnd.Before(end) {
			break
		}
		current = startOfNextMonth(periodEnd)
	}

	return points, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func endOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

func startOfNextMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}

func monthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}
