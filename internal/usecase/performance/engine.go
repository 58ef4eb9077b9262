package performance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
	"github.com/simaogato/portfolio-engine/internal/usecase/recurrence"
)

// ErrInvalidRange is returned when the requested window is empty or
// reversed.
var ErrInvalidRange = errors.New("performance start date must not be after end date")

// Engine orchestrates the day-by-day historical cumulative-return walk.
type Engine struct {
	portfolios domain.PortfolioRepository
	assets     domain.AssetRepository
	changes    domain.PlannedChangeRepository
	expander   *recurrence.Expander
	resolver   *Resolver
	daily      *DailyCalculator
	log        *logger.Logger
}

// NewEngine creates a new performance Engine instance
func NewEngine(
	portfolios domain.PortfolioRepository,
	assets domain.AssetRepository,
	changes domain.PlannedChangeRepository,
	expander *recurrence.Expander,
	resolver *Resolver,
	daily *DailyCalculator,
	log *logger.Logger,
) *Engine {
	return &Engine{
		portfolios: portfolios,
		assets:     assets,
		changes:    changes,
		expander:   expander,
		resolver:   resolver,
		daily:      daily,
		log:        log,
	}
}

// Performance computes the daily cumulative-return trajectory of a
// portfolio over [start, end], one point per calendar day.
//
// Days before the portfolio's creation date report a cumulative return
// of 0. Cash events between the creation date and the window start are
// folded into the starting state by plain summation: no growth is
// applied to pre-window days. That understates pre-window gains but
// keeps the walk anchored to recorded cash flows only.
func (e *Engine) Performance(ctx context.Context, portfolioID uuid.UUID, start, end time.Time) ([]domain.PerformancePoint, error) {
	portfolio, err := e.portfolios.GetByID(ctx, portfolioID)
	if err != nil {
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

	changes, err := e.changes.ListByPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list planned changes: %w", err)
	}

	creation := dateOnly(portfolio.CreatedAt)

	// Materialize every occurrence from creation through the window end
	// once, then bucket cash events per day and collect reallocations
	// for the resolver.
	cashByDay := make(map[time.Time][]*domain.PlannedChange)
	reallocations := make([]*domain.PlannedChange, 0)
	if !creation.After(end) {
		for _, occ := range e.expander.ExpandAll(changes, creation, end) {
			if occ.Type == domain.ChangeTypeReallocation {
				reallocations = append(reallocations, occ)
				continue
			}
			day := dateOnly(occ.Date)
			cashByDay[day] = append(cashByDay[day], occ)
		}
	}

	// Baseline: plain summation of all cash events strictly before the
	// window start.
	state := DayState{}
	for day, occurrences := range cashByDay {
		if !day.Before(start) {
			continue
		}
		for _, occ := range occurrences {
			amount, ok := occ.CashAmount()
			if !ok {
				continue
			}
			switch occ.Type {
			case domain.ChangeTypeContribution:
				state.Value = state.Value.Add(amount)
				state.NetContributions = state.NetContributions.Add(amount)
			case domain.ChangeTypeWithdrawal:
				state.Value = state.Value.Sub(amount)
				state.NetContributions = state.NetContributions.Sub(amount)
			case domain.ChangeTypeDividend, domain.ChangeTypeInterest:
				state.Value = state.Value.Add(amount)
			}
		}
	}

	points := make([]domain.PerformancePoint, 0, int(end.Sub(start).Hours()/24)+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if day.Before(creation) {
			points = append(points, domain.PerformancePoint{Date: day, CumulativeReturn: 0})
			continue
		}

		allocation := e.resolver.Resolve(day, assets, reallocations)
		var cumulative float64
		state, cumulative = e.daily.Step(state, assets, allocation, cashByDay[day])
		points = append(points, domain.PerformancePoint{Date: day, CumulativeReturn: cumulative})
	}

	return points, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
