package http

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-engine/internal/domain"
)

const dateFormat = "2006-01-02"

type createPortfolioRequest struct {
	Name string `json:"name" binding:"required"`
}

type portfolioResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func toPortfolioResponse(p *domain.Portfolio) portfolioResponse {
	return portfolioResponse{
		ID:        p.ID.String(),
		Name:      p.Name,
		CreatedAt: p.CreatedAt.Format(dateFormat),
	}
}

type createAssetRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required"`
	// Exactly one of fixed_value and allocation must be set.
	FixedValue   *string `json:"fixed_value"`
	Allocation   *string `json:"allocation"`
	ManualReturn *string `json:"manual_return"`
}

func (r *createAssetRequest) toDomain(portfolioID uuid.UUID) (*domain.Asset, error) {
	asset := &domain.Asset{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		Name:        r.Name,
		Type:        domain.AssetType(r.Type),
		CreatedAt:   time.Now().UTC(),
	}

	if r.FixedValue != nil && r.Allocation != nil {
		return nil, errors.New("fixed_value and allocation are mutually exclusive")
	}
	if r.FixedValue != nil {
		value, err := decimal.NewFromString(*r.FixedValue)
		if err != nil {
			return nil, fmt.Errorf("invalid fixed_value: %w", err)
		}
		asset.SetFixedValue(value)
	}
	if r.Allocation != nil {
		percent, err := decimal.NewFromString(*r.Allocation)
		if err != nil {
			return nil, fmt.Errorf("invalid allocation: %w", err)
		}
		asset.SetAllocation(percent)
	}
	if r.ManualReturn != nil {
		manual, err := decimal.NewFromString(*r.ManualReturn)
		if err != nil {
			return nil, fmt.Errorf("invalid manual_return: %w", err)
		}
		asset.ManualReturn = &manual
	}

	return asset, asset.Validate()
}

type assetResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	FixedValue   *string `json:"fixed_value,omitempty"`
	Allocation   *string `json:"allocation,omitempty"`
	ManualReturn *string `json:"manual_return,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

func toAssetResponse(a *domain.Asset) assetResponse {
	return assetResponse{
		ID:           a.ID.String(),
		Name:         a.Name,
		Type:         string(a.Type),
		FixedValue:   decimalString(a.FixedValue),
		Allocation:   decimalString(a.Allocation),
		ManualReturn: decimalString(a.ManualReturn),
		CreatedAt:    a.CreatedAt.Format(dateFormat),
	}
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

type recurrenceRequest struct {
	Frequency      string `json:"frequency" binding:"required"`
	Interval       int    `json:"interval"`
	Weekdays       []int  `json:"weekdays"`
	DayOfMonth     int    `json:"day_of_month"`
	Ordinal        int    `json:"ordinal"`
	OrdinalClass   string `json:"ordinal_class"`
	MonthOfYear    int    `json:"month_of_year"`
	EndMode        string `json:"end_mode"`
	EndOccurrences int    `json:"end_occurrences"`
	EndDate        string `json:"end_date"`
}

func (r *recurrenceRequest) toDomain() (*domain.Recurrence, error) {
	rec := &domain.Recurrence{
		Frequency:    domain.Frequency(r.Frequency),
		Interval:     r.Interval,
		DayOfMonth:   r.DayOfMonth,
		Ordinal:      r.Ordinal,
		OrdinalClass: domain.WeekdayClass(r.OrdinalClass),
		MonthOfYear:  time.Month(r.MonthOfYear),
		End:          domain.RecurrenceEnd{Mode: domain.EndModeNever, Occurrences: r.EndOccurrences},
	}
	for _, weekday := range r.Weekdays {
		if weekday < 0 || weekday > 6 {
			return nil, fmt.Errorf("invalid weekday %d", weekday)
		}
		rec.Weekdays = append(rec.Weekdays, time.Weekday(weekday))
	}
	if r.EndMode != "" {
		rec.End.Mode = domain.EndMode(r.EndMode)
	}
	if r.EndDate != "" {
		endDate, err := time.Parse(dateFormat, r.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date: %w", err)
		}
		rec.End.Date = endDate
	}
	return rec, rec.Validate()
}

type createChangeRequest struct {
	Type             string             `json:"type" binding:"required"`
	Date             string             `json:"date" binding:"required"`
	Amount           *string            `json:"amount"`
	TargetAllocation map[string]string  `json:"target_allocation"`
	Recurrence       *recurrenceRequest `json:"recurrence"`
}

func (r *createChangeRequest) toDomain(portfolioID uuid.UUID) (*domain.PlannedChange, error) {
	date, err := time.Parse(dateFormat, r.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	var change *domain.PlannedChange
	switch changeType := domain.ChangeType(r.Type); changeType {
	case domain.ChangeTypeReallocation:
		if r.Amount != nil {
			return nil, errors.New("reallocation cannot carry an amount")
		}
		target := make(map[uuid.UUID]decimal.Decimal, len(r.TargetAllocation))
		for idStr, percentStr := range r.TargetAllocation {
			assetID, err := uuid.Parse(idStr)
			if err != nil {
				return nil, fmt.Errorf("invalid asset id in target_allocation: %w", err)
			}
			percent, err := decimal.NewFromString(percentStr)
			if err != nil {
				return nil, fmt.Errorf("invalid percent in target_allocation: %w", err)
			}
			target[assetID] = percent
		}
		change = domain.NewReallocation(portfolioID, date, target)
	case domain.ChangeTypeContribution, domain.ChangeTypeWithdrawal, domain.ChangeTypeDividend, domain.ChangeTypeInterest:
		if r.Amount == nil {
			return nil, errors.New("amount is required for cash changes")
		}
		amount, err := decimal.NewFromString(*r.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount: %w", err)
		}
		change = domain.RestorePlannedChange(uuid.New(), portfolioID, changeType, date, amount, nil, nil)
	default:
		return nil, fmt.Errorf("unknown change type %q", r.Type)
	}

	if r.Recurrence != nil {
		rec, err := r.Recurrence.toDomain()
		if err != nil {
			return nil, err
		}
		change.Recurrence = rec
	}

	return change, change.Validate()
}

type changeResponse struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Date        string            `json:"date"`
	Amount      *string           `json:"amount,omitempty"`
	Target      map[string]string `json:"target_allocation,omitempty"`
	IsRecurring bool              `json:"is_recurring"`
}

func toChangeResponse(c *domain.PlannedChange) changeResponse {
	resp := changeResponse{
		ID:          c.ID.String(),
		Type:        string(c.Type),
		Date:        c.Date.Format(dateFormat),
		IsRecurring: c.IsRecurring(),
	}
	if amount, ok := c.CashAmount(); ok {
		resp.Amount = decimalString(&amount)
	}
	if target, ok := c.TargetAllocation(); ok {
		resp.Target = make(map[string]string, len(target))
		for assetID, percent := range target {
			resp.Target[assetID.String()] = percent.String()
		}
	}
	return resp
}

type projectionPointResponse struct {
	Date  string `json:"date"`
	Total string `json:"total"`
}

func toProjectionResponse(points []domain.ProjectionPoint) []projectionPointResponse {
	resp := make([]projectionPointResponse, 0, len(points))
	for _, point := range points {
		resp = append(resp, projectionPointResponse{
			Date:  point.Date.Format(dateFormat),
			Total: point.Total.StringFixed(2),
		})
	}
	return resp
}

type performancePointResponse struct {
	Date string `json:"date"`
	// CumulativeReturn is null when the figure is infinite (value with
	// no net contributions), since JSON has no encoding for +Inf.
	CumulativeReturn *float64 `json:"cumulative_return"`
}

func toPerformanceResponse(points []domain.PerformancePoint) []performancePointResponse {
	resp := make([]performancePointResponse, 0, len(points))
	for _, point := range points {
		item := performancePointResponse{Date: point.Date.Format(dateFormat)}
		if !math.IsInf(point.CumulativeReturn, 0) {
			value := point.CumulativeReturn
			item.CumulativeReturn = &value
		}
		resp = append(resp, item)
	}
	return resp
}

// optionalDecimal parses an optional decimal query/body value; empty
// means absent.
func optionalDecimal(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type previewRequest struct {
	Start         string                `json:"start" binding:"required"`
	End           string                `json:"end" binding:"required"`
	StartingTotal *string               `json:"starting_total"`
	DraftChanges  []createChangeRequest `json:"draft_changes"`
}
