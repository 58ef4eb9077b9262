package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChangeType represents the type of planned change
type ChangeType string

const (
	ChangeTypeContribution ChangeType = "CONTRIBUTION"
	ChangeTypeWithdrawal   ChangeType = "WITHDRAWAL"
	ChangeTypeReallocation ChangeType = "REALLOCATION"
	ChangeTypeDividend     ChangeType = "DIVIDEND"
	ChangeTypeInterest     ChangeType = "INTEREST"
)

// IsCash reports whether the change type moves money. Reallocations
// never move value; they only shift allocation weights.
func (t ChangeType) IsCash() bool {
	return t != ChangeTypeReallocation
}

// Sign returns +1 for inflows, -1 for outflows, 0 for reallocations.
func (t ChangeType) Sign() int {
	switch t {
	case ChangeTypeContribution, ChangeTypeDividend, ChangeTypeInterest:
		return 1
	case ChangeTypeWithdrawal:
		return -1
	default:
		return 0
	}
}

// DefaultReallocationSumTolerance is the allowed deviation of a
// reallocation's target percentages from 100. Kept at the historical
// hardcoded value; overridable via config.EngineConfig.
const DefaultReallocationSumTolerance = 0.001

// PlannedChange represents a planned cash-flow or reallocation event.
//
// The variant payload depends on Type: cash types (contribution,
// withdrawal, dividend, interest) carry an amount, reallocations carry a
// target-allocation map. Use the New* constructors plus the CashAmount
// and TargetAllocation accessors so the exclusivity stays structural.
type PlannedChange struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	Type        ChangeType
	Date        time.Time

	// amount is set for cash change types only.
	amount decimal.Decimal
	// target maps asset ID to target allocation percent (0-100).
	// Set for reallocations only.
	target map[uuid.UUID]decimal.Decimal

	// Recurrence is nil for one-time changes.
	Recurrence *Recurrence
}

// NewContribution creates a one-time contribution.
func NewContribution(portfolioID uuid.UUID, date time.Time, amount decimal.Decimal) *PlannedChange {
	return newCashChange(portfolioID, ChangeTypeContribution, date, amount)
}

// NewWithdrawal creates a one-time withdrawal. The amount is the
// absolute value withdrawn.
func NewWithdrawal(portfolioID uuid.UUID, date time.Time, amount decimal.Decimal) *PlannedChange {
	return newCashChange(portfolioID, ChangeTypeWithdrawal, date, amount)
}

// NewDividend creates a one-time dividend payment.
func NewDividend(portfolioID uuid.UUID, date time.Time, amount decimal.Decimal) *PlannedChange {
	return newCashChange(portfolioID, ChangeTypeDividend, date, amount)
}

// NewInterest creates a one-time interest payment.
func NewInterest(portfolioID uuid.UUID, date time.Time, amount decimal.Decimal) *PlannedChange {
	return newCashChange(portfolioID, ChangeTypeInterest, date, amount)
}

func newCashChange(portfolioID uuid.UUID, changeType ChangeType, date time.Time, amount decimal.Decimal) *PlannedChange {
	return &PlannedChange{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		Type:        changeType,
		Date:        date,
		amount:      amount,
	}
}

// NewReallocation creates a one-time reallocation event. The target map
// assigns each asset its new allocation percent (0-100).
func NewReallocation(portfolioID uuid.UUID, date time.Time, target map[uuid.UUID]decimal.Decimal) *PlannedChange {
	copied := make(map[uuid.UUID]decimal.Decimal, len(target))
	for id, pct := range target {
		copied[id] = pct
	}
	return &PlannedChange{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		Type:        ChangeTypeReallocation,
		Date:        date,
		target:      copied,
	}
}

// RestorePlannedChange rebuilds a planned change from persisted state.
// Only the payload matching the type is kept, so a stored row with both
// an amount and a target map cannot smuggle the ambiguity back in.
func RestorePlannedChange(
	id, portfolioID uuid.UUID,
	changeType ChangeType,
	date time.Time,
	amount decimal.Decimal,
	target map[uuid.UUID]decimal.Decimal,
	rec *Recurrence,
) *PlannedChange {
	change := &PlannedChange{
		ID:          id,
		PortfolioID: portfolioID,
		Type:        changeType,
		Date:        date,
		Recurrence:  rec,
	}
	if changeType.IsCash() {
		change.amount = amount
	} else {
		change.target = target
	}
	return change
}

// CashAmount returns the amount of a cash change, or false for
// reallocations.
func (c *PlannedChange) CashAmount() (decimal.Decimal, bool) {
	if !c.Type.IsCash() {
		return decimal.Zero, false
	}
	return c.amount, true
}

// SignedAmount returns the amount with the sign of the change type
// applied, or zero for reallocations.
func (c *PlannedChange) SignedAmount() decimal.Decimal {
	amount, ok := c.CashAmount()
	if !ok {
		return decimal.Zero
	}
	return amount.Mul(decimal.NewFromInt(int64(c.Type.Sign())))
}

// TargetAllocation returns the target allocation percents of a
// reallocation, or false for cash changes.
func (c *PlannedChange) TargetAllocation() (map[uuid.UUID]decimal.Decimal, bool) {
	if c.Type != ChangeTypeReallocation {
		return nil, false
	}
	return c.target, true
}

// IsRecurring reports whether the change carries a recurrence rule.
func (c *PlannedChange) IsRecurring() bool {
	return c.Recurrence != nil && c.Recurrence.Frequency != FrequencyOneTime
}

// OccurrenceOn returns a copy of the change pinned to a concrete date
// with the recurrence stripped. The recurrence expander uses this to
// materialize occurrences of recurring rules.
func (c *PlannedChange) OccurrenceOn(date time.Time) *PlannedChange {
	occ := *c
	occ.Date = date
	occ.Recurrence = nil
	return &occ
}

// NetCashFlow returns the signed sum of the cash occurrences in a
// period. Contributions, dividends and interest add; withdrawals
// subtract; reallocations contribute nothing. Both the monthly and the
// daily engine sum period cash flow through this single helper.
func NetCashFlow(occurrences []*PlannedChange) decimal.Decimal {
	net := decimal.Zero
	for _, occ := range occurrences {
		net = net.Add(occ.SignedAmount())
	}
	return net
}

// Validate ensures the planned change adheres to domain rules
// Returns an error if validation fails
// CRITICAL: cash types require a positive amount, reallocations require
// a target map summing to ~100%.
func (c *PlannedChange) Validate() error {
	switch c.Type {
	case ChangeTypeContribution, ChangeTypeWithdrawal, ChangeTypeDividend, ChangeTypeInterest:
		if c.amount.LessThanOrEqual(decimal.Zero) {
			return errors.New("cash change amount must be positive")
		}
		if len(c.target) > 0 {
			return errors.New("cash change cannot carry a target allocation")
		}
	case ChangeTypeReallocation:
		if !c.amount.IsZero() {
			return errors.New("reallocation cannot carry an amount")
		}
		if len(c.target) == 0 {
			return errors.New("reallocation must carry a target allocation")
		}
		if err := validateTargetSum(c.target); err != nil {
			return err
		}
	default:
		return errors.New("change type must be CONTRIBUTION, WITHDRAWAL, REALLOCATION, DIVIDEND, or INTEREST")
	}

	if c.Date.IsZero() {
		return errors.New("planned change date is required")
	}

	if c.Recurrence != nil {
		if err := c.Recurrence.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// validateTargetSum ensures the target percentages sum to 100 within the
// default tolerance.
func validateTargetSum(target map[uuid.UUID]decimal.Decimal) error {
	sum := decimal.Zero
	for _, pct := range target {
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return errors.New("reallocation target percent must be between 0 and 100")
		}
		sum = sum.Add(pct)
	}

	tolerance := decimal.NewFromFloat(DefaultReallocationSumTolerance * 100)
	if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(tolerance) {
		return errors.New("reallocation target percentages must sum to 100")
	}

	return nil
}
