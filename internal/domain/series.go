package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectionPoint is one point of a forward projection series: the
// portfolio total at a month boundary. The series is ephemeral and
// never persisted.
type ProjectionPoint struct {
	Date  time.Time
	Total decimal.Decimal
}

// PerformancePoint is one point of a backward performance series: the
// cumulative return of the portfolio at the end of one day.
// CumulativeReturn is rounded to 6 decimal places and may be +Inf when
// the portfolio has value but no net contributions.
type PerformancePoint struct {
	Date             time.Time
	CumulativeReturn float64
}
