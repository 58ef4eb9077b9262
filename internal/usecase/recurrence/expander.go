package recurrence

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
)

// Expander materializes the concrete dated occurrences of planned
// changes inside a query window.
//
// Recurring rules are translated to RFC 5545 recurrence rules
// (rrule-go), which gives the calendar semantics the engines rely on:
// a day-of-month that does not exist in a month (the 31st in February)
// is skipped for that month with no rollover, and occurrence counts are
// counted from the rule's own start date rather than the window start.
type Expander struct {
	log *logger.Logger
}

// NewExpander creates a new Expander instance
func NewExpander(log *logger.Logger) *Expander {
	return &Expander{log: log}
}

// Expand returns the occurrences of one planned change inside
// [windowStart, windowEnd], both inclusive. Each occurrence is a
// one-time copy of the change pinned to its concrete date.
//
// A rule with an unsupported frequency is skipped (logged, empty
// result); it never aborts the caller's run.
func (e *Expander) Expand(change *domain.PlannedChange, windowStart, windowEnd time.Time) []*domain.PlannedChange {
	windowStart = dateOnly(windowStart)
	windowEnd = dateOnly(windowEnd)

	if !change.IsRecurring() {
		date := dateOnly(change.Date)
		if date.Before(windowStart) || date.After(windowEnd) {
			return nil
		}
		return []*domain.PlannedChange{change.OccurrenceOn(date)}
	}

	rule, err := e.buildRule(change, windowEnd)
	if err != nil {
		e.log.Warnw("skipping planned change with unsupported recurrence",
			"portfolio_id", change.PortfolioID,
			"change_id", change.ID,
			"date", change.Date.Format("2006-01-02"),
			"frequency", change.Recurrence.Frequency,
			"error", err)
		return nil
	}

	occurrences := make([]*domain.PlannedChange, 0)
	for _, date := range rule.Between(windowStart, windowEnd, true) {
		occurrences = append(occurrences, change.OccurrenceOn(dateOnly(date)))
	}
	return occurrences
}

// ExpandAll expands every change into the window and returns the merged
// occurrence list ordered by date.
func (e *Expander) ExpandAll(changes []*domain.PlannedChange, windowStart, windowEnd time.Time) []*domain.PlannedChange {
	all := make([]*domain.PlannedChange, 0)
	for _, change := range changes {
		all = append(all, e.Expand(change, windowStart, windowEnd)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Date.Before(all[j].Date)
	})
	return all
}

// buildRule translates the domain recurrence descriptor into an rrule.
func (e *Expander) buildRule(change *domain.PlannedChange, windowEnd time.Time) (*rrule.RRule, error) {
	rec := change.Recurrence

	option := rrule.ROption{
		Dtstart:  dateOnly(change.Date),
		Interval: rec.EffectiveInterval(),
	}

	switch rec.Frequency {
	case domain.FrequencyDaily:
		option.Freq = rrule.DAILY
	case domain.FrequencyWeekly:
		option.Freq = rrule.WEEKLY
		if len(rec.Weekdays) > 0 {
			option.Byweekday = weeklyByweekday(rec.Weekdays)
		}
	case domain.FrequencyMonthly:
		option.Freq = rrule.MONTHLY
		applyMonthlySelector(&option, rec)
	case domain.FrequencyYearly:
		option.Freq = rrule.YEARLY
		month := rec.MonthOfYear
		if month == 0 {
			month = change.Date.Month()
		}
		option.Bymonth = []int{int(month)}
		applyMonthlySelector(&option, rec)
	default:
		return nil, &unsupportedFrequencyError{frequency: rec.Frequency}
	}

	// End condition. A count is counted from the rule's start date; an
	// end date caps the rule at min(rule end, window end); a never-ending
	// rule is bounded by the window alone.
	switch rec.End.Mode {
	case domain.EndModeAfterOccurrences:
		option.Count = rec.End.Occurrences
	case domain.EndModeOnDate:
		until := dateOnly(rec.End.Date)
		if windowEnd.Before(until) {
			until = windowEnd
		}
		option.Until = until
	default:
		option.Until = windowEnd
	}

	return rrule.NewRRule(option)
}

// applyMonthlySelector narrows a monthly or yearly rule to either an
// explicit day of month or an ordinal day selector ("first Monday",
// "last weekday", "last day"). With neither, the rule falls back to the
// start date's day of month (rrule default).
func applyMonthlySelector(option *rrule.ROption, rec *domain.Recurrence) {
	if rec.DayOfMonth != 0 {
		option.Bymonthday = []int{rec.DayOfMonth}
		return
	}
	if rec.Ordinal == 0 {
		return
	}

	switch rec.OrdinalClass {
	case domain.WeekdayClassDay:
		option.Bymonthday = []int{rec.Ordinal}
	case domain.WeekdayClassWeekday:
		option.Byweekday = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}
		option.Bysetpos = []int{rec.Ordinal}
	case domain.WeekdayClassWeekend:
		option.Byweekday = []rrule.Weekday{rrule.SA, rrule.SU}
		option.Bysetpos = []int{rec.Ordinal}
	default:
		if weekday, ok := classWeekday(rec.OrdinalClass); ok {
			option.Byweekday = []rrule.Weekday{weekday.Nth(rec.Ordinal)}
		}
	}
}

// weeklyByweekday maps the explicit weekday set of a weekly rule.
func weeklyByweekday(weekdays []time.Weekday) []rrule.Weekday {
	mapped := make([]rrule.Weekday, 0, len(weekdays))
	for _, weekday := range weekdays {
		mapped = append(mapped, rruleWeekday(weekday))
	}
	return mapped
}

func rruleWeekday(weekday time.Weekday) rrule.Weekday {
	switch weekday {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

// classWeekday maps a specific-weekday class to its rrule weekday.
func classWeekday(class domain.WeekdayClass) (rrule.Weekday, bool) {
	switch class {
	case domain.WeekdayClassMonday:
		return rrule.MO, true
	case domain.WeekdayClassTuesday:
		return rrule.TU, true
	case domain.WeekdayClassWednesday:
		return rrule.WE, true
	case domain.WeekdayClassThursday:
		return rrule.TH, true
	case domain.WeekdayClassFriday:
		return rrule.FR, true
	case domain.WeekdayClassSaturday:
		return rrule.SA, true
	case domain.WeekdayClassSunday:
		return rrule.SU, true
	default:
		return rrule.Weekday{}, false
	}
}

// dateOnly truncates a timestamp to midnight UTC so every date in the
// engines compares on calendar days only.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type unsupportedFrequencyError struct {
	frequency domain.Frequency
}

func (e *unsupportedFrequencyError) Error() string {
	return "unsupported recurrence frequency: " + string(e.frequency)
}
