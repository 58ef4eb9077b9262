package domain

import (
	"errors"
	"time"
)

// Frequency represents how often a recurring planned change repeats
type Frequency string

const (
	FrequencyOneTime Frequency = "ONE_TIME"
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// WeekdayClass selects which kind of day an ordinal selector refers to:
// a specific weekday ("first MONDAY"), any day ("last DAY"), any weekday
// ("last WEEKDAY") or any weekend day ("first WEEKEND_DAY").
type WeekdayClass string

const (
	WeekdayClassMonday    WeekdayClass = "MONDAY"
	WeekdayClassTuesday   WeekdayClass = "TUESDAY"
	WeekdayClassWednesday WeekdayClass = "WEDNESDAY"
	WeekdayClassThursday  WeekdayClass = "THURSDAY"
	WeekdayClassFriday    WeekdayClass = "FRIDAY"
	WeekdayClassSaturday  WeekdayClass = "SATURDAY"
	WeekdayClassSunday    WeekdayClass = "SUNDAY"
	WeekdayClassDay       WeekdayClass = "DAY"
	WeekdayClassWeekday   WeekdayClass = "WEEKDAY"
	WeekdayClassWeekend   WeekdayClass = "WEEKEND_DAY"
)

// EndMode represents how a recurring rule stops generating occurrences
type EndMode string

const (
	EndModeNever            EndMode = "NEVER"
	EndModeAfterOccurrences EndMode = "AFTER_OCCURRENCES"
	EndModeOnDate           EndMode = "ON_DATE"
)

// LastOrdinal selects the last matching day of a month instead of the
// nth counted from the start.
const LastOrdinal = -1

// RecurrenceEnd describes the end condition of a recurring rule.
// Occurrences is only meaningful for AFTER_OCCURRENCES and is counted
// from the rule's own start date, not from any query window.
// Date is only meaningful for ON_DATE.
type RecurrenceEnd struct {
	Mode        EndMode
	Occurrences int
	Date        time.Time
}

// Recurrence describes how a planned change repeats.
//
// The selector fields narrow the rule per frequency:
//   - WEEKLY: Weekdays is the explicit set of weekdays.
//   - MONTHLY/YEARLY: either DayOfMonth (1-31, or LastOrdinal for the
//     last day) or Ordinal+OrdinalClass ("first MONDAY", "last WEEKDAY").
//   - YEARLY additionally fixes MonthOfYear.
type Recurrence struct {
	Frequency Frequency
	// Interval is the step between occurrences in frequency units.
	// Zero is treated as 1.
	Interval int

	Weekdays []time.Weekday

	DayOfMonth   int
	Ordinal      int
	OrdinalClass WeekdayClass

	MonthOfYear time.Month

	End RecurrenceEnd
}

// EffectiveInterval returns the interval, defaulting to 1 when unset.
func (r *Recurrence) EffectiveInterval() int {
	if r.Interval < 1 {
		return 1
	}
	return r.Interval
}

// Validate ensures the recurrence descriptor adheres to domain rules
// Returns an error if validation fails
func (r *Recurrence) Validate() error {
	switch r.Frequency {
	case FrequencyOneTime, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
	default:
		return errors.New("recurrence frequency must be ONE_TIME, DAILY, WEEKLY, MONTHLY, or YEARLY")
	}

	if r.Interval < 0 {
		return errors.New("recurrence interval cannot be negative")
	}

	if r.DayOfMonth != 0 && r.Ordinal != 0 {
		return errors.New("recurrence cannot have both a day of month and an ordinal selector")
	}

	if r.DayOfMonth != 0 && r.DayOfMonth != LastOrdinal && (r.DayOfMonth < 1 || r.DayOfMonth > 31) {
		return errors.New("recurrence day of month must be 1-31 or the last-day marker")
	}

	if r.Ordinal != 0 {
		if r.Ordinal != LastOrdinal && (r.Ordinal < 1 || r.Ordinal > 4) {
			return errors.New("recurrence ordinal must be 1-4 or the last marker")
		}
		if r.OrdinalClass == "" {
			return errors.New("recurrence ordinal requires a weekday class")
		}
	}

	switch r.End.Mode {
	case EndModeNever, "":
	case EndModeAfterOccurrences:
		if r.End.Occurrences < 1 {
			return errors.New("recurrence end occurrences must be at least 1")
		}
	case EndModeOnDate:
		if r.End.Date.IsZero() {
			return errors.New("recurrence end date is required for ON_DATE")
		}
	default:
		return errors.New("recurrence end mode must be NEVER, AFTER_OCCURRENCES, or ON_DATE")
	}

	return nil
}
