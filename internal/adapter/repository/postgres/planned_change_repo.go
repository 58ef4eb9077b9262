package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/portfolio-engine/internal/domain"
	"github.com/simaogato/portfolio-engine/internal/logger"
)

// plannedChangeRepository implements domain.PlannedChangeRepository
type plannedChangeRepository struct {
	db  *DB
	log *logger.Logger
}

// NewPlannedChangeRepository creates a new planned change repository
func NewPlannedChangeRepository(db *DB, log *logger.Logger) domain.PlannedChangeRepository {
	return &plannedChangeRepository{db: db, log: log}
}

const plannedChangeColumns = `
	id, portfolio_id, change_type, date, amount, target_allocation,
	is_recurring, frequency, recur_interval, weekdays, day_of_month,
	ordinal, ordinal_class, month_of_year, end_mode, end_occurrences, end_date
`

// GetByID retrieves a planned change by its ID
func (r *plannedChangeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PlannedChange, error) {
	query := `SELECT ` + plannedChangeColumns + ` FROM planned_changes WHERE id = $1`

	change, err := r.scanChange(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrChangeNotFound
		}
		return nil, fmt.Errorf("failed to get planned change by ID: %w", err)
	}

	return change, nil
}

// Create creates a new planned change
func (r *plannedChangeRepository) Create(ctx context.Context, change *domain.PlannedChange) error {
	query := `
		INSERT INTO planned_changes (` + plannedChangeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	var amount interface{}
	if cash, ok := change.CashAmount(); ok {
		amount = cash.String()
	}

	var target interface{}
	if targetMap, ok := change.TargetAllocation(); ok {
		encoded, err := encodeTarget(targetMap)
		if err != nil {
			return fmt.Errorf("failed to encode target allocation: %w", err)
		}
		target = encoded
	}

	rec := change.Recurrence
	var (
		frequency             interface{}
		interval, dayOfMonth  int
		ordinal               int
		ordinalClass          interface{}
		monthOfYear           int
		endMode               interface{}
		endOccurrences        int
		endDate               interface{}
		weekdays              interface{}
	)
	if rec != nil {
		frequency = string(rec.Frequency)
		interval = rec.Interval
		dayOfMonth = rec.DayOfMonth
		ordinal = rec.Ordinal
		if rec.OrdinalClass != "" {
			ordinalClass = string(rec.OrdinalClass)
		}
		monthOfYear = int(rec.MonthOfYear)
		if rec.End.Mode != "" {
			endMode = string(rec.End.Mode)
		}
		endOccurrences = rec.End.Occurrences
		if !rec.End.Date.IsZero() {
			endDate = rec.End.Date
		}
		if len(rec.Weekdays) > 0 {
			weekdays = encodeWeekdays(rec.Weekdays)
		}
	}

	_, err := r.db.ExecContext(ctx, query,
		change.ID,
		change.PortfolioID,
		string(change.Type),
		change.Date,
		amount,
		target,
		change.IsRecurring(),
		frequency,
		interval,
		weekdays,
		dayOfMonth,
		ordinal,
		ordinalClass,
		monthOfYear,
		endMode,
		endOccurrences,
		endDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create planned change: %w", err)
	}

	return nil
}

// Delete removes a planned change
func (r *plannedChangeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM planned_changes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete planned change: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrChangeNotFound
	}

	return nil
}

// ListByPortfolio retrieves all planned changes of a portfolio ordered by date
func (r *plannedChangeRepository) ListByPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*domain.PlannedChange, error) {
	query := `SELECT ` + plannedChangeColumns + ` FROM planned_changes WHERE portfolio_id = $1 ORDER BY date, id`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list planned changes: %w", err)
	}
	defer rows.Close()

	changes := make([]*domain.PlannedChange, 0)
	for rows.Next() {
		change, err := r.scanChange(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan planned change: %w", err)
		}
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate planned changes: %w", err)
	}

	return changes, nil
}

func (r *plannedChangeRepository) scanChange(row rowScanner) (*domain.PlannedChange, error) {
	var (
		id, portfolioID       uuid.UUID
		changeType            string
		date                  time.Time
		amountStr, targetStr  sql.NullString
		isRecurring           bool
		frequency             sql.NullString
		interval, dayOfMonth  int
		weekdaysStr           sql.NullString
		ordinal, monthOfYear  int
		ordinalClass, endMode sql.NullString
		endOccurrences        int
		endDate               sql.NullTime
	)

	err := row.Scan(
		&id, &portfolioID, &changeType, &date, &amountStr, &targetStr,
		&isRecurring, &frequency, &interval, &weekdaysStr, &dayOfMonth,
		&ordinal, &ordinalClass, &monthOfYear, &endMode, &endOccurrences, &endDate,
	)
	if err != nil {
		return nil, err
	}

	// A malformed amount is neutralized to zero with a warning; the
	// engines then treat the occurrence as a no-op instead of aborting
	// the whole portfolio.
	amount := decimal.Zero
	if amountStr.Valid {
		parsed, err := decimal.NewFromString(amountStr.String)
		if err != nil {
			r.log.Warnw("ignoring malformed amount on planned change",
				"portfolio_id", portfolioID,
				"change_id", id,
				"date", date.Format("2006-01-02"),
				"value", amountStr.String,
				"error", err)
		} else {
			amount = parsed
		}
	}

	var target map[uuid.UUID]decimal.Decimal
	if targetStr.Valid {
		target, err = r.decodeTarget(targetStr.String, portfolioID, id)
		if err != nil {
			return nil, err
		}
	}

	var rec *domain.Recurrence
	if isRecurring {
		rec = &domain.Recurrence{
			Frequency:    domain.Frequency(frequency.String),
			Interval:     interval,
			Weekdays:     decodeWeekdays(weekdaysStr.String),
			DayOfMonth:   dayOfMonth,
			Ordinal:      ordinal,
			OrdinalClass: domain.WeekdayClass(ordinalClass.String),
			MonthOfYear:  time.Month(monthOfYear),
			End: domain.RecurrenceEnd{
				Mode:        domain.EndMode(endMode.String),
				Occurrences: endOccurrences,
			},
		}
		if rec.End.Mode == "" {
			rec.End.Mode = domain.EndModeNever
		}
		if endDate.Valid {
			rec.End.Date = endDate.Time
		}
	}

	return domain.RestorePlannedChange(id, portfolioID, domain.ChangeType(changeType), date, amount, target, rec), nil
}

// encodeTarget serializes a target allocation map as JSON with string
// values to keep decimal precision intact.
func encodeTarget(target map[uuid.UUID]decimal.Decimal) (string, error) {
	encoded := make(map[string]string, len(target))
	for assetID, percent := range target {
		encoded[assetID.String()] = percent.String()
	}
	bytes, err := json.Marshal(encoded)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// decodeTarget parses a stored target allocation. Entries with a
// malformed asset id or percent are dropped with a warning.
func (r *plannedChangeRepository) decodeTarget(raw string, portfolioID, changeID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var encoded map[string]string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return nil, fmt.Errorf("failed to decode target allocation: %w", err)
	}

	target := make(map[uuid.UUID]decimal.Decimal, len(encoded))
	for idStr, percentStr := range encoded {
		assetID, err := uuid.Parse(idStr)
		if err != nil {
			r.log.Warnw("dropping target entry with malformed asset id",
				"portfolio_id", portfolioID,
				"change_id", changeID,
				"asset_id", idStr)
			continue
		}
		percent, err := decimal.NewFromString(percentStr)
		if err != nil {
			r.log.Warnw("dropping target entry with malformed percent",
				"portfolio_id", portfolioID,
				"change_id", changeID,
				"asset_id", idStr,
				"value", percentStr)
			continue
		}
		target[assetID] = percent
	}
	return target, nil
}

func encodeWeekdays(weekdays []time.Weekday) string {
	parts := make([]string, 0, len(weekdays))
	for _, weekday := range weekdays {
		parts = append(parts, strconv.Itoa(int(weekday)))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(raw string) []time.Weekday {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	weekdays := make([]time.Weekday, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value < 0 || value > 6 {
			continue
		}
		weekdays = append(weekdays, time.Weekday(value))
	}
	return weekdays
}
