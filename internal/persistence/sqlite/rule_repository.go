package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/appointment-scheduler/internal/persistence"
	"github.com/example/appointment-scheduler/internal/timeslot"
)

// RuleRepository persists weekly availability rules.
type RuleRepository struct {
	pool *ConnectionPool
}

func NewRuleRepository(pool *ConnectionPool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

const ruleColumns = `id, weekday, start_minute, end_minute, active, recurring, created_at, updated_at`

func (r *RuleRepository) CreateRule(ctx context.Context, rule persistence.AvailabilityRule) error {
	_, err := r.pool.DB().ExecContext(ctx,
		`INSERT INTO availability_rules (`+ruleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID,
		int(rule.Weekday),
		int(rule.Start),
		int(rule.End),
		boolToInt(rule.Active),
		boolToInt(rule.Recurring),
		formatTime(rule.CreatedAt),
		formatTime(rule.UpdatedAt),
	)
	return mapError(err)
}

func (r *RuleRepository) UpdateRule(ctx context.Context, rule persistence.AvailabilityRule) error {
	result, err := r.pool.DB().ExecContext(ctx,
		`UPDATE availability_rules
		 SET weekday = ?, start_minute = ?, end_minute = ?, active = ?, recurring = ?, updated_at = ?
		 WHERE id = ?`,
		int(rule.Weekday),
		int(rule.Start),
		int(rule.End),
		boolToInt(rule.Active),
		boolToInt(rule.Recurring),
		formatTime(rule.UpdatedAt),
		rule.ID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *RuleRepository) GetRule(ctx context.Context, id string) (persistence.AvailabilityRule, error) {
	row := r.pool.DB().QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM availability_rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AvailabilityRule{}, persistence.ErrNotFound
		}
		return persistence.AvailabilityRule{}, err
	}
	return rule, nil
}

func (r *RuleRepository) ListRules(ctx context.Context, weekday *time.Weekday) ([]persistence.AvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM availability_rules`
	args := []any{}
	if weekday != nil {
		query += ` WHERE weekday = ?`
		args = append(args, int(*weekday))
	}
	query += ` ORDER BY weekday, start_minute, id`

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rules []persistence.AvailabilityRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rules, nil
}

func (r *RuleRepository) DeleteRule(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, `DELETE FROM availability_rules WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanRule(row rowScanner) (persistence.AvailabilityRule, error) {
	var (
		rule                 persistence.AvailabilityRule
		weekday              int
		startMinute          int
		endMinute            int
		active, recurring    int
		createdAt, updatedAt string
	)
	err := row.Scan(&rule.ID, &weekday, &startMinute, &endMinute, &active, &recurring, &createdAt, &updatedAt)
	if err != nil {
		return persistence.AvailabilityRule{}, err
	}
	rule.Weekday = time.Weekday(weekday)
	rule.Start = timeslot.MinuteOfDay(startMinute)
	rule.End = timeslot.MinuteOfDay(endMinute)
	rule.Active = active != 0
	rule.Recurring = recurring != 0
	if rule.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.AvailabilityRule{}, err
	}
	if rule.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.AvailabilityRule{}, err
	}
	return rule, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
