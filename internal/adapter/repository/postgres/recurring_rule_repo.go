package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finsight/finsight-backend/internal/domain"
)

// recurringRuleRepository implements domain.RecurringRuleRepository
type recurringRuleRepository struct {
	db *DB
}

// NewRecurringRuleRepository creates a new recurring rule repository
func NewRecurringRuleRepository(db *DB) domain.RecurringRuleRepository {
	return &recurringRuleRepository{db: db}
}

const ruleColumns = `id, user_id, account_id, amount, type, category, frequency, interval_count, start_date, end_date, last_generated_at`

// ListByUser retrieves all of a user's recurring rules
func (r *recurringRuleRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.RecurringRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM recurring_rules WHERE user_id = $1 ORDER BY start_date ASC`
	return r.list(ctx, query, userID)
}

// ListActive retrieves all rules whose end date has not passed asOf
func (r *recurringRuleRepository) ListActive(ctx context.Context, asOf time.Time) ([]*domain.RecurringRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM recurring_rules WHERE end_date IS NULL OR end_date >= $1 ORDER BY start_date ASC`
	return r.list(ctx, query, asOf)
}

// UpdateLastGenerated advances a rule's last materialized occurrence date
func (r *recurringRuleRepository) UpdateLastGenerated(ctx context.Context, ruleID uuid.UUID, lastGenerated time.Time) error {
	query := `UPDATE recurring_rules SET last_generated_at = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, ruleID, lastGenerated)
	if err != nil {
		return fmt.Errorf("failed to update last generated date: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rule update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("recurring rule %s not found", ruleID)
	}

	return nil
}

func (r *recurringRuleRepository) list(ctx context.Context, query string, arg interface{}) ([]*domain.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring rules: %w", err)
	}
	defer rows.Close()

	rules := make([]*domain.RecurringRule, 0)
	for rows.Next() {
		var rule domain.RecurringRule
		var amountStr string
		var endDate, lastGenerated sql.NullTime

		err := rows.Scan(
			&rule.ID,
			&rule.UserID,
			&rule.AccountID,
			&amountStr,
			&rule.Type,
			&rule.Category,
			&rule.Frequency,
			&rule.Interval,
			&rule.StartDate,
			&endDate,
			&lastGenerated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring rule: %w", err)
		}

		rule.Amount, err = domain.MoneyFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}
		if endDate.Valid {
			d := endDate.Time
			rule.EndDate = &d
		}
		if lastGenerated.Valid {
			d := lastGenerated.Time
			rule.LastGeneratedAt = &d
		}

		rules = append(rules, &rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recurring rules: %w", err)
	}

	return rules, nil
}
