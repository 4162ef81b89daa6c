package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Frequency is the unit a recurring rule steps by.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// RecurringRule is a user-defined template that generates future transactions
// at a fixed cadence. It is mutated only by the CRUD layer; the projection
// engine consumes it read-only.
type RecurringRule struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	AccountID uuid.UUID
	Amount    Money
	Type      TransactionType
	Category  string
	Frequency Frequency
	Interval  int // every N frequency units, e.g. Interval=2 WEEKLY for biweekly
	StartDate time.Time
	EndDate   *time.Time

	// LastGeneratedAt is the date of the most recent occurrence materialized
	// into the transaction store. Projection starts one period after it to
	// avoid double counting against actuals.
	LastGeneratedAt *time.Time
}

// Validate ensures the rule adheres to domain rules.
func (r *RecurringRule) Validate() error {
	if !r.Amount.IsPositive() {
		return errors.New("recurring rule amount must be positive")
	}
	if r.Type != TransactionTypeIncome && r.Type != TransactionTypeExpense {
		return errors.New("recurring rule type must be INCOME or EXPENSE")
	}
	switch r.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
	default:
		return errors.New("recurring rule frequency must be DAILY, WEEKLY, MONTHLY, or YEARLY")
	}
	if r.Interval < 1 {
		return errors.New("recurring rule interval must be at least 1")
	}
	if r.StartDate.IsZero() {
		return errors.New("recurring rule start date is required")
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return errors.New("recurring rule end date cannot precede its start date")
	}
	return nil
}

// ProjectedTransaction is a hypothetical future transaction derived from a
// recurring rule. It is ephemeral: computed on demand, never persisted.
type ProjectedTransaction struct {
	Date      time.Time
	AccountID uuid.UUID
	Amount    Money
	Type      TransactionType
	Category  string
	RuleID    uuid.UUID
}
