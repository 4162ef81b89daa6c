package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the direction of a cash movement.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// CategoryGroup is the budget group a spending category belongs to.
type CategoryGroup string

const (
	CategoryGroupNeeds         CategoryGroup = "NEEDS"
	CategoryGroupWants         CategoryGroup = "WANTS"
	CategoryGroupInvestments   CategoryGroup = "INVESTMENTS"
	CategoryGroupUncategorized CategoryGroup = "UNCATEGORIZED"
)

// Transaction represents an actual, recorded cash movement on one of the
// user's accounts. Amounts are absolute values; the direction comes from Type.
type Transaction struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	AccountID   uuid.UUID
	Amount      Money
	Type        TransactionType
	Category    string
	Date        time.Time
	Description string
}

// Validate ensures the transaction adheres to domain rules.
func (t *Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return errors.New("transaction amount must be positive (absolute value)")
	}
	if t.Type != TransactionTypeIncome && t.Type != TransactionTypeExpense {
		return errors.New("transaction type must be INCOME or EXPENSE")
	}
	if t.Date.IsZero() {
		return errors.New("transaction date is required")
	}
	return nil
}
