package domain

import (
	"errors"

	"github.com/google/uuid"
)

// BudgetRuleType selects what a budget rule constrains.
type BudgetRuleType string

const (
	// BudgetRuleCategoryCap caps spending in one category over a window.
	BudgetRuleCategoryCap BudgetRuleType = "CATEGORY_CAP"
	// BudgetRuleAccountCap caps spending from one account over a window.
	BudgetRuleAccountCap BudgetRuleType = "ACCOUNT_CAP"
	// BudgetRuleSavingsTarget requires income minus expenses to reach a floor.
	BudgetRuleSavingsTarget BudgetRuleType = "SAVINGS_TARGET"
)

// Budget evaluation statuses.
const (
	BudgetStatusOK    = "ok"
	BudgetStatusOver  = "over"
	BudgetStatusMet   = "met"
	BudgetStatusShort = "short"
)

// BudgetRule is a user-defined spending or savings constraint.
type BudgetRule struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	RuleType  BudgetRuleType
	Amount    Money
	Category  string     // required for CATEGORY_CAP
	AccountID *uuid.UUID // required for ACCOUNT_CAP
}

// Validate ensures the rule adheres to domain rules.
func (r *BudgetRule) Validate() error {
	if !r.Amount.IsPositive() {
		return errors.New("budget rule amount must be positive")
	}
	switch r.RuleType {
	case BudgetRuleCategoryCap:
		if r.Category == "" {
			return errors.New("category cap requires a category")
		}
	case BudgetRuleAccountCap:
		if r.AccountID == nil {
			return errors.New("account cap requires an account")
		}
	case BudgetRuleSavingsTarget:
	default:
		return errors.New("unsupported budget rule type")
	}
	return nil
}

// BudgetEvaluation is the outcome of checking a budget rule over a window.
type BudgetEvaluation struct {
	CurrentValue Money  `json:"current_value"`
	Remaining    Money  `json:"remaining"`
	Status       string `json:"status"`
}
