package budget

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/finsight/finsight-backend/internal/domain"
)

// Service evaluates budget rules against a user's recorded transactions over
// a date window.
type Service struct {
	TransactionRepo domain.TransactionRepository
}

// NewService creates a new budget Service instance.
func NewService(transactionRepo domain.TransactionRepository) *Service {
	return &Service{TransactionRepo: transactionRepo}
}

// Evaluate checks a budget rule over [start, end].
//
// Category and account caps compare spending against the cap (status "ok" or
// "over"); a savings target compares income minus expenses against the target
// (status "met" or "short"). Remaining is the rule amount minus the current
// value in every case.
func (s *Service) Evaluate(
	ctx context.Context,
	userID uuid.UUID,
	rule *domain.BudgetRule,
	start, end time.Time,
) (*domain.BudgetEvaluation, error) {
	if start.After(end) {
		return nil, errors.New("start date must be on or before end date")
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	transactions, err := s.TransactionRepo.ListByUserAndRange(ctx, userID, domain.DateOnly(start), domain.DateOnly(end))
	if err != nil {
		return nil, err
	}

	return evaluate(transactions, rule), nil
}

func evaluate(transactions []*domain.Transaction, rule *domain.BudgetRule) *domain.BudgetEvaluation {
	var current domain.Money
	var status string

	switch rule.RuleType {
	case domain.BudgetRuleCategoryCap:
		current = sumExpenses(transactions, func(tx *domain.Transaction) bool {
			return tx.Category == rule.Category
		})
		status = capStatus(current, rule.Amount)
	case domain.BudgetRuleAccountCap:
		current = sumExpenses(transactions, func(tx *domain.Transaction) bool {
			return tx.AccountID == *rule.AccountID
		})
		status = capStatus(current, rule.Amount)
	case domain.BudgetRuleSavingsTarget:
		income := sumByType(transactions, domain.TransactionTypeIncome)
		expenses := sumByType(transactions, domain.TransactionTypeExpense)
		current = income.Sub(expenses)
		if current.GreaterThan(rule.Amount) || current.Equal(rule.Amount) {
			status = domain.BudgetStatusMet
		} else {
			status = domain.BudgetStatusShort
		}
	}

	return &domain.BudgetEvaluation{
		CurrentValue: current,
		Remaining:    rule.Amount.Sub(current),
		Status:       status,
	}
}

func capStatus(current, cap domain.Money) string {
	if current.GreaterThan(cap) {
		return domain.BudgetStatusOver
	}
	return domain.BudgetStatusOK
}

func sumExpenses(transactions []*domain.Transaction, match func(*domain.Transaction) bool) domain.Money {
	var total domain.Money
	for _, tx := range transactions {
		if tx.Type != domain.TransactionTypeExpense || !match(tx) {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total
}

func sumByType(transactions []*domain.Transaction, txType domain.TransactionType) domain.Money {
	var total domain.Money
	for _, tx := range transactions {
		if tx.Type != txType {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total
}
