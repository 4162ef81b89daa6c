package budget

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight-backend/internal/domain"
)

// MockTransactionRepository is a mock implementation of TransactionRepository for testing
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListByUserAndRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Transaction, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

var (
	windowStart = time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
)

func expense(userID, accountID uuid.UUID, amount int64, category string) *domain.Transaction {
	return &domain.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		AccountID: accountID,
		Amount:    domain.MoneyFromInt(amount),
		Type:      domain.TransactionTypeExpense,
		Category:  category,
		Date:      windowStart.AddDate(0, 0, 5),
	}
}

func income(userID uuid.UUID, amount int64) *domain.Transaction {
	return &domain.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		AccountID: uuid.New(),
		Amount:    domain.MoneyFromInt(amount),
		Type:      domain.TransactionTypeIncome,
		Category:  "salary",
		Date:      windowStart.AddDate(0, 0, 1),
	}
}

func TestEvaluate_CategoryCapUnderLimit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	txRepo := new(MockTransactionRepository)
	svc := NewService(txRepo)

	txRepo.On("ListByUserAndRange", ctx, userID, windowStart, windowEnd).Return([]*domain.Transaction{
		expense(userID, uuid.New(), 120, "dining"),
		expense(userID, uuid.New(), 80, "dining"),
		expense(userID, uuid.New(), 900, "rent"), // other category, excluded
		income(userID, 5000),                     // income never counts toward a cap
	}, nil)

	rule := &domain.BudgetRule{
		ID:       uuid.New(),
		UserID:   userID,
		RuleType: domain.BudgetRuleCategoryCap,
		Amount:   domain.MoneyFromInt(300),
		Category: "dining",
	}

	eval, err := svc.Evaluate(ctx, userID, rule, windowStart, windowEnd)
	require.NoError(t, err)

	assert.True(t, eval.CurrentValue.Equal(domain.MoneyFromInt(200)))
	assert.True(t, eval.Remaining.Equal(domain.MoneyFromInt(100)))
	assert.Equal(t, domain.BudgetStatusOK, eval.Status)
}

func TestEvaluate_CategoryCapOverLimit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	txRepo := new(MockTransactionRepository)
	svc := NewService(txRepo)

	txRepo.On("ListByUserAndRange", ctx, userID, windowStart, windowEnd).Return([]*domain.Transaction{
		expense(userID, uuid.New(), 350, "dining"),
	}, nil)

	rule := &domain.BudgetRule{
		ID:       uuid.New(),
		UserID:   userID,
		RuleType: domain.BudgetRuleCategoryCap,
		Amount:   domain.MoneyFromInt(300),
		Category: "dining",
	}

	eval, err := svc.Evaluate(ctx, userID, rule, windowStart, windowEnd)
	require.NoError(t, err)

	assert.Equal(t, domain.BudgetStatusOver, eval.Status)
	assert.True(t, eval.Remaining.Equal(domain.MoneyFromInt(-50)))
}

func TestEvaluate_AccountCapFiltersByAccount(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	txRepo := new(MockTransactionRepository)
	svc := NewService(txRepo)

	txRepo.On("ListByUserAndRange", ctx, userID, windowStart, windowEnd).Return([]*domain.Transaction{
		expense(userID, accountID, 400, "shopping"),
		expense(userID, uuid.New(), 999, "shopping"), // different account
	}, nil)

	rule := &domain.BudgetRule{
		ID:        uuid.New(),
		UserID:    userID,
		RuleType:  domain.BudgetRuleAccountCap,
		Amount:    domain.MoneyFromInt(500),
		AccountID: &accountID,
	}

	eval, err := svc.Evaluate(ctx, userID, rule, windowStart, windowEnd)
	require.NoError(t, err)

	assert.True(t, eval.CurrentValue.Equal(domain.MoneyFromInt(400)))
	assert.Equal(t, domain.BudgetStatusOK, eval.Status)
}

func TestEvaluate_SavingsTargetMetAtExactTarget(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	txRepo := new(MockTransactionRepository)
	svc := NewService(txRepo)

	txRepo.On("ListByUserAndRange", ctx, userID, windowStart, windowEnd).Return([]*domain.Transaction{
		income(userID, 5000),
		expense(userID, uuid.New(), 4000, "rent"),
	}, nil)

	rule := &domain.BudgetRule{
		ID:       uuid.New(),
		UserID:   userID,
		RuleType: domain.BudgetRuleSavingsTarget,
		Amount:   domain.MoneyFromInt(1000),
	}

	eval, err := svc.Evaluate(ctx, userID, rule, windowStart, windowEnd)
	require.NoError(t, err)

	assert.True(t, eval.CurrentValue.Equal(domain.MoneyFromInt(1000)))
	assert.True(t, eval.Remaining.IsZero())
	assert.Equal(t, domain.BudgetStatusMet, eval.Status)
}

func TestEvaluate_SavingsTargetShort(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	txRepo := new(MockTransactionRepository)
	svc := NewService(txRepo)

	txRepo.On("ListByUserAndRange", ctx, userID, windowStart, windowEnd).Return([]*domain.Transaction{
		income(userID, 5000),
		expense(userID, uuid.New(), 4800, "rent"),
	}, nil)

	rule := &domain.BudgetRule{
		ID:       uuid.New(),
		UserID:   userID,
		RuleType: domain.BudgetRuleSavingsTarget,
		Amount:   domain.MoneyFromInt(1000),
	}

	eval, err := svc.Evaluate(ctx, userID, rule, windowStart, windowEnd)
	require.NoError(t, err)

	assert.True(t, eval.CurrentValue.Equal(domain.MoneyFromInt(200)))
	assert.True(t, eval.Remaining.Equal(domain.MoneyFromInt(800)))
	assert.Equal(t, domain.BudgetStatusShort, eval.Status)
}

func TestEvaluate_StartAfterEndFails(t *testing.T) {
	svc := NewService(new(MockTransactionRepository))

	rule := &domain.BudgetRule{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		RuleType: domain.BudgetRuleSavingsTarget,
		Amount:   domain.MoneyFromInt(1000),
	}

	_, err := svc.Evaluate(context.Background(), rule.UserID, rule, windowEnd, windowStart)
	require.Error(t, err)
}

func TestEvaluate_InvalidRuleFails(t *testing.T) {
	svc := NewService(new(MockTransactionRepository))

	// Category cap without a category is invalid.
	rule := &domain.BudgetRule{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		RuleType: domain.BudgetRuleCategoryCap,
		Amount:   domain.MoneyFromInt(300),
	}

	_, err := svc.Evaluate(context.Background(), rule.UserID, rule, windowStart, windowEnd)
	require.Error(t, err)
}
