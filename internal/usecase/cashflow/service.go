package cashflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/finsight/finsight-backend/internal/domain"
	"github.com/finsight/finsight-backend/internal/usecase/projection"
)

// Service merges actual transactions with projected recurring transactions
// into chronological monthly buckets.
type Service struct {
	TransactionRepo domain.TransactionRepository
	RuleRepo        domain.RecurringRuleRepository
	Groups          domain.CategoryGroupSource
}

// NewService creates a new cashflow Service instance.
func NewService(
	transactionRepo domain.TransactionRepository,
	ruleRepo domain.RecurringRuleRepository,
	groups domain.CategoryGroupSource,
) *Service {
	return &Service{
		TransactionRepo: transactionRepo,
		RuleRepo:        ruleRepo,
		Groups:          groups,
	}
}

// GetMonthlyBreakdown produces one MonthlyBreakdown per calendar month from
// the month containing rangeStart through the month containing rangeEnd.
//
// Actual totals sum the user's recorded transactions per month, split by type
// and, for expenses, by the needs/wants/investments group of their category.
// Projected totals are computed only for months with zero actual transactions
// that lie at least partially in the future relative to asOf: once any actual
// exists for a month, projection for that month is suppressed entirely, so a
// month never mixes non-zero actual and projected figures.
func (s *Service) GetMonthlyBreakdown(
	ctx context.Context,
	userID uuid.UUID,
	rangeStart, rangeEnd time.Time,
	asOf time.Time,
) ([]*domain.MonthlyBreakdown, error) {
	first := domain.MonthStart(rangeStart)
	last := domain.MonthStart(rangeEnd)
	asOf = domain.DateOnly(asOf)

	transactions, err := s.TransactionRepo.ListByUserAndRange(ctx, userID, first, domain.MonthEnd(last))
	if err != nil {
		return nil, err
	}
	rules, err := s.RuleRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string][]*domain.Transaction)
	for _, tx := range transactions {
		key := tx.Date.Format("2006-01")
		byMonth[key] = append(byMonth[key], tx)
	}

	breakdowns := make([]*domain.MonthlyBreakdown, 0)
	for month := first; !month.After(last); month = month.AddDate(0, 1, 0) {
		breakdown, err := s.buildMonth(ctx, month, byMonth[month.Format("2006-01")], rules, asOf)
		if err != nil {
			return nil, err
		}
		breakdowns = append(breakdowns, breakdown)
	}

	return breakdowns, nil
}

func (s *Service) buildMonth(
	ctx context.Context,
	month time.Time,
	actuals []*domain.Transaction,
	rules []*domain.RecurringRule,
	asOf time.Time,
) (*domain.MonthlyBreakdown, error) {
	breakdown := &domain.MonthlyBreakdown{Month: month.Format("2006-01")}
	monthEnd := domain.MonthEnd(month)

	for _, tx := range actuals {
		switch tx.Type {
		case domain.TransactionTypeIncome:
			breakdown.TotalIncome = breakdown.TotalIncome.Add(tx.Amount)
		case domain.TransactionTypeExpense:
			breakdown.TotalExpenses = breakdown.TotalExpenses.Add(tx.Amount)
			group, err := s.Groups.GroupOf(ctx, tx.Category)
			if err != nil {
				return nil, err
			}
			switch group {
			case domain.CategoryGroupNeeds:
				breakdown.NeedsTotal = breakdown.NeedsTotal.Add(tx.Amount)
			case domain.CategoryGroupWants:
				breakdown.WantsTotal = breakdown.WantsTotal.Add(tx.Amount)
			case domain.CategoryGroupInvestments:
				breakdown.InvestmentsTotal = breakdown.InvestmentsTotal.Add(tx.Amount)
			}
			// Uncategorized expenses count toward the expense total only.
		}
	}

	if len(actuals) > 0 || monthEnd.Before(asOf) {
		breakdown.NetCashflow = breakdown.TotalIncome.Sub(breakdown.TotalExpenses)
		return breakdown, nil
	}

	// The month has no actual data yet and lies at least partially in the
	// future: project it from the recurring rules instead.
	occurrences, err := projection.ProjectAll(rules, month, monthEnd)
	if err != nil {
		return nil, err
	}

	var projectedIncome, projectedExpenses domain.Money
	for _, occurrence := range occurrences {
		switch occurrence.Type {
		case domain.TransactionTypeIncome:
			projectedIncome = projectedIncome.Add(occurrence.Amount)
		case domain.TransactionTypeExpense:
			projectedExpenses = projectedExpenses.Add(occurrence.Amount)
		}
	}

	breakdown.ProjectedTotalIncome = &projectedIncome
	breakdown.ProjectedTotalExpenses = &projectedExpenses
	breakdown.NetCashflow = projectedIncome.Sub(projectedExpenses)
	return breakdown, nil
}
