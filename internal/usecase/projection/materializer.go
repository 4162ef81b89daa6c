package projection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/finsight/finsight-backend/internal/domain"
)

// Materializer converts due occurrences of active recurring rules into actual
// transactions and advances each rule's materialization cursor, so future
// projections and the transaction store never double count.
type Materializer struct {
	RuleRepo        domain.RecurringRuleRepository
	TransactionRepo domain.TransactionRepository
	Log             *logrus.Logger
}

// NewMaterializer creates a new Materializer instance.
func NewMaterializer(
	ruleRepo domain.RecurringRuleRepository,
	transactionRepo domain.TransactionRepository,
	log *logrus.Logger,
) *Materializer {
	return &Materializer{
		RuleRepo:        ruleRepo,
		TransactionRepo: transactionRepo,
		Log:             log,
	}
}

// Run materializes every occurrence due on or before asOf across all active
// rules. A failure on one rule is logged and skipped; it must not abort
// processing for other users' rules.
func (m *Materializer) Run(ctx context.Context, asOf time.Time) error {
	asOf = domain.DateOnly(asOf)
	rules, err := m.RuleRepo.ListActive(ctx, asOf)
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if err := m.materializeRule(ctx, rule, asOf); err != nil {
			m.Log.WithError(err).WithField("rule_id", rule.ID).
				Error("failed to materialize recurring rule")
		}
	}

	return nil
}

// materializeRule writes all of one rule's due occurrences as transactions.
// Project already starts one period past LastGeneratedAt, so re-running after
// a partial failure resumes instead of duplicating.
func (m *Materializer) materializeRule(ctx context.Context, rule *domain.RecurringRule, asOf time.Time) error {
	occurrences, err := Project(rule, rule.StartDate, asOf)
	if err != nil {
		return err
	}

	for _, occurrence := range occurrences {
		tx := &domain.Transaction{
			ID:          uuid.New(),
			UserID:      rule.UserID,
			AccountID:   occurrence.AccountID,
			Amount:      occurrence.Amount,
			Type:        occurrence.Type,
			Category:    occurrence.Category,
			Date:        occurrence.Date,
			Description: "Recurring: " + rule.Category,
		}
		if err := m.TransactionRepo.Create(ctx, tx); err != nil {
			return err
		}
		if err := m.RuleRepo.UpdateLastGenerated(ctx, rule.ID, occurrence.Date); err != nil {
			return err
		}
	}

	return nil
}
