package projection

import (
	"time"

	"github.com/finsight/finsight-backend/internal/domain"
)

// Project expands a recurring rule into the concrete transactions it would
// produce inside [windowStart, windowEnd].
//
// Occurrences are anchored at the rule's start date and stepped by the rule's
// interval and frequency unit. Monthly and yearly stepping is calendar aware:
// the anchor day-of-month is clamped to the target month's last day when it
// does not exist there. Projection begins at the later of the rule's start
// date and one period after its last materialized occurrence.
//
// Pure function of its inputs: calling it twice with identical arguments
// yields identical sequences. A window entirely outside the rule's active
// span yields an empty slice, never an error.
func Project(rule *domain.RecurringRule, windowStart, windowEnd time.Time) ([]domain.ProjectedTransaction, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	start := domain.DateOnly(rule.StartDate)
	lower := domain.DateOnly(windowStart)
	upper := domain.DateOnly(windowEnd)

	if start.After(lower) {
		lower = start
	}
	if rule.LastGeneratedAt != nil {
		next := step(rule, domain.DateOnly(*rule.LastGeneratedAt), 1)
		if next.After(lower) {
			lower = next
		}
	}
	if rule.EndDate != nil {
		end := domain.DateOnly(*rule.EndDate)
		if end.Before(upper) {
			upper = end
		}
	}
	if lower.After(upper) {
		return []domain.ProjectedTransaction{}, nil
	}

	projections := make([]domain.ProjectedTransaction, 0)
	for k := firstIndexOnOrAfter(rule, start, lower); ; k++ {
		date := occurrence(rule, start, k)
		if date.After(upper) {
			break
		}
		projections = append(projections, domain.ProjectedTransaction{
			Date:      date,
			AccountID: rule.AccountID,
			Amount:    rule.Amount,
			Type:      rule.Type,
			Category:  rule.Category,
			RuleID:    rule.ID,
		})
	}

	return projections, nil
}

// ProjectAll expands a set of rules over the same window, concatenating their
// occurrences in rule order.
func ProjectAll(rules []*domain.RecurringRule, windowStart, windowEnd time.Time) ([]domain.ProjectedTransaction, error) {
	all := make([]domain.ProjectedTransaction, 0)
	for _, rule := range rules {
		occurrences, err := Project(rule, windowStart, windowEnd)
		if err != nil {
			return nil, err
		}
		all = append(all, occurrences...)
	}
	return all, nil
}

// occurrence returns the k-th occurrence date (k=0 is the start date itself),
// anchored at the rule's start day.
func occurrence(rule *domain.RecurringRule, start time.Time, k int) time.Time {
	switch rule.Frequency {
	case domain.FrequencyDaily:
		return start.AddDate(0, 0, k*rule.Interval)
	case domain.FrequencyWeekly:
		return start.AddDate(0, 0, 7*k*rule.Interval)
	case domain.FrequencyMonthly:
		return domain.AddMonths(start, k*rule.Interval, start.Day())
	default: // domain.FrequencyYearly
		return domain.AddMonths(start, 12*k*rule.Interval, start.Day())
	}
}

// step advances an arbitrary date by n periods, used to find the first
// occurrence after the materialization cursor.
func step(rule *domain.RecurringRule, from time.Time, n int) time.Time {
	switch rule.Frequency {
	case domain.FrequencyDaily:
		return from.AddDate(0, 0, n*rule.Interval)
	case domain.FrequencyWeekly:
		return from.AddDate(0, 0, 7*n*rule.Interval)
	case domain.FrequencyMonthly:
		return domain.AddMonths(from, n*rule.Interval, domain.DateOnly(rule.StartDate).Day())
	default: // domain.FrequencyYearly
		return domain.AddMonths(from, 12*n*rule.Interval, domain.DateOnly(rule.StartDate).Day())
	}
}

// firstIndexOnOrAfter seeds the occurrence index near the window's lower
// bound, then backs up or advances so the returned index is the smallest one
// whose date is on or after it. The closed form avoids scanning every
// occurrence from the rule's start for windows far in the future.
func firstIndexOnOrAfter(rule *domain.RecurringRule, start, lower time.Time) int {
	if !start.Before(lower) {
		return 0
	}

	var k int
	switch rule.Frequency {
	case domain.FrequencyDaily, domain.FrequencyWeekly:
		stepDays := rule.Interval
		if rule.Frequency == domain.FrequencyWeekly {
			stepDays = 7 * rule.Interval
		}
		daysBetween := int(lower.Sub(start).Hours() / 24)
		k = (daysBetween + stepDays - 1) / stepDays
	case domain.FrequencyMonthly:
		monthsBetween := (lower.Year()-start.Year())*12 + int(lower.Month()) - int(start.Month())
		k = monthsBetween / rule.Interval
	default: // domain.FrequencyYearly
		k = (lower.Year() - start.Year()) / rule.Interval
	}

	if k < 0 {
		k = 0
	}
	for k > 0 && !occurrence(rule, start, k-1).Before(lower) {
		k--
	}
	for occurrence(rule, start, k).Before(lower) {
		k++
	}
	return k
}
