package vesting

import (
	"github.com/shopspring/decimal"

	"github.com/finsight/finsight-backend/internal/domain"
)

// Schedule expands a grant's vesting parameters into the ordered sequence of
// vesting events the lot ledger materializes into lots.
//
// Policy ("cliff then periodic"):
//   - Period boundaries run from the grant date forward at the configured
//     interval. No event occurs before the cliff date.
//   - The cliff date's event carries the cumulative shares of every period
//     elapsed up to and including the cliff.
//   - Each remaining period vests floor(total / periods) shares; the remainder
//     of the integer division goes to the final event so the sum equals the
//     grant total exactly.
//
// Returns *domain.InvalidScheduleError when the cliff exceeds the total
// duration or the schedule has no periods.
func Schedule(grant *domain.Grant) ([]domain.VestingEvent, error) {
	if err := grant.Validate(); err != nil {
		return nil, err
	}

	periods := grant.Periods()
	perPeriod := grant.TotalShares.Div(decimal.NewFromInt(int64(periods))).Floor()
	start := domain.DateOnly(grant.GrantDate)
	anchorDay := start.Day()
	fmv := grant.CostBasisPerShare()

	events := make([]domain.VestingEvent, 0, periods)
	vested := decimal.Zero
	firstPeriod := 1

	if grant.CliffMonths > 0 {
		elapsed := grant.CliffMonths / grant.IntervalMonths
		if elapsed > 0 {
			shares := perPeriod.Mul(decimal.NewFromInt(int64(elapsed)))
			if elapsed == periods {
				// The cliff covers the whole schedule: one event, all shares.
				shares = grant.TotalShares
			}
			events = append(events, domain.VestingEvent{
				GrantID:     grant.ID,
				Date:        domain.AddMonths(start, grant.CliffMonths, anchorDay),
				Shares:      shares,
				FMVPerShare: fmv,
			})
			vested = shares
			firstPeriod = elapsed + 1
		}
	}

	for i := firstPeriod; i <= periods; i++ {
		shares := perPeriod
		if i == periods {
			shares = grant.TotalShares.Sub(vested)
		}
		vested = vested.Add(shares)
		events = append(events, domain.VestingEvent{
			GrantID:     grant.ID,
			Date:        domain.AddMonths(start, i*grant.IntervalMonths, anchorDay),
			Shares:      shares,
			FMVPerShare: fmv,
		})
	}

	return events, nil
}
