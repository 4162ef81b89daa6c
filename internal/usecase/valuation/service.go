package valuation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finsight/finsight-backend/internal/domain"
)

// Service computes the equity summary report: unvested, vested-unrealized and
// vested-realized buckets per equity type, valued against externally supplied
// market prices.
type Service struct {
	LotRepo         domain.LotRepository
	RealizationRepo domain.RealizationRepository
	Prices          domain.PriceSource
}

// NewService creates a new valuation Service instance.
func NewService(
	lotRepo domain.LotRepository,
	realizationRepo domain.RealizationRepository,
	prices domain.PriceSource,
) *Service {
	return &Service{
		LotRepo:         lotRepo,
		RealizationRepo: realizationRepo,
		Prices:          prices,
	}
}

// accumulator collects shares, value and basis for one bucket while iterating
// lots, before conversion to the report shape.
type accumulator struct {
	shares decimal.Decimal
	value  domain.Money
	basis  domain.Money
}

func (a *accumulator) add(shares decimal.Decimal, value, basis domain.Money) {
	a.shares = a.shares.Add(shares)
	a.value = a.value.Add(value)
	a.basis = a.basis.Add(basis)
}

// GetEquitySummary values all of a user's lots as of asOf.
//
// Lots whose vest date has passed are treated as vested even if the scheduled
// status transition has not run yet, so the report does not depend on job
// timing. A missing market price for any security still held fails the whole
// summary with *domain.MissingPriceError: a silent zero would corrupt P&L.
func (s *Service) GetEquitySummary(ctx context.Context, userID uuid.UUID, asOf time.Time) (*domain.EquitySummary, error) {
	lots, err := s.LotRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	realizations, err := s.RealizationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	asOf = domain.DateOnly(asOf)
	prices := make(map[string]domain.Money)

	var unvestedRSU, vestedRSU, vestedESPP accumulator
	for _, lot := range lots {
		if lot.Status == domain.LotStatusDisposed || lot.SharesRemaining.IsZero() {
			continue
		}

		price, ok := prices[lot.SecurityID]
		if !ok {
			price, err = s.Prices.GetCurrentPrice(ctx, lot.SecurityID)
			if err != nil {
				return nil, err
			}
			prices[lot.SecurityID] = price
		}

		value := price.Mul(lot.SharesRemaining)
		basis := lot.CostBasisPerShare.Mul(lot.SharesRemaining)

		vested := lot.Status == domain.LotStatusVested || lot.VestedAsOf(asOf)
		switch {
		case vested && lot.Type == domain.EquityTypeRSU:
			vestedRSU.add(lot.SharesRemaining, value, basis)
		case vested && lot.Type == domain.EquityTypeESPP:
			vestedESPP.add(lot.SharesRemaining, value, basis)
		case lot.Type == domain.EquityTypeRSU:
			unvestedRSU.add(lot.SharesRemaining, value, basis)
		}
		// Unvested ESPP lots are excluded: the report shape has no leaf for
		// them, shares are purchased at period end.
	}

	var realizedRSU, realizedESPP accumulator
	for _, event := range realizations {
		acc := &realizedRSU
		if event.Type == domain.EquityTypeESPP {
			acc = &realizedESPP
		}
		// Value is actual proceeds, not the current market price.
		acc.add(event.Shares, event.Proceeds(), event.CostBasis())
	}

	return &domain.EquitySummary{
		Unvested: domain.UnvestedGroup{
			RSU: unvestedBucket(unvestedRSU),
		},
		VestedUnrealized: domain.VestedGroup{
			ESPP: bucketWithPnL(vestedESPP),
			RSU:  bucketWithPnL(vestedRSU),
		},
		VestedRealized: domain.VestedGroup{
			ESPP: bucketWithPnL(realizedESPP),
			RSU:  bucketWithPnL(realizedRSU),
		},
	}, nil
}

// unvestedBucket reports shares and projected value. The cost basis (aggregate
// vesting-date fair value) is informational; no P&L exists before disposal.
func unvestedBucket(a accumulator) domain.EquityBucket {
	basis := a.basis
	return domain.EquityBucket{
		Shares:    a.shares,
		Value:     a.value,
		CostBasis: &basis,
	}
}

// bucketWithPnL reports shares, value, basis and profit/loss. The percentage
// is defined only for a positive basis; it stays nil otherwise rather than
// dividing by zero.
func bucketWithPnL(a accumulator) domain.EquityBucket {
	basis := a.basis
	pnl := a.value.Sub(a.basis)
	bucket := domain.EquityBucket{
		Shares:    a.shares,
		Value:     a.value,
		CostBasis: &basis,
		PnL:       &pnl,
	}
	if a.basis.IsPositive() {
		pct := pnl.RatioTo(a.basis)
		bucket.PnLPct = &pct
	}
	return bucket
}
