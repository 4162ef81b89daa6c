package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EquityType distinguishes the two supported compensation instruments.
type EquityType string

const (
	EquityTypeRSU  EquityType = "RSU"
	EquityTypeESPP EquityType = "ESPP"
)

// LotStatus tracks a lot through its lifecycle.
type LotStatus string

const (
	LotStatusUnvested LotStatus = "UNVESTED"
	LotStatusVested   LotStatus = "VESTED"
	LotStatusDisposed LotStatus = "DISPOSED"
)

// Grant represents an equity compensation award. Immutable once created.
//
// The vesting schedule is expressed in months: CliffMonths before which
// nothing vests, DurationMonths of total vesting, IntervalMonths between
// periodic vests (e.g. 48/12/1 for the classic 4-year, 1-year-cliff,
// monthly-thereafter schedule).
type Grant struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	SecurityID     string
	Type           EquityType
	GrantDate      time.Time
	TotalShares    decimal.Decimal
	CliffMonths    int
	DurationMonths int
	IntervalMonths int

	// GrantPrice is the fair market value per share at grant time. It seeds
	// the informational cost basis of RSU lots.
	GrantPrice Money

	// ESPP purchase terms; nil for RSU grants.
	PurchasePrice    *Money
	PurchaseDiscount *decimal.Decimal // fraction, e.g. 0.15
}

// Periods returns the number of periodic vesting events the schedule spans.
func (g *Grant) Periods() int {
	if g.IntervalMonths <= 0 {
		return 0
	}
	return g.DurationMonths / g.IntervalMonths
}

// Validate ensures the grant and its embedded schedule adhere to domain
// rules. Schedule violations are reported as *InvalidScheduleError.
func (g *Grant) Validate() error {
	if g.Type != EquityTypeRSU && g.Type != EquityTypeESPP {
		return errors.New("grant type must be RSU or ESPP")
	}
	if g.SecurityID == "" {
		return errors.New("grant must reference a security")
	}
	if !g.TotalShares.IsPositive() {
		return errors.New("grant total shares must be positive")
	}
	if g.Type == EquityTypeESPP && g.PurchasePrice == nil {
		return errors.New("ESPP grant must carry a purchase price")
	}
	if g.IntervalMonths <= 0 || g.Periods() == 0 {
		return &InvalidScheduleError{Reason: "schedule has no vesting periods"}
	}
	if g.CliffMonths < 0 {
		return &InvalidScheduleError{Reason: "cliff length cannot be negative"}
	}
	if g.CliffMonths > g.DurationMonths {
		return &InvalidScheduleError{Reason: "cliff length exceeds total vesting duration"}
	}
	return nil
}

// CostBasisPerShare returns the acquisition value assigned to each share of
// the grant: the discounted purchase price for ESPP, the fair market value at
// vest (seeded from the grant-date FMV) for RSU.
func (g *Grant) CostBasisPerShare() Money {
	if g.Type == EquityTypeESPP && g.PurchasePrice != nil {
		if g.PurchaseDiscount != nil {
			factor := decimal.NewFromInt(1).Sub(*g.PurchaseDiscount)
			return g.PurchasePrice.Mul(factor)
		}
		return *g.PurchasePrice
	}
	return g.GrantPrice
}

// VestingEvent is one scheduled tranche of a grant becoming vested.
// Events are ordered by vest date; their shares sum exactly to the grant's
// total shares.
type VestingEvent struct {
	GrantID     uuid.UUID
	Date        time.Time
	Shares      decimal.Decimal
	FMVPerShare Money
}

// Lot is a tracked quantity of shares from one vesting event, with its own
// cost basis and disposal state. SharesRemaining never goes negative and never
// exceeds the originating event's shares.
type Lot struct {
	ID                uuid.UUID
	GrantID           uuid.UUID
	UserID            uuid.UUID
	SecurityID        string
	Type              EquityType
	VestDate          time.Time
	Shares            decimal.Decimal
	SharesRemaining   decimal.Decimal
	CostBasisPerShare Money
	Status            LotStatus
}

// VestedAsOf reports whether the lot's vest date has passed by asOf,
// regardless of whether the status transition has been applied yet.
func (l *Lot) VestedAsOf(asOf time.Time) bool {
	return !l.VestDate.After(asOf)
}

// RealizationEvent records a (partial) disposal of a lot. The equity type and
// the lot's cost basis are denormalized onto the event so realized P&L can be
// aggregated without re-reading lots.
type RealizationEvent struct {
	ID                uuid.UUID
	LotID             uuid.UUID
	UserID            uuid.UUID
	Type              EquityType
	Date              time.Time
	Shares            decimal.Decimal
	SalePricePerShare Money
	CostBasisPerShare Money
}

// Proceeds returns shares x sale price for this disposal.
func (e *RealizationEvent) Proceeds() Money {
	return e.SalePricePerShare.Mul(e.Shares)
}

// CostBasis returns shares x the originating lot's per-share basis.
func (e *RealizationEvent) CostBasis() Money {
	return e.CostBasisPerShare.Mul(e.Shares)
}
