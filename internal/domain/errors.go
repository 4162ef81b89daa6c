package domain

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvalidScheduleError indicates malformed vesting schedule parameters
// (cliff longer than the total duration, zero vesting periods, ...).
// The request that carried the schedule is rejected.
type InvalidScheduleError struct {
	Reason string
}

func (e *InvalidScheduleError) Error() string {
	return "invalid vesting schedule: " + e.Reason
}

// InsufficientSharesError indicates a disposal that exceeds the shares held in
// a lot, or a disposal against a lot that has not vested yet. It is surfaced to
// the caller unretried: it points at a data-entry or ordering bug upstream.
type InsufficientSharesError struct {
	LotID     uuid.UUID
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("lot %s: cannot realize %s shares, %s available",
		e.LotID, e.Requested, e.Available)
}

// MissingPriceError indicates that no market price is available for a security
// referenced by a lot. Valuation fails closed for the affected user rather than
// treating the value as zero, which would corrupt P&L.
type MissingPriceError struct {
	SecurityID string
}

func (e *MissingPriceError) Error() string {
	return "no market price available for security " + e.SecurityID
}
