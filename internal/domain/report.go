package domain

import (
	"github.com/shopspring/decimal"
)

// EquityBucket is one leaf of the equity summary report: a share count, its
// value, and (where a basis exists) cost basis and profit/loss. CostBasis,
// PnL and PnLPct are nil when undefined for the bucket, never zero-filled.
type EquityBucket struct {
	Shares    decimal.Decimal  `json:"shares"`
	Value     Money            `json:"value"`
	CostBasis *Money           `json:"cost_basis,omitempty"`
	PnL       *Money           `json:"pnl,omitempty"`
	PnLPct    *decimal.Decimal `json:"pnl_pct,omitempty"`
}

// UnvestedGroup holds the unvested bucket. Only RSU grants carry unvested
// shares; ESPP shares are purchased at period end and never sit unvested.
type UnvestedGroup struct {
	RSU EquityBucket `json:"rsu"`
}

// VestedGroup holds per-equity-type buckets for vested shares.
type VestedGroup struct {
	ESPP EquityBucket `json:"espp"`
	RSU  EquityBucket `json:"rsu"`
}

// EquitySummary is the report produced by the valuation engine:
// unvested, vested-unrealized and vested-realized buckets per equity type.
type EquitySummary struct {
	Unvested         UnvestedGroup `json:"unvested"`
	VestedUnrealized VestedGroup   `json:"vested_unrealized"`
	VestedRealized   VestedGroup   `json:"vested_realized"`
}

// MonthlyBreakdown is one calendar month of the cashflow report. A month is
// either actual or projected: once any actual transaction exists for the
// month, the projected fields stay nil.
type MonthlyBreakdown struct {
	Month                  string `json:"month"` // "2006-01"
	TotalIncome            Money  `json:"total_income"`
	TotalExpenses          Money  `json:"total_expenses"`
	NetCashflow            Money  `json:"net_cashflow"`
	ProjectedTotalIncome   *Money `json:"projected_total_income,omitempty"`
	ProjectedTotalExpenses *Money `json:"projected_total_expenses,omitempty"`
	NeedsTotal             Money  `json:"needs_total"`
	WantsTotal             Money  `json:"wants_total"`
	InvestmentsTotal       Money  `json:"investments_total"`
}
