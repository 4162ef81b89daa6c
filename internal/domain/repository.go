package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TransactionRepository defines the interface to the transaction store.
// The core reads actuals for reporting; Create is used only by the recurring
// occurrence materializer.
type TransactionRepository interface {
	// ListByUserAndRange retrieves a user's transactions with dates inside
	// [from, to], ordered by date.
	ListByUserAndRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*Transaction, error)

	// Create records a new transaction.
	Create(ctx context.Context, tx *Transaction) error
}

// GrantRepository defines the interface for grant persistence operations.
type GrantRepository interface {
	// Create stores a new grant.
	Create(ctx context.Context, grant *Grant) error

	// GetByID retrieves a grant by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Grant, error)

	// ListByUser retrieves all grants awarded to a user.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Grant, error)
}

// LotRepository defines the interface for lot persistence operations.
type LotRepository interface {
	// Create stores a new lot.
	Create(ctx context.Context, lot *Lot) error

	// Update persists a lot's mutable state (remaining shares, status).
	Update(ctx context.Context, lot *Lot) error

	// GetByID retrieves a lot by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Lot, error)

	// ListByGrant retrieves all lots materialized for a grant.
	ListByGrant(ctx context.Context, grantID uuid.UUID) ([]*Lot, error)

	// ListByUser retrieves all lots across a user's grants.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Lot, error)

	// ListUnvestedBefore retrieves all lots still UNVESTED whose vest date is
	// on or before asOf, across all users.
	ListUnvestedBefore(ctx context.Context, asOf time.Time) ([]*Lot, error)
}

// RealizationRepository defines the interface for realization event
// persistence operations.
type RealizationRepository interface {
	// Create records a new realization event.
	Create(ctx context.Context, event *RealizationEvent) error

	// ListByUser retrieves all realization events for a user, ordered by date.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*RealizationEvent, error)
}

// RecurringRuleRepository defines the interface for recurring rule
// persistence operations. Rules are created and edited by the CRUD layer;
// the core only reads them and advances the materialization cursor.
type RecurringRuleRepository interface {
	// ListByUser retrieves all of a user's recurring rules.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*RecurringRule, error)

	// ListActive retrieves all rules whose end date has not passed asOf.
	ListActive(ctx context.Context, asOf time.Time) ([]*RecurringRule, error)

	// UpdateLastGenerated advances a rule's last materialized occurrence date.
	UpdateLastGenerated(ctx context.Context, ruleID uuid.UUID, lastGenerated time.Time) error
}

// PriceSource supplies point-in-time market prices per security. Prices are
// fetched externally; the core never blocks on market data itself.
type PriceSource interface {
	// GetCurrentPrice returns the latest known price per share for a
	// security, or *MissingPriceError when none is available.
	GetCurrentPrice(ctx context.Context, securityID string) (Money, error)
}

// CategoryGroupSource maps spending categories to budget groups.
type CategoryGroupSource interface {
	// GroupOf returns the budget group for a category, or
	// CategoryGroupUncategorized when the category is unmapped.
	GroupOf(ctx context.Context, category string) (CategoryGroup, error)
}

// CategoryRepository extends CategoryGroupSource with write access, used by
// the seeder to install the default mapping.
type CategoryRepository interface {
	CategoryGroupSource

	// Upsert installs or updates the group for a category.
	Upsert(ctx context.Context, category string, group CategoryGroup) error
}
