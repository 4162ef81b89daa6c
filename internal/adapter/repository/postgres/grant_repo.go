package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finsight/finsight-backend/internal/domain"
)

// grantRepository implements domain.GrantRepository
type grantRepository struct {
	db *DB
}

// NewGrantRepository creates a new grant repository
func NewGrantRepository(db *DB) domain.GrantRepository {
	return &grantRepository{db: db}
}

// Create stores a new grant
func (r *grantRepository) Create(ctx context.Context, grant *domain.Grant) error {
	query := `
		INSERT INTO grants (id, user_id, security_id, type, grant_date, total_shares,
			cliff_months, duration_months, interval_months, grant_price, purchase_price, purchase_discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	var purchasePrice, purchaseDiscount sql.NullString
	if grant.PurchasePrice != nil {
		purchasePrice = sql.NullString{String: grant.PurchasePrice.Decimal().String(), Valid: true}
	}
	if grant.PurchaseDiscount != nil {
		purchaseDiscount = sql.NullString{String: grant.PurchaseDiscount.String(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		grant.ID,
		grant.UserID,
		grant.SecurityID,
		string(grant.Type),
		grant.GrantDate,
		grant.TotalShares.String(),
		grant.CliffMonths,
		grant.DurationMonths,
		grant.IntervalMonths,
		grant.GrantPrice.Decimal().String(),
		purchasePrice,
		purchaseDiscount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert grant: %w", err)
	}

	return nil
}

// GetByID retrieves a grant by its ID
func (r *grantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Grant, error) {
	query := `
		SELECT id, user_id, security_id, type, grant_date, total_shares,
			cliff_months, duration_months, interval_months, grant_price, purchase_price, purchase_discount
		FROM grants
		WHERE id = $1
	`

	grant, err := scanGrant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("grant %s not found: %w", id, err)
		}
		return nil, err
	}

	return grant, nil
}

// ListByUser retrieves all grants awarded to a user
func (r *grantRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Grant, error) {
	query := `
		SELECT id, user_id, security_id, type, grant_date, total_shares,
			cliff_months, duration_months, interval_months, grant_price, purchase_price, purchase_discount
		FROM grants
		WHERE user_id = $1
		ORDER BY grant_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	grants := make([]*domain.Grant, 0)
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate grants: %w", err)
	}

	return grants, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGrant(row rowScanner) (*domain.Grant, error) {
	var grant domain.Grant
	var totalSharesStr, grantPriceStr string
	var purchasePrice, purchaseDiscount sql.NullString

	err := row.Scan(
		&grant.ID,
		&grant.UserID,
		&grant.SecurityID,
		&grant.Type,
		&grant.GrantDate,
		&totalSharesStr,
		&grant.CliffMonths,
		&grant.DurationMonths,
		&grant.IntervalMonths,
		&grantPriceStr,
		&purchasePrice,
		&purchaseDiscount,
	)
	if err != nil {
		return nil, err
	}

	grant.TotalShares, err = decimal.NewFromString(totalSharesStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total_shares: %w", err)
	}
	grant.GrantPrice, err = domain.MoneyFromString(grantPriceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse grant_price: %w", err)
	}
	if purchasePrice.Valid {
		price, err := domain.MoneyFromString(purchasePrice.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse purchase_price: %w", err)
		}
		grant.PurchasePrice = &price
	}
	if purchaseDiscount.Valid {
		discount, err := decimal.NewFromString(purchaseDiscount.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse purchase_discount: %w", err)
		}
		grant.PurchaseDiscount = &discount
	}

	return &grant, nil
}
