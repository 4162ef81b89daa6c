package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finsight/finsight-backend/internal/domain"
)

// lotRepository implements domain.LotRepository
type lotRepository struct {
	db *DB
}

// NewLotRepository creates a new lot repository
func NewLotRepository(db *DB) domain.LotRepository {
	return &lotRepository{db: db}
}

const lotColumns = `id, grant_id, user_id, security_id, type, vest_date, shares, shares_remaining, cost_basis_per_share, status`

// Create stores a new lot
func (r *lotRepository) Create(ctx context.Context, lot *domain.Lot) error {
	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		lot.ID,
		lot.GrantID,
		lot.UserID,
		lot.SecurityID,
		string(lot.Type),
		lot.VestDate,
		lot.Shares.String(),
		lot.SharesRemaining.String(),
		lot.CostBasisPerShare.Decimal().String(),
		string(lot.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lot: %w", err)
	}

	return nil
}

// Update persists a lot's mutable state (remaining shares, status)
func (r *lotRepository) Update(ctx context.Context, lot *domain.Lot) error {
	query := `
		UPDATE lots
		SET shares_remaining = $2, status = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		lot.ID,
		lot.SharesRemaining.String(),
		string(lot.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to update lot: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check lot update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lot %s not found", lot.ID)
	}

	return nil
}

// GetByID retrieves a lot by its ID
func (r *lotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE id = $1`

	lot, err := scanLot(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lot %s not found: %w", id, err)
		}
		return nil, err
	}

	return lot, nil
}

// ListByGrant retrieves all lots materialized for a grant
func (r *lotRepository) ListByGrant(ctx context.Context, grantID uuid.UUID) ([]*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE grant_id = $1 ORDER BY vest_date ASC`
	return r.list(ctx, query, grantID)
}

// ListByUser retrieves all lots across a user's grants
func (r *lotRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE user_id = $1 ORDER BY vest_date ASC`
	return r.list(ctx, query, userID)
}

// ListUnvestedBefore retrieves all UNVESTED lots whose vest date is on or before asOf
func (r *lotRepository) ListUnvestedBefore(ctx context.Context, asOf time.Time) ([]*domain.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE status = 'UNVESTED' AND vest_date <= $1 ORDER BY vest_date ASC`
	return r.list(ctx, query, asOf)
}

func (r *lotRepository) list(ctx context.Context, query string, arg interface{}) ([]*domain.Lot, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list lots: %w", err)
	}
	defer rows.Close()

	lots := make([]*domain.Lot, 0)
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lots: %w", err)
	}

	return lots, nil
}

func scanLot(row rowScanner) (*domain.Lot, error) {
	var lot domain.Lot
	var sharesStr, remainingStr, basisStr string

	err := row.Scan(
		&lot.ID,
		&lot.GrantID,
		&lot.UserID,
		&lot.SecurityID,
		&lot.Type,
		&lot.VestDate,
		&sharesStr,
		&remainingStr,
		&basisStr,
		&lot.Status,
	)
	if err != nil {
		return nil, err
	}

	lot.Shares, err = decimal.NewFromString(sharesStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shares: %w", err)
	}
	lot.SharesRemaining, err = decimal.NewFromString(remainingStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shares_remaining: %w", err)
	}
	lot.CostBasisPerShare, err = domain.MoneyFromString(basisStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cost_basis_per_share: %w", err)
	}

	return &lot, nil
}
