package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finsight/finsight-backend/internal/domain"
)

// realizationRepository implements domain.RealizationRepository
type realizationRepository struct {
	db *DB
}

// NewRealizationRepository creates a new realization event repository
func NewRealizationRepository(db *DB) domain.RealizationRepository {
	return &realizationRepository{db: db}
}

// Create records a new realization event
func (r *realizationRepository) Create(ctx context.Context, event *domain.RealizationEvent) error {
	query := `
		INSERT INTO realization_events (id, lot_id, user_id, type, date, shares, sale_price_per_share, cost_basis_per_share)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.LotID,
		event.UserID,
		string(event.Type),
		event.Date,
		event.Shares.String(),
		event.SalePricePerShare.Decimal().String(),
		event.CostBasisPerShare.Decimal().String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert realization event: %w", err)
	}

	return nil
}

// ListByUser retrieves all realization events for a user, ordered by date
func (r *realizationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.RealizationEvent, error) {
	query := `
		SELECT id, lot_id, user_id, type, date, shares, sale_price_per_share, cost_basis_per_share
		FROM realization_events
		WHERE user_id = $1
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list realization events: %w", err)
	}
	defer rows.Close()

	events := make([]*domain.RealizationEvent, 0)
	for rows.Next() {
		var event domain.RealizationEvent
		var sharesStr, saleStr, basisStr string

		err := rows.Scan(
			&event.ID,
			&event.LotID,
			&event.UserID,
			&event.Type,
			&event.Date,
			&sharesStr,
			&saleStr,
			&basisStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan realization event: %w", err)
		}

		event.Shares, err = decimal.NewFromString(sharesStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse shares: %w", err)
		}
		event.SalePricePerShare, err = domain.MoneyFromString(saleStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sale_price_per_share: %w", err)
		}
		event.CostBasisPerShare, err = domain.MoneyFromString(basisStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse cost_basis_per_share: %w", err)
		}

		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate realization events: %w", err)
	}

	return events, nil
}
