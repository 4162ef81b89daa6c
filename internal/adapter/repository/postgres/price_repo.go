package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finsight/finsight-backend/internal/domain"
)

// priceRepository implements domain.PriceSource on top of the security price
// history table. External feeds append rows; the core only reads the latest.
type priceRepository struct {
	db *DB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *DB) domain.PriceSource {
	return &priceRepository{db: db}
}

// GetCurrentPrice retrieves the most recent price point for a security.
// Returns *domain.MissingPriceError when the security has no price history,
// so valuation fails closed instead of valuing against zero.
func (r *priceRepository) GetCurrentPrice(ctx context.Context, securityID string) (domain.Money, error) {
	query := `
		SELECT price
		FROM security_prices
		WHERE security_id = $1
		ORDER BY date DESC
		LIMIT 1
	`

	var priceStr string
	err := r.db.QueryRowContext(ctx, query, securityID).Scan(&priceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Money{}, &domain.MissingPriceError{SecurityID: securityID}
		}
		return domain.Money{}, fmt.Errorf("failed to get current price: %w", err)
	}

	price, err := domain.MoneyFromString(priceStr)
	if err != nil {
		return domain.Money{}, fmt.Errorf("failed to parse price: %w", err)
	}

	return price, nil
}
