package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finsight/finsight-backend/internal/domain"
)

// categoryRepository implements domain.CategoryRepository
type categoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *DB) domain.CategoryRepository {
	return &categoryRepository{db: db}
}

// GroupOf returns the budget group mapped to a category, or
// CategoryGroupUncategorized when the category is unmapped.
func (r *categoryRepository) GroupOf(ctx context.Context, category string) (domain.CategoryGroup, error) {
	query := `SELECT category_group FROM categories WHERE name = $1`

	var group domain.CategoryGroup
	err := r.db.QueryRowContext(ctx, query, category).Scan(&group)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CategoryGroupUncategorized, nil
		}
		return "", fmt.Errorf("failed to get category group: %w", err)
	}

	return group, nil
}

// Upsert installs or updates the group for a category
func (r *categoryRepository) Upsert(ctx context.Context, category string, group domain.CategoryGroup) error {
	query := `
		INSERT INTO categories (name, category_group)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET category_group = EXCLUDED.category_group
	`

	_, err := r.db.ExecContext(ctx, query, category, string(group))
	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}

	return nil
}
