package seeder

import (
	"context"

	"github.com/finsight/finsight-backend/internal/domain"
)

// defaultGroups is the out-of-the-box category -> budget group mapping.
// Users refine it through the CRUD layer; the seeder only installs defaults
// for categories that are still unmapped.
var defaultGroups = map[string]domain.CategoryGroup{
	"rent":          domain.CategoryGroupNeeds,
	"mortgage":      domain.CategoryGroupNeeds,
	"groceries":     domain.CategoryGroupNeeds,
	"utilities":     domain.CategoryGroupNeeds,
	"insurance":     domain.CategoryGroupNeeds,
	"transport":     domain.CategoryGroupNeeds,
	"healthcare":    domain.CategoryGroupNeeds,
	"dining":        domain.CategoryGroupWants,
	"entertainment": domain.CategoryGroupWants,
	"travel":        domain.CategoryGroupWants,
	"shopping":      domain.CategoryGroupWants,
	"subscriptions": domain.CategoryGroupWants,
	"brokerage":     domain.CategoryGroupInvestments,
	"retirement":    domain.CategoryGroupInvestments,
	"crypto":        domain.CategoryGroupInvestments,
}

// CategorySeeder installs the default category group mapping.
type CategorySeeder struct {
	repo domain.CategoryRepository
}

// NewCategorySeeder creates a new CategorySeeder instance.
func NewCategorySeeder(repo domain.CategoryRepository) *CategorySeeder {
	return &CategorySeeder{repo: repo}
}

// Seed ensures every default category has a group. Categories already mapped
// (including ones remapped by users) are left untouched.
func (s *CategorySeeder) Seed(ctx context.Context) error {
	for category, group := range defaultGroups {
		existing, err := s.repo.GroupOf(ctx, category)
		if err != nil {
			return err
		}
		if existing != domain.CategoryGroupUncategorized {
			continue
		}
		if err := s.repo.Upsert(ctx, category, group); err != nil {
			return err
		}
	}
	return nil
}
