package repositories

import (
	"context"
	"time"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
)

// CategoryReader defines read operations for category data
type CategoryReader interface {
	// FindCategoryByID retrieves a specific category by its unique identifier.
	FindCategoryByID(ctx context.Context, categoryID string) (*domain.Category, error)

	// ListCategories retrieves all categories. Retired categories are included
	// only when includeInactive is true.
	ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error)
}

// CategoryWriter defines write operations for category data
type CategoryWriter interface {
	// SaveCategory persists a new category.
	SaveCategory(ctx context.Context, category domain.Category) error

	// UpdateCategory updates an existing category's details.
	UpdateCategory(ctx context.Context, category domain.Category) error

	// RetireCategory marks a category as inactive so new cases cannot reference it.
	RetireCategory(ctx context.Context, categoryID string, userID string, now time.Time) error
}

// CategoryRepositoryFacade combines all category-related repository interfaces
// This is a facade for clients that need access to all operations
type CategoryRepositoryFacade interface {
	CategoryReader
	CategoryWriter
}
