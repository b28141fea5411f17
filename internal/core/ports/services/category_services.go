package services

import (
	"context"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
	"github.com/prtsw/caseflow_backend/internal/dto"
)

// CategoryReaderSvc defines read operations for category data
type CategoryReaderSvc interface {
	// GetCategoryByID retrieves a specific category by its unique identifier.
	GetCategoryByID(ctx context.Context, categoryID string) (*domain.Category, error)

	// GetActiveCategory retrieves a category that must be active; a retired
	// category yields a validation error. Used at case creation to freeze the
	// account code.
	GetActiveCategory(ctx context.Context, categoryID string) (*domain.Category, error)

	// ListCategories retrieves all categories, optionally including retired ones.
	ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error)
}

// CategoryWriterSvc defines write operations for category data
type CategoryWriterSvc interface {
	// CreateCategory persists a new category.
	CreateCategory(ctx context.Context, req dto.CreateCategoryRequest, creatorUserID string) (*domain.Category, error)

	// UpdateCategory updates an existing category's details.
	UpdateCategory(ctx context.Context, categoryID string, req dto.UpdateCategoryRequest, updaterUserID string) (*domain.Category, error)

	// DeactivateCategory retires a category so new cases cannot reference it.
	DeactivateCategory(ctx context.Context, categoryID string, userID string) error
}

// CategorySvcFacade combines all category-related service interfaces
// This is a facade for clients that need access to all operations
type CategorySvcFacade interface {
	CategoryReaderSvc
	CategoryWriterSvc
}
