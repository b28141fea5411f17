package dto

import (
	"time"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
)

// CreateCategoryRequest defines the data needed to create a new category.
type CreateCategoryRequest struct {
	DisplayName string `json:"displayName" binding:"required"`
	AccountCode string `json:"accountCode" binding:"required"`
	Kind        string `json:"kind" binding:"required,oneof=EXPENSE REVENUE"`
}

// UpdateCategoryRequest defines the data allowed for updating a category.
// AccountCode is immutable after creation; cases freeze a copy of it anyway.
type UpdateCategoryRequest struct {
	DisplayName *string `json:"displayName"`
	Kind        *string `json:"kind" binding:"omitempty,oneof=EXPENSE REVENUE"`
}

// CategoryResponse defines the data returned for a category.
type CategoryResponse struct {
	CategoryID    string    `json:"categoryID"`
	DisplayName   string    `json:"displayName"`
	AccountCode   string    `json:"accountCode"`
	Kind          string    `json:"kind"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// ToCategoryResponse converts a domain.Category to CategoryResponse DTO
func ToCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		CategoryID:    c.CategoryID,
		DisplayName:   c.DisplayName,
		AccountCode:   c.AccountCode,
		Kind:          string(c.Kind),
		Active:        c.Active,
		CreatedAt:     c.CreatedAt,
		CreatedBy:     c.CreatedBy,
		LastUpdatedAt: c.LastUpdatedAt,
		LastUpdatedBy: c.LastUpdatedBy,
	}
}

// ListCategoriesParams defines query parameters for listing categories.
type ListCategoriesParams struct {
	IncludeInactive bool `form:"include_inactive,default=false"`
}

// ListCategoriesResponse wraps the list of categories.
type ListCategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

// ToListCategoriesResponse converts a slice of domain.Category to ListCategoriesResponse DTO
func ToListCategoriesResponse(categories []domain.Category) ListCategoriesResponse {
	responses := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		responses[i] = ToCategoryResponse(&c)
	}
	return ListCategoriesResponse{Categories: responses}
}
