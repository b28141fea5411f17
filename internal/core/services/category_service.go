package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
	"github.com/prtsw/caseflow_backend/internal/dto"
)

// categoryService manages the spending categories cases are opened against.
type categoryService struct {
	BaseService
	categoryRepo portsrepo.CategoryRepositoryFacade
	auditRepo    portsrepo.AuditAppender
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categoryRepo portsrepo.CategoryRepositoryFacade, auditRepo portsrepo.AuditAppender) portssvc.CategorySvcFacade {
	return &categoryService{
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
	}
}

// Ensure categoryService implements the portssvc.CategorySvcFacade interface
var _ portssvc.CategorySvcFacade = (*categoryService)(nil)

// appendCategoryAudit records a governance mutation. The mutation has already
// committed when this runs, so an append failure is logged, not surfaced.
func (s *categoryService) appendCategoryAudit(ctx context.Context, categoryID string, action domain.AuditAction, userID string, now time.Time, details map[string]any) {
	entry := domain.AuditLogEntry{
		AuditID:     uuid.NewString(),
		EntityType:  domain.AuditEntityCategory,
		EntityID:    categoryID,
		Action:      action,
		PerformedBy: userID,
		PerformedAt: now,
		Details:     details,
	}
	if err := s.auditRepo.AppendAudit(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to append category audit entry",
			slog.String("category_id", categoryID),
			slog.String("action", string(action)))
	}
}

// GetCategoryByID retrieves a category whether or not it is still active.
func (s *categoryService) GetCategoryByID(ctx context.Context, categoryID string) (*domain.Category, error) {
	category, err := s.categoryRepo.FindCategoryByID(ctx, categoryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find category by ID",
				slog.String("category_id", categoryID))
		}
		return nil, fmt.Errorf("failed to find category %s: %w", categoryID, err)
	}
	return category, nil
}

// GetActiveCategory retrieves a category that must still be active. Case
// creation calls this to freeze the account code; a retired category cannot
// take new cases.
func (s *categoryService) GetActiveCategory(ctx context.Context, categoryID string) (*domain.Category, error) {
	category, err := s.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if !category.Active {
		return nil, fmt.Errorf("category %s is retired: %w", categoryID, apperrors.ErrValidation)
	}
	return category, nil
}

// ListCategories retrieves all categories, optionally including retired ones.
func (s *categoryService) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	categories, err := s.categoryRepo.ListCategories(ctx, includeInactive)
	if err != nil {
		s.LogError(ctx, err, "Failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// CreateCategory persists a new active category.
func (s *categoryService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest, creatorUserID string) (*domain.Category, error) {
	kind := domain.CategoryKind(req.Kind)
	if kind != domain.CategoryExpense && kind != domain.CategoryRevenue {
		return nil, fmt.Errorf("unknown category kind %q: %w", req.Kind, apperrors.ErrValidation)
	}
	if strings.TrimSpace(req.DisplayName) == "" || strings.TrimSpace(req.AccountCode) == "" {
		return nil, fmt.Errorf("display name and account code are required: %w", apperrors.ErrValidation)
	}

	now := time.Now()
	category := domain.Category{
		CategoryID:  uuid.NewString(),
		DisplayName: req.DisplayName,
		AccountCode: req.AccountCode,
		Kind:        kind,
		Active:      true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.categoryRepo.SaveCategory(ctx, category); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			s.LogError(ctx, err, "Failed to save category",
				slog.String("display_name", req.DisplayName))
		}
		return nil, fmt.Errorf("failed to save category: %w", err)
	}

	s.appendCategoryAudit(ctx, category.CategoryID, domain.AuditCategoryCreated, creatorUserID, now, map[string]any{
		"display_name": category.DisplayName,
		"account_code": category.AccountCode,
		"kind":         string(category.Kind),
	})

	s.LogInfo(ctx, "Category created",
		slog.String("category_id", category.CategoryID),
		slog.String("account_code", category.AccountCode))
	return &category, nil
}

// UpdateCategory edits a category's display name or kind. The account code is
// immutable; cases carry their own frozen copy regardless.
func (s *categoryService) UpdateCategory(ctx context.Context, categoryID string, req dto.UpdateCategoryRequest, updaterUserID string) (*domain.Category, error) {
	category, err := s.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.DisplayName != nil {
		if strings.TrimSpace(*req.DisplayName) == "" {
			return nil, fmt.Errorf("display name cannot be emptied: %w", apperrors.ErrValidation)
		}
		category.DisplayName = *req.DisplayName
		updated = true
	}
	if req.Kind != nil {
		kind := domain.CategoryKind(*req.Kind)
		if kind != domain.CategoryExpense && kind != domain.CategoryRevenue {
			return nil, fmt.Errorf("unknown category kind %q: %w", *req.Kind, apperrors.ErrValidation)
		}
		category.Kind = kind
		updated = true
	}
	if !updated {
		return category, nil
	}

	now := time.Now()
	category.LastUpdatedAt = now
	category.LastUpdatedBy = updaterUserID

	if err := s.categoryRepo.UpdateCategory(ctx, *category); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			s.LogError(ctx, err, "Failed to update category",
				slog.String("category_id", categoryID))
		}
		return nil, fmt.Errorf("failed to update category %s: %w", categoryID, err)
	}

	s.appendCategoryAudit(ctx, categoryID, domain.AuditCategoryUpdated, updaterUserID, now, map[string]any{
		"display_name": category.DisplayName,
		"kind":         string(category.Kind),
	})

	return category, nil
}

// DeactivateCategory retires a category so new cases cannot reference it.
// Retiring an already retired category is a no-op.
func (s *categoryService) DeactivateCategory(ctx context.Context, categoryID string, userID string) error {
	category, err := s.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if !category.Active {
		return nil
	}

	now := time.Now()
	if err := s.categoryRepo.RetireCategory(ctx, categoryID, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to retire category",
			slog.String("category_id", categoryID))
		return fmt.Errorf("failed to retire category %s: %w", categoryID, err)
	}

	s.appendCategoryAudit(ctx, categoryID, domain.AuditCategoryRetired, userID, now, nil)

	s.LogInfo(ctx, "Category retired",
		slog.String("category_id", categoryID),
		slog.String("account_code", category.AccountCode))
	return nil
}
