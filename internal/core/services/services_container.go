package services

import (
	portsrepo "github.com/prtsw/caseflow_backend/internal/core/ports/repositories"
	portssvc "github.com/prtsw/caseflow_backend/internal/core/ports/services"
	"github.com/prtsw/caseflow_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Category first: case creation depends on it to freeze account codes.
	container.Category = NewCategoryService(repos.CategoryRepo, repos.AuditRepo)

	container.Case = NewCaseService(
		repos.CaseRepo,
		WithDocumentRepository(repos.DocumentRepo),
		WithPaymentRepository(repos.PaymentRepo),
		WithAttachmentRepository(repos.AttachmentRepo),
		WithAuditRepository(repos.AuditRepo),
		WithCategoryService(container.Category),
	)

	container.Document = NewDocumentService(repos.DocumentRepo, repos.AuditRepo)
	container.User = NewUserService(repos.UserRepo, repos.AuditRepo)
	container.APIToken = NewAPITokenService(repos.APITokenRepo, container.User)

	container.TokenService = NewTokenService(cfg, container.User)
	container.GoogleOAuthHandler = NewGoogleOAuthHandlerService(cfg)

	return container
}
