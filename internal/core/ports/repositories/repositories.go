package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	CaseRepo       CaseRepositoryWithTx
	DocumentRepo   DocumentRepositoryFacade
	PaymentRepo    PaymentRepositoryFacade
	AttachmentRepo AttachmentRepositoryFacade
	AuditRepo      AuditRepositoryFacade
	CategoryRepo   CategoryRepositoryFacade
	UserRepo       UserRepositoryFacade
	APITokenRepo   APITokenRepository
}
