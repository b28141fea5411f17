package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/prtsw/caseflow_backend/internal/core/domain"
)

// PaymentReader defines read operations for payment data
type PaymentReader interface {
	// FindPaymentByID retrieves a specific payment by its unique identifier.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// FindPaymentsByCaseID retrieves all payments recorded for a case, oldest first.
	FindPaymentsByCaseID(ctx context.Context, caseID string) ([]domain.Payment, error)
}

// PaymentTransactionSupport defines write operations performed under a case lock
type PaymentTransactionSupport interface {
	// SavePaymentInTx persists a new payment within a given transaction.
	SavePaymentInTx(ctx context.Context, tx pgx.Tx, payment domain.Payment) error
}

// PaymentRepositoryFacade combines all payment-related repository interfaces
// This is a facade for clients that need access to all operations
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentTransactionSupport
}
