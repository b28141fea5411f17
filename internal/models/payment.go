package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Payment represents a row of the payments table.
type Payment struct {
	PaymentID   string          `db:"payment_id"`
	CaseID      string          `db:"case_id"`
	PaymentType string          `db:"payment_type"`
	Amount      decimal.Decimal `db:"amount"`
	ReferenceNo sql.NullString  `db:"reference_no"`
	AuditFields
}
