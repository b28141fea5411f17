package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// CaseStatus mirrors the domain status enum at the storage layer.
type CaseStatus string

// Case represents a row of the cases table. account_code is the frozen copy
// taken from the category at creation; recategorizing the master list never
// touches it.
type Case struct {
	CaseID          string          `db:"case_id"`
	CaseNumber      string          `db:"case_number"`
	CategoryID      string          `db:"category_id"`
	AccountCode     string          `db:"account_code"`
	RequesterID     string          `db:"requester_id"`
	Department      sql.NullString  `db:"department"`
	CostCenter      sql.NullString  `db:"cost_center"`
	FundingType     string          `db:"funding_type"`
	RequestedAmount decimal.Decimal `db:"requested_amount"`
	Purpose         string          `db:"purpose"`
	Status          CaseStatus      `db:"status"`
	RejectReason    sql.NullString  `db:"reject_reason"`
	AuditFields
}
