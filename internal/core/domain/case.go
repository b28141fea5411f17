package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CaseStatus is the workflow state of a spending case.
type CaseStatus string

const (
	StatusDraft               CaseStatus = "DRAFT"
	StatusSubmitted           CaseStatus = "SUBMITTED"
	StatusPSApproved          CaseStatus = "PS_APPROVED"
	StatusPSRejected          CaseStatus = "PS_REJECTED"
	StatusCRIssued            CaseStatus = "CR_ISSUED"
	StatusPaid                CaseStatus = "PAID"
	StatusSettlementSubmitted CaseStatus = "SETTLEMENT_SUBMITTED"
	StatusDBIssued            CaseStatus = "DB_ISSUED"
	StatusClosed              CaseStatus = "CLOSED"
	StatusCancelled           CaseStatus = "CANCELLED"
)

// validStatuses is the closed set of statuses a case may carry.
var validStatuses = map[CaseStatus]struct{}{
	StatusDraft:               {},
	StatusSubmitted:           {},
	StatusPSApproved:          {},
	StatusPSRejected:          {},
	StatusCRIssued:            {},
	StatusPaid:                {},
	StatusSettlementSubmitted: {},
	StatusDBIssued:            {},
	StatusClosed:              {},
	StatusCancelled:           {},
}

// terminalStatuses admit no further transitions.
var terminalStatuses = map[CaseStatus]struct{}{
	StatusPSRejected: {},
	StatusClosed:     {},
	StatusCancelled:  {},
}

// IsValid reports whether s is a known case status.
func (s CaseStatus) IsValid() bool {
	_, ok := validStatuses[s]
	return ok
}

// IsTerminal reports whether s admits no further transitions.
func (s CaseStatus) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

func (s CaseStatus) String() string {
	return string(s)
}

// FundingType identifies the budget a case draws from.
type FundingType string

const (
	FundingOperating FundingType = "OPERATING"
	FundingGovBudget FundingType = "GOV_BUDGET"
)

// IsValid reports whether f is a known funding type.
func (f FundingType) IsValid() bool {
	return f == FundingOperating || f == FundingGovBudget
}

// Case is the workflow unit: one spending request tied to exactly one
// category for its whole lifetime. The AccountCode is copied from the
// category at creation and never changes afterwards.
type Case struct {
	CaseID          string          `json:"caseID"`          // Primary Key (e.g., UUID)
	CaseNumber      string          `json:"caseNumber"`      // Unique, human-facing (CAS-YYMMDD-XXXXXX)
	CategoryID      string          `json:"categoryID"`      // FK -> categories, fixed at creation
	AccountCode     string          `json:"accountCode"`     // Frozen copy of the category's code
	RequesterID     string          `json:"requesterID"`     // FK -> users
	Department      string          `json:"department"`      // Optional organizational dimension
	CostCenter      string          `json:"costCenter"`      // Optional organizational dimension
	FundingType     FundingType     `json:"fundingType"`     // OPERATING or GOV_BUDGET
	RequestedAmount decimal.Decimal `json:"requestedAmount"` // Positive
	Purpose         string          `json:"purpose"`         // Required free text
	Status          CaseStatus      `json:"status"`
	RejectReason    string          `json:"rejectReason,omitempty"` // Set by a PS rejection
	AuditFields
}

// caseNumberPrefix is the fixed prefix of human-facing case numbers.
const caseNumberPrefix = "CAS"

// FormatCaseNumber builds a case number from the creation date and a random
// suffix, e.g. CAS-251203-9F21AC. The suffix must already be hex; uniqueness
// is enforced by the storage layer.
func FormatCaseNumber(t time.Time, suffix string) string {
	return fmt.Sprintf("%s-%s-%s", caseNumberPrefix, t.UTC().Format("060102"), strings.ToUpper(suffix))
}
