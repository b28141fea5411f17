package dto

import (
	"time"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateCaseRequest defines the data needed to open a new case in DRAFT.
type CreateCaseRequest struct {
	CategoryID      string          `json:"categoryID" binding:"required"`
	Department      string          `json:"department"` // Optional
	CostCenter      string          `json:"costCenter"` // Optional
	FundingType     string          `json:"fundingType" binding:"required,oneof=OPERATING GOV_BUDGET"`
	RequestedAmount decimal.Decimal `json:"requestedAmount" binding:"required"`
	Purpose         string          `json:"purpose" binding:"required"`
}

// UpdateCaseRequest defines the data allowed for updating a DRAFT case.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateCaseRequest struct {
	Department      *string          `json:"department"`
	CostCenter      *string          `json:"costCenter"`
	FundingType     *string          `json:"fundingType" binding:"omitempty,oneof=OPERATING GOV_BUDGET"`
	RequestedAmount *decimal.Decimal `json:"requestedAmount"`
	Purpose         *string          `json:"purpose"`
}

// RejectCaseRequest carries the optional reason recorded when a PS approval is rejected.
type RejectCaseRequest struct {
	Reason string `json:"reason"` // Optional
}

// CancelCaseRequest carries the optional reason recorded when a case is cancelled.
type CancelCaseRequest struct {
	Reason string `json:"reason"` // Optional
}

// IssueCRRequest defines the payload for issuing a cash requisition.
// Amount defaults to the case's requested amount when omitted.
type IssueCRRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// DisburseRequest defines the payload for recording the disbursement payment.
type DisburseRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	ReferenceNo string          `json:"referenceNo"` // Optional external payment reference
}

// IssueDBRequest defines the payload for issuing the disbursement bill at settlement.
type IssueDBRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// CaseResponse defines the data returned for a case.
// Mirrors domain.Case.
type CaseResponse struct {
	CaseID          string          `json:"caseID"`
	CaseNumber      string          `json:"caseNumber"`
	CategoryID      string          `json:"categoryID"`
	AccountCode     string          `json:"accountCode"`
	RequesterID     string          `json:"requesterID"`
	Department      string          `json:"department,omitempty"`
	CostCenter      string          `json:"costCenter,omitempty"`
	FundingType     string          `json:"fundingType"`
	RequestedAmount decimal.Decimal `json:"requestedAmount"`
	Purpose         string          `json:"purpose"`
	Status          string          `json:"status"`
	RejectReason    string          `json:"rejectReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
	LastUpdatedAt   time.Time       `json:"lastUpdatedAt"`
	LastUpdatedBy   string          `json:"lastUpdatedBy"`
}

// ToCaseResponse converts a domain.Case to CaseResponse DTO
func ToCaseResponse(c *domain.Case) CaseResponse {
	return CaseResponse{
		CaseID:          c.CaseID,
		CaseNumber:      c.CaseNumber,
		CategoryID:      c.CategoryID,
		AccountCode:     c.AccountCode,
		RequesterID:     c.RequesterID,
		Department:      c.Department,
		CostCenter:      c.CostCenter,
		FundingType:     string(c.FundingType),
		RequestedAmount: c.RequestedAmount,
		Purpose:         c.Purpose,
		Status:          string(c.Status),
		RejectReason:    c.RejectReason,
		CreatedAt:       c.CreatedAt,
		CreatedBy:       c.CreatedBy,
		LastUpdatedAt:   c.LastUpdatedAt,
		LastUpdatedBy:   c.LastUpdatedBy,
	}
}

// ListCasesParams defines query parameters for listing cases.
type ListCasesParams struct {
	Status    *string `form:"status"`
	Limit     int     `form:"limit,default=20"`
	NextToken *string `form:"nextToken"`
}

// ListCasesResponse wraps a token-paginated list of cases.
type ListCasesResponse struct {
	Cases     []CaseResponse `json:"cases"`
	NextToken *string        `json:"nextToken,omitempty"`
}

// ToListCasesResponse converts a slice of domain.Case plus pagination token to ListCasesResponse DTO
func ToListCasesResponse(cases []domain.Case, nextToken *string) ListCasesResponse {
	caseResponses := make([]CaseResponse, len(cases))
	for i, c := range cases {
		caseResponses[i] = ToCaseResponse(&c)
	}
	return ListCasesResponse{
		Cases:     caseResponses,
		NextToken: nextToken,
	}
}

// CaseDetailResponse combines a case with everything hanging off it.
// Variance is null until both CR and DB documents exist.
type CaseDetailResponse struct {
	Case        CaseResponse         `json:"case"`
	Documents   []DocumentResponse   `json:"documents"`
	Payments    []PaymentResponse    `json:"payments"`
	Attachments []AttachmentResponse `json:"attachments"`
	Variance    *VarianceResponse    `json:"variance,omitempty"`
}

// TransitionResponse defines the data returned by a workflow operation.
// Document and Payment are set only by operations that produce them.
type TransitionResponse struct {
	Case     CaseResponse      `json:"case"`
	Document *DocumentResponse `json:"document,omitempty"`
	Payment  *PaymentResponse  `json:"payment,omitempty"`
}
