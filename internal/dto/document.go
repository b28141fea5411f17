package dto

import (
	"time"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DocumentResponse defines the data returned for a controlled document.
type DocumentResponse struct {
	DocumentID    string          `json:"documentID"`
	CaseID        string          `json:"caseID"`
	DocType       string          `json:"docType"`
	DocNumber     string          `json:"docNumber"`
	Amount        decimal.Decimal `json:"amount"`
	ContentRef    string          `json:"contentRef,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
	LastUpdatedBy string          `json:"lastUpdatedBy"`
}

// ToDocumentResponse converts a domain.Document to DocumentResponse DTO
func ToDocumentResponse(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		DocumentID:    d.DocumentID,
		CaseID:        d.CaseID,
		DocType:       string(d.DocType),
		DocNumber:     d.DocNumber,
		Amount:        d.Amount,
		ContentRef:    d.ContentRef,
		CreatedAt:     d.CreatedAt,
		CreatedBy:     d.CreatedBy,
		LastUpdatedAt: d.LastUpdatedAt,
		LastUpdatedBy: d.LastUpdatedBy,
	}
}

// ToDocumentResponses converts a slice of domain.Document to []DocumentResponse.
func ToDocumentResponses(docs []domain.Document) []DocumentResponse {
	responses := make([]DocumentResponse, len(docs))
	for i, d := range docs {
		responses[i] = ToDocumentResponse(&d)
	}
	return responses
}

// UpdateContentRefRequest carries the rendered-artifact reference for a document.
type UpdateContentRefRequest struct {
	ContentRef string `json:"contentRef" binding:"required"`
}
