package mapping

import (
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	"github.com/prtsw/caseflow_backend/internal/models"
)

// ToModelDocument converts a domain Document to a model Document
func ToModelDocument(d domain.Document) models.Document {
	return models.Document{
		DocumentID:  d.DocumentID,
		CaseID:      d.CaseID,
		DocType:     string(d.DocType),
		DocNumber:   d.DocNumber,
		Amount:      d.Amount,
		ContentRef:  toNullString(d.ContentRef),
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainDocument converts a model Document to a domain Document
func ToDomainDocument(m models.Document) domain.Document {
	return domain.Document{
		DocumentID:  m.DocumentID,
		CaseID:      m.CaseID,
		DocType:     domain.DocumentType(m.DocType),
		DocNumber:   m.DocNumber,
		Amount:      m.Amount,
		ContentRef:  fromNullString(m.ContentRef),
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainDocumentSlice converts a slice of model Documents to domain Documents
func ToDomainDocumentSlice(ms []models.Document) []domain.Document {
	ds := make([]domain.Document, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainDocument(m)
	}
	return ds
}
