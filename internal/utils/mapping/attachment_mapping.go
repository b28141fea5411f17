package mapping

import (
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	"github.com/prtsw/caseflow_backend/internal/models"
)

// ToModelAttachment converts a domain Attachment to a model Attachment
func ToModelAttachment(d domain.Attachment) models.Attachment {
	return models.Attachment{
		AttachmentID:   d.AttachmentID,
		CaseID:         d.CaseID,
		AttachmentType: string(d.AttachmentType),
		StorageRef:     d.StorageRef,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAttachment converts a model Attachment to a domain Attachment
func ToDomainAttachment(m models.Attachment) domain.Attachment {
	return domain.Attachment{
		AttachmentID:   m.AttachmentID,
		CaseID:         m.CaseID,
		AttachmentType: domain.AttachmentType(m.AttachmentType),
		StorageRef:     m.StorageRef,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainAttachmentSlice converts a slice of model Attachments to domain Attachments
func ToDomainAttachmentSlice(ms []models.Attachment) []domain.Attachment {
	ds := make([]domain.Attachment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAttachment(m)
	}
	return ds
}
