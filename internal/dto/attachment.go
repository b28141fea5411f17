package dto

import (
	"time"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
)

// AddAttachmentRequest defines the data needed to attach a stored artifact to a case.
// StorageRef is an opaque locator owned by the external storage collaborator.
type AddAttachmentRequest struct {
	AttachmentType string `json:"attachmentType" binding:"required,oneof=QUOTE RECEIPT INVOICE OTHER"`
	StorageRef     string `json:"storageRef" binding:"required"`
}

// AttachmentResponse defines the data returned for an attachment.
type AttachmentResponse struct {
	AttachmentID   string    `json:"attachmentID"`
	CaseID         string    `json:"caseID"`
	AttachmentType string    `json:"attachmentType"`
	StorageRef     string    `json:"storageRef"`
	CreatedAt      time.Time `json:"createdAt"`
	CreatedBy      string    `json:"createdBy"`
}

// ToAttachmentResponse converts a domain.Attachment to AttachmentResponse DTO
func ToAttachmentResponse(a *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		AttachmentID:   a.AttachmentID,
		CaseID:         a.CaseID,
		AttachmentType: string(a.AttachmentType),
		StorageRef:     a.StorageRef,
		CreatedAt:      a.CreatedAt,
		CreatedBy:      a.CreatedBy,
	}
}

// ToAttachmentResponses converts a slice of domain.Attachment to []AttachmentResponse.
func ToAttachmentResponses(attachments []domain.Attachment) []AttachmentResponse {
	responses := make([]AttachmentResponse, len(attachments))
	for i, a := range attachments {
		responses[i] = ToAttachmentResponse(&a)
	}
	return responses
}
