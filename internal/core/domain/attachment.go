package domain

// AttachmentType classifies a supporting file attached to a case.
type AttachmentType string

const (
	AttachmentQuote   AttachmentType = "QUOTE"
	AttachmentReceipt AttachmentType = "RECEIPT"
	AttachmentInvoice AttachmentType = "INVOICE"
	AttachmentOther   AttachmentType = "OTHER"
)

// IsValid reports whether t is a known attachment type.
func (t AttachmentType) IsValid() bool {
	switch t {
	case AttachmentQuote, AttachmentReceipt, AttachmentInvoice, AttachmentOther:
		return true
	}
	return false
}

// Attachment references a supporting file for a case. The blob itself lives
// in an external store; only the opaque StorageRef is kept here.
type Attachment struct {
	AttachmentID   string         `json:"attachmentID"` // Primary Key (e.g., UUID)
	CaseID         string         `json:"caseID"`       // FK -> cases
	AttachmentType AttachmentType `json:"attachmentType"`
	StorageRef     string         `json:"storageRef"` // Opaque external locator
	AuditFields
}
