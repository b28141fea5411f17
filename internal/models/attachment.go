package models

// Attachment represents a row of the attachments table. Only the opaque
// storage reference is kept; the blob lives in an external store.
type Attachment struct {
	AttachmentID   string `db:"attachment_id"`
	CaseID         string `db:"case_id"`
	AttachmentType string `db:"attachment_type"`
	StorageRef     string `db:"storage_ref"`
	AuditFields
}
