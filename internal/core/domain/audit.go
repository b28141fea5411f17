package domain

import "time"

// AuditEntityType names the kind of entity an audit entry refers to.
type AuditEntityType string

const (
	AuditEntityCase     AuditEntityType = "CASE"
	AuditEntityDocument AuditEntityType = "DOCUMENT"
	AuditEntityPayment  AuditEntityType = "PAYMENT"
	AuditEntityCategory AuditEntityType = "CATEGORY"
	AuditEntityUser     AuditEntityType = "USER"
)

// AuditAction tags what happened. Workflow transitions each have their own
// tag; TRANSITION_REJECTED records attempts the state machine turned down.
type AuditAction string

const (
	AuditCaseCreated         AuditAction = "CASE_CREATED"
	AuditCaseSubmitted       AuditAction = "CASE_SUBMITTED"
	AuditPSApproved          AuditAction = "PS_APPROVED"
	AuditPSRejected          AuditAction = "PS_REJECTED"
	AuditCRIssued            AuditAction = "CR_ISSUED"
	AuditPaymentDisbursed    AuditAction = "PAYMENT_DISBURSED"
	AuditSettlementSubmitted AuditAction = "SETTLEMENT_SUBMITTED"
	AuditDBIssued            AuditAction = "DB_ISSUED"
	AuditCaseClosed          AuditAction = "CASE_CLOSED"
	AuditCaseCancelled       AuditAction = "CASE_CANCELLED"
	AuditTransitionRejected  AuditAction = "TRANSITION_REJECTED"

	AuditCaseUpdated        AuditAction = "CASE_UPDATED"
	AuditAttachmentAdded    AuditAction = "ATTACHMENT_ADDED"
	AuditSettlementPayment  AuditAction = "SETTLEMENT_PAYMENT_RECORDED"
	AuditDocContentAttached AuditAction = "DOC_CONTENT_ATTACHED"
	AuditCategoryCreated    AuditAction = "CATEGORY_CREATED"
	AuditCategoryUpdated    AuditAction = "CATEGORY_UPDATED"
	AuditCategoryRetired    AuditAction = "CATEGORY_RETIRED"
	AuditUserRoleChanged    AuditAction = "USER_ROLE_CHANGED"
	AuditUserDisabled       AuditAction = "USER_DISABLED"
)

// auditActionForCaseAction maps each workflow action to its audit tag.
var auditActionForCaseAction = map[CaseAction]AuditAction{
	ActionSubmit:           AuditCaseSubmitted,
	ActionApprovePS:        AuditPSApproved,
	ActionRejectPS:         AuditPSRejected,
	ActionIssueCR:          AuditCRIssued,
	ActionDisburse:         AuditPaymentDisbursed,
	ActionSubmitSettlement: AuditSettlementSubmitted,
	ActionIssueDB:          AuditDBIssued,
	ActionClose:            AuditCaseClosed,
	ActionCancel:           AuditCaseCancelled,
}

// AuditActionFor returns the audit tag recorded for a workflow action.
func AuditActionFor(action CaseAction) AuditAction {
	return auditActionForCaseAction[action]
}

// AuditLogEntry is one immutable row of the audit trail. Entries are only
// ever appended; there is no update or delete path anywhere in the system.
type AuditLogEntry struct {
	AuditID     string          `json:"auditID"` // Primary Key (e.g., UUID)
	EntityType  AuditEntityType `json:"entityType"`
	EntityID    string          `json:"entityID"`
	Action      AuditAction     `json:"action"`
	PerformedBy string          `json:"performedBy"` // UserID Reference
	PerformedAt time.Time       `json:"performedAt"`
	Details     map[string]any  `json:"details,omitempty"` // Structured context, stored as JSONB
}
