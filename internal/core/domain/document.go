package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// DocumentType identifies one of the three controlled documents a case
// produces over its lifecycle.
type DocumentType string

const (
	DocTypePS DocumentType = "PS" // payment/approval slip, issued on approval
	DocTypeCR DocumentType = "CR" // cash requisition, the fund commitment
	DocTypeDB DocumentType = "DB" // disbursement bill, the settlement document
)

// IsValid reports whether t is a known document type.
func (t DocumentType) IsValid() bool {
	return t == DocTypePS || t == DocTypeCR || t == DocTypeDB
}

func (t DocumentType) String() string {
	return string(t)
}

// Document is a controlled document issued against a case. At most one
// document exists per (case, type); the constraint lives in storage as well
// as in the orchestrator.
type Document struct {
	DocumentID string          `json:"documentID"` // Primary Key (e.g., UUID)
	CaseID     string          `json:"caseID"`     // FK -> cases
	DocType    DocumentType    `json:"docType"`    // PS, CR or DB
	DocNumber  string          `json:"docNumber"`  // Unique, see FormatDocNumber
	Amount     decimal.Decimal `json:"amount"`
	ContentRef string          `json:"contentRef"` // Opaque renderer locator; empty until attached
	AuditFields
}

// DocNumberParts is a decomposed controlled-document number.
type DocNumberParts struct {
	DocType   DocumentType
	YearMonth string // YYMM
	Sequence  int64
}

// YearMonth renders t as the YYMM key used for document numbering.
func YearMonth(t time.Time) string {
	return t.UTC().Format("0601")
}

// FormatDocNumber builds a document number such as CR-2512-0023. Sequences
// are zero-padded to four digits and keep growing past 9999 unpadded.
func FormatDocNumber(docType DocumentType, yearMonth string, sequence int64) string {
	return fmt.Sprintf("%s-%s-%04d", docType, yearMonth, sequence)
}

// ParseDocNumber reverses FormatDocNumber. Malformed input yields a
// validation error.
func ParseDocNumber(docNumber string) (DocNumberParts, error) {
	parts := strings.Split(docNumber, "-")
	if len(parts) != 3 {
		return DocNumberParts{}, fmt.Errorf("document number %q is malformed: %w", docNumber, apperrors.ErrValidation)
	}

	docType := DocumentType(parts[0])
	if !docType.IsValid() {
		return DocNumberParts{}, fmt.Errorf("document number %q has unknown type %q: %w", docNumber, parts[0], apperrors.ErrValidation)
	}

	yearMonth := parts[1]
	if len(yearMonth) != 4 {
		return DocNumberParts{}, fmt.Errorf("document number %q has malformed year-month %q: %w", docNumber, yearMonth, apperrors.ErrValidation)
	}
	if _, err := strconv.Atoi(yearMonth); err != nil {
		return DocNumberParts{}, fmt.Errorf("document number %q has malformed year-month %q: %w", docNumber, yearMonth, apperrors.ErrValidation)
	}
	month, _ := strconv.Atoi(yearMonth[2:])
	if month < 1 || month > 12 {
		return DocNumberParts{}, fmt.Errorf("document number %q has month out of range: %w", docNumber, apperrors.ErrValidation)
	}

	if len(parts[2]) < 4 {
		return DocNumberParts{}, fmt.Errorf("document number %q has short sequence %q: %w", docNumber, parts[2], apperrors.ErrValidation)
	}
	sequence, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || sequence < 1 {
		return DocNumberParts{}, fmt.Errorf("document number %q has malformed sequence %q: %w", docNumber, parts[2], apperrors.ErrValidation)
	}

	return DocNumberParts{DocType: docType, YearMonth: yearMonth, Sequence: sequence}, nil
}

// RequiredStatusForIssue maps a document type to the case status it may be
// issued from. The orchestrator re-checks this against the locked row.
func RequiredStatusForIssue(docType DocumentType) (CaseStatus, error) {
	switch docType {
	case DocTypePS:
		return StatusSubmitted, nil
	case DocTypeCR:
		return StatusPSApproved, nil
	case DocTypeDB:
		return StatusSettlementSubmitted, nil
	default:
		return "", fmt.Errorf("unknown document type %q: %w", docType, apperrors.ErrValidation)
	}
}

// DocCounter is the durable per-(type, month) sequence row behind document
// numbering. LastNumber only ever increases.
type DocCounter struct {
	DocType    DocumentType `json:"docType"`
	YearMonth  string       `json:"yearMonth"` // YYMM
	LastNumber int64        `json:"lastNumber"`
}
