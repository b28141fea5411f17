package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Document represents a row of the documents table. The UNIQUE
// (case_id, doc_type) constraint uq_case_id_doc_type is the storage-level
// backstop for at-most-one document per type per case.
type Document struct {
	DocumentID string          `db:"document_id"`
	CaseID     string          `db:"case_id"`
	DocType    string          `db:"doc_type"`
	DocNumber  string          `db:"doc_number"`
	Amount     decimal.Decimal `db:"amount"`
	ContentRef sql.NullString  `db:"content_ref"`
	AuditFields
}

// DocCounter represents a row of the doc_counters table, keyed by
// (doc_type, year_month).
type DocCounter struct {
	DocType    string `db:"doc_type"`
	YearMonth  string `db:"year_month"`
	LastNumber int64  `db:"last_number"`
}
