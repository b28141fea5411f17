package models

// CategoryKind classifies a category as expense or revenue.
type CategoryKind string

const (
	CategoryExpense CategoryKind = "EXPENSE"
	CategoryRevenue CategoryKind = "REVENUE"
)

// Category represents a row of the categories table. Categories are retired
// by flipping active to false; there is no delete.
type Category struct {
	CategoryID  string       `db:"category_id"`
	DisplayName string       `db:"display_name"`
	AccountCode string       `db:"account_code"`
	Kind        CategoryKind `db:"kind"`
	Active      bool         `db:"active"`
	AuditFields
}
