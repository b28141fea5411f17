package domain

// CategoryKind classifies a spending category by the side of the books it touches.
type CategoryKind string

const (
	CategoryExpense CategoryKind = "EXPENSE"
	CategoryRevenue CategoryKind = "REVENUE"
)

// Category is a governance-managed spending category. Cases copy its
// AccountCode at creation time, so edits here never rewrite history.
// Categories are retired via Active=false, never deleted.
type Category struct {
	CategoryID  string       `json:"categoryID"`  // Primary Key (e.g., UUID)
	DisplayName string       `json:"displayName"` // Unique, human-facing
	AccountCode string       `json:"accountCode"` // Unique ledger account code
	Kind        CategoryKind `json:"kind"`        // EXPENSE or REVENUE
	Active      bool         `json:"active"`      // Retired categories stay readable
	AuditFields
}
