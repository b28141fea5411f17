package domain

import "github.com/shopspring/decimal"

// PaymentType classifies a payment against a case.
type PaymentType string

const (
	PaymentDisburse   PaymentType = "DISBURSE"   // initial payout after CR issuance
	PaymentRefund     PaymentType = "REFUND"     // money returned on under-spend
	PaymentAdditional PaymentType = "ADDITIONAL" // extra payout on overspend
)

// IsValid reports whether p is a known payment type.
func (p PaymentType) IsValid() bool {
	return p == PaymentDisburse || p == PaymentRefund || p == PaymentAdditional
}

// Payment is money moved for a case. A case may accumulate several payments,
// e.g. a DISBURSE followed by a REFUND after settlement.
type Payment struct {
	PaymentID   string          `json:"paymentID"` // Primary Key (e.g., UUID)
	CaseID      string          `json:"caseID"`    // FK -> cases
	PaymentType PaymentType     `json:"paymentType"`
	Amount      decimal.Decimal `json:"amount"`                // Positive
	ReferenceNo string          `json:"referenceNo,omitempty"` // External bank/voucher reference
	AuditFields
}
