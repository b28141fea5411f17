package domain

import "github.com/shopspring/decimal"

// SettlementVariance is the derived settlement result of a case. The sign
// convention is fixed: Variance = DB.amount - CR.amount, so a positive value
// is an under-spend owed back (REFUND) and a negative value is an overspend
// requiring an ADDITIONAL payment.
type SettlementVariance struct {
	Applicable bool            `json:"applicable"`
	CRAmount   decimal.Decimal `json:"crAmount"`
	DBAmount   decimal.Decimal `json:"dbAmount"`
	Variance   decimal.Decimal `json:"variance"`
}

// ComputeVariance derives the settlement variance from a case's CR and DB
// documents. Until both exist the result is not applicable and carries zero
// values.
func ComputeVariance(cr, db *Document) SettlementVariance {
	if cr == nil || db == nil {
		return SettlementVariance{}
	}
	return SettlementVariance{
		Applicable: true,
		CRAmount:   cr.Amount,
		DBAmount:   db.Amount,
		Variance:   db.Amount.Sub(cr.Amount),
	}
}

// SettlementPaymentType derives the payment type owed after settlement. The
// second return is false when no settlement payment is due (zero variance or
// variance not applicable).
func (v SettlementVariance) SettlementPaymentType() (PaymentType, bool) {
	if !v.Applicable || v.Variance.IsZero() {
		return "", false
	}
	if v.Variance.IsPositive() {
		return PaymentRefund, true
	}
	return PaymentAdditional, true
}

// SettlementPaymentAmount is the absolute amount the settlement payment must
// carry. Zero when no payment is due.
func (v SettlementVariance) SettlementPaymentAmount() decimal.Decimal {
	if !v.Applicable {
		return decimal.Zero
	}
	return v.Variance.Abs()
}
