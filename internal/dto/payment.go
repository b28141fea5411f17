package dto

import (
	"time"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentResponse defines the data returned for a payment.
type PaymentResponse struct {
	PaymentID     string          `json:"paymentID"`
	CaseID        string          `json:"caseID"`
	PaymentType   string          `json:"paymentType"`
	Amount        decimal.Decimal `json:"amount"`
	ReferenceNo   string          `json:"referenceNo,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
	LastUpdatedBy string          `json:"lastUpdatedBy"`
}

// ToPaymentResponse converts a domain.Payment to PaymentResponse DTO
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:     p.PaymentID,
		CaseID:        p.CaseID,
		PaymentType:   string(p.PaymentType),
		Amount:        p.Amount,
		ReferenceNo:   p.ReferenceNo,
		CreatedAt:     p.CreatedAt,
		CreatedBy:     p.CreatedBy,
		LastUpdatedAt: p.LastUpdatedAt,
		LastUpdatedBy: p.LastUpdatedBy,
	}
}

// ToPaymentResponses converts a slice of domain.Payment to []PaymentResponse.
func ToPaymentResponses(payments []domain.Payment) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = ToPaymentResponse(&p)
	}
	return responses
}

// RecordSettlementPaymentRequest defines the payload for recording the
// post-settlement payment. The payment type is derived from the variance
// sign, never from the request.
type RecordSettlementPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	ReferenceNo string          `json:"referenceNo"` // Optional external payment reference
}

// VarianceResponse defines the settlement variance block of a case detail.
type VarianceResponse struct {
	CRAmount         decimal.Decimal `json:"crAmount"`
	DBAmount         decimal.Decimal `json:"dbAmount"`
	Variance         decimal.Decimal `json:"variance"`
	SettlementType   string          `json:"settlementType,omitempty"` // REFUND or ADDITIONAL, empty when variance is zero
	SettlementAmount decimal.Decimal `json:"settlementAmount"`
}

// ToVarianceResponse converts a domain.SettlementVariance to a VarianceResponse DTO.
// Returns nil when the variance is not applicable yet.
func ToVarianceResponse(v *domain.SettlementVariance) *VarianceResponse {
	if v == nil || !v.Applicable {
		return nil
	}
	resp := &VarianceResponse{
		CRAmount:         v.CRAmount,
		DBAmount:         v.DBAmount,
		Variance:         v.Variance,
		SettlementAmount: v.SettlementPaymentAmount(),
	}
	if paymentType, ok := v.SettlementPaymentType(); ok {
		resp.SettlementType = string(paymentType)
	}
	return resp
}
