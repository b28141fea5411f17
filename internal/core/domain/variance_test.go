package domain_test

import (
	"testing"

	"github.com/prtsw/caseflow_backend/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func docWithAmount(docType domain.DocumentType, amount int64) *domain.Document {
	return &domain.Document{
		DocumentID: "doc-" + string(docType),
		CaseID:     "case-1",
		DocType:    docType,
		Amount:     decimal.NewFromInt(amount),
	}
}

// Variance is DB minus CR everywhere in the system; the refund/additional
// decision derives from the same sign, never from a recomputed difference.
func TestComputeVariance(t *testing.T) {
	tests := []struct {
		name         string
		cr           *domain.Document
		db           *domain.Document
		wantApplies  bool
		wantVariance int64
	}{
		{
			name:         "DB below CR yields negative variance",
			cr:           docWithAmount(domain.DocTypeCR, 1000),
			db:           docWithAmount(domain.DocTypeDB, 850),
			wantApplies:  true,
			wantVariance: -150,
		},
		{
			name:         "DB above CR yields positive variance",
			cr:           docWithAmount(domain.DocTypeCR, 1000),
			db:           docWithAmount(domain.DocTypeDB, 1200),
			wantApplies:  true,
			wantVariance: 200,
		},
		{
			name:         "exact spend yields zero variance",
			cr:           docWithAmount(domain.DocTypeCR, 500),
			db:           docWithAmount(domain.DocTypeDB, 500),
			wantApplies:  true,
			wantVariance: 0,
		},
		{
			name:        "no DB issued yet",
			cr:          docWithAmount(domain.DocTypeCR, 1000),
			db:          nil,
			wantApplies: false,
		},
		{
			name:        "no CR issued yet",
			cr:          nil,
			db:          docWithAmount(domain.DocTypeDB, 850),
			wantApplies: false,
		},
		{
			name:        "neither document issued",
			cr:          nil,
			db:          nil,
			wantApplies: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := domain.ComputeVariance(tt.cr, tt.db)
			assert.Equal(t, tt.wantApplies, v.Applicable)
			if tt.wantApplies {
				assert.True(t, v.Variance.Equal(decimal.NewFromInt(tt.wantVariance)),
					"variance = %s, want %d", v.Variance, tt.wantVariance)
			} else {
				assert.True(t, v.Variance.IsZero())
			}
		})
	}
}

func TestComputeVariance_SignConvention(t *testing.T) {
	v := domain.ComputeVariance(docWithAmount(domain.DocTypeCR, 1000), docWithAmount(domain.DocTypeDB, 850))
	assert.True(t, v.Variance.Equal(decimal.NewFromInt(-150)))

	v = domain.ComputeVariance(docWithAmount(domain.DocTypeCR, 500), docWithAmount(domain.DocTypeDB, 480))
	assert.True(t, v.Variance.Equal(decimal.NewFromInt(-20)))
}

func TestSettlementPaymentType(t *testing.T) {
	tests := []struct {
		name     string
		cr       int64
		db       int64
		wantType domain.PaymentType
		wantDue  bool
	}{
		{"negative variance owes an additional payment", 1000, 850, domain.PaymentAdditional, true},
		{"positive variance owes a refund", 1000, 1200, domain.PaymentRefund, true},
		{"zero variance owes nothing", 500, 500, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := domain.ComputeVariance(docWithAmount(domain.DocTypeCR, tt.cr), docWithAmount(domain.DocTypeDB, tt.db))
			gotType, due := v.SettlementPaymentType()
			assert.Equal(t, tt.wantDue, due)
			assert.Equal(t, tt.wantType, gotType)
		})
	}

	gotType, due := domain.SettlementVariance{}.SettlementPaymentType()
	assert.False(t, due)
	assert.Empty(t, gotType)
}

func TestSettlementPaymentAmount(t *testing.T) {
	v := domain.ComputeVariance(docWithAmount(domain.DocTypeCR, 500), docWithAmount(domain.DocTypeDB, 480))
	assert.True(t, v.SettlementPaymentAmount().Equal(decimal.NewFromInt(20)))

	v = domain.ComputeVariance(docWithAmount(domain.DocTypeCR, 1000), docWithAmount(domain.DocTypeDB, 1200))
	assert.True(t, v.SettlementPaymentAmount().Equal(decimal.NewFromInt(200)))

	assert.True(t, domain.SettlementVariance{}.SettlementPaymentAmount().IsZero())
}
