package mapping

import (
	"github.com/prtsw/caseflow_backend/internal/core/domain"
	"github.com/prtsw/caseflow_backend/internal/models"
)

// ToModelCase converts a domain Case to a model Case
func ToModelCase(d domain.Case) models.Case {
	return models.Case{
		CaseID:          d.CaseID,
		CaseNumber:      d.CaseNumber,
		CategoryID:      d.CategoryID,
		AccountCode:     d.AccountCode,
		RequesterID:     d.RequesterID,
		Department:      toNullString(d.Department),
		CostCenter:      toNullString(d.CostCenter),
		FundingType:     string(d.FundingType),
		RequestedAmount: d.RequestedAmount,
		Purpose:         d.Purpose,
		Status:          models.CaseStatus(d.Status),
		RejectReason:    toNullString(d.RejectReason),
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCase converts a model Case to a domain Case
func ToDomainCase(m models.Case) domain.Case {
	return domain.Case{
		CaseID:          m.CaseID,
		CaseNumber:      m.CaseNumber,
		CategoryID:      m.CategoryID,
		AccountCode:     m.AccountCode,
		RequesterID:     m.RequesterID,
		Department:      fromNullString(m.Department),
		CostCenter:      fromNullString(m.CostCenter),
		FundingType:     domain.FundingType(m.FundingType),
		RequestedAmount: m.RequestedAmount,
		Purpose:         m.Purpose,
		Status:          domain.CaseStatus(m.Status),
		RejectReason:    fromNullString(m.RejectReason),
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainCaseSlice converts a slice of model Cases to a slice of domain Cases
func ToDomainCaseSlice(ms []models.Case) []domain.Case {
	ds := make([]domain.Case, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainCase(m)
	}
	return ds
}
