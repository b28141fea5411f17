package domain

import (
	"fmt"

	"github.com/prtsw/caseflow_backend/internal/apperrors"
)

// CaseAction names a workflow operation that moves a case between statuses.
type CaseAction string

const (
	ActionSubmit           CaseAction = "SUBMIT"
	ActionApprovePS        CaseAction = "APPROVE_PS"
	ActionRejectPS         CaseAction = "REJECT_PS"
	ActionIssueCR          CaseAction = "ISSUE_CR"
	ActionDisburse         CaseAction = "DISBURSE"
	ActionSubmitSettlement CaseAction = "SUBMIT_SETTLEMENT"
	ActionIssueDB          CaseAction = "ISSUE_DB"
	ActionClose            CaseAction = "CLOSE"
	ActionCancel           CaseAction = "CANCEL"
)

func (a CaseAction) String() string {
	return string(a)
}

// TransitionRule describes one row of the workflow: the statuses an action
// may fire from, the status it lands in, and the roles allowed to trigger it.
type TransitionRule struct {
	From  []CaseStatus
	To    CaseStatus
	Roles []UserRole
}

// transitions is the whole workflow as data. Everything not listed here is an
// invalid transition; a listed transition attempted by an unlisted role is
// forbidden.
var transitions = map[CaseAction]TransitionRule{
	ActionSubmit: {
		From:  []CaseStatus{StatusDraft},
		To:    StatusSubmitted,
		Roles: []UserRole{RoleRequester},
	},
	ActionApprovePS: {
		From:  []CaseStatus{StatusSubmitted},
		To:    StatusPSApproved,
		Roles: []UserRole{RoleApprover},
	},
	ActionRejectPS: {
		From:  []CaseStatus{StatusSubmitted},
		To:    StatusPSRejected,
		Roles: []UserRole{RoleApprover},
	},
	ActionIssueCR: {
		From:  []CaseStatus{StatusPSApproved},
		To:    StatusCRIssued,
		Roles: []UserRole{RoleIssuer},
	},
	ActionDisburse: {
		From:  []CaseStatus{StatusCRIssued},
		To:    StatusPaid,
		Roles: []UserRole{RoleDisburser},
	},
	ActionSubmitSettlement: {
		From:  []CaseStatus{StatusPaid},
		To:    StatusSettlementSubmitted,
		Roles: []UserRole{RoleRequester},
	},
	ActionIssueDB: {
		From:  []CaseStatus{StatusSettlementSubmitted},
		To:    StatusDBIssued,
		Roles: []UserRole{RoleIssuer},
	},
	ActionClose: {
		From:  []CaseStatus{StatusDBIssued},
		To:    StatusClosed,
		Roles: []UserRole{RoleIssuer, RoleAdmin},
	},
	ActionCancel: {
		From:  []CaseStatus{StatusDraft, StatusSubmitted},
		To:    StatusCancelled,
		Roles: []UserRole{RoleRequester, RoleAdmin},
	},
}

// ValidateTransition is the single authority on case-status changes. It is a
// pure function: it performs no I/O and never mutates anything. Callers
// persist the returned status themselves.
//
// It returns ErrInvalidTransition when the action cannot fire from current,
// and ErrForbidden when the action exists but the role may not trigger it.
func ValidateTransition(current CaseStatus, action CaseAction, role UserRole) (CaseStatus, error) {
	rule, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("unknown action %q from status %s: %w", action, current, apperrors.ErrInvalidTransition)
	}

	fromAllowed := false
	for _, from := range rule.From {
		if from == current {
			fromAllowed = true
			break
		}
	}
	if !fromAllowed {
		return "", fmt.Errorf("action %s not allowed from status %s: %w", action, current, apperrors.ErrInvalidTransition)
	}

	for _, allowed := range rule.Roles {
		if allowed == role {
			return rule.To, nil
		}
	}
	return "", fmt.Errorf("role %s may not perform %s: %w", role, action, apperrors.ErrForbidden)
}

// RolesForAction exposes the roles permitted to trigger an action.
func RolesForAction(action CaseAction) []UserRole {
	rule, ok := transitions[action]
	if !ok {
		return nil
	}
	out := make([]UserRole, len(rule.Roles))
	copy(out, rule.Roles)
	return out
}
