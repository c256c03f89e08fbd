package domain

import (
	"encoding/json"
	"fmt"
)

// ApprovalStatus is the state of one user's approval on a document.
// On the wire it is true (Approved), false (Rejected) or null (Pending).
type ApprovalStatus int

const (
	Pending ApprovalStatus = iota
	Approved
	Rejected
)

func (s ApprovalStatus) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Approved:
		return "Approved"
	case Rejected:
		return "Rejected"
	default:
		return fmt.Sprintf("ApprovalStatus(%d)", int(s))
	}
}

// IsApproved collapses the status to the boolean used by the sequential gate.
// Pending and Rejected both count as not approved.
func (s ApprovalStatus) IsApproved() bool {
	switch s {
	case Approved:
		return true
	case Rejected, Pending:
		return false
	default:
		return false
	}
}

// ApprovalStatusFromBool maps the nullable wire form onto the enum.
func ApprovalStatusFromBool(v *bool) ApprovalStatus {
	if v == nil {
		return Pending
	}
	if *v {
		return Approved
	}
	return Rejected
}

// Bool returns the nullable wire form.
func (s ApprovalStatus) Bool() *bool {
	var v bool
	switch s {
	case Approved:
		v = true
	case Rejected:
		v = false
	default:
		return nil
	}
	return &v
}

func (s ApprovalStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Bool())
}

func (s *ApprovalStatus) UnmarshalJSON(data []byte) error {
	var v *bool
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("approval_status must be true, false or null: %w", err)
	}
	*s = ApprovalStatusFromBool(v)
	return nil
}
