package models

import "time"

// ApplicationStatus is the closed state set for role applications.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// Valid reports whether the status is a known variant.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	}
	return false
}

// ExecutiveApplication is a volunteer's request for an executive designation.
type ExecutiveApplication struct {
	ID            string            `db:"id" json:"id"`
	UserID        string            `db:"user_id" json:"user_id"`
	DesignationID *string           `db:"designation_id" json:"designation_id,omitempty"`
	Statement     string            `db:"statement" json:"statement"`
	Status        ApplicationStatus `db:"status" json:"status"`
	AdminComment  *string           `db:"admin_comment" json:"admin_comment,omitempty"`
	ProcessedBy   *string           `db:"processed_by" json:"processed_by,omitempty"`
	ProcessedAt   *time.Time        `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// VolunteerApplication is a member's request for volunteer standing.
type VolunteerApplication struct {
	ID          string            `db:"id" json:"id"`
	UserID      string            `db:"user_id" json:"user_id"`
	Motivation  string            `db:"motivation" json:"motivation"`
	Status      ApplicationStatus `db:"status" json:"status"`
	AdminNotes  *string           `db:"admin_notes" json:"admin_notes,omitempty"`
	ProcessedBy *string           `db:"processed_by" json:"processed_by,omitempty"`
	ProcessedAt *time.Time        `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}
