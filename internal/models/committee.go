package models

import "time"

// AssignmentStatus is the closed status set for committee assignments.
type AssignmentStatus string

const (
	AssignmentStatusCurrent  AssignmentStatus = "current"
	AssignmentStatusPrevious AssignmentStatus = "previous"
)

// Valid reports whether the status is a known variant.
func (s AssignmentStatus) Valid() bool {
	return s == AssignmentStatusCurrent || s == AssignmentStatusPrevious
}

// CommitteeAssignment is one published seat in a committee tenure.
type CommitteeAssignment struct {
	ID              string           `db:"id" json:"id"`
	UserID          string           `db:"user_id" json:"user_id"`
	DesignationID   string           `db:"designation_id" json:"designation_id"`
	CommitteeNumber string           `db:"committee_number" json:"committee_number"`
	TenureStart     time.Time        `db:"tenure_start" json:"tenure_start"`
	TenureEnd       *time.Time       `db:"tenure_end" json:"tenure_end,omitempty"`
	Status          AssignmentStatus `db:"status" json:"status"`
	MemberOrder     int              `db:"member_order" json:"member_order"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// AssignmentDetail joins an assignment with live user and designation data
// for presentation and for building archive snapshots.
type AssignmentDetail struct {
	CommitteeAssignment
	UserName         string  `db:"user_name" json:"user_name"`
	UserEmail        string  `db:"user_email" json:"user_email"`
	UserPhoto        *string `db:"user_photo" json:"user_photo,omitempty"`
	DesignationName  string  `db:"designation_name" json:"designation_name"`
	DesignationLevel int     `db:"designation_level" json:"designation_level"`
}

// RosterEntry is one row of the live-derived roster: an eligible executive
// paired with their designation, before any snapshot is persisted.
type RosterEntry struct {
	UserID          string  `db:"user_id" json:"user_id"`
	UserName        string  `db:"user_name" json:"user_name"`
	UserEmail       string  `db:"user_email" json:"user_email"`
	UserPhoto       *string `db:"user_photo" json:"user_photo,omitempty"`
	DesignationID   string  `db:"designation_id" json:"designation_id"`
	DesignationName string  `db:"designation_name" json:"designation_name"`
	SortOrder       int     `db:"sort_order" json:"sort_order"`
	MemberOrder     *int    `db:"member_order" json:"member_order,omitempty"`
}

// CommitteeState is the single-row marker carrying the committee number that
// scopes the next publish, and serving as the row-level lock serialising all
// mutating committee operations.
type CommitteeState struct {
	ID            int       `db:"id" json:"-"`
	CurrentNumber string    `db:"current_number" json:"current_number"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CommitteeStats summarises lifecycle state for dashboards.
type CommitteeStats struct {
	CurrentMemberCount     int    `json:"current_members_count"`
	ArchivedCommitteeCount int    `json:"total_committees_history"`
	CurrentCommitteeNumber string `json:"current_committee_number"`
	HasCurrentCommittee    bool   `json:"has_current_committee"`
}
