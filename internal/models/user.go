package models

import "time"

// UserType is the closed set of member roles the engine recognises. The
// legacy system stored these as free-form enum columns mutated with raw
// ALTER statements; here every value entering the engine is checked at the
// application boundary.
type UserType string

const (
	UserTypeMember    UserType = "member"
	UserTypeVolunteer UserType = "volunteer"
	UserTypeExecutive UserType = "executive"
)

// Valid reports whether the user type is one of the closed variants.
func (t UserType) Valid() bool {
	switch t {
	case UserTypeMember, UserTypeVolunteer, UserTypeExecutive:
		return true
	}
	return false
}

// rank orders user types for promotion/demotion classification.
func (t UserType) rank() int {
	switch t {
	case UserTypeMember:
		return 0
	case UserTypeVolunteer:
		return 1
	case UserTypeExecutive:
		return 2
	}
	return -1
}

// CommitteeStatus marks whether an executive currently sits on the committee.
type CommitteeStatus string

const (
	CommitteeStatusActive CommitteeStatus = "active"
	CommitteeStatusNone   CommitteeStatus = "none"
)

// Valid reports whether the status is a known variant.
func (s CommitteeStatus) Valid() bool {
	return s == CommitteeStatusActive || s == CommitteeStatusNone
}

// User is the subset of the member record this engine reads and mutates.
// The engine is the only writer of UserType, DesignationID and
// CommitteeStatus; everything else is owned by the surrounding system.
type User struct {
	ID              string          `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Email           string          `db:"email" json:"email"`
	Photo           *string         `db:"photo" json:"photo,omitempty"`
	UserType        UserType        `db:"usertype" json:"usertype"`
	DesignationID   *string         `db:"designation_id" json:"designation_id,omitempty"`
	CommitteeStatus CommitteeStatus `db:"committee_status" json:"committee_status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// IsCommitteeEligible is the single-source-of-truth predicate for membership
// in the derived current roster.
func (u *User) IsCommitteeEligible() bool {
	return u.UserType == UserTypeExecutive &&
		u.DesignationID != nil &&
		u.CommitteeStatus == CommitteeStatusActive
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
