package models

import "time"

// PreviousCommitteeMember is an immutable archive row. Every field except
// UserID and DesignationIDSnapshot is a frozen copy taken at archival time;
// later edits to the live user or designation must never change it. UserID
// is nullable so the archive survives user deletion.
type PreviousCommitteeMember struct {
	ID                    string     `db:"id" json:"id"`
	UserID                *string    `db:"user_id" json:"user_id,omitempty"`
	Name                  string     `db:"name" json:"name"`
	Email                 string     `db:"email" json:"email"`
	DesignationTitle      string     `db:"designation_title" json:"designation_title"`
	DesignationIDSnapshot *string    `db:"designation_id_snapshot" json:"designation_id_snapshot,omitempty"`
	Photo                 *string    `db:"photo" json:"photo,omitempty"`
	CommitteeNumber       string     `db:"committee_number" json:"committee_number"`
	MemberOrder           int        `db:"member_order" json:"member_order"`
	TenureStart           time.Time  `db:"tenure_start" json:"tenure_start"`
	TenureEnd             *time.Time `db:"tenure_end" json:"tenure_end,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
}

// PreviousCommittee groups archived members under one committee number.
type PreviousCommittee struct {
	CommitteeNumber string                    `json:"committee_number"`
	MemberCount     int                       `json:"member_count"`
	Members         []PreviousCommitteeMember `json:"members"`
}
