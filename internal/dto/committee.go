package dto

// PublishCommitteeRequest starts a new published tenure. CommitteeNumber is
// optional; when omitted the academic-year default is derived.
type PublishCommitteeRequest struct {
	CommitteeNumber string `json:"committee_number"`
}

// ReorderEntry pairs an assignment with its target member order.
type ReorderEntry struct {
	ID    string `json:"id" validate:"required"`
	Order int    `json:"order" validate:"required,min=1"`
}

// ReorderRequest renumbers the whole current committee at once.
type ReorderRequest struct {
	Assignments []ReorderEntry `json:"assignments" validate:"required,min=1,dive"`
}

// UpdateMemberOrderRequest moves a single member to a new position.
type UpdateMemberOrderRequest struct {
	Order int `json:"order" validate:"required,min=1"`
}

// AddMemberRequest appends a member to the published committee.
type AddMemberRequest struct {
	UserID        string `json:"user_id" validate:"required"`
	DesignationID string `json:"designation_id" validate:"required"`
}

// EndTenureRequest closes the current committee. Confirmation must echo the
// configured sentinel exactly.
type EndTenureRequest struct {
	Confirmation       string `json:"confirmation" validate:"required"`
	NewCommitteeNumber string `json:"new_committee_number" validate:"required"`
}

// EndTenureResponse reports the archival outcome.
type EndTenureResponse struct {
	ArchivedCount      int    `json:"archived_count"`
	CommitteeNumber    string `json:"committee_number"`
	NewCommitteeNumber string `json:"new_committee_number"`
}
