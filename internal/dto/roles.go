package dto

// ApproveExecutiveRequest approves a pending executive application.
// DesignationID overrides the designation recorded on the application.
type ApproveExecutiveRequest struct {
	DesignationID string `json:"designation_id"`
	Comment       string `json:"comment"`
}

// RejectApplicationRequest declines a pending application.
type RejectApplicationRequest struct {
	Comment string `json:"comment"`
}

// ApproveVolunteerRequest approves a pending volunteer application.
type ApproveVolunteerRequest struct {
	Comment string `json:"comment"`
}

// UpdateUserRoleRequest performs a manual designation change on an
// executive, with a mandatory reason for the audit trail.
type UpdateUserRoleRequest struct {
	DesignationID string `json:"designation_id" validate:"required"`
	Reason        string `json:"reason" validate:"required,max=500"`
}
