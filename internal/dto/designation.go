package dto

// CreateDesignationRequest adds a position to the hierarchy.
type CreateDesignationRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Level    int     `json:"level" validate:"required,min=1,max=3"`
	ParentID *string `json:"parent_id"`
	IsActive *bool   `json:"is_active"`
}

// UpdateDesignationRequest edits an existing position.
type UpdateDesignationRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Level    int     `json:"level" validate:"required,min=1,max=3"`
	ParentID *string `json:"parent_id"`
	IsActive *bool   `json:"is_active"`
}
