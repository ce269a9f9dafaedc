package models

import "time"

// Designation levels. Level 1 is the top of the hierarchy; a parent link is
// only legal towards a designation with a strictly smaller level value.
const (
	DesignationLevelMin = 1
	DesignationLevelMax = 3
)

// Designation is a named executive position in the hierarchy tree.
type Designation struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Level     int       `db:"level" json:"level"`
	ParentID  *string   `db:"parent_id" json:"parent_id,omitempty"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ValidLevel reports whether the level is inside the configured bounds.
func ValidLevel(level int) bool {
	return level >= DesignationLevelMin && level <= DesignationLevelMax
}

// DesignationWithUsage augments a designation with reference counts used by
// listings and delete guards.
type DesignationWithUsage struct {
	Designation
	UserCount       int `db:"user_count" json:"user_count"`
	AssignmentCount int `db:"assignment_count" json:"assignment_count"`
	ChildCount      int `db:"child_count" json:"child_count"`
}
