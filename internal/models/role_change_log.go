package models

import "time"

// RoleChangeAction classifies a role transition for the audit trail.
type RoleChangeAction string

const (
	RoleChangePromotion         RoleChangeAction = "promotion"
	RoleChangeDemotion          RoleChangeAction = "demotion"
	RoleChangeDesignationChange RoleChangeAction = "designation_change"
	RoleChangeManual            RoleChangeAction = "manual_change"
)

// Valid reports whether the action is a known variant.
func (a RoleChangeAction) Valid() bool {
	switch a {
	case RoleChangePromotion, RoleChangeDemotion, RoleChangeDesignationChange, RoleChangeManual:
		return true
	}
	return false
}

// DeriveRoleChangeAction classifies a transition from its before/after state.
// A pure usertype move up the ladder is a promotion, down is a demotion; a
// designation swap at unchanged usertype is a designation change; anything
// else falls back to manual.
func DeriveRoleChangeAction(oldType, newType UserType, oldDesignation, newDesignation *string) RoleChangeAction {
	if oldType != newType {
		if newType.rank() > oldType.rank() {
			return RoleChangePromotion
		}
		if newType.rank() < oldType.rank() {
			return RoleChangeDemotion
		}
		return RoleChangeManual
	}
	if !equalRef(oldDesignation, newDesignation) {
		return RoleChangeDesignationChange
	}
	return RoleChangeManual
}

func equalRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// RoleChangeLog is one append-only audit row. Rows are never updated or
// deleted.
type RoleChangeLog struct {
	ID               string           `db:"id" json:"id"`
	UserID           string           `db:"user_id" json:"user_id"`
	AdminID          string           `db:"admin_id" json:"admin_id"`
	OldUserType      UserType         `db:"old_usertype" json:"old_usertype"`
	NewUserType      UserType         `db:"new_usertype" json:"new_usertype"`
	OldDesignationID *string          `db:"old_designation_id" json:"old_designation_id,omitempty"`
	NewDesignationID *string          `db:"new_designation_id" json:"new_designation_id,omitempty"`
	Reason           string           `db:"reason" json:"reason"`
	ActionType       RoleChangeAction `db:"action_type" json:"action_type"`
	Metadata         []byte           `db:"metadata" json:"metadata,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}

// RoleChangeStats aggregates audit-trail activity.
type RoleChangeStats struct {
	TotalChanges     int    `db:"total_changes" json:"total_changes"`
	ChangesThisMonth int    `db:"changes_this_month" json:"changes_this_month"`
	MostActiveAdmin  string `db:"most_active_admin" json:"most_active_admin,omitempty"`
}
