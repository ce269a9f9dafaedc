package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/committee-api/internal/models"
)

// ErrAlreadyProcessed signals a second decision on a non-pending application.
var ErrAlreadyProcessed = errors.New("application already processed")

const executiveApplicationColumns = `id, user_id, designation_id, statement, status, admin_comment,
       processed_by, processed_at, created_at, updated_at`

const volunteerApplicationColumns = `id, user_id, motivation, status, admin_notes,
       processed_by, processed_at, created_at, updated_at`

// ApplicationRepository persists executive and volunteer role applications
// and performs the approval transactions that promote users.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// FindExecutiveByID loads one executive application.
func (r *ApplicationRepository) FindExecutiveByID(ctx context.Context, id string) (*models.ExecutiveApplication, error) {
	query := `SELECT ` + executiveApplicationColumns + ` FROM executive_applications WHERE id = $1`
	var application models.ExecutiveApplication
	if err := r.db.GetContext(ctx, &application, query, id); err != nil {
		return nil, err
	}
	return &application, nil
}

// FindVolunteerByID loads one volunteer application.
func (r *ApplicationRepository) FindVolunteerByID(ctx context.Context, id string) (*models.VolunteerApplication, error) {
	query := `SELECT ` + volunteerApplicationColumns + ` FROM volunteer_applications WHERE id = $1`
	var application models.VolunteerApplication
	if err := r.db.GetContext(ctx, &application, query, id); err != nil {
		return nil, err
	}
	return &application, nil
}

// ListExecutiveByStatus returns executive applications filtered by status,
// oldest first.
func (r *ApplicationRepository) ListExecutiveByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.ExecutiveApplication, error) {
	query := `SELECT ` + executiveApplicationColumns + ` FROM executive_applications WHERE status = $1 ORDER BY created_at`
	var applications []models.ExecutiveApplication
	if err := r.db.SelectContext(ctx, &applications, query, status); err != nil {
		return nil, fmt.Errorf("list executive applications: %w", err)
	}
	return applications, nil
}

// markExecutiveProcessed flips a pending application to the decided status.
// The status guard in the WHERE clause is the idempotency barrier: a second
// decision affects zero rows.
func markExecutiveProcessed(ctx context.Context, tx *sqlx.Tx, id string, status models.ApplicationStatus, adminID, comment string, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE executive_applications SET status = $2, admin_comment = $3, processed_by = $4, processed_at = $5, updated_at = $5
		 WHERE id = $1 AND status = 'pending'`,
		id, status, comment, adminID, now)
	if err != nil {
		return fmt.Errorf("mark executive application processed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check application update rows: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}

// ApproveExecutive approves a pending executive application and promotes the
// applicant, all in one transaction: flip the application, set the user to
// executive with the chosen designation and active committee status, and
// append exactly one audit row capturing the prior state.
func (r *ApplicationRepository) ApproveExecutive(ctx context.Context, applicationID, adminID, designationID, comment string) (*models.User, *models.RoleChangeLog, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin approve executive tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var application models.ExecutiveApplication
	if err = tx.GetContext(ctx, &application,
		`SELECT `+executiveApplicationColumns+` FROM executive_applications WHERE id = $1 FOR UPDATE`,
		applicationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		err = fmt.Errorf("lock executive application: %w", err)
		return nil, nil, err
	}
	if application.Status != models.ApplicationStatusPending {
		err = ErrAlreadyProcessed
		return nil, nil, err
	}

	// Designation override from the admin wins; otherwise the one recorded
	// on the application is used.
	if designationID == "" {
		if application.DesignationID == nil {
			err = fmt.Errorf("application %s carries no designation", applicationID)
			return nil, nil, err
		}
		designationID = *application.DesignationID
	}

	now := time.Now().UTC()
	if err = markExecutiveProcessed(ctx, tx, applicationID, models.ApplicationStatusApproved, adminID, comment, now); err != nil {
		return nil, nil, err
	}

	var user models.User
	if err = tx.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, application.UserID); err != nil {
		err = fmt.Errorf("lock applicant: %w", err)
		return nil, nil, err
	}

	newDesignation := designationID
	logRow := models.RoleChangeLog{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		AdminID:          adminID,
		OldUserType:      user.UserType,
		NewUserType:      models.UserTypeExecutive,
		OldDesignationID: user.DesignationID,
		NewDesignationID: &newDesignation,
		Reason:           "executive application approved: " + comment,
		ActionType:       models.DeriveRoleChangeAction(user.UserType, models.UserTypeExecutive, user.DesignationID, &newDesignation),
		CreatedAt:        now,
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET usertype = $2, designation_id = $3, committee_status = $4, updated_at = $5 WHERE id = $1`,
		user.ID, models.UserTypeExecutive, designationID, models.CommitteeStatusActive, now); err != nil {
		err = fmt.Errorf("promote applicant: %w", err)
		return nil, nil, err
	}

	if err = insertRoleChangeLog(ctx, tx, &logRow); err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit approve executive tx: %w", err)
	}

	user.UserType = models.UserTypeExecutive
	user.DesignationID = &newDesignation
	user.CommitteeStatus = models.CommitteeStatusActive
	user.UpdatedAt = now
	return &user, &logRow, nil
}

// RejectExecutive declines a pending executive application. The applicant's
// role is untouched, so no audit row is written.
func (r *ApplicationRepository) RejectExecutive(ctx context.Context, applicationID, adminID, comment string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reject executive tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = markExecutiveProcessed(ctx, tx, applicationID, models.ApplicationStatusRejected, adminID, comment, time.Now().UTC()); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reject executive tx: %w", err)
	}
	return nil
}

// ApproveVolunteer approves a pending volunteer application and promotes the
// member to volunteer, mirroring ApproveExecutive minus designation handling.
func (r *ApplicationRepository) ApproveVolunteer(ctx context.Context, applicationID, adminID, notes string) (*models.User, *models.RoleChangeLog, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin approve volunteer tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var application models.VolunteerApplication
	if err = tx.GetContext(ctx, &application,
		`SELECT `+volunteerApplicationColumns+` FROM volunteer_applications WHERE id = $1 FOR UPDATE`,
		applicationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		err = fmt.Errorf("lock volunteer application: %w", err)
		return nil, nil, err
	}
	if application.Status != models.ApplicationStatusPending {
		err = ErrAlreadyProcessed
		return nil, nil, err
	}

	now := time.Now().UTC()
	res, execErr := tx.ExecContext(ctx,
		`UPDATE volunteer_applications SET status = $2, admin_notes = $3, processed_by = $4, processed_at = $5, updated_at = $5
		 WHERE id = $1 AND status = 'pending'`,
		applicationID, models.ApplicationStatusApproved, notes, adminID, now)
	if execErr != nil {
		err = fmt.Errorf("mark volunteer application processed: %w", execErr)
		return nil, nil, err
	}
	affected, raErr := res.RowsAffected()
	if raErr != nil {
		err = fmt.Errorf("check application update rows: %w", raErr)
		return nil, nil, err
	}
	if affected == 0 {
		err = ErrAlreadyProcessed
		return nil, nil, err
	}

	var user models.User
	if err = tx.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, application.UserID); err != nil {
		err = fmt.Errorf("lock applicant: %w", err)
		return nil, nil, err
	}

	logRow := models.RoleChangeLog{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		AdminID:          adminID,
		OldUserType:      user.UserType,
		NewUserType:      models.UserTypeVolunteer,
		OldDesignationID: user.DesignationID,
		NewDesignationID: user.DesignationID,
		Reason:           "volunteer application approved: " + notes,
		ActionType:       models.DeriveRoleChangeAction(user.UserType, models.UserTypeVolunteer, user.DesignationID, user.DesignationID),
		CreatedAt:        now,
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET usertype = $2, updated_at = $3 WHERE id = $1`,
		user.ID, models.UserTypeVolunteer, now); err != nil {
		err = fmt.Errorf("promote applicant: %w", err)
		return nil, nil, err
	}

	if err = insertRoleChangeLog(ctx, tx, &logRow); err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit approve volunteer tx: %w", err)
	}

	user.UserType = models.UserTypeVolunteer
	user.UpdatedAt = now
	return &user, &logRow, nil
}

// RejectVolunteer declines a pending volunteer application.
func (r *ApplicationRepository) RejectVolunteer(ctx context.Context, applicationID, adminID, notes string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE volunteer_applications SET status = $2, admin_notes = $3, processed_by = $4, processed_at = $5, updated_at = $5
		 WHERE id = $1 AND status = 'pending'`,
		applicationID, models.ApplicationStatusRejected, notes, adminID, now)
	if err != nil {
		return fmt.Errorf("reject volunteer application: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check application update rows: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}
