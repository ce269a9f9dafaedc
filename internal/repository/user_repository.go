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

// ErrNoChange signals a role mutation that would not alter the user.
var ErrNoChange = errors.New("user already holds this designation")

const userColumns = `id, name, email, photo, usertype, designation_id, committee_status, created_at, updated_at`

// UserRepository provides database access for the member records this engine
// is allowed to touch.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ChangeDesignation performs a manual designation change on an executive and
// appends the audit row, in one transaction. The prior values captured in
// the log are read under lock, never from the caller's stale view.
func (r *UserRepository) ChangeDesignation(ctx context.Context, userID, designationID, adminID, reason string) (*models.User, *models.RoleChangeLog, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin change designation tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var user models.User
	if err = tx.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		err = fmt.Errorf("lock user: %w", err)
		return nil, nil, err
	}

	if user.DesignationID != nil && *user.DesignationID == designationID {
		err = ErrNoChange
		return nil, nil, err
	}

	now := time.Now().UTC()
	newDesignation := designationID
	logRow := models.RoleChangeLog{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		AdminID:          adminID,
		OldUserType:      user.UserType,
		NewUserType:      user.UserType,
		OldDesignationID: user.DesignationID,
		NewDesignationID: &newDesignation,
		Reason:           reason,
		ActionType:       models.DeriveRoleChangeAction(user.UserType, user.UserType, user.DesignationID, &newDesignation),
		CreatedAt:        now,
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET designation_id = $2, updated_at = $3 WHERE id = $1`,
		userID, designationID, now); err != nil {
		err = fmt.Errorf("update user designation: %w", err)
		return nil, nil, err
	}

	if err = insertRoleChangeLog(ctx, tx, &logRow); err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit change designation tx: %w", err)
	}

	user.DesignationID = &newDesignation
	user.UpdatedAt = now
	return &user, &logRow, nil
}

func insertRoleChangeLog(ctx context.Context, tx *sqlx.Tx, logRow *models.RoleChangeLog) error {
	const query = `INSERT INTO role_change_logs
	(id, user_id, admin_id, old_usertype, new_usertype, old_designation_id, new_designation_id,
	 reason, action_type, metadata, created_at)
	VALUES (:id, :user_id, :admin_id, :old_usertype, :new_usertype, :old_designation_id, :new_designation_id,
	 :reason, :action_type, :metadata, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, logRow); err != nil {
		return fmt.Errorf("insert role change log: %w", err)
	}
	return nil
}
