package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/committee-api/internal/models"
)

// Sentinel errors surfaced by transactional committee operations. Services
// translate these into the API error taxonomy.
var (
	ErrAlreadyPublished   = errors.New("a current committee is already published")
	ErrNothingToArchive   = errors.New("no current assignments to archive")
	ErrDuplicateMember    = errors.New("user already holds a current assignment")
	ErrNoCurrentCommittee = errors.New("no committee is currently published")
	ErrRosterChanged      = errors.New("current committee changed since the order was computed")
)

const uniqueViolation = "23505"

const assignmentDetailColumns = `ca.id, ca.user_id, ca.designation_id, ca.committee_number,
       ca.tenure_start, ca.tenure_end, ca.status, ca.member_order, ca.created_at, ca.updated_at,
       u.name AS user_name, u.email AS user_email, u.photo AS user_photo,
       d.name AS designation_name, d.level AS designation_level`

// CommitteeRepository persists committee assignments and the committee state
// marker row. Every mutating method runs in its own transaction and takes a
// FOR UPDATE lock on the state row first, serialising publish, reorder,
// removal and tenure transitions against each other.
type CommitteeRepository struct {
	db *sqlx.DB
}

// NewCommitteeRepository constructs the repository.
func NewCommitteeRepository(db *sqlx.DB) *CommitteeRepository {
	return &CommitteeRepository{db: db}
}

// CurrentAssignments returns the published committee with live user and
// designation data, in member order.
func (r *CommitteeRepository) CurrentAssignments(ctx context.Context) ([]models.AssignmentDetail, error) {
	query := `SELECT ` + assignmentDetailColumns + `
	FROM committee_assignments ca
	JOIN users u ON u.id = ca.user_id
	JOIN designations d ON d.id = ca.designation_id
	WHERE ca.status = 'current'
	ORDER BY ca.member_order`
	var rows []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list current assignments: %w", err)
	}
	return rows, nil
}

// FindAssignmentByID loads a single assignment row.
func (r *CommitteeRepository) FindAssignmentByID(ctx context.Context, id string) (*models.CommitteeAssignment, error) {
	const query = `SELECT id, user_id, designation_id, committee_number, tenure_start, tenure_end,
       status, member_order, created_at, updated_at
	FROM committee_assignments WHERE id = $1`
	var assignment models.CommitteeAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// State returns the committee state marker row.
func (r *CommitteeRepository) State(ctx context.Context) (*models.CommitteeState, error) {
	const query = `SELECT id, current_number, updated_at FROM committee_state WHERE id = 1`
	var state models.CommitteeState
	if err := r.db.GetContext(ctx, &state, query); err != nil {
		return nil, fmt.Errorf("load committee state: %w", err)
	}
	return &state, nil
}

// NumberInUse reports whether a committee number already scopes any current
// assignment or archived member.
func (r *CommitteeRepository) NumberInUse(ctx context.Context, number string) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM committee_assignments WHERE committee_number = $1
		UNION
		SELECT 1 FROM previous_committee_members WHERE committee_number = $1
	)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, number); err != nil {
		return false, fmt.Errorf("check committee number: %w", err)
	}
	return exists, nil
}

// DeriveRoster computes the live current-committee roster: approved
// executives holding a designation with active committee status. Ordering is
// stable against a prior publish: members already carrying a current
// member_order keep that order; the rest follow by designation sort order,
// then name, then user id.
func (r *CommitteeRepository) DeriveRoster(ctx context.Context) ([]models.RosterEntry, error) {
	const query = `SELECT u.id AS user_id, u.name AS user_name, u.email AS user_email, u.photo AS user_photo,
       d.id AS designation_id, d.name AS designation_name, d.sort_order, ca.member_order
	FROM users u
	JOIN designations d ON d.id = u.designation_id
	LEFT JOIN committee_assignments ca ON ca.user_id = u.id AND ca.status = 'current'
	WHERE u.usertype = 'executive' AND u.designation_id IS NOT NULL AND u.committee_status = 'active'
	ORDER BY ca.member_order NULLS LAST, d.sort_order, u.name, u.id`
	var entries []models.RosterEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("derive roster: %w", err)
	}
	return entries, nil
}

// lockState takes the FOR UPDATE lock on the committee state marker row,
// blocking concurrent mutating operations until commit or rollback.
func lockState(ctx context.Context, tx *sqlx.Tx) (*models.CommitteeState, error) {
	const query = `SELECT id, current_number, updated_at FROM committee_state WHERE id = 1 FOR UPDATE`
	var state models.CommitteeState
	if err := tx.GetContext(ctx, &state, query); err != nil {
		return nil, fmt.Errorf("lock committee state: %w", err)
	}
	return &state, nil
}

func setStateNumber(ctx context.Context, tx *sqlx.Tx, number string, now time.Time) error {
	if _, err := tx.ExecContext(ctx, `UPDATE committee_state SET current_number = $1, updated_at = $2 WHERE id = 1`, number, now); err != nil {
		return fmt.Errorf("update committee state: %w", err)
	}
	return nil
}

// Publish materialises the supplied roster as current assignments for the
// given committee number. The whole operation is atomic: a concurrent
// publish, a non-empty current scope or a uniqueness violation rolls back
// every insert.
func (r *CommitteeRepository) Publish(ctx context.Context, number string, entries []models.RosterEntry, now time.Time) ([]models.CommitteeAssignment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin publish tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = lockState(ctx, tx); err != nil {
		return nil, err
	}

	var count int
	if err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM committee_assignments WHERE status = 'current'`); err != nil {
		err = fmt.Errorf("count current assignments: %w", err)
		return nil, err
	}
	if count > 0 {
		err = ErrAlreadyPublished
		return nil, err
	}

	const insert = `INSERT INTO committee_assignments
	(id, user_id, designation_id, committee_number, tenure_start, status, member_order, created_at, updated_at)
	VALUES (:id, :user_id, :designation_id, :committee_number, :tenure_start, :status, :member_order, :created_at, :updated_at)`

	assignments := make([]models.CommitteeAssignment, 0, len(entries))
	for i, entry := range entries {
		assignment := models.CommitteeAssignment{
			ID:              uuid.NewString(),
			UserID:          entry.UserID,
			DesignationID:   entry.DesignationID,
			CommitteeNumber: number,
			TenureStart:     now,
			Status:          models.AssignmentStatusCurrent,
			MemberOrder:     i + 1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if _, err = tx.NamedExecContext(ctx, insert, assignment); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
				err = ErrDuplicateMember
			} else {
				err = fmt.Errorf("insert assignment for user %s: %w", entry.UserID, err)
			}
			return nil, err
		}
		assignments = append(assignments, assignment)
	}

	if err = setStateNumber(ctx, tx, number, now); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit publish tx: %w", err)
	}
	return assignments, nil
}

// AddMember appends one assignment to the published committee at the next
// member order.
func (r *CommitteeRepository) AddMember(ctx context.Context, userID, designationID string, now time.Time) (*models.CommitteeAssignment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add member tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	state, err := lockState(ctx, tx)
	if err != nil {
		return nil, err
	}

	var maxOrder sql.NullInt64
	if err = tx.GetContext(ctx, &maxOrder, `SELECT MAX(member_order) FROM committee_assignments WHERE status = 'current'`); err != nil {
		err = fmt.Errorf("next member order: %w", err)
		return nil, err
	}
	if !maxOrder.Valid {
		err = ErrNoCurrentCommittee
		return nil, err
	}

	assignment := models.CommitteeAssignment{
		ID:              uuid.NewString(),
		UserID:          userID,
		DesignationID:   designationID,
		CommitteeNumber: state.CurrentNumber,
		TenureStart:     now,
		Status:          models.AssignmentStatusCurrent,
		MemberOrder:     int(maxOrder.Int64) + 1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	const insert = `INSERT INTO committee_assignments
	(id, user_id, designation_id, committee_number, tenure_start, status, member_order, created_at, updated_at)
	VALUES (:id, :user_id, :designation_id, :committee_number, :tenure_start, :status, :member_order, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insert, assignment); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			err = ErrDuplicateMember
		} else {
			err = fmt.Errorf("insert assignment: %w", err)
		}
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add member tx: %w", err)
	}
	return &assignment, nil
}

// Reorder applies a full member_order permutation to the current committee.
// The caller validates density against its own read; the repository re-checks
// the current-scope size under the state lock so a member added between that
// read and the lock fails the whole operation instead of being left behind
// with a stale order.
func (r *CommitteeRepository) Reorder(ctx context.Context, orders map[string]int, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = lockState(ctx, tx); err != nil {
		return err
	}

	var count int
	if err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM committee_assignments WHERE status = 'current'`); err != nil {
		err = fmt.Errorf("count current assignments: %w", err)
		return err
	}
	if count != len(orders) {
		err = ErrRosterChanged
		return err
	}

	// Two-phase renumbering: member_order carries a uniqueness constraint in
	// the current scope, so orders are first moved out of range.
	if _, err = tx.ExecContext(ctx, `UPDATE committee_assignments SET member_order = -member_order WHERE status = 'current'`); err != nil {
		err = fmt.Errorf("stage reorder: %w", err)
		return err
	}
	for id, order := range orders {
		var res sql.Result
		res, err = tx.ExecContext(ctx,
			`UPDATE committee_assignments SET member_order = $2, updated_at = $3 WHERE id = $1 AND status = 'current'`,
			id, order, now)
		if err != nil {
			err = fmt.Errorf("apply order for %s: %w", id, err)
			return err
		}
		var affected int64
		if affected, err = res.RowsAffected(); err != nil {
			err = fmt.Errorf("check reorder rows: %w", err)
			return err
		}
		if affected == 0 {
			err = sql.ErrNoRows
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder tx: %w", err)
	}
	return nil
}

// RemoveMember deletes one current assignment and renumbers the remainder so
// member_order stays a dense 1..N permutation.
func (r *CommitteeRepository) RemoveMember(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove member tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = lockState(ctx, tx); err != nil {
		return err
	}

	var removedOrder int
	if err = tx.GetContext(ctx, &removedOrder,
		`DELETE FROM committee_assignments WHERE id = $1 AND status = 'current' RETURNING member_order`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		err = fmt.Errorf("delete assignment: %w", err)
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE committee_assignments SET member_order = member_order - 1 WHERE status = 'current' AND member_order > $1`,
		removedOrder); err != nil {
		err = fmt.Errorf("close member order gap: %w", err)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit remove member tx: %w", err)
	}
	return nil
}

// EndTenure archives every current assignment into the previous-committee
// ledger, clears the current scope and records the next committee number.
// Snapshot fields are copied from live user and designation rows at archival
// time; the operation is all-or-nothing.
func (r *CommitteeRepository) EndTenure(ctx context.Context, newNumber string, now time.Time) (int, string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, "", fmt.Errorf("begin end tenure tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = lockState(ctx, tx); err != nil {
		return 0, "", err
	}

	query := `SELECT ` + assignmentDetailColumns + `
	FROM committee_assignments ca
	JOIN users u ON u.id = ca.user_id
	JOIN designations d ON d.id = ca.designation_id
	WHERE ca.status = 'current'
	ORDER BY ca.member_order`
	var current []models.AssignmentDetail
	if err = tx.SelectContext(ctx, &current, query); err != nil {
		err = fmt.Errorf("load current assignments: %w", err)
		return 0, "", err
	}
	if len(current) == 0 {
		err = ErrNothingToArchive
		return 0, "", err
	}

	const insert = `INSERT INTO previous_committee_members
	(id, user_id, name, email, designation_title, designation_id_snapshot, photo,
	 committee_number, member_order, tenure_start, tenure_end, created_at)
	VALUES (:id, :user_id, :name, :email, :designation_title, :designation_id_snapshot, :photo,
	 :committee_number, :member_order, :tenure_start, :tenure_end, :created_at)`

	end := now
	for _, detail := range current {
		userID := detail.UserID
		designationID := detail.DesignationID
		member := models.PreviousCommitteeMember{
			ID:                    uuid.NewString(),
			UserID:                &userID,
			Name:                  detail.UserName,
			Email:                 detail.UserEmail,
			DesignationTitle:      detail.DesignationName,
			DesignationIDSnapshot: &designationID,
			Photo:                 detail.UserPhoto,
			CommitteeNumber:       detail.CommitteeNumber,
			MemberOrder:           detail.MemberOrder,
			TenureStart:           detail.TenureStart,
			TenureEnd:             &end,
			CreatedAt:             now,
		}
		if _, err = tx.NamedExecContext(ctx, insert, member); err != nil {
			err = fmt.Errorf("archive member %s: %w", detail.UserID, err)
			return 0, "", err
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM committee_assignments WHERE status = 'current'`); err != nil {
		err = fmt.Errorf("clear current assignments: %w", err)
		return 0, "", err
	}

	if err = setStateNumber(ctx, tx, newNumber, now); err != nil {
		return 0, "", err
	}

	if err = tx.Commit(); err != nil {
		return 0, "", fmt.Errorf("commit end tenure tx: %w", err)
	}
	return len(current), current[0].CommitteeNumber, nil
}
