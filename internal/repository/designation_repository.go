package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/committee-api/internal/models"
)

const designationColumns = `id, name, level, parent_id, sort_order, is_active, created_at, updated_at`

// DesignationRepository handles persistence for the designation hierarchy.
type DesignationRepository struct {
	db *sqlx.DB
}

// NewDesignationRepository constructs the repository.
func NewDesignationRepository(db *sqlx.DB) *DesignationRepository {
	return &DesignationRepository{db: db}
}

// List returns designations ordered by level then sort order, each with the
// reference counts the delete guard and listings need.
func (r *DesignationRepository) List(ctx context.Context) ([]models.DesignationWithUsage, error) {
	const query = `SELECT d.id, d.name, d.level, d.parent_id, d.sort_order, d.is_active, d.created_at, d.updated_at,
       (SELECT COUNT(*) FROM users u WHERE u.designation_id = d.id) AS user_count,
       (SELECT COUNT(*) FROM committee_assignments ca WHERE ca.designation_id = d.id) AS assignment_count,
       (SELECT COUNT(*) FROM designations c WHERE c.parent_id = d.id) AS child_count
	FROM designations d
	ORDER BY d.level, d.sort_order`
	var rows []models.DesignationWithUsage
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list designations: %w", err)
	}
	return rows, nil
}

// FindByID loads one designation.
func (r *DesignationRepository) FindByID(ctx context.Context, id string) (*models.Designation, error) {
	query := `SELECT ` + designationColumns + ` FROM designations WHERE id = $1`
	var designation models.Designation
	if err := r.db.GetContext(ctx, &designation, query, id); err != nil {
		return nil, err
	}
	return &designation, nil
}

// ExistsByName checks name uniqueness, optionally excluding one id.
func (r *DesignationRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM designations WHERE LOWER(name) = LOWER($1)`
	args := []interface{}{name}
	if excludeID != "" {
		query += ` AND id <> $2`
		args = append(args, excludeID)
	}
	query += `)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check designation name: %w", err)
	}
	return exists, nil
}

// AncestorIDs walks the parent chain from the given designation to the root
// and returns every ancestor id. Used by the cycle check on parent writes.
func (r *DesignationRepository) AncestorIDs(ctx context.Context, id string) ([]string, error) {
	const query = `WITH RECURSIVE ancestors AS (
		SELECT id, parent_id FROM designations WHERE id = $1
		UNION ALL
		SELECT d.id, d.parent_id FROM designations d
		JOIN ancestors a ON d.id = a.parent_id
	)
	SELECT id FROM ancestors WHERE id <> $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, id); err != nil {
		return nil, fmt.Errorf("walk designation ancestors: %w", err)
	}
	return ids, nil
}

// NextSortOrder returns max+1 within the given level.
func (r *DesignationRepository) NextSortOrder(ctx context.Context, level int) (int, error) {
	const query = `SELECT COALESCE(MAX(sort_order), 0) + 1 FROM designations WHERE level = $1`
	var next int
	if err := r.db.GetContext(ctx, &next, query, level); err != nil {
		return 0, fmt.Errorf("next sort order: %w", err)
	}
	return next, nil
}

// Create inserts a new designation.
func (r *DesignationRepository) Create(ctx context.Context, designation *models.Designation) error {
	if designation.ID == "" {
		designation.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if designation.CreatedAt.IsZero() {
		designation.CreatedAt = now
	}
	designation.UpdatedAt = now
	const query = `INSERT INTO designations (id, name, level, parent_id, sort_order, is_active, created_at, updated_at)
	VALUES (:id, :name, :level, :parent_id, :sort_order, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, designation); err != nil {
		return fmt.Errorf("create designation: %w", err)
	}
	return nil
}

// Update modifies an existing designation.
func (r *DesignationRepository) Update(ctx context.Context, designation *models.Designation) error {
	designation.UpdatedAt = time.Now().UTC()
	const query = `UPDATE designations SET name = :name, level = :level, parent_id = :parent_id,
	sort_order = :sort_order, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, designation); err != nil {
		return fmt.Errorf("update designation: %w", err)
	}
	return nil
}

// MinChildLevel returns the smallest level among direct children, or 0 when
// the designation has none.
func (r *DesignationRepository) MinChildLevel(ctx context.Context, id string) (int, error) {
	const query = `SELECT COALESCE(MIN(level), 0) FROM designations WHERE parent_id = $1`
	var level int
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		return 0, fmt.Errorf("min child level: %w", err)
	}
	return level, nil
}

// UsageCounts returns how many live users, assignments (current or archived
// snapshots) and child designations reference the designation.
func (r *DesignationRepository) UsageCounts(ctx context.Context, id string) (users, assignments, children int, err error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM users WHERE designation_id = $1) AS user_count,
	(SELECT COUNT(*) FROM committee_assignments WHERE designation_id = $1) AS assignment_count,
	(SELECT COUNT(*) FROM designations WHERE parent_id = $1) AS child_count`
	row := struct {
		UserCount       int `db:"user_count"`
		AssignmentCount int `db:"assignment_count"`
		ChildCount      int `db:"child_count"`
	}{}
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return 0, 0, 0, fmt.Errorf("designation usage counts: %w", err)
	}
	return row.UserCount, row.AssignmentCount, row.ChildCount, nil
}

// Delete removes a designation permanently. Callers must run the usage guard
// first; the restricted foreign keys are the last line of defence.
func (r *DesignationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM designations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete designation: %w", err)
	}
	return nil
}
