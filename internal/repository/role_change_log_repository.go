package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/committee-api/internal/models"
)

const roleChangeLogColumns = `id, user_id, admin_id, old_usertype, new_usertype,
       old_designation_id, new_designation_id, reason, action_type, metadata, created_at`

// RoleChangeLogFilter narrows audit-trail listings.
type RoleChangeLogFilter struct {
	UserID     string
	AdminID    string
	ActionType string
	Page       int
	PageSize   int
}

// RoleChangeLogRepository reads the append-only role audit trail. Writes
// happen only inside the transactions that mutate users.
type RoleChangeLogRepository struct {
	db *sqlx.DB
}

// NewRoleChangeLogRepository constructs the repository.
func NewRoleChangeLogRepository(db *sqlx.DB) *RoleChangeLogRepository {
	return &RoleChangeLogRepository{db: db}
}

// List returns audit rows matching the filter, newest first, plus the total
// matching count.
func (r *RoleChangeLogRepository) List(ctx context.Context, filter RoleChangeLogFilter) ([]models.RoleChangeLog, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	idx := 1

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", idx))
		args = append(args, filter.UserID)
		idx++
	}
	if filter.AdminID != "" {
		conditions = append(conditions, fmt.Sprintf("admin_id = $%d", idx))
		args = append(args, filter.AdminID)
		idx++
	}
	if filter.ActionType != "" {
		conditions = append(conditions, fmt.Sprintf("action_type = $%d", idx))
		args = append(args, filter.ActionType)
		idx++
	}

	whereClause := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM role_change_logs WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		roleChangeLogColumns, whereClause, size, offset)

	var logs []models.RoleChangeLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list role change logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM role_change_logs WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count role change logs: %w", err)
	}

	return logs, total, nil
}

// Stats aggregates audit activity for the admin dashboard.
func (r *RoleChangeLogRepository) Stats(ctx context.Context) (*models.RoleChangeStats, error) {
	const query = `SELECT
        COUNT(*) AS total_changes,
        COUNT(*) FILTER (WHERE created_at >= date_trunc('month', now())) AS changes_this_month,
        COALESCE((SELECT admin_id FROM role_change_logs GROUP BY admin_id ORDER BY COUNT(*) DESC, admin_id LIMIT 1), '') AS most_active_admin
        FROM role_change_logs`
	var stats models.RoleChangeStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("aggregate role change stats: %w", err)
	}
	return &stats, nil
}
