package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newRoleChangeLogRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func roleChangeLogRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "admin_id", "old_usertype", "new_usertype", "old_designation_id", "new_designation_id", "reason", "action_type", "metadata", "created_at"}).
		AddRow("log-1", "user-1", "admin-1", "volunteer", "executive", nil, "desig-1", "approved", "promotion", nil, time.Now())
}

func TestRoleChangeLogRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newRoleChangeLogRepoMock(t)
	defer cleanup()

	repo := NewRoleChangeLogRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM role_change_logs WHERE 1=1 AND user_id = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("user-1").
		WillReturnRows(roleChangeLogRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM role_change_logs WHERE 1=1 AND user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	logs, total, err := repo.List(context.Background(), RoleChangeLogFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, logs, 1)
	require.Equal(t, "log-1", logs[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleChangeLogRepositoryListClampsPageSize(t *testing.T) {
	db, mock, cleanup := newRoleChangeLogRepoMock(t)
	defer cleanup()

	repo := NewRoleChangeLogRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 20 OFFSET 20")).
		WillReturnRows(roleChangeLogRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	_, total, err := repo.List(context.Background(), RoleChangeLogFilter{Page: 2, PageSize: 500})
	require.NoError(t, err)
	require.Equal(t, 21, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleChangeLogRepositoryStats(t *testing.T) {
	db, mock, cleanup := newRoleChangeLogRepoMock(t)
	defer cleanup()

	repo := NewRoleChangeLogRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER")).
		WillReturnRows(sqlmock.NewRows([]string{"total_changes", "changes_this_month", "most_active_admin"}).AddRow(42, 5, "admin-1"))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, stats.TotalChanges)
	require.Equal(t, 5, stats.ChangesThisMonth)
	require.Equal(t, "admin-1", stats.MostActiveAdmin)
	require.NoError(t, mock.ExpectationsWereMet())
}
