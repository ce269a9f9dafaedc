package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/committee-api/internal/models"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRow(id string, usertype models.UserType, designationID interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "photo", "usertype", "designation_id", "committee_status", "created_at", "updated_at"}).
		AddRow(id, "Alice", "alice@example.org", nil, usertype, designationID, "active", time.Now(), time.Now())
}

func TestUserRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 LIMIT 1")).
		WithArgs("user-1").
		WillReturnRows(userRow("user-1", models.UserTypeExecutive, "desig-1"))

	user, err := repo.FindByID(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
	require.True(t, user.IsCommitteeEligible())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryChangeDesignationWritesAudit(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs("user-1").
		WillReturnRows(userRow("user-1", models.UserTypeExecutive, "desig-1"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET designation_id = $2")).
		WithArgs("user-1", "desig-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO role_change_logs")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, logRow, err := repo.ChangeDesignation(context.Background(), "user-1", "desig-2", "admin-1", "restructure")
	require.NoError(t, err)
	require.Equal(t, "desig-2", *user.DesignationID)
	require.Equal(t, models.RoleChangeDesignationChange, logRow.ActionType)
	require.Equal(t, "desig-1", *logRow.OldDesignationID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryChangeDesignationNoOp(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("user-1").
		WillReturnRows(userRow("user-1", models.UserTypeExecutive, "desig-1"))
	mock.ExpectRollback()

	_, _, err := repo.ChangeDesignation(context.Background(), "user-1", "desig-1", "admin-1", "same seat")
	require.ErrorIs(t, err, ErrNoChange)
	require.NoError(t, mock.ExpectationsWereMet())
}
