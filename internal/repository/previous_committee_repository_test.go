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

func newPreviousCommitteeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPreviousCommitteeRepositoryListByNumber(t *testing.T) {
	db, mock, cleanup := newPreviousCommitteeRepoMock(t)
	defer cleanup()

	repo := NewPreviousCommitteeRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "email", "designation_title", "designation_id_snapshot", "photo", "committee_number", "member_order", "tenure_start", "tenure_end", "created_at"}).
		AddRow("prev-1", "user-1", "Alice", "alice@example.org", "President", "desig-1", nil, "2024-2025", 1, now, now, now).
		AddRow("prev-2", nil, "Bob", "bob@example.org", "Secretary", nil, nil, "2024-2025", 2, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM previous_committee_members WHERE committee_number = $1")).
		WithArgs("2024-2025").
		WillReturnRows(rows)

	members, err := repo.ListByNumber(context.Background(), "2024-2025")
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, "President", members[0].DesignationTitle)
	require.Nil(t, members[1].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPreviousCommitteeRepositoryCountCommittees(t *testing.T) {
	db, mock, cleanup := newPreviousCommitteeRepoMock(t)
	defer cleanup()

	repo := NewPreviousCommitteeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT committee_number)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountCommittees(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
