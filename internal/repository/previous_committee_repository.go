package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/committee-api/internal/models"
)

const previousMemberColumns = `id, user_id, name, email, designation_title, designation_id_snapshot,
       photo, committee_number, member_order, tenure_start, tenure_end, created_at`

// PreviousCommitteeRepository reads the append-only archive ledger. Rows are
// written exclusively by the tenure transition and never modified here.
type PreviousCommitteeRepository struct {
	db *sqlx.DB
}

// NewPreviousCommitteeRepository constructs the repository.
func NewPreviousCommitteeRepository(db *sqlx.DB) *PreviousCommitteeRepository {
	return &PreviousCommitteeRepository{db: db}
}

// ListByNumber returns the archived roster for one committee in member order.
func (r *PreviousCommitteeRepository) ListByNumber(ctx context.Context, number string) ([]models.PreviousCommitteeMember, error) {
	query := `SELECT ` + previousMemberColumns + `
	FROM previous_committee_members WHERE committee_number = $1 ORDER BY member_order`
	var members []models.PreviousCommitteeMember
	if err := r.db.SelectContext(ctx, &members, query, number); err != nil {
		return nil, fmt.Errorf("list previous committee %s: %w", number, err)
	}
	return members, nil
}

// CountCommittees returns the number of distinct archived committees.
func (r *PreviousCommitteeRepository) CountCommittees(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(DISTINCT committee_number) FROM previous_committee_members`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count previous committees: %w", err)
	}
	return count, nil
}

// ListSummaries returns one row per archived committee with its member count,
// latest first.
func (r *PreviousCommitteeRepository) ListSummaries(ctx context.Context) ([]models.PreviousCommittee, error) {
	const query = `SELECT committee_number, COUNT(*) AS member_count
	FROM previous_committee_members
	GROUP BY committee_number
	ORDER BY committee_number DESC`
	rows := []struct {
		CommitteeNumber string `db:"committee_number"`
		MemberCount     int    `db:"member_count"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list previous committee summaries: %w", err)
	}
	summaries := make([]models.PreviousCommittee, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, models.PreviousCommittee{
			CommitteeNumber: row.CommitteeNumber,
			MemberCount:     row.MemberCount,
		})
	}
	return summaries, nil
}
