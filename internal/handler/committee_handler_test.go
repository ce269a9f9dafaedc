package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/committee-api/internal/models"
	"github.com/noah-isme/committee-api/internal/service"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeCommitteeRepo struct {
	current []models.AssignmentDetail
	state   models.CommitteeState
	roster  []models.RosterEntry
	used    map[string]bool
}

func (f *fakeCommitteeRepo) CurrentAssignments(ctx context.Context) ([]models.AssignmentDetail, error) {
	return f.current, nil
}

func (f *fakeCommitteeRepo) FindAssignmentByID(ctx context.Context, id string) (*models.CommitteeAssignment, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeCommitteeRepo) State(ctx context.Context) (*models.CommitteeState, error) {
	state := f.state
	return &state, nil
}

func (f *fakeCommitteeRepo) NumberInUse(ctx context.Context, number string) (bool, error) {
	return f.used[number], nil
}

func (f *fakeCommitteeRepo) DeriveRoster(ctx context.Context) ([]models.RosterEntry, error) {
	return f.roster, nil
}

func (f *fakeCommitteeRepo) Publish(ctx context.Context, number string, entries []models.RosterEntry, now time.Time) ([]models.CommitteeAssignment, error) {
	assignments := make([]models.CommitteeAssignment, 0, len(entries))
	for i, entry := range entries {
		assignments = append(assignments, models.CommitteeAssignment{
			ID:              "assign-" + entry.UserID,
			UserID:          entry.UserID,
			CommitteeNumber: number,
			MemberOrder:     i + 1,
		})
	}
	return assignments, nil
}

func (f *fakeCommitteeRepo) AddMember(ctx context.Context, userID, designationID string, now time.Time) (*models.CommitteeAssignment, error) {
	return &models.CommitteeAssignment{ID: "assign-new", UserID: userID}, nil
}

func (f *fakeCommitteeRepo) Reorder(ctx context.Context, orders map[string]int, now time.Time) error {
	return nil
}

func (f *fakeCommitteeRepo) RemoveMember(ctx context.Context, id string) error {
	return nil
}

func (f *fakeCommitteeRepo) EndTenure(ctx context.Context, newNumber string, now time.Time) (int, string, error) {
	return len(f.current), f.state.CurrentNumber, nil
}

type fakePreviousRepo struct {
	members map[string][]models.PreviousCommitteeMember
}

func (f *fakePreviousRepo) ListSummaries(ctx context.Context) ([]models.PreviousCommittee, error) {
	var out []models.PreviousCommittee
	for number, members := range f.members {
		out = append(out, models.PreviousCommittee{CommitteeNumber: number, MemberCount: len(members)})
	}
	return out, nil
}

func (f *fakePreviousRepo) ListByNumber(ctx context.Context, number string) ([]models.PreviousCommitteeMember, error) {
	return f.members[number], nil
}

func (f *fakePreviousRepo) CountCommittees(ctx context.Context) (int, error) {
	return len(f.members), nil
}

type fakeUserRepo struct{}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func newTestCommitteeHandler(repo *fakeCommitteeRepo, previous *fakePreviousRepo) *CommitteeHandler {
	if previous == nil {
		previous = &fakePreviousRepo{}
	}
	svc := service.NewCommitteeService(repo, previous, &fakeUserRepo{}, nil, nil, nil, nil, service.CommitteeConfig{ConfirmationToken: "CONFIRM"})
	return NewCommitteeHandler(svc)
}

func TestCommitteeHandlerPublishRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestCommitteeHandler(&fakeCommitteeRepo{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/committee/publish", strings.NewReader("{not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Publish(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommitteeHandlerPublishCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestCommitteeHandler(&fakeCommitteeRepo{
		roster: []models.RosterEntry{{UserID: "user-1", DesignationID: "desig-1"}},
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/committee/publish", strings.NewReader(`{"committee_number":"2025-2026"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Publish(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCommitteeHandlerPublishEmptyRoster(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestCommitteeHandler(&fakeCommitteeRepo{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/committee/publish", strings.NewReader(`{"committee_number":"2025-2026"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Publish(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCommitteeHandlerEndTenureWrongConfirmation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestCommitteeHandler(&fakeCommitteeRepo{
		current: []models.AssignmentDetail{{CommitteeAssignment: models.CommitteeAssignment{ID: "a"}}},
		state:   models.CommitteeState{ID: 1, CurrentNumber: "2025-2026"},
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/committee/end-tenure",
		strings.NewReader(`{"confirmation":"YES","new_committee_number":"2026-2027"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.EndTenure(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCommitteeHandlerEndTenureSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestCommitteeHandler(&fakeCommitteeRepo{
		current: []models.AssignmentDetail{{CommitteeAssignment: models.CommitteeAssignment{ID: "a"}}},
		state:   models.CommitteeState{ID: 1, CurrentNumber: "2025-2026"},
	}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/committee/end-tenure",
		strings.NewReader(`{"confirmation":"CONFIRM","new_committee_number":"2026-2027"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.EndTenure(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "2025-2026", envelope.Data["committee_number"])
	assert.Equal(t, "2026-2027", envelope.Data["new_committee_number"])
}

func TestCommitteeHandlerGetPreviousNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestCommitteeHandler(&fakeCommitteeRepo{}, &fakePreviousRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/committee/previous/1999-2000", nil)
	c.Params = gin.Params{{Key: "number", Value: "1999-2000"}}

	handler.GetPrevious(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommitteeHandlerGetPreviousMetaReportsCacheMiss(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestCommitteeHandler(&fakeCommitteeRepo{}, &fakePreviousRepo{
		members: map[string][]models.PreviousCommitteeMember{
			"2024-2025": {{ID: "prev-1", Name: "Alice", CommitteeNumber: "2024-2025", MemberOrder: 1}},
		},
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/committee/previous/2024-2025", nil)
	c.Params = gin.Params{{Key: "number", Value: "2024-2025"}}

	handler.GetPrevious(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, false, envelope.Meta["cache_hit"])
	assert.Equal(t, "2024-2025", envelope.Data["committee_number"])
}
