package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/committee-api/internal/dto"
	"github.com/noah-isme/committee-api/internal/models"
	"github.com/noah-isme/committee-api/internal/repository"
	appErrors "github.com/noah-isme/committee-api/pkg/errors"
)

type mockApplicationRepo struct {
	executive map[string]models.ExecutiveApplication
	volunteer map[string]models.VolunteerApplication
	approved  []string
	rejected  []string
}

func (m *mockApplicationRepo) FindExecutiveByID(ctx context.Context, id string) (*models.ExecutiveApplication, error) {
	if app, ok := m.executive[id]; ok {
		return &app, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) FindVolunteerByID(ctx context.Context, id string) (*models.VolunteerApplication, error) {
	if app, ok := m.volunteer[id]; ok {
		return &app, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) ListExecutiveByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.ExecutiveApplication, error) {
	var out []models.ExecutiveApplication
	for _, app := range m.executive {
		if app.Status == status {
			out = append(out, app)
		}
	}
	return out, nil
}

func (m *mockApplicationRepo) ApproveExecutive(ctx context.Context, applicationID, adminID, designationID, comment string) (*models.User, *models.RoleChangeLog, error) {
	app, ok := m.executive[applicationID]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, nil, repository.ErrAlreadyProcessed
	}
	if designationID == "" && app.DesignationID != nil {
		designationID = *app.DesignationID
	}
	app.Status = models.ApplicationStatusApproved
	m.executive[applicationID] = app
	m.approved = append(m.approved, applicationID)
	user := &models.User{ID: app.UserID, UserType: models.UserTypeExecutive, DesignationID: &designationID, CommitteeStatus: models.CommitteeStatusActive}
	logRow := &models.RoleChangeLog{UserID: app.UserID, AdminID: adminID, ActionType: models.RoleChangePromotion}
	return user, logRow, nil
}

func (m *mockApplicationRepo) RejectExecutive(ctx context.Context, applicationID, adminID, comment string) error {
	app, ok := m.executive[applicationID]
	if !ok {
		return sql.ErrNoRows
	}
	if app.Status != models.ApplicationStatusPending {
		return repository.ErrAlreadyProcessed
	}
	app.Status = models.ApplicationStatusRejected
	m.executive[applicationID] = app
	m.rejected = append(m.rejected, applicationID)
	return nil
}

func (m *mockApplicationRepo) ApproveVolunteer(ctx context.Context, applicationID, adminID, notes string) (*models.User, *models.RoleChangeLog, error) {
	app, ok := m.volunteer[applicationID]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	if app.Status != models.ApplicationStatusPending {
		return nil, nil, repository.ErrAlreadyProcessed
	}
	app.Status = models.ApplicationStatusApproved
	m.volunteer[applicationID] = app
	user := &models.User{ID: app.UserID, UserType: models.UserTypeVolunteer}
	logRow := &models.RoleChangeLog{UserID: app.UserID, AdminID: adminID, ActionType: models.RoleChangePromotion}
	return user, logRow, nil
}

func (m *mockApplicationRepo) RejectVolunteer(ctx context.Context, applicationID, adminID, notes string) error {
	app, ok := m.volunteer[applicationID]
	if !ok {
		return sql.ErrNoRows
	}
	if app.Status != models.ApplicationStatusPending {
		return repository.ErrAlreadyProcessed
	}
	app.Status = models.ApplicationStatusRejected
	m.volunteer[applicationID] = app
	return nil
}

type mockRoleUserRepo struct {
	users     map[string]models.User
	changeErr error
}

func (m *mockRoleUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoleUserRepo) ChangeDesignation(ctx context.Context, userID, designationID, adminID, reason string) (*models.User, *models.RoleChangeLog, error) {
	if m.changeErr != nil {
		return nil, nil, m.changeErr
	}
	user, ok := m.users[userID]
	if !ok {
		return nil, nil, sql.ErrNoRows
	}
	if user.DesignationID != nil && *user.DesignationID == designationID {
		return nil, nil, repository.ErrNoChange
	}
	user.DesignationID = &designationID
	m.users[userID] = user
	logRow := &models.RoleChangeLog{UserID: userID, AdminID: adminID, Reason: reason, ActionType: models.RoleChangeDesignationChange}
	return &user, logRow, nil
}

type mockRoleDesignationRepo struct {
	designations map[string]models.Designation
}

func (m *mockRoleDesignationRepo) FindByID(ctx context.Context, id string) (*models.Designation, error) {
	if designation, ok := m.designations[id]; ok {
		return &designation, nil
	}
	return nil, sql.ErrNoRows
}

type mockRoleChangeLogRepo struct {
	logs  []models.RoleChangeLog
	stats models.RoleChangeStats
}

func (m *mockRoleChangeLogRepo) List(ctx context.Context, filter repository.RoleChangeLogFilter) ([]models.RoleChangeLog, int, error) {
	var out []models.RoleChangeLog
	for _, logRow := range m.logs {
		if filter.UserID != "" && logRow.UserID != filter.UserID {
			continue
		}
		out = append(out, logRow)
	}
	return out, len(out), nil
}

func (m *mockRoleChangeLogRepo) Stats(ctx context.Context) (*models.RoleChangeStats, error) {
	stats := m.stats
	return &stats, nil
}

func newRoleService(apps *mockApplicationRepo, users *mockRoleUserRepo, designations *mockRoleDesignationRepo, logs *mockRoleChangeLogRepo) *RoleService {
	if apps == nil {
		apps = &mockApplicationRepo{executive: map[string]models.ExecutiveApplication{}, volunteer: map[string]models.VolunteerApplication{}}
	}
	if users == nil {
		users = &mockRoleUserRepo{users: map[string]models.User{}}
	}
	if designations == nil {
		designations = &mockRoleDesignationRepo{designations: map[string]models.Designation{}}
	}
	if logs == nil {
		logs = &mockRoleChangeLogRepo{}
	}
	return NewRoleService(apps, users, designations, logs, nil, nil)
}

func pendingExecutiveApp(id, userID string, designationID *string) models.ExecutiveApplication {
	return models.ExecutiveApplication{ID: id, UserID: userID, DesignationID: designationID, Status: models.ApplicationStatusPending}
}

var testAdmin = models.AdminClaims{AdminID: "admin-1", Email: "admin@example.org"}

func TestApproveExecutivePromotesApplicant(t *testing.T) {
	designation := "desig-1"
	apps := &mockApplicationRepo{executive: map[string]models.ExecutiveApplication{
		"app-1": pendingExecutiveApp("app-1", "user-1", &designation),
	}}
	designations := &mockRoleDesignationRepo{designations: map[string]models.Designation{
		"desig-1": {ID: "desig-1", Name: "Secretary"},
	}}
	svc := newRoleService(apps, nil, designations, nil)

	user, err := svc.ApproveExecutive(context.Background(), "app-1", testAdmin, dto.ApproveExecutiveRequest{Comment: "welcome"})
	require.NoError(t, err)
	require.Equal(t, models.UserTypeExecutive, user.UserType)
	require.Equal(t, "desig-1", *user.DesignationID)
}

func TestApproveExecutiveRejectsUnknownDesignation(t *testing.T) {
	apps := &mockApplicationRepo{executive: map[string]models.ExecutiveApplication{
		"app-1": pendingExecutiveApp("app-1", "user-1", nil),
	}}
	svc := newRoleService(apps, nil, nil, nil)

	_, err := svc.ApproveExecutive(context.Background(), "app-1", testAdmin, dto.ApproveExecutiveRequest{DesignationID: "ghost"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Empty(t, apps.approved)
}

func TestApproveExecutiveAlreadyProcessed(t *testing.T) {
	app := pendingExecutiveApp("app-1", "user-1", nil)
	app.Status = models.ApplicationStatusApproved
	apps := &mockApplicationRepo{executive: map[string]models.ExecutiveApplication{"app-1": app}}
	svc := newRoleService(apps, nil, nil, nil)

	_, err := svc.ApproveExecutive(context.Background(), "app-1", testAdmin, dto.ApproveExecutiveRequest{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApproveExecutiveNotFound(t *testing.T) {
	svc := newRoleService(nil, nil, nil, nil)

	_, err := svc.ApproveExecutive(context.Background(), "ghost", testAdmin, dto.ApproveExecutiveRequest{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRejectExecutiveLeavesRoleUntouched(t *testing.T) {
	apps := &mockApplicationRepo{executive: map[string]models.ExecutiveApplication{
		"app-1": pendingExecutiveApp("app-1", "user-1", nil),
	}}
	svc := newRoleService(apps, nil, nil, nil)

	require.NoError(t, svc.RejectExecutive(context.Background(), "app-1", testAdmin, dto.RejectApplicationRequest{Comment: "not this term"}))
	require.Equal(t, models.ApplicationStatusRejected, apps.executive["app-1"].Status)

	err := svc.RejectExecutive(context.Background(), "app-1", testAdmin, dto.RejectApplicationRequest{})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApproveVolunteerPromotesMember(t *testing.T) {
	apps := &mockApplicationRepo{volunteer: map[string]models.VolunteerApplication{
		"vol-app-1": {ID: "vol-app-1", UserID: "user-2", Status: models.ApplicationStatusPending},
	}}
	svc := newRoleService(apps, nil, nil, nil)

	user, err := svc.ApproveVolunteer(context.Background(), "vol-app-1", testAdmin, dto.ApproveVolunteerRequest{Comment: "approved"})
	require.NoError(t, err)
	require.Equal(t, models.UserTypeVolunteer, user.UserType)
}

func TestUpdateUserRoleRequiresExecutive(t *testing.T) {
	users := &mockRoleUserRepo{users: map[string]models.User{
		"user-1": {ID: "user-1", UserType: models.UserTypeVolunteer},
	}}
	designations := &mockRoleDesignationRepo{designations: map[string]models.Designation{
		"desig-1": {ID: "desig-1"},
	}}
	svc := newRoleService(nil, users, designations, nil)

	_, err := svc.UpdateUserRole(context.Background(), "user-1", testAdmin, dto.UpdateUserRoleRequest{DesignationID: "desig-1", Reason: "restructure"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConsistency.Code, appErrors.FromError(err).Code)
}

func TestUpdateUserRoleRequiresReason(t *testing.T) {
	svc := newRoleService(nil, nil, nil, nil)

	_, err := svc.UpdateUserRole(context.Background(), "user-1", testAdmin, dto.UpdateUserRoleRequest{DesignationID: "desig-1"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateUserRoleNoChange(t *testing.T) {
	designation := "desig-1"
	users := &mockRoleUserRepo{users: map[string]models.User{
		"user-1": {ID: "user-1", UserType: models.UserTypeExecutive, DesignationID: &designation},
	}}
	designations := &mockRoleDesignationRepo{designations: map[string]models.Designation{
		"desig-1": {ID: "desig-1"},
	}}
	svc := newRoleService(nil, users, designations, nil)

	_, err := svc.UpdateUserRole(context.Background(), "user-1", testAdmin, dto.UpdateUserRoleRequest{DesignationID: "desig-1", Reason: "same seat"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUpdateUserRoleChangesDesignation(t *testing.T) {
	oldDesignation := "desig-1"
	users := &mockRoleUserRepo{users: map[string]models.User{
		"user-1": {ID: "user-1", UserType: models.UserTypeExecutive, DesignationID: &oldDesignation},
	}}
	designations := &mockRoleDesignationRepo{designations: map[string]models.Designation{
		"desig-2": {ID: "desig-2", Name: "Treasurer"},
	}}
	svc := newRoleService(nil, users, designations, nil)

	user, err := svc.UpdateUserRole(context.Background(), "user-1", testAdmin, dto.UpdateUserRoleRequest{DesignationID: "desig-2", Reason: "restructure"})
	require.NoError(t, err)
	require.Equal(t, "desig-2", *user.DesignationID)
}

func TestRoleHistoryPaginates(t *testing.T) {
	logs := &mockRoleChangeLogRepo{logs: []models.RoleChangeLog{
		{ID: "log-1", UserID: "user-1"},
		{ID: "log-2", UserID: "user-1"},
		{ID: "log-3", UserID: "user-2"},
	}}
	svc := newRoleService(nil, nil, nil, logs)

	rows, pagination, err := svc.RoleHistory(context.Background(), "user-1", 0, 500)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, 1, pagination.Page)
	require.Equal(t, 20, pagination.PageSize)
	require.Equal(t, 2, pagination.TotalCount)
}

func TestRoleChangeStats(t *testing.T) {
	logs := &mockRoleChangeLogRepo{stats: models.RoleChangeStats{TotalChanges: 12, ChangesThisMonth: 4, MostActiveAdmin: "admin-1"}}
	svc := newRoleService(nil, nil, nil, logs)

	stats, err := svc.RoleChangeStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 12, stats.TotalChanges)
	require.Equal(t, "admin-1", stats.MostActiveAdmin)
}
