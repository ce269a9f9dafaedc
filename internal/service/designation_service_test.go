package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/committee-api/internal/dto"
	"github.com/noah-isme/committee-api/internal/models"
	appErrors "github.com/noah-isme/committee-api/pkg/errors"
)

type designationUsage struct {
	users       int
	assignments int
	children    int
}

type mockDesignationRepo struct {
	designations map[string]models.Designation
	ancestors    map[string][]string
	usage        map[string]designationUsage
	nextID       int
	deleted      []string
}

func newMockDesignationRepo() *mockDesignationRepo {
	return &mockDesignationRepo{
		designations: map[string]models.Designation{},
		ancestors:    map[string][]string{},
		usage:        map[string]designationUsage{},
	}
}

func (m *mockDesignationRepo) List(ctx context.Context) ([]models.DesignationWithUsage, error) {
	var out []models.DesignationWithUsage
	for _, designation := range m.designations {
		out = append(out, models.DesignationWithUsage{Designation: designation})
	}
	return out, nil
}

func (m *mockDesignationRepo) FindByID(ctx context.Context, id string) (*models.Designation, error) {
	if designation, ok := m.designations[id]; ok {
		return &designation, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDesignationRepo) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	for _, designation := range m.designations {
		if designation.Name == name && designation.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockDesignationRepo) AncestorIDs(ctx context.Context, id string) ([]string, error) {
	return m.ancestors[id], nil
}

func (m *mockDesignationRepo) NextSortOrder(ctx context.Context, level int) (int, error) {
	next := 1
	for _, designation := range m.designations {
		if designation.Level == level && designation.SortOrder >= next {
			next = designation.SortOrder + 1
		}
	}
	return next, nil
}

func (m *mockDesignationRepo) MinChildLevel(ctx context.Context, id string) (int, error) {
	min := 0
	for _, designation := range m.designations {
		if designation.ParentID != nil && *designation.ParentID == id {
			if min == 0 || designation.Level < min {
				min = designation.Level
			}
		}
	}
	return min, nil
}

func (m *mockDesignationRepo) Create(ctx context.Context, designation *models.Designation) error {
	m.nextID++
	designation.ID = "desig-" + string(rune('0'+m.nextID))
	m.designations[designation.ID] = *designation
	return nil
}

func (m *mockDesignationRepo) Update(ctx context.Context, designation *models.Designation) error {
	if _, ok := m.designations[designation.ID]; !ok {
		return sql.ErrNoRows
	}
	m.designations[designation.ID] = *designation
	return nil
}

func (m *mockDesignationRepo) UsageCounts(ctx context.Context, id string) (int, int, int, error) {
	usage := m.usage[id]
	return usage.users, usage.assignments, usage.children, nil
}

func (m *mockDesignationRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.designations[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.designations, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDesignationRepo) seed(designation models.Designation) {
	m.designations[designation.ID] = designation
}

func TestCreateDesignationAssignsSortOrder(t *testing.T) {
	repo := newMockDesignationRepo()
	repo.seed(models.Designation{ID: "desig-a", Name: "President", Level: 1, SortOrder: 1})
	svc := NewDesignationService(repo, nil, nil)

	created, err := svc.Create(context.Background(), dto.CreateDesignationRequest{Name: "Vice President", Level: 1})
	require.NoError(t, err)
	require.Equal(t, 2, created.SortOrder)
	require.True(t, created.IsActive)
}

func TestCreateDesignationRejectsDuplicateName(t *testing.T) {
	repo := newMockDesignationRepo()
	repo.seed(models.Designation{ID: "desig-a", Name: "President", Level: 1})
	svc := NewDesignationService(repo, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateDesignationRequest{Name: "President", Level: 1})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateDesignationLevelBounds(t *testing.T) {
	svc := NewDesignationService(newMockDesignationRepo(), nil, nil)

	for _, level := range []int{0, 4} {
		_, err := svc.Create(context.Background(), dto.CreateDesignationRequest{Name: "Out of bounds", Level: level})
		require.Error(t, err)
		require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestCreateDesignationParentMustSitHigher(t *testing.T) {
	repo := newMockDesignationRepo()
	repo.seed(models.Designation{ID: "desig-a", Name: "Coordinator", Level: 2})
	svc := NewDesignationService(repo, nil, nil)

	parent := "desig-a"
	_, err := svc.Create(context.Background(), dto.CreateDesignationRequest{Name: "Deputy", Level: 2, ParentID: &parent})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), dto.CreateDesignationRequest{Name: "Deputy", Level: 3, ParentID: &parent})
	require.NoError(t, err)
}

func TestCreateDesignationParentMustExist(t *testing.T) {
	svc := NewDesignationService(newMockDesignationRepo(), nil, nil)

	parent := "ghost"
	_, err := svc.Create(context.Background(), dto.CreateDesignationRequest{Name: "Deputy", Level: 2, ParentID: &parent})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateDesignationRejectsSelfParent(t *testing.T) {
	repo := newMockDesignationRepo()
	repo.seed(models.Designation{ID: "desig-a", Name: "Coordinator", Level: 2})
	repo.seed(models.Designation{ID: "desig-root", Name: "President", Level: 1})
	svc := NewDesignationService(repo, nil, nil)

	self := "desig-a"
	_, err := svc.Update(context.Background(), "desig-a", dto.UpdateDesignationRequest{Name: "Coordinator", Level: 2, ParentID: &self})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateDesignationRejectsCycle(t *testing.T) {
	repo := newMockDesignationRepo()
	repo.seed(models.Designation{ID: "desig-a", Name: "Coordinator", Level: 1})
	repo.seed(models.Designation{ID: "desig-b", Name: "Deputy", Level: 2})
	repo.ancestors["desig-b"] = []string{"desig-a"}
	svc := NewDesignationService(repo, nil, nil)

	parent := "desig-b"
	_, err := svc.Update(context.Background(), "desig-a", dto.UpdateDesignationRequest{Name: "Coordinator", Level: 3, ParentID: &parent})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateDesignationReassignsSortOrderOnLevelChange(t *testing.T) {
	repo := newMockDesignationRepo()
	repo.seed(models.Designation{ID: "desig-a", Name: "Coordinator", Level: 2, SortOrder: 1})
	repo.seed(models.Designation{ID: "desig-b", Name: "Officer", Level: 3, SortOrder: 4})
	svc := NewDesignationService(repo, nil, nil)

	updated, err := svc.Update(context.Background(), "desig-a", dto.UpdateDesignationRequest{Name: "Coordinator", Level: 3})
	require.NoError(t, err)
	require.Equal(t, 5, updated.SortOrder)
}

func TestUpdateDesignationRejectsLevelAtOrBelowChildren(t *testing.T) {
	repo := newMockDesignationRepo()
	parent := "desig-a"
	repo.seed(models.Designation{ID: "desig-a", Name: "Coordinator", Level: 1})
	repo.seed(models.Designation{ID: "desig-b", Name: "Deputy", Level: 2, ParentID: &parent})
	svc := NewDesignationService(repo, nil, nil)

	for _, level := range []int{2, 3} {
		_, err := svc.Update(context.Background(), "desig-a", dto.UpdateDesignationRequest{Name: "Coordinator", Level: level})
		require.Error(t, err)
		require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	require.Equal(t, 1, repo.designations["desig-a"].Level)
}

func TestDeleteDesignationGuards(t *testing.T) {
	tests := []struct {
		name  string
		usage designationUsage
	}{
		{"held by users", designationUsage{users: 2}},
		{"referenced by assignments", designationUsage{assignments: 1}},
		{"has children", designationUsage{children: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockDesignationRepo()
			repo.seed(models.Designation{ID: "desig-a", Name: "Coordinator", Level: 2})
			repo.usage["desig-a"] = tt.usage
			svc := NewDesignationService(repo, nil, nil)

			err := svc.Delete(context.Background(), "desig-a")
			require.Error(t, err)
			require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
			require.Empty(t, repo.deleted)
		})
	}
}

func TestDeleteDesignationUnreferenced(t *testing.T) {
	repo := newMockDesignationRepo()
	repo.seed(models.Designation{ID: "desig-a", Name: "Coordinator", Level: 2})
	svc := NewDesignationService(repo, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "desig-a"))
	require.Equal(t, []string{"desig-a"}, repo.deleted)
}

func TestDeleteDesignationNotFound(t *testing.T) {
	svc := NewDesignationService(newMockDesignationRepo(), nil, nil)

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
