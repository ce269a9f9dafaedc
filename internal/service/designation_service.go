package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/committee-api/internal/dto"
	"github.com/noah-isme/committee-api/internal/models"
	appErrors "github.com/noah-isme/committee-api/pkg/errors"
)

type designationRepository interface {
	List(ctx context.Context) ([]models.DesignationWithUsage, error)
	FindByID(ctx context.Context, id string) (*models.Designation, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	AncestorIDs(ctx context.Context, id string) ([]string, error)
	NextSortOrder(ctx context.Context, level int) (int, error)
	MinChildLevel(ctx context.Context, id string) (int, error)
	Create(ctx context.Context, designation *models.Designation) error
	Update(ctx context.Context, designation *models.Designation) error
	UsageCounts(ctx context.Context, id string) (users, assignments, children int, err error)
	Delete(ctx context.Context, id string) error
}

// DesignationService manages the designation hierarchy: bounded levels,
// parent links pointing strictly upward and reference-guarded deletion.
type DesignationService struct {
	repo      designationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDesignationService creates a designation service instance.
func NewDesignationService(repo designationRepository, validate *validator.Validate, logger *zap.Logger) *DesignationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DesignationService{repo: repo, validator: validate, logger: logger}
}

// List returns the hierarchy ordered by level then sort order, with usage
// counts.
func (s *DesignationService) List(ctx context.Context) ([]models.DesignationWithUsage, error) {
	designations, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list designations")
	}
	return designations, nil
}

// Get returns one designation.
func (s *DesignationService) Get(ctx context.Context, id string) (*models.Designation, error) {
	designation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "designation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load designation")
	}
	return designation, nil
}

// checkParent enforces hierarchy rules for a designation at the given level:
// the parent must exist and sit at a strictly smaller level. On updates the
// candidate parent must not be a descendant of the designation being edited.
func (s *DesignationService) checkParent(ctx context.Context, parentID string, level int, selfID string) error {
	parent, err := s.repo.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "parent designation does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent designation")
	}
	if parent.Level >= level {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("parent level %d must be smaller than %d", parent.Level, level))
	}
	if selfID != "" {
		if parentID == selfID {
			return appErrors.Clone(appErrors.ErrValidation, "designation cannot be its own parent")
		}
		ancestors, err := s.repo.AncestorIDs(ctx, parentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to walk designation ancestors")
		}
		for _, ancestorID := range ancestors {
			if ancestorID == selfID {
				return appErrors.Clone(appErrors.ErrValidation, "parent link would create a cycle")
			}
		}
	}
	return nil
}

// Create adds a designation, assigning the next sort order within its level.
func (s *DesignationService) Create(ctx context.Context, req dto.CreateDesignationRequest) (*models.Designation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid designation payload")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check designation name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a designation with this name already exists")
	}

	if req.ParentID != nil && *req.ParentID != "" {
		if err := s.checkParent(ctx, *req.ParentID, req.Level, ""); err != nil {
			return nil, err
		}
	}

	sortOrder, err := s.repo.NextSortOrder(ctx, req.Level)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign sort order")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	designation := &models.Designation{
		Name:      req.Name,
		Level:     req.Level,
		ParentID:  req.ParentID,
		SortOrder: sortOrder,
		IsActive:  active,
	}
	if err := s.repo.Create(ctx, designation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create designation")
	}

	s.logger.Info("designation created",
		zap.String("designation_id", designation.ID),
		zap.String("name", designation.Name),
		zap.Int("level", designation.Level))
	return designation, nil
}

// Update edits a designation under the same hierarchy rules as Create.
func (s *DesignationService) Update(ctx context.Context, id string, req dto.UpdateDesignationRequest) (*models.Designation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid designation payload")
	}

	designation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "designation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load designation")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check designation name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a designation with this name already exists")
	}

	if req.ParentID != nil && *req.ParentID != "" {
		if err := s.checkParent(ctx, *req.ParentID, req.Level, id); err != nil {
			return nil, err
		}
	}

	if req.Level != designation.Level {
		minChild, err := s.repo.MinChildLevel(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check child designations")
		}
		if minChild > 0 && req.Level >= minChild {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("level %d must be smaller than child level %d", req.Level, minChild))
		}
		sortOrder, err := s.repo.NextSortOrder(ctx, req.Level)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign sort order")
		}
		designation.SortOrder = sortOrder
	}

	designation.Name = req.Name
	designation.Level = req.Level
	designation.ParentID = req.ParentID
	if req.IsActive != nil {
		designation.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, designation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update designation")
	}
	return designation, nil
}

// Delete removes a designation once nothing references it: no users hold it,
// no assignment or archive snapshot points at it, no child designations
// remain.
func (s *DesignationService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "designation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load designation")
	}

	users, assignments, children, err := s.repo.UsageCounts(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check designation usage")
	}
	switch {
	case users > 0:
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("designation is held by %d user(s)", users))
	case assignments > 0:
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("designation is referenced by %d committee assignment(s)", assignments))
	case children > 0:
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("designation has %d child designation(s)", children))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete designation")
	}
	s.logger.Info("designation deleted", zap.String("designation_id", id))
	return nil
}
