package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/committee-api/internal/dto"
	"github.com/noah-isme/committee-api/internal/models"
	"github.com/noah-isme/committee-api/internal/repository"
	appErrors "github.com/noah-isme/committee-api/pkg/errors"
)

type applicationRepository interface {
	FindExecutiveByID(ctx context.Context, id string) (*models.ExecutiveApplication, error)
	FindVolunteerByID(ctx context.Context, id string) (*models.VolunteerApplication, error)
	ListExecutiveByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.ExecutiveApplication, error)
	ApproveExecutive(ctx context.Context, applicationID, adminID, designationID, comment string) (*models.User, *models.RoleChangeLog, error)
	RejectExecutive(ctx context.Context, applicationID, adminID, comment string) error
	ApproveVolunteer(ctx context.Context, applicationID, adminID, notes string) (*models.User, *models.RoleChangeLog, error)
	RejectVolunteer(ctx context.Context, applicationID, adminID, notes string) error
}

type roleUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ChangeDesignation(ctx context.Context, userID, designationID, adminID, reason string) (*models.User, *models.RoleChangeLog, error)
}

type roleDesignationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Designation, error)
}

type roleChangeLogRepository interface {
	List(ctx context.Context, filter repository.RoleChangeLogFilter) ([]models.RoleChangeLog, int, error)
	Stats(ctx context.Context) (*models.RoleChangeStats, error)
}

// RoleService is the single authority for role transitions: application
// decisions and manual designation changes both flow through it, every
// mutation leaving exactly one audit row.
type RoleService struct {
	applications applicationRepository
	users        roleUserRepository
	designations roleDesignationRepository
	logs         roleChangeLogRepository
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewRoleService creates a role service instance.
func NewRoleService(applications applicationRepository, users roleUserRepository, designations roleDesignationRepository, logs roleChangeLogRepository, validate *validator.Validate, logger *zap.Logger) *RoleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{applications: applications, users: users, designations: designations, logs: logs, validator: validate, logger: logger}
}

// ListPendingExecutiveApplications returns undecided executive applications,
// oldest first.
func (s *RoleService) ListPendingExecutiveApplications(ctx context.Context) ([]models.ExecutiveApplication, error) {
	applications, err := s.applications.ListExecutiveByStatus(ctx, models.ApplicationStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return applications, nil
}

// ApproveExecutive approves a pending executive application, promoting the
// applicant to executive with the chosen designation.
func (s *RoleService) ApproveExecutive(ctx context.Context, applicationID string, admin models.AdminClaims, req dto.ApproveExecutiveRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}

	if req.DesignationID != "" {
		if _, err := s.designations.FindByID(ctx, req.DesignationID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "designation does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load designation")
		}
	}

	user, logRow, err := s.applications.ApproveExecutive(ctx, applicationID, admin.AdminID, req.DesignationID, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		case errors.Is(err, repository.ErrAlreadyProcessed):
			return nil, appErrors.Clone(appErrors.ErrConflict, "application has already been processed")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve application")
		}
	}

	s.logger.Info("executive application approved",
		zap.String("application_id", applicationID),
		zap.String("user_id", user.ID),
		zap.String("admin_id", admin.AdminID),
		zap.String("action", string(logRow.ActionType)))
	return user, nil
}

// RejectExecutive declines a pending executive application without touching
// the applicant's role.
func (s *RoleService) RejectExecutive(ctx context.Context, applicationID string, admin models.AdminClaims, req dto.RejectApplicationRequest) error {
	if err := s.applications.RejectExecutive(ctx, applicationID, admin.AdminID, req.Comment); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return appErrors.Clone(appErrors.ErrConflict, "application has already been processed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject application")
	}
	s.logger.Info("executive application rejected",
		zap.String("application_id", applicationID),
		zap.String("admin_id", admin.AdminID))
	return nil
}

// ApproveVolunteer promotes a member to volunteer from a pending application.
func (s *RoleService) ApproveVolunteer(ctx context.Context, applicationID string, admin models.AdminClaims, req dto.ApproveVolunteerRequest) (*models.User, error) {
	user, logRow, err := s.applications.ApproveVolunteer(ctx, applicationID, admin.AdminID, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		case errors.Is(err, repository.ErrAlreadyProcessed):
			return nil, appErrors.Clone(appErrors.ErrConflict, "application has already been processed")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve application")
		}
	}

	s.logger.Info("volunteer application approved",
		zap.String("application_id", applicationID),
		zap.String("user_id", user.ID),
		zap.String("admin_id", admin.AdminID),
		zap.String("action", string(logRow.ActionType)))
	return user, nil
}

// RejectVolunteer declines a pending volunteer application.
func (s *RoleService) RejectVolunteer(ctx context.Context, applicationID string, admin models.AdminClaims, req dto.RejectApplicationRequest) error {
	if err := s.applications.RejectVolunteer(ctx, applicationID, admin.AdminID, req.Comment); err != nil {
		if errors.Is(err, repository.ErrAlreadyProcessed) {
			return appErrors.Clone(appErrors.ErrConflict, "application has already been processed")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject application")
	}
	s.logger.Info("volunteer application rejected",
		zap.String("application_id", applicationID),
		zap.String("admin_id", admin.AdminID))
	return nil
}

// UpdateUserRole performs a manual designation change on an executive. The
// reason is mandatory; it feeds the audit trail.
func (s *RoleService) UpdateUserRole(ctx context.Context, userID string, admin models.AdminClaims, req dto.UpdateUserRoleRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role update payload")
	}

	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if target.UserType != models.UserTypeExecutive {
		return nil, appErrors.Clone(appErrors.ErrConsistency, "only executives can hold a designation")
	}

	if _, err := s.designations.FindByID(ctx, req.DesignationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "designation does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load designation")
	}

	user, logRow, err := s.users.ChangeDesignation(ctx, userID, req.DesignationID, admin.AdminID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		case errors.Is(err, repository.ErrNoChange):
			return nil, appErrors.Clone(appErrors.ErrConflict, "user already holds this designation")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to change designation")
		}
	}

	s.logger.Info("user role updated",
		zap.String("user_id", userID),
		zap.String("admin_id", admin.AdminID),
		zap.String("action", string(logRow.ActionType)))
	return user, nil
}

// RoleHistory lists a user's audit trail, newest first.
func (s *RoleService) RoleHistory(ctx context.Context, userID string, page, pageSize int) ([]models.RoleChangeLog, *models.Pagination, error) {
	logs, total, err := s.logs.List(ctx, repository.RoleChangeLogFilter{UserID: userID, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role history")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
	return logs, pagination, nil
}

// RoleChangeStats aggregates audit activity.
func (s *RoleService) RoleChangeStats(ctx context.Context) (*models.RoleChangeStats, error) {
	stats, err := s.logs.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate role change stats")
	}
	return stats, nil
}
