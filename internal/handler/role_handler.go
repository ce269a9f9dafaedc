package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/committee-api/internal/dto"
	"github.com/noah-isme/committee-api/internal/service"
	appErrors "github.com/noah-isme/committee-api/pkg/errors"
	"github.com/noah-isme/committee-api/pkg/response"
)

// RoleHandler exposes role transition endpoints: application decisions,
// manual designation changes and the audit trail.
type RoleHandler struct {
	service *service.RoleService
}

// NewRoleHandler constructs a role handler.
func NewRoleHandler(svc *service.RoleService) *RoleHandler {
	return &RoleHandler{service: svc}
}

// ListExecutiveApplications godoc
// @Summary List pending executive applications
// @Tags Roles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roles/applications/executive [get]
func (h *RoleHandler) ListExecutiveApplications(c *gin.Context) {
	applications, err := h.service.ListPendingExecutiveApplications(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, applications, nil)
}

// ApproveExecutive godoc
// @Summary Approve executive application
// @Description Promote the applicant to executive with the chosen designation
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ApproveExecutiveRequest true "Approval payload"
// @Success 200 {object} response.Envelope
// @Router /roles/applications/executive/{id}/approve [post]
func (h *RoleHandler) ApproveExecutive(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ApproveExecutiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.service.ApproveExecutive(c.Request.Context(), c.Param("id"), *claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// RejectExecutive godoc
// @Summary Reject executive application
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.RejectApplicationRequest true "Rejection payload"
// @Success 204
// @Router /roles/applications/executive/{id}/reject [post]
func (h *RoleHandler) RejectExecutive(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RejectApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.RejectExecutive(c.Request.Context(), c.Param("id"), *claims, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ApproveVolunteer godoc
// @Summary Approve volunteer application
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.ApproveVolunteerRequest true "Approval payload"
// @Success 200 {object} response.Envelope
// @Router /roles/applications/volunteer/{id}/approve [post]
func (h *RoleHandler) ApproveVolunteer(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ApproveVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.service.ApproveVolunteer(c.Request.Context(), c.Param("id"), *claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// RejectVolunteer godoc
// @Summary Reject volunteer application
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.RejectApplicationRequest true "Rejection payload"
// @Success 204
// @Router /roles/applications/volunteer/{id}/reject [post]
func (h *RoleHandler) RejectVolunteer(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RejectApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.RejectVolunteer(c.Request.Context(), c.Param("id"), *claims, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateUserRole godoc
// @Summary Change a user's designation
// @Description Manual designation change on an executive, with a mandatory reason
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body dto.UpdateUserRoleRequest true "Role update payload"
// @Success 200 {object} response.Envelope
// @Router /roles/users/{id} [put]
func (h *RoleHandler) UpdateUserRole(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.service.UpdateUserRole(c.Request.Context(), c.Param("id"), *claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// RoleHistory godoc
// @Summary Role change history for a user
// @Tags Roles
// @Produce json
// @Param id path string true "User ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /roles/users/{id}/history [get]
func (h *RoleHandler) RoleHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	logs, pagination, err := h.service.RoleHistory(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}

// Stats godoc
// @Summary Role change statistics
// @Tags Roles
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /roles/stats [get]
func (h *RoleHandler) Stats(c *gin.Context) {
	stats, err := h.service.RoleChangeStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
