package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/committee-api/internal/dto"
	"github.com/noah-isme/committee-api/internal/service"
	appErrors "github.com/noah-isme/committee-api/pkg/errors"
	"github.com/noah-isme/committee-api/pkg/response"
)

// DesignationHandler exposes designation hierarchy endpoints.
type DesignationHandler struct {
	service *service.DesignationService
}

// NewDesignationHandler constructs a designation handler.
func NewDesignationHandler(svc *service.DesignationService) *DesignationHandler {
	return &DesignationHandler{service: svc}
}

// List godoc
// @Summary List designations
// @Description List the designation hierarchy with usage counts
// @Tags Designations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /designations [get]
func (h *DesignationHandler) List(c *gin.Context) {
	designations, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, designations, nil)
}

// Get godoc
// @Summary Get designation
// @Tags Designations
// @Produce json
// @Param id path string true "Designation ID"
// @Success 200 {object} response.Envelope
// @Router /designations/{id} [get]
func (h *DesignationHandler) Get(c *gin.Context) {
	designation, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, designation, nil)
}

// Create godoc
// @Summary Create designation
// @Tags Designations
// @Accept json
// @Produce json
// @Param payload body dto.CreateDesignationRequest true "Designation payload"
// @Success 201 {object} response.Envelope
// @Router /designations [post]
func (h *DesignationHandler) Create(c *gin.Context) {
	var req dto.CreateDesignationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	designation, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, designation)
}

// Update godoc
// @Summary Update designation
// @Tags Designations
// @Accept json
// @Produce json
// @Param id path string true "Designation ID"
// @Param payload body dto.UpdateDesignationRequest true "Designation payload"
// @Success 200 {object} response.Envelope
// @Router /designations/{id} [put]
func (h *DesignationHandler) Update(c *gin.Context) {
	var req dto.UpdateDesignationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	designation, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, designation, nil)
}

// Delete godoc
// @Summary Delete designation
// @Description Delete a designation that nothing references
// @Tags Designations
// @Produce json
// @Param id path string true "Designation ID"
// @Success 204
// @Router /designations/{id} [delete]
func (h *DesignationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
