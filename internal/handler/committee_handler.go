package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/committee-api/internal/dto"
	"github.com/noah-isme/committee-api/internal/middleware"
	"github.com/noah-isme/committee-api/internal/service"
	appErrors "github.com/noah-isme/committee-api/pkg/errors"
	"github.com/noah-isme/committee-api/pkg/response"
)

// CommitteeHandler exposes committee lifecycle endpoints.
type CommitteeHandler struct {
	service *service.CommitteeService
}

// NewCommitteeHandler constructs a committee handler.
func NewCommitteeHandler(svc *service.CommitteeService) *CommitteeHandler {
	return &CommitteeHandler{service: svc}
}

// Current godoc
// @Summary Get the published committee
// @Tags Committee
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /committee/current [get]
func (h *CommitteeHandler) Current(c *gin.Context) {
	assignments, number, err := h.service.GetCurrent(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(assignments) == 0 {
		// Nothing published yet: show the live derived roster as a preview.
		roster, err := h.service.DeriveRoster(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, gin.H{
			"committee_number": number,
			"published":        false,
			"members":          roster,
		}, nil)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"committee_number": number,
		"published":        true,
		"members":          assignments,
	}, nil)
}

// Roster godoc
// @Summary Preview the derived roster
// @Description Derive the roster from live user and designation state without persisting
// @Tags Committee
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /committee/current/roster [get]
func (h *CommitteeHandler) Roster(c *gin.Context) {
	roster, err := h.service.DeriveRoster(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}

// Publish godoc
// @Summary Publish the derived roster
// @Description Snapshot the derived roster as the current committee
// @Tags Committee
// @Accept json
// @Produce json
// @Param payload body dto.PublishCommitteeRequest true "Publish payload"
// @Success 201 {object} response.Envelope
// @Router /committee/publish [post]
func (h *CommitteeHandler) Publish(c *gin.Context) {
	var req dto.PublishCommitteeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignments, err := h.service.Publish(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignments)
}

// AddMember godoc
// @Summary Add a member to the published committee
// @Tags Committee
// @Accept json
// @Produce json
// @Param payload body dto.AddMemberRequest true "Member payload"
// @Success 201 {object} response.Envelope
// @Router /committee/current/members [post]
func (h *CommitteeHandler) AddMember(c *gin.Context) {
	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.service.AddMember(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Reorder godoc
// @Summary Reorder the published committee
// @Description Apply a complete member order permutation
// @Tags Committee
// @Accept json
// @Produce json
// @Param payload body dto.ReorderRequest true "Reorder payload"
// @Success 204
// @Router /committee/current/reorder [put]
func (h *CommitteeHandler) Reorder(c *gin.Context) {
	var req dto.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.Reorder(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateMemberOrder godoc
// @Summary Move one member to a new position
// @Tags Committee
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.UpdateMemberOrderRequest true "Order payload"
// @Success 204
// @Router /committee/current/members/{id}/order [put]
func (h *CommitteeHandler) UpdateMemberOrder(c *gin.Context) {
	var req dto.UpdateMemberOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.UpdateMemberOrder(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveMember godoc
// @Summary Remove a member from the published committee
// @Tags Committee
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /committee/current/members/{id} [delete]
func (h *CommitteeHandler) RemoveMember(c *gin.Context) {
	if err := h.service.RemoveMember(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// EndTenure godoc
// @Summary End the current committee's tenure
// @Description Archive the published committee into the immutable ledger
// @Tags Committee
// @Accept json
// @Produce json
// @Param payload body dto.EndTenureRequest true "End tenure payload"
// @Success 200 {object} response.Envelope
// @Router /committee/end-tenure [post]
func (h *CommitteeHandler) EndTenure(c *gin.Context) {
	var req dto.EndTenureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.EndTenure(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListPrevious godoc
// @Summary List archived committees
// @Tags Committee
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /committee/previous [get]
func (h *CommitteeHandler) ListPrevious(c *gin.Context) {
	start := time.Now()
	committees, cacheHit, err := h.service.ListPrevious(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, committees, nil, meta)
}

// GetPrevious godoc
// @Summary Get one archived committee
// @Tags Committee
// @Produce json
// @Param number path string true "Committee number"
// @Success 200 {object} response.Envelope
// @Router /committee/previous/{number} [get]
func (h *CommitteeHandler) GetPrevious(c *gin.Context) {
	start := time.Now()
	committee, cacheHit, err := h.service.GetPrevious(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, committee, nil, meta)
}

// Stats godoc
// @Summary Committee lifecycle statistics
// @Tags Committee
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /committee/stats [get]
func (h *CommitteeHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
