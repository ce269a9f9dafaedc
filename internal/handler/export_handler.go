package handler

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/committee-api/internal/service"
	appErrors "github.com/noah-isme/committee-api/pkg/errors"
	"github.com/noah-isme/committee-api/pkg/response"
)

// ExportHandler exposes roster export and download endpoints.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// ExportCurrent godoc
// @Summary Export the published committee roster
// @Tags Exports
// @Produce json
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {object} response.Envelope
// @Router /committee/current/export [get]
func (h *ExportHandler) ExportCurrent(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.ExportCurrent(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"url":        result.URL,
		"format":     result.Format,
		"expires_at": result.ExpiresAt,
	}, nil)
}

// ExportPrevious godoc
// @Summary Export an archived committee roster
// @Tags Exports
// @Produce json
// @Param number path string true "Committee number"
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {object} response.Envelope
// @Router /committee/previous/{number}/export [get]
func (h *ExportHandler) ExportPrevious(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.ExportPrevious(c.Request.Context(), c.Param("number"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"url":        result.URL,
		"format":     result.Format,
		"expires_at": result.ExpiresAt,
	}, nil)
}

// Download godoc
// @Summary Download an exported roster via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.service.ParseToken(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token"))
		return
	}

	file, err := h.service.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file no longer exists"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file"))
		return
	}

	mimeType := "text/csv"
	if filepath.Ext(relPath) == ".pdf" {
		mimeType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filepath.Base(relPath)))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), mimeType, file, nil)
}
