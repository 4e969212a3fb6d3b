package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/service"

	"github.com/gin-gonic/gin"
)

type RetentionHandler struct {
	retentionService *service.RetentionService
}

func NewRetentionHandler(rs *service.RetentionService) *RetentionHandler {
	return &RetentionHandler{retentionService: rs}
}

// POST /retention/export
// Streams the zip archive back as the response body.
func (h *RetentionHandler) Export(c *gin.Context) {
	var dto domain.ExportRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	fileName := fmt.Sprintf("parking-backup-%s.zip", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := h.retentionService.Export(c.Request.Context(), dto, c.Writer); err != nil {
		// Headers may already be out; report what we can.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed", "details": err.Error()})
		return
	}
}

// POST /retention/import
// Accepts the archive as a multipart upload under the "archive" field.
func (h *RetentionHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("archive")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'archive' file: " + err.Error()})
		return
	}
	overwrite := c.Query("overwrite") == "true"

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not open uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	counts, err := h.retentionService.Import(c.Request.Context(), file, fileHeader.Size, overwrite)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, counts)
}

// POST /retention/purge
func (h *RetentionHandler) Purge(c *gin.Context) {
	var dto domain.PurgeRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	counts, err := h.retentionService.Purge(c.Request.Context(), dto)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "purge failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, counts)
}
