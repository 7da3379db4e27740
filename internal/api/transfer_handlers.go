package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/keepr/keepr/internal/middleware"
	"github.com/keepr/keepr/internal/service"
	"github.com/keepr/keepr/pkg/logger"
)

// TransferHandler serves data export, import and full restore
type TransferHandler struct {
	exportService  *service.ExportService
	importService  *service.ImportService
	restoreService *service.RestoreService
}

func NewTransferHandler(
	exportService *service.ExportService,
	importService *service.ImportService,
	restoreService *service.RestoreService,
) *TransferHandler {
	return &TransferHandler{
		exportService:  exportService,
		importService:  importService,
		restoreService: restoreService,
	}
}

// ExportData handles GET /api/export/data: streams the archive as a download
func (h *TransferHandler) ExportData(c *gin.Context) {
	user := middleware.CurrentUser(c)

	path, name, err := h.exportService.Export(user)
	if err != nil {
		middleware.RespondServiceError(c, err, "EXPORT_FAILED")
		return
	}
	defer os.Remove(path)

	c.FileAttachment(path, name)
}

// ImportData handles POST /api/import/data: a multipart upload with a "file"
// archive, a "mode" of personal or full, and for full restores a "confirm"
// field.
func (h *TransferHandler) ImportData(c *gin.Context) {
	user := middleware.CurrentUser(c)

	file, err := c.FormFile("file")
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "BAD_REQUEST", "No archive file uploaded")
		return
	}

	mode := c.DefaultPostForm("mode", "personal")
	if mode != "personal" && mode != "full" {
		middleware.AbortWithError(c, http.StatusBadRequest, "BAD_REQUEST",
			"mode must be personal or full")
		return
	}

	// Stage the upload; validation happens against the staged file
	tmp, err := os.CreateTemp("", "keepr-upload-*.zip")
	if err != nil {
		middleware.RespondServiceError(c, err, "IMPORT_FAILED")
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		middleware.RespondServiceError(c, err, "IMPORT_FAILED")
		return
	}

	logger.Info("Archive uploaded", map[string]interface{}{
		"user_id":  user.ID,
		"filename": filepath.Base(file.Filename),
		"size":     file.Size,
		"mode":     mode,
	})

	if mode == "full" {
		confirmed := strings.EqualFold(c.PostForm("confirm"), "true")
		result, err := h.restoreService.RestoreFull(c.Request.Context(), user, tmpPath, confirmed)
		if err != nil {
			middleware.RespondServiceError(c, err, "RESTORE_FAILED")
			return
		}
		respond(c, http.StatusOK, result)
		return
	}

	summary, err := h.importService.ImportPersonal(user, tmpPath)
	if err != nil {
		middleware.RespondServiceError(c, err, "IMPORT_FAILED")
		return
	}
	respond(c, http.StatusOK, summary)
}
