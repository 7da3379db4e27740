package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keepr/keepr/internal/middleware"
	"github.com/keepr/keepr/internal/service"
)

const backupLogLimit = 20

type BackupHandler struct {
	backupService *service.BackupService
}

func NewBackupHandler(backupService *service.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// GetSettings handles GET /api/backup/settings
func (h *BackupHandler) GetSettings(c *gin.Context) {
	user := middleware.CurrentUser(c)

	settings, err := h.backupService.Settings(user.ID)
	if err != nil {
		middleware.RespondServiceError(c, err, "BACKUP_FAILED")
		return
	}
	respond(c, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/backup/settings
func (h *BackupHandler) UpdateSettings(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req service.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	settings, err := h.backupService.UpdateSettings(user.ID, &req)
	if err != nil {
		middleware.RespondServiceError(c, err, "BACKUP_FAILED")
		return
	}
	respond(c, http.StatusOK, settings)
}

// GetLogs handles GET /api/backup/logs
func (h *BackupHandler) GetLogs(c *gin.Context) {
	user := middleware.CurrentUser(c)

	logs, err := h.backupService.RecentLogs(user.ID, backupLogLimit)
	if err != nil {
		middleware.RespondServiceError(c, err, "BACKUP_FAILED")
		return
	}
	respond(c, http.StatusOK, logs)
}

// RunBackup handles POST /api/backup/manual
func (h *BackupHandler) RunBackup(c *gin.Context) {
	user := middleware.CurrentUser(c)

	result, err := h.backupService.Run(c.Request.Context(), user)
	if err != nil {
		middleware.RespondServiceError(c, err, "BACKUP_FAILED")
		return
	}
	respond(c, http.StatusOK, result)
}

// TestS3 handles POST /api/backup/test-s3. The body may carry credentials
// to probe instead of the stored ones; an empty body tests what is saved.
func (h *BackupHandler) TestS3(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req service.S3TestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.AbortWithError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	if err := h.backupService.TestS3(c.Request.Context(), user.ID, &req); err != nil {
		middleware.RespondServiceError(c, err, "S3_CONNECTION_FAILED")
		return
	}
	respond(c, http.StatusOK, gin.H{"message": "S3 connection successful"})
}
