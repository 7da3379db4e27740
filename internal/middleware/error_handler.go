package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keepr/keepr/internal/service"
	"github.com/keepr/keepr/internal/storage"
	"github.com/keepr/keepr/pkg/logger"
)

// ErrorBody is the inner object of every error response
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope all error responses share
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// AbortWithError writes the standard error envelope and stops the chain
func AbortWithError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
	c.Abort()
}

// ErrorHandler catches panics and turns them into a 500 envelope
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = errors.New("panic in handler")
				}
				logger.Error("Panic recovered", err, map[string]interface{}{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				})
				AbortWithError(c, http.StatusInternalServerError,
					"INTERNAL_ERROR", "An unexpected error occurred")
			}
		}()
		c.Next()
	}
}

// RespondServiceError maps a service layer error to the wire envelope.
// Typed errors keep their code and map to 4xx; everything else becomes the
// fallback code with a 500.
func RespondServiceError(c *gin.Context, err error, fallbackCode string) {
	var coded *service.CodedError
	if errors.As(err, &coded) {
		status := http.StatusBadRequest
		switch coded.Code {
		case "FORBIDDEN":
			status = http.StatusForbidden
		case "CONFIRMATION_REQUIRED":
			status = http.StatusPreconditionRequired
		}
		AbortWithError(c, status, coded.Code, coded.Message)
		return
	}
	if errors.Is(err, storage.ErrBucketNotFound) {
		AbortWithError(c, http.StatusBadRequest, "BUCKET_NOT_FOUND", err.Error())
		return
	}
	if errors.Is(err, storage.ErrIncompleteSettings) {
		AbortWithError(c, http.StatusBadRequest, "INCOMPLETE_S3_SETTINGS", err.Error())
		return
	}

	logger.Error("Request failed", err, map[string]interface{}{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
		"code":   fallbackCode,
	})
	AbortWithError(c, http.StatusInternalServerError, fallbackCode, err.Error())
}
