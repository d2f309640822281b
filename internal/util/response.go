package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/backend/internal/errors"
	"github.com/snapgram/backend/internal/logger"
	"go.uber.org/zap"
)

// Fail sends the {success:false, message} envelope every Snapgram endpoint
// uses for failures.
func Fail(c *gin.Context, status int, message string) {
	if status >= http.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.Int("status", status),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	} else {
		logger.Log.Warn("request rejected",
			zap.Int("status", status),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}

// OK sends a {success:true, ...} envelope with the given extra fields.
func OK(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

// RespondWithAPIError sends a structured API error response. Used by
// middleware that sits outside the success/message envelope.
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.Int("status", apiErr.Status),
		)
	}
	c.JSON(apiErr.Status, gin.H{
		"code":    string(apiErr.Code),
		"message": apiErr.Message,
	})
}
