package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sopdesk/apperr"
	"sopdesk/logger"
)

const genericErrorMessage = "An unexpected error occurred. Please try again later."

// SendJSONError sends a standardized JSON error response and logs the internal error.
// For 5xx errors, it sends a generic public message while logging the actual internalError.
// For 4xx errors, the publicMsg is shown to the client, and internalError (if provided) is logged.
func SendJSONError(c *gin.Context, log *logger.Logger, statusCode int, publicMsg string, internalError error) {
	path := c.Request.URL.Path
	if internalError != nil {
		log.Error("handler error", "status", statusCode, "message", publicMsg, "error", internalError, "path", path)
	} else {
		log.Info("handler response", "status", statusCode, "message", publicMsg, "path", path)
	}

	if statusCode >= http.StatusInternalServerError {
		if publicMsg == "" || (internalError != nil && publicMsg == internalError.Error()) {
			publicMsg = genericErrorMessage
		}
	}
	c.AbortWithStatusJSON(statusCode, gin.H{"error": publicMsg})
}

// SendAppError answers with the status and message carried by an
// *apperr.Error. Any other error becomes a 500 with a generic message.
func SendAppError(c *gin.Context, log *logger.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		SendJSONError(c, log, status, genericErrorMessage, err)
		return
	}
	log.Warn("request rejected", "status", status, "kind", apperr.KindOf(err), "message", apperr.Message(err), "path", c.Request.URL.Path)
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err)})
}

// SendSuccess writes the standard {code, message, data} envelope.
func SendSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, gin.H{
		"code":    statusCode,
		"message": message,
		"data":    data,
	})
}
