package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quonpass/quonpass-backend/pkg/logger"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// RespondWithError writes an error body with an explicit status and code.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: message,
		Code:  errorCode,
	})
}

// Respond maps err onto the response. Unexpected errors are logged and
// replaced with a generic message.
func Respond(c *gin.Context, err error, resource string) {
	appErr := ParseError(err, resource)

	log := requestLogger(c)
	fields := map[string]interface{}{
		"code":   appErr.Code,
		"kind":   appErr.Kind.String(),
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}
	if appErr.Kind == KindUnexpected {
		log.Error("Request failed with unexpected error", err, fields)
	} else {
		fields["error"] = err.Error()
		log.Warn("Request rejected", fields)
	}

	c.JSON(appErr.Status(), ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Code,
	})
}

func requestLogger(c *gin.Context) *logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return logger.Get()
}

func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func RespondForbidden(c *gin.Context, message string) {
	if message == "" {
		message = "permission denied"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFoundResponse(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "unexpected server error, please retry later"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// RespondWithValidationError reports binding failures field by field.
func RespondWithValidationError(c *gin.Context, message string, fields map[string]string) {
	if message == "" {
		message = "invalid request body"
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Code:    ValidationInvalidInput,
		Details: fields,
	})
}
