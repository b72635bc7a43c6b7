package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/gin-gonic/gin"
)

const msgInternal = "Internal server error"

type errorBody struct {
	Message string `json:"message"`
}

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondMessage(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: msg})
}

// statusFor maps an error kind onto an HTTP status. Anything unclassified
// is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts the request with the standard error body. Internal
// errors are logged in full and reach the client only as a generic text.
func writeError(c *gin.Context, logger logging.Logger, err error) {
	status := statusFor(err)
	msg := common.Message(err)

	if status == http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		msg = msgInternal
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	c.AbortWithStatusJSON(status, envelope{Success: false, Error: &errorBody{Message: msg}})
}
