package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront-backend/internal/domain"
)

type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Error: message, Code: code})
}

// mapErrorToStatus picks the HTTP status and the caller-safe message for an
// error. Errors outside the domain taxonomy become a bare 500.
func mapErrorToStatus(err error) (int, string, string) {
	var appErr *domain.Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "", "internal server error"
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindUnauthorized:
		status = http.StatusUnauthorized
	case domain.KindForbidden:
		status = http.StatusForbidden
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindConflict:
		status = http.StatusConflict
		if appErr.Code == domain.CodeInsufficientStock || appErr.Code == domain.CodePaymentNotCompleted {
			status = http.StatusBadRequest
		}
	case domain.KindIntegrity:
		if appErr.Code == domain.CodeInvalidSignature {
			status = http.StatusBadRequest
		}
	}
	return status, appErr.Code, appErr.Message
}

// respondError logs err with its internal cause and writes the mapped
// response. Causes are never sent to the client.
func respondError(c *gin.Context, log *logrus.Logger, op string, err error) {
	status, code, message := mapErrorToStatus(err)
	entry := log.WithFields(logrus.Fields{"op": op, "status": status, "code": code})
	if status >= http.StatusInternalServerError {
		entry.Errorf("%s failed: %v", op, err)
	} else {
		entry.Warnf("%s rejected: %v", op, err)
	}
	ErrorResponse(c, status, code, message)
}

func bindError(c *gin.Context, log *logrus.Logger, op string, err error) {
	log.Warnf("%s: failed to bind JSON: %v", op, err)
	ErrorResponse(c, http.StatusBadRequest, domain.CodeInvalidInput, "invalid request body")
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
