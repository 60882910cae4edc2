package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-auth-service/pkg/apperror"
	"github.com/oksasatya/go-auth-service/pkg/helpers"
	"github.com/oksasatya/go-auth-service/pkg/response"
	"github.com/oksasatya/go-auth-service/pkg/validation"
)

// respondError writes the error envelope for err. Server-side failures are
// logged with the request id; their cause is not exposed.
func respondError(c *gin.Context, logger logrus.FieldLogger, err error) {
	if ae, ok := apperror.As(err); ok {
		if ae.Status >= http.StatusInternalServerError {
			logFailure(c, logger, err)
		}
		response.Error(c, ae.Status, ae.Message, ae.AdditionalInfo)
		return
	}
	switch {
	case errors.Is(err, helpers.ErrTokenExpired):
		response.Error(c, http.StatusUnauthorized, "token expired", nil)
	case errors.Is(err, helpers.ErrTokenInvalid):
		response.Error(c, http.StatusForbidden, "invalid token", nil)
	default:
		logFailure(c, logger, err)
		response.Error(c, http.StatusInternalServerError, "internal server error", nil)
	}
}

func respondBindError(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

func logFailure(c *gin.Context, logger logrus.FieldLogger, err error) {
	if logger == nil {
		return
	}
	helpers.LogError(logger, "request failed", err, logrus.Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.FullPath(),
	})
}
