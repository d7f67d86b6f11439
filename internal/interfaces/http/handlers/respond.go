// Package handlers implements the HTTP request handlers for the learning
// API: correction submission, profile versioning, and health probes.
package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/pkg/errors"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError translates an error into its HTTP status and JSON body.
// AppErrors map through their code table; anything else is an opaque 500.
func respondError(c *gin.Context, logger logging.Logger, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		status := appErr.Code.HTTPStatus()
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				logging.String("path", c.FullPath()),
				logging.Err(err))
		}
		c.JSON(status, ErrorResponse{
			Code:    appErr.Code.String(),
			Message: appErr.Message,
			Detail:  appErr.Detail,
		})
		return
	}

	logger.Error("request failed",
		logging.String("path", c.FullPath()),
		logging.Err(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    errors.ErrCodeInternal.String(),
		Message: "internal error",
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    errors.ErrCodeValidation.String(),
		Message: message,
	})
}
