// Package handlers implements the HTTP endpoints of the Plinth API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plinth-cms/plinth/internal/apierr"
	"github.com/rs/zerolog"
)

// respond writes a successful envelope.
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, apierr.OK(data))
}

// respondError maps err to a structured error response. Server errors are
// logged; client errors are not.
func respondError(c *gin.Context, logger zerolog.Logger, err error, msg string) {
	status, body := apierr.FromError(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	}
	c.AbortWithStatusJSON(status, body)
}

// uuidParam parses a UUID path parameter, writing a 400 response when it is malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apierr.Fail(apierr.CodeValidation, "invalid "+name, []apierr.FieldError{{
			Field:   name,
			Message: "must be a valid UUID",
		}}))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body into dst, writing a 400 response on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, apierr.Fail(apierr.CodeValidation, "invalid request body", err.Error()))
		return false
	}
	return true
}
