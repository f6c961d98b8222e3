package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rentflow-api/internal/middleware"
	"github.com/noah-isme/rentflow-api/internal/models"
	appErrors "github.com/noah-isme/rentflow-api/pkg/errors"
	"github.com/noah-isme/rentflow-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// actorFromContext returns an empty actor when no token was verified; the
// engine rejects it as unauthenticated.
func actorFromContext(c *gin.Context) models.Actor {
	return claimsFromContext(c).Actor()
}

// bindJSON decodes the body into dest, responding with VALIDATION_ERROR on failure.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body, including a chunked one of unknown length.
func bindOptionalJSON(c *gin.Context, dest interface{}, message string) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}
