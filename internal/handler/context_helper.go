package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-transcript-api/internal/middleware"
	"github.com/noah-isme/sma-transcript-api/internal/models"
	appErrors "github.com/noah-isme/sma-transcript-api/pkg/errors"
	"github.com/noah-isme/sma-transcript-api/pkg/response"
)

// initiator returns the authenticated caller recorded as calculated_by. It
// writes a 401 and reports false when the request carries no usable claims.
func initiator(c *gin.Context) (*models.JWTClaims, bool) {
	if value, ok := c.Get(middleware.ContextUserKey); ok {
		if claims, ok := value.(*models.JWTClaims); ok && claims.UserID != "" {
			return claims, true
		}
	}
	response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authenticated user required"))
	return nil, false
}
