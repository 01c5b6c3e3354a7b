package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/specreg-bridge/pkg/errors"
	"github.com/noah-isme/specreg-bridge/pkg/response"
)

// RequireEnabled rejects requests with FEATURE_DISABLED when the guarded
// integration is switched off.
func RequireEnabled(enabled bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			response.Error(c, appErrors.Clone(appErrors.ErrDisabled, message))
			c.Abort()
			return
		}
		c.Next()
	}
}
