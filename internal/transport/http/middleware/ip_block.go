package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-commerce/internal/core/port"
	applogger "github.com/arklim/social-platform-commerce/internal/infra/logger"
)

// IPBlock rejects requests from temporarily blocked client addresses.
// Store errors fail open so an unavailable Redis cannot take down login.
func IPBlock(store port.IPBlockStore, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		blocked, err := store.IsBlocked(c.Request.Context(), ip)
		if err != nil {
			logger.Warn("ip block lookup failed",
				zap.String("ip", applogger.MaskIP(ip)),
				zap.Error(err))
			c.Next()
			return
		}

		if blocked {
			c.AbortWithStatusJSON(http.StatusForbidden,
				newErrorResponse(c, "requests from this address are temporarily blocked"))
			return
		}

		c.Next()
	}
}
