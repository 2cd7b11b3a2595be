package middlewares

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/doctotals_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionMiddleware lifts the caller's identity headers into the request
// context. Authentication itself happens upstream at the gateway; this service
// only needs the tenant and user to scope queries.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if businessId := c.Request.Header.Get("X-Business-Id"); businessId != "" {
			ctx = utils.SetBusinessIdInContext(ctx, businessId)
		}
		if userIdHeader := c.Request.Header.Get("X-User-Id"); userIdHeader != "" {
			userId, err := strconv.Atoi(userIdHeader)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid X-User-Id header"})
				c.Abort()
				return
			}
			ctx = utils.SetUserIdInContext(ctx, userId)
		}
		if userName := c.Request.Header.Get("X-User-Name"); userName != "" {
			ctx = utils.SetUserNameInContext(ctx, userName)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CorrelationMiddleware assigns every request a correlation id (reusing the
// caller's when present) and echoes it back so log lines can be stitched to
// the originating request.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.Request.Header.Get("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}

		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set("X-Correlation-Id", correlationId)
		c.Next()
	}
}
