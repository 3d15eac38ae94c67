package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ajyalhq/ajyal/pkg/tenantctx"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const tenantIDHeader = "X-Tenant-ID"

// TenantRequired resolves the tenant from the X-Tenant-ID header and stores
// it in the request context. DEFAULT_TENANT covers single-tenant
// deployments that do not send the header.
func (s *Server) TenantRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(tenantIDHeader))

		var tenantID snowflake.ID
		if raw != "" {
			parsed, err := snowflake.ParseString(raw)
			if err != nil {
				AbortWithError(c, ErrInvalidRequest)
				return
			}
			tenantID = parsed
		} else if s.cfg.DefaultTenantID != 0 {
			tenantID = snowflake.ParseInt64(s.cfg.DefaultTenantID)
		}

		if tenantID == 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		ctx := tenantctx.WithTenantID(c.Request.Context(), tenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// WriteRateLimit throttles mutating endpoints per tenant. Without redis the
// limiter is nil and every request passes.
func (s *Server) WriteRateLimit() gin.HandlerFunc {
	const (
		writeRate  = 20.0
		writeBurst = 40
	)

	return func(c *gin.Context) {
		if s.writeLimiter == nil {
			c.Next()
			return
		}

		tenantID, ok := tenantctx.TenantID(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:write:%s", tenantID)
		res, err := s.writeLimiter.Allow(c.Request.Context(), key, writeRate, writeBurst)
		if err != nil {
			// Limiter trouble never blocks traffic.
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", fmt.Sprintf("%.0f", res.RetryAfter.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errorPayload{
				Type:    "rate_limited",
				Message: "too many requests",
			}})
			return
		}
		c.Next()
	}
}
