package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pos-service/internal/auth"
	"pos-service/internal/models"
	"pos-service/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	roleHeader       = "X-User-Role"
	adminTokenHeader = "X-Admin-Token"
	roleContextKey   = "role"
)

// roleMiddleware validates the caller's role header. A missing header
// falls back to admin, matching the original single-shop default.
func roleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(roleHeader)
		if raw == "" {
			raw = string(models.RoleAdmin)
		}

		role, err := models.ParseRole(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.Set(roleContextKey, role)
		c.Next()
	}
}

// requireRoles rejects callers whose role is not in the allowed set.
func requireRoles(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.MustGet(roleContextKey).(models.Role)
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden for role " + string(role)})
	}
}

// requireAdminGate rejects admin mutations without a live admin session.
func requireAdminGate(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !gate.Check(c.GetHeader(adminTokenHeader)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin authentication required"})
			return
		}
		c.Next()
	}
}

// respondError maps domain errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var (
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
		stockErr      *models.InsufficientStockError
		protectedErr  *models.DefaultEntityProtectedError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &stockErr):
		status = http.StatusConflict
	case errors.As(err, &protectedErr):
		status = http.StatusConflict
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
