package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/osworks/servicedesk-api/internal/models"
	appErrors "github.com/osworks/servicedesk-api/pkg/errors"
	"github.com/osworks/servicedesk-api/pkg/response"
)

// ContextCapabilitiesKey is the gin context key storing the resolved
// capability set for the authenticated user.
const ContextCapabilitiesKey = "capabilities"

// CapabilityResolver derives a capability set from a role id.
type CapabilityResolver interface {
	CapabilitiesFor(ctx context.Context, roleID string) (models.CapabilitySet, error)
}

// Capabilities resolves the authenticated user's capability set from
// their role and stores it on the context. Must run after JWT.
func Capabilities(roles CapabilityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		caps, err := roles.CapabilitiesFor(c.Request.Context(), claims.RoleID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextCapabilitiesKey, caps)
		c.Next()
	}
}

// Require gates a route on one capability. An actor whose role grants
// the "all" action on the resource passes any action check.
func Require(resource models.Resource, action models.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		capsValue, exists := c.Get(ContextCapabilitiesKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		caps := capsValue.(models.CapabilitySet)

		if !caps.Has(resource, action) {
			response.Error(c, appErrors.ErrPermissionDenied)
			c.Abort()
			return
		}
		c.Next()
	}
}
