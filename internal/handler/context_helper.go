package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/osworks/servicedesk-api/internal/middleware"
	"github.com/osworks/servicedesk-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func capabilitiesFromContext(c *gin.Context) models.CapabilitySet {
	value, exists := c.Get(middleware.ContextCapabilitiesKey)
	if !exists {
		return models.CapabilitySet{}
	}
	caps, ok := value.(models.CapabilitySet)
	if !ok {
		return models.CapabilitySet{}
	}
	return caps
}
