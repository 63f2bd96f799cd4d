package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/osworks/servicedesk-api/internal/models"
)

type resolverStub struct {
	caps models.CapabilitySet
}

func (s resolverStub) CapabilitiesFor(ctx context.Context, roleID string) (models.CapabilitySet, error) {
	return s.caps, nil
}

func permissionTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/os", nil)
	c.Request = req
	return c, w
}

func TestCapabilitiesRequiresClaims(t *testing.T) {
	c, w := permissionTestContext(t)

	Capabilities(resolverStub{})(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())
}

func TestCapabilitiesStoresResolvedSet(t *testing.T) {
	c, _ := permissionTestContext(t)
	c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1", RoleID: "r1"})
	caps := models.NewCapabilitySet(models.Permissions{models.ResourceOrders: {models.ActionRead}})

	Capabilities(resolverStub{caps: caps})(c)
	stored, exists := c.Get(ContextCapabilitiesKey)
	assert.True(t, exists)
	assert.True(t, stored.(models.CapabilitySet).Has(models.ResourceOrders, models.ActionRead))
}

func TestRequireDeniesMissingCapability(t *testing.T) {
	c, w := permissionTestContext(t)
	c.Set(ContextCapabilitiesKey, models.NewCapabilitySet(models.Permissions{
		models.ResourceOrders: {models.ActionRead},
	}))

	Require(models.ResourceOrders, models.ActionDelete)(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, c.IsAborted())
}

func TestRequireHonorsWildcard(t *testing.T) {
	c, w := permissionTestContext(t)
	c.Set(ContextCapabilitiesKey, models.NewCapabilitySet(models.Permissions{
		models.ResourceOrders: {models.ActionAll},
	}))

	Require(models.ResourceOrders, models.ActionDelete)(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, c.IsAborted())
}
