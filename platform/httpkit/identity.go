package httpkit

import (
	"slices"

	"property_portal_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the acting user resolved by AuthRequired. Services stamp the
// user id onto history entries as the change actor.
type Identity interface {
	UserID() uuid.UUID
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	userID uuid.UUID
	roles  []string
}

func (i identity) UserID() uuid.UUID        { return i.userID }
func (i identity) Roles() []string          { return i.roles }
func (i identity) HasRole(role string) bool { return slices.Contains(i.roles, role) }
func (i identity) IsAuthenticated() bool    { return i.userID != uuid.Nil }

// GetIdentity reads the actor stored by SetIdentity. Without one it returns an
// unauthenticated identity.
func GetIdentity(c *gin.Context) Identity {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return identity{}
	}
	userID, _ := raw.(uuid.UUID)

	var roles []string
	if rawRoles, ok := c.Get(ContextRolesKey); ok {
		roles, _ = rawRoles.([]string)
	}
	return identity{userID: userID, roles: roles}
}

// MustGetIdentity returns the actor or aborts with 401 and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		Abort(c, apperr.Unauthorized("unauthorized"))
		return nil
	}
	return id
}

// SetIdentity stores an authenticated actor on the context. Used by
// AuthRequired and by handler tests.
func SetIdentity(c *gin.Context, userID uuid.UUID, roles []string) {
	c.Set(ContextUserIDKey, userID)
	c.Set(ContextRolesKey, roles)
}
