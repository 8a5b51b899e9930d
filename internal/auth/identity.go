package auth

import (
	"github.com/gin-gonic/gin"

	"ecocritique/internal/user"
)

// Identity is the authenticated caller, carried request-scoped through the
// gin context instead of ambient globals.
type Identity struct {
	UserID   uint
	Username string
	Role     user.Role
}

// IsProfessor reports whether the caller may manage course content.
func (id Identity) IsProfessor() bool {
	return id.Role == user.RoleProfessor
}

const identityKey = "authIdentity"

// SetIdentity attaches the caller's identity to the request context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// FromContext returns the identity the middleware attached, if any.
func FromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
