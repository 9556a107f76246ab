package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-portal-api/internal/models"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

// RequireRoles allows the request through only when the caller holds one of roles.
// It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		switch _, ok := allowed[roleOf(claims)]; {
		case claims == nil:
			abort(c, appErrors.ErrUnauthorized)
			return
		case !ok:
			abort(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" may not access this resource"))
			return
		}
		c.Next()
	}
}

func roleOf(claims *models.JWTClaims) models.UserRole {
	if claims == nil {
		return ""
	}
	return claims.Role
}
