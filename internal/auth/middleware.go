package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rollcall/internal/apperr"
)

// ClaimsKey is the gin context key holding the caller's Claims.
const ClaimsKey = "claims"

// AdminAuth enforces bearer access tokens with the admin role.
func AdminAuth(iss *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			abort(c, "missing bearer token")
			return
		}
		claims, err := iss.Parse(strings.TrimSpace(authz[len("bearer "):]), UseAccess)
		if err != nil {
			abort(c, "invalid token")
			return
		}
		if claims.Role != RoleAdmin {
			abort(c, "admin role required")
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func abort(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "kind": apperr.KindUnauthorized})
}

// FromContext returns the claims set by AdminAuth.
func FromContext(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}
