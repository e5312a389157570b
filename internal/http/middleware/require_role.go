package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAuth: 401 JSON si aucune session valide.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":      "Authentification requise.",
			"request_id": GetRequestID(c),
		})
	}
}

// RequireRole: l'utilisateur connecte doit avoir un des roles donnes.
// "admin" passe toujours.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles)+1)
	allowed["admin"] = struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "Authentification requise.",
				"request_id": GetRequestID(c),
			})
			return
		}

		if _, ok := allowed[u.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "Acces refuse (role insuffisant).",
				"request_id": GetRequestID(c),
			})
			return
		}

		c.Next()
	}
}
