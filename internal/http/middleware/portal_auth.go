package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ctxKeyPlanteur = "planteur_id"

// PortalAuth: bearer JWT pour le portail planteur.
// Le claim "sub" porte l'id du planteur.
func PortalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "Authentification requise.",
				"request_id": GetRequestID(c),
			})
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "Session expiree ou invalide.",
				"request_id": GetRequestID(c),
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "Session expiree ou invalide.",
				"request_id": GetRequestID(c),
			})
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "Session expiree ou invalide.",
				"request_id": GetRequestID(c),
			})
			return
		}

		c.Set(ctxKeyPlanteur, sub)
		c.Next()
	}
}

// CurrentPlanteurID returns the planteur id set by PortalAuth.
func CurrentPlanteurID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyPlanteur); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
