package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/codearena/codearena-backend/pkg/errors"
)

const usernameKey = "username"

// Middleware rejects requests without a valid token when m is enabled.
// Browsers cannot set headers on websocket upgrades, so a "token" query
// parameter is accepted too.
func Middleware(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.Enabled() {
			c.Next()
			return
		}
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		claims, err := m.Verify(token)
		if err != nil {
			errors.JSONError(c, err)
			return
		}
		c.Set(usernameKey, claims.Username)
		c.Next()
	}
}

// Username returns the authenticated username, or "" when auth is off.
func Username(c *gin.Context) string {
	return c.GetString(usernameKey)
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
