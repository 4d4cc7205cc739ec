package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/services"
	"taskflow/internal/transport"
)

// Context keys set by the auth middlewares.
const (
	CtxUserID = "user_id"
	CtxUser   = "user"
)

// publicPaths do not need a token.
var publicPaths = map[string]bool{
	"/auth/login":    true,
	"/auth/register": true,
	"/health":        true,
	"/metrics":       true,
}

// Unauthorized aborts with 401 and a {"detail"} body.
func Unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}

// AuthMiddleware validates the bearer token and stores the user id in the
// context.
func AuthMiddleware(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		token := transport.BearerToken(c.Request)
		if token == "" {
			Unauthorized(c, "Not authenticated")
			return
		}
		claims, err := auth.ParseToken(token)
		if err != nil {
			Unauthorized(c, "Could not validate credentials")
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Next()
	}
}
