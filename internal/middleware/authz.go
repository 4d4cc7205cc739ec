package middleware

import (
	"github.com/gin-gonic/gin"

	"taskflow/internal/models"
	"taskflow/internal/services"
)

// RequireActiveUser loads the token's user and rejects unknown or inactive
// accounts. It must run after AuthMiddleware.
func RequireActiveUser(users services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := c.Get(CtxUserID)
		if !ok {
			c.Next()
			return
		}
		userID, _ := id.(int64)
		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil || !user.IsActive {
			Unauthorized(c, "Could not validate credentials")
			return
		}
		c.Set(CtxUser, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireActiveUser.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
