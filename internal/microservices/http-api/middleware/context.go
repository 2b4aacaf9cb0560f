package middleware

import (
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// SetUser stores the authenticated account on the request context
func SetUser(c *gin.Context, u *models.User) {
	c.Set(userKey, u)
}

// CurrentUser returns the authenticated account, or nil for anonymous requests
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func CallerFrom(c *gin.Context) permission.Caller {
	return permission.Caller{User: CurrentUser(c)}
}
