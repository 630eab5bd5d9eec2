package httpx

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/MoonRock000/E-commerce/internal/identity"
)

const identityKey = "identity"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("rid", rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rid, _ := c.Get("rid")
		log.WithFields(log.Fields{
			"rid":    rid,
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"dur":    time.Since(start).String(),
		}).Info("http request")
	}
}

// Identity reads the actor context injected by the gateway. Requests without
// a user id are rejected; the gateway is the only caller allowed through.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identity.Identity{
			UserID:  c.GetHeader("X-User-ID"),
			Role:    c.GetHeader("X-User-Role"),
			Address: c.GetHeader("X-User-Address"),
		}
		if id.UserID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}
		if id.Role == "" {
			id.Role = identity.RoleUser
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IdentityFrom(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admins only"})
			return
		}
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) identity.Identity {
	v, _ := c.Get(identityKey)
	id, _ := v.(identity.Identity)
	return id
}
