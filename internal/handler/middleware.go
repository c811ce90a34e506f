package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/quillpost/internal/db"
	"github.com/quillpost/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	actorContextKey  = "__actor"
	sessionUserIDKey = "user_id"
	bearerPrefix     = "Bearer "
)

// RequestLogger writes one zerolog line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		event := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("http request")
	}
}

// AuthRequired resolves the caller from a bearer token or the session cookie and
// rejects anonymous and deactivated users.
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := a.resolveUser(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		if !user.Active {
			respondError(c, http.StatusForbidden, service.ErrInactiveUser.Error())
			c.Abort()
			return
		}

		c.Set(actorContextKey, service.ActorFromUser(*user))
		c.Next()
	}
}

// OptionalAuth attaches the caller when credentials are present and valid.
func (a *API) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := a.resolveUser(c); ok && user.Active {
			c.Set(actorContextKey, service.ActorFromUser(*user))
		}
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok || !actor.IsAdmin() {
			respondError(c, http.StatusForbidden, service.ErrAdminOnly.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *API) resolveUser(c *gin.Context) (*db.User, bool) {
	var userID uint

	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerPrefix) && a.tokens != nil {
		claims, err := a.tokens.ValidateToken(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			return nil, false
		}
		userID = claims.UserID
	} else {
		userID = sessionUserID(c)
	}

	if userID == 0 {
		return nil, false
	}

	user, err := a.users.Get(c.Request.Context(), userID)
	if err != nil {
		return nil, false
	}
	return user, true
}

func sessionUserID(c *gin.Context) uint {
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return 0
	}
	switch v := sessions.Default(c).Get(sessionUserIDKey).(type) {
	case uint:
		return v
	case int:
		return uint(v)
	case int64:
		return uint(v)
	case float64:
		return uint(v)
	default:
		return 0
	}
}

func currentActor(c *gin.Context) (service.Actor, bool) {
	value, exists := c.Get(actorContextKey)
	if !exists {
		return service.Actor{}, false
	}
	actor, ok := value.(service.Actor)
	return actor, ok
}

// viewer returns the caller when one is attached, nil for anonymous requests.
func viewer(c *gin.Context) *service.Actor {
	actor, ok := currentActor(c)
	if !ok {
		return nil
	}
	return &actor
}
