package middleware

import (
	"net/http"

	"obra-patrimonio/internal/service"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Cookie session keys.
const (
	KeyRole     = "role"
	KeySite     = "site"
	KeyViewSite = "view_site"

	RoleAdmin = "admin"
	RoleSite  = "site"
)

const currentSessionKey = "CurrentSession"

// SaveSession writes sess into the cookie session.
func SaveSession(c *gin.Context, sess service.Session) error {
	s := sessions.Default(c)
	s.Clear()
	if sess.Admin {
		s.Set(KeyRole, RoleAdmin)
		s.Set(KeyViewSite, sess.ViewSite)
	} else {
		s.Set(KeyRole, RoleSite)
		s.Set(KeySite, sess.Site)
	}
	return s.Save()
}

// SetViewSite changes the admin's site selector.
func SetViewSite(c *gin.Context, site string) error {
	s := sessions.Default(c)
	s.Set(KeyViewSite, site)
	return s.Save()
}

func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	return s.Save()
}

// InjectSession reads the login from the cookie and exposes it to handlers
// and templates through CurrentSession.
func InjectSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		role, _ := s.Get(KeyRole).(string)
		switch role {
		case RoleAdmin:
			view, _ := s.Get(KeyViewSite).(string)
			c.Set(currentSessionKey, service.Session{Admin: true, ViewSite: view})
		case RoleSite:
			if site, _ := s.Get(KeySite).(string); site != "" {
				c.Set(currentSessionKey, service.Session{Site: site})
			}
		}
		c.Next()
	}
}

// CurrentSession returns the session put on the context by InjectSession or
// RequireToken.
func CurrentSession(c *gin.Context) (service.Session, bool) {
	v, ok := c.Get(currentSessionKey)
	if !ok {
		return service.Session{}, false
	}
	sess, ok := v.(service.Session)
	return sess, ok
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentSession(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if !sess.Admin {
			c.String(http.StatusForbidden, "acesso negado")
			c.Abort()
			return
		}
		c.Next()
	}
}
