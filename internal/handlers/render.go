package handlers

import (
	"obra-patrimonio/internal/middleware"
	"obra-patrimonio/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the HTML screens and the JSON API on top of the registry.
type Handler struct {
	reg    *service.Registry
	tokens *middleware.Tokens
	log    *zap.Logger
}

func New(reg *service.Registry, tokens *middleware.Tokens, log *zap.Logger) *Handler {
	return &Handler{reg: reg, tokens: tokens, log: log}
}

// render wraps c.HTML and passes the current session to every template,
// plus the site list for the admin selector.
func (h *Handler) render(c *gin.Context, status int, tmpl string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	if sess, ok := middleware.CurrentSession(c); ok {
		data["Session"] = sess
		data["IsAdmin"] = sess.Admin
		if sess.Admin {
			sites, err := h.reg.SiteNames(c.Request.Context())
			if err != nil {
				h.log.Warn("load site selector", zap.Error(err))
			}
			data["AllSites"] = sites
		}
	}

	c.HTML(status, tmpl, data)
}

func (h *Handler) session(c *gin.Context) service.Session {
	sess, _ := middleware.CurrentSession(c)
	return sess
}
