package handlers

import (
	"net/http"
	"strings"

	"obra-patrimonio/internal/middleware"
	"obra-patrimonio/internal/registry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) ShowLogin(c *gin.Context) {
	if _, ok := middleware.CurrentSession(c); ok {
		c.Redirect(http.StatusFound, "/assets")
		return
	}
	h.renderLogin(c, http.StatusOK, "")
}

func (h *Handler) renderLogin(c *gin.Context, status int, msg string) {
	sites, err := h.reg.SiteNames(c.Request.Context())
	if err != nil {
		h.log.Error("load sites for login", zap.Error(err))
		msg = "Erro ao carregar as obras. Tente novamente."
		status = http.StatusInternalServerError
	}
	h.render(c, status, "login.html", gin.H{"sites": sites, "error": msg})
}

type siteLoginForm struct {
	Site string `form:"site"`
	Code string `form:"code"`
}

func (h *Handler) LoginSite(c *gin.Context) {
	var form siteLoginForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderLogin(c, http.StatusBadRequest, "Dados inválidos.")
		return
	}

	sess, err := h.reg.Authenticate(c.Request.Context(), strings.TrimSpace(form.Site), form.Code)
	if err != nil {
		status, msg := describe(err)
		h.logFailure(c, status, err)
		if status == http.StatusUnauthorized {
			msg = "Código de acesso incorreto."
		}
		h.renderLogin(c, status, msg)
		return
	}

	if err := middleware.SaveSession(c, sess); err != nil {
		h.log.Error("save session", zap.Error(err))
	}
	h.log.Info("site login", zap.String("site", sess.Site))
	c.Redirect(http.StatusFound, "/assets")
}

type adminLoginForm struct {
	Password string `form:"password"`
}

func (h *Handler) LoginAdmin(c *gin.Context) {
	var form adminLoginForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderLogin(c, http.StatusBadRequest, "Dados inválidos.")
		return
	}

	sess, err := h.reg.AuthenticateAdmin(form.Password)
	if err != nil {
		h.log.Warn("admin login rejected", zap.String("client_ip", c.ClientIP()))
		h.renderLogin(c, http.StatusUnauthorized, "Senha de administrador incorreta.")
		return
	}

	if err := middleware.SaveSession(c, sess); err != nil {
		h.log.Error("save session", zap.Error(err))
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) Logout(c *gin.Context) {
	_ = middleware.ClearSession(c)
	c.Redirect(http.StatusFound, "/login")
}

// SetViewSite handles the admin site selector.
func (h *Handler) SetViewSite(c *gin.Context) {
	site := strings.TrimSpace(c.PostForm("site"))
	if registry.IsAll(site) {
		site = registry.AllSentinel
	}
	if err := middleware.SetViewSite(c, site); err != nil {
		h.log.Error("save session", zap.Error(err))
	}

	back := c.PostForm("next")
	if !strings.HasPrefix(back, "/") || strings.HasPrefix(back, "//") {
		back = "/assets"
	}
	c.Redirect(http.StatusFound, back)
}
