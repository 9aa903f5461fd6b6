package handlers

import (
	"net/http"

	"obra-patrimonio/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) IndexPage(c *gin.Context) {
	if _, ok := middleware.CurrentSession(c); ok {
		c.Redirect(http.StatusFound, "/assets")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
