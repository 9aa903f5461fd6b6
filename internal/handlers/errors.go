package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"obra-patrimonio/internal/registry"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var fieldLabels = map[string]string{
	"site":           "obra",
	"name":           "nome",
	"invoice_number": "nº da nota fiscal",
	"location":       "local",
	"custodian":      "responsável",
	"value":          "valor",
	"status":         "status",
	"type":           "tipo de movimentação",
	"invoice_file":   "arquivo da nota (PDF)",
	"photo_file":     "foto (imagem)",
	"equipment":      "equipamento",
	"quantity":       "quantidade",
	"unit_value":     "valor unitário",
	"start_date":     "data de início",
	"end_date":       "data de término",
	"id":             "identificador",
}

// describe maps an error to the HTTP status and the message shown to users.
func describe(err error) (int, string) {
	var dup *registry.DuplicateTagError
	var ve *registry.ValidationError
	var ue *registry.UploadError

	switch {
	case errors.As(err, &dup):
		return http.StatusBadRequest, fmt.Sprintf("O patrimônio %s já existe na obra %s.", dup.Tag, dup.Site)
	case errors.As(err, &ve):
		labels := make([]string, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			if l, ok := fieldLabels[f]; ok {
				f = l
			}
			labels = append(labels, f)
		}
		return http.StatusBadRequest, "Preencha corretamente: " + strings.Join(labels, ", ") + "."
	case errors.Is(err, registry.ErrUnconfirmed):
		return http.StatusBadRequest, "Confirme a exclusão marcando a caixa de confirmação."
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound, "Registro não encontrado."
	case errors.Is(err, registry.ErrForbidden):
		return http.StatusForbidden, "Acesso negado."
	case errors.Is(err, registry.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Credenciais inválidas."
	case errors.As(err, &ue):
		return http.StatusBadGateway, "Falha ao enviar o arquivo. Tente novamente."
	default:
		return http.StatusInternalServerError, "Erro ao acessar o banco de dados. Tente novamente."
	}
}

func (h *Handler) logFailure(c *gin.Context, status int, err error) {
	if status < http.StatusInternalServerError {
		return
	}
	_ = c.Error(err)
	h.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
}

// fail renders a plain error page for failures outside a form.
func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := describe(err)
	h.logFailure(c, status, err)
	h.render(c, status, "error.html", gin.H{"error": msg})
}

func (h *Handler) failJSON(c *gin.Context, err error) {
	status, msg := describe(err)
	h.logFailure(c, status, err)
	c.JSON(status, gin.H{"error": msg})
}
