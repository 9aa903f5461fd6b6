package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"obra-patrimonio/internal/models"
	"obra-patrimonio/internal/registry"
	"obra-patrimonio/internal/report"
	"obra-patrimonio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func assetFilter(c *gin.Context) registry.AssetFilter {
	return registry.AssetFilter{
		Query:  c.Query("q"),
		Status: c.Query("status"),
		Site:   c.Query("site"),
	}
}

// LIST

func (h *Handler) ListAssets(c *gin.Context) {
	ctx := c.Request.Context()
	f := assetFilter(c)

	assets, err := h.reg.ListAssets(ctx, h.session(c), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	statuses, err := h.reg.Statuses(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	total := decimal.Zero
	for _, a := range assets {
		total = total.Add(a.Value)
	}
	view := c.Query("view")
	if view != "cards" {
		view = "table"
	}

	h.render(c, http.StatusOK, "assets_list.html", gin.H{
		"assets":   assets,
		"statuses": statuses,
		"filter":   f,
		"view":     view,
		"total":    total,
		"xlsxURL":  exportURL("/assets/export.xlsx", c),
		"pdfURL":   exportURL("/assets/export.pdf", c),
		"notice":   c.Query("notice"),
	})
}

// CREATE

func (h *Handler) ShowNewAsset(c *gin.Context) {
	h.renderAssetForm(c, http.StatusOK, nil, assetForm{Site: h.session(c).Scope()}, "")
}

func (h *Handler) CreateAsset(c *gin.Context) {
	var form assetForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderAssetForm(c, http.StatusBadRequest, nil, form, "Dados inválidos.")
		return
	}

	a, err := h.submitAsset(c, form, func(in service.AssetInput, files service.Attachments) (*models.Asset, error) {
		return h.reg.RegisterAsset(c.Request.Context(), h.session(c), in, files)
	})
	if err != nil {
		status, msg := describe(err)
		h.logFailure(c, status, err)
		h.renderAssetForm(c, status, nil, form, msg)
		return
	}

	c.Redirect(http.StatusFound, "/assets?notice="+url.QueryEscape(fmt.Sprintf("Patrimônio %s cadastrado na obra %s.", a.Tag, a.Site)))
}

func (h *Handler) submitAsset(c *gin.Context, form assetForm, do func(service.AssetInput, service.Attachments) (*models.Asset, error)) (*models.Asset, error) {
	in, err := form.input()
	if err != nil {
		return nil, err
	}
	files, err := readAttachments(c)
	if err != nil {
		return nil, err
	}
	return do(in, files)
}

func (h *Handler) renderAssetForm(c *gin.Context, status int, asset *models.Asset, form assetForm, msg string) {
	statuses, err := h.reg.Statuses(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, status, "assets_form.html", gin.H{
		"asset":    asset,
		"form":     form,
		"statuses": statuses,
		"error":    msg,
	})
}

// EDIT

func (h *Handler) ShowEditAsset(c *gin.Context) {
	a, ok := h.loadAsset(c)
	if !ok {
		return
	}
	h.renderAssetForm(c, http.StatusOK, a, assetFormFrom(*a), "")
}

func (h *Handler) UpdateAsset(c *gin.Context) {
	a, ok := h.loadAsset(c)
	if !ok {
		return
	}

	var form assetForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderAssetForm(c, http.StatusBadRequest, a, form, "Dados inválidos.")
		return
	}

	updated, err := h.submitAsset(c, form, func(in service.AssetInput, files service.Attachments) (*models.Asset, error) {
		return h.reg.UpdateAsset(c.Request.Context(), h.session(c), a.ID, in, files)
	})
	if err != nil {
		status, msg := describe(err)
		h.logFailure(c, status, err)
		h.renderAssetForm(c, status, a, form, msg)
		return
	}

	c.Redirect(http.StatusFound, "/assets?notice="+url.QueryEscape(fmt.Sprintf("Patrimônio %s atualizado.", updated.Tag)))
}

func (h *Handler) loadAsset(c *gin.Context) (*models.Asset, bool) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	a, err := h.reg.GetAsset(c.Request.Context(), h.session(c), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return a, true
}

// DELETE

func (h *Handler) DeleteAsset(c *gin.Context) {
	a, ok := h.loadAsset(c)
	if !ok {
		return
	}
	if err := h.reg.DeleteAsset(c.Request.Context(), h.session(c), a.ID, confirmed(c)); err != nil {
		status, msg := describe(err)
		h.logFailure(c, status, err)
		h.renderAssetForm(c, status, a, assetFormFrom(*a), msg)
		return
	}
	c.Redirect(http.StatusFound, "/assets?notice="+url.QueryEscape(fmt.Sprintf("Patrimônio %s excluído.", a.Tag)))
}

// MOVEMENTS

func (h *Handler) ShowMovements(c *gin.Context) {
	a, ok := h.loadAsset(c)
	if !ok {
		return
	}
	h.renderMovements(c, http.StatusOK, a, "", c.Query("notice"))
}

func (h *Handler) CreateMovement(c *gin.Context) {
	a, ok := h.loadAsset(c)
	if !ok {
		return
	}

	in := service.MovementInput{
		Type:      models.MovementType(strings.ToUpper(strings.TrimSpace(c.PostForm("type")))),
		Custodian: c.PostForm("custodian"),
		Notes:     c.PostForm("notes"),
	}
	if _, err := h.reg.RegisterMovement(c.Request.Context(), h.session(c), a.ID, in); err != nil {
		status, msg := describe(err)
		h.logFailure(c, status, err)
		h.renderMovements(c, status, a, msg, "")
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/assets/%d/movements?notice=%s", a.ID, url.QueryEscape("Movimentação registrada.")))
}

func (h *Handler) renderMovements(c *gin.Context, status int, a *models.Asset, msg, notice string) {
	history, err := h.reg.AssetHistory(c.Request.Context(), h.session(c), a.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, status, "asset_movements.html", gin.H{
		"asset":   a,
		"history": history,
		"error":   msg,
		"notice":  notice,
	})
}

// DOCUMENTS

func (h *Handler) AssetSheet(c *gin.Context) {
	a, ok := h.loadAsset(c)
	if !ok {
		return
	}
	data, err := report.AssetSheet(*a)
	if err != nil {
		h.fail(c, err)
		return
	}
	sendFile(c, fmt.Sprintf("patrimonio_%s_%s.pdf", slugify(a.Site), slugify(a.Tag)), "application/pdf", data)
}

func (h *Handler) ExportAssetsXLSX(c *gin.Context) {
	assets, err := h.reg.ListAssets(c.Request.Context(), h.session(c), assetFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := report.Spreadsheet("Patrimônio", report.AssetColumns, report.AssetRows(assets))
	if err != nil {
		h.fail(c, err)
		return
	}
	sendFile(c, exportName("patrimonio", h.session(c), "xlsx"),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) ExportAssetsPDF(c *gin.Context) {
	sess := h.session(c)
	assets, err := h.reg.ListAssets(c.Request.Context(), sess, assetFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := report.PDF(reportTitle("Relatório de Patrimônio", sess), report.AssetColumns, report.AssetRows(assets))
	if err != nil {
		h.fail(c, err)
		return
	}
	sendFile(c, exportName("patrimonio", sess, "pdf"), "application/pdf", data)
}

// exportURL keeps the current filters on an export link.
func exportURL(path string, c *gin.Context) template.URL {
	if q := c.Request.URL.RawQuery; q != "" {
		return template.URL(path + "?" + q)
	}
	return template.URL(path)
}

func sendFile(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, contentType, data)
}

func exportName(prefix string, sess service.Session, ext string) string {
	scope := sess.Scope()
	if scope == "" {
		scope = "todas"
	}
	return fmt.Sprintf("%s_%s_%s.%s", prefix, slugify(scope), time.Now().Format("20060102"), ext)
}

func reportTitle(title string, sess service.Session) string {
	if scope := sess.Scope(); scope != "" {
		return title + " - " + scope
	}
	return title + " - Todas as obras"
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "obra"
	}
	return b.String()
}
