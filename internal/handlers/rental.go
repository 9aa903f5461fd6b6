package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"obra-patrimonio/internal/models"
	"obra-patrimonio/internal/registry"
	"obra-patrimonio/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func rentalFilter(c *gin.Context) registry.RentalFilter {
	return registry.RentalFilter{
		Query:  c.Query("q"),
		Status: c.Query("status"),
		Site:   c.Query("site"),
	}
}

func (h *Handler) ListRentals(c *gin.Context) {
	f := rentalFilter(c)
	rentals, err := h.reg.ListRentals(c.Request.Context(), h.session(c), f)
	if err != nil {
		h.fail(c, err)
		return
	}

	total := decimal.Zero
	for _, r := range rentals {
		if r.Status == models.RentalActive {
			total = total.Add(r.Total)
		}
	}

	h.render(c, http.StatusOK, "rentals_list.html", gin.H{
		"rentals":     rentals,
		"statuses":    models.RentalStatuses,
		"filter":      f,
		"activeTotal": total,
		"xlsxURL":     exportURL("/rentals/export.xlsx", c),
		"pdfURL":      exportURL("/rentals/export.pdf", c),
		"notice":      c.Query("notice"),
	})
}

func (h *Handler) renderRentalForm(c *gin.Context, status int, rental *models.Rental, form rentalForm, msg string) {
	h.render(c, status, "rentals_form.html", gin.H{
		"rental":   rental,
		"form":     form,
		"statuses": models.RentalStatuses,
		"error":    msg,
	})
}

func (h *Handler) ShowNewRental(c *gin.Context) {
	h.renderRentalForm(c, http.StatusOK, nil, rentalForm{
		Site:     h.session(c).Scope(),
		Quantity: "1",
		Status:   string(models.RentalActive),
	}, "")
}

func (h *Handler) CreateRental(c *gin.Context) {
	var form rentalForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderRentalForm(c, http.StatusBadRequest, nil, form, "Dados inválidos.")
		return
	}

	in, err := form.input()
	if err == nil {
		_, err = h.reg.RegisterRental(c.Request.Context(), h.session(c), in)
	}
	if err != nil {
		status, msg := describe(err)
		h.logFailure(c, status, err)
		h.renderRentalForm(c, status, nil, form, msg)
		return
	}

	c.Redirect(http.StatusFound, "/rentals?notice="+url.QueryEscape("Locação cadastrada."))
}

func (h *Handler) loadRental(c *gin.Context) (*models.Rental, bool) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	r, err := h.reg.GetRental(c.Request.Context(), h.session(c), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return r, true
}

func (h *Handler) ShowEditRental(c *gin.Context) {
	r, ok := h.loadRental(c)
	if !ok {
		return
	}
	h.renderRentalForm(c, http.StatusOK, r, rentalFormFrom(*r), "")
}

func (h *Handler) UpdateRental(c *gin.Context) {
	r, ok := h.loadRental(c)
	if !ok {
		return
	}

	var form rentalForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderRentalForm(c, http.StatusBadRequest, r, form, "Dados inválidos.")
		return
	}

	in, err := form.input()
	if err == nil {
		_, err = h.reg.UpdateRental(c.Request.Context(), h.session(c), r.ID, in)
	}
	if err != nil {
		status, msg := describe(err)
		h.logFailure(c, status, err)
		h.renderRentalForm(c, status, r, form, msg)
		return
	}

	c.Redirect(http.StatusFound, "/rentals?notice="+url.QueryEscape("Locação atualizada."))
}

func (h *Handler) DeleteRental(c *gin.Context) {
	r, ok := h.loadRental(c)
	if !ok {
		return
	}
	if err := h.reg.DeleteRental(c.Request.Context(), h.session(c), r.ID, confirmed(c)); err != nil {
		status, msg := describe(err)
		h.logFailure(c, status, err)
		h.renderRentalForm(c, status, r, rentalFormFrom(*r), msg)
		return
	}
	c.Redirect(http.StatusFound, "/rentals?notice="+url.QueryEscape(fmt.Sprintf("Locação de %s excluída.", r.Equipment)))
}

func (h *Handler) ExportRentalsXLSX(c *gin.Context) {
	rentals, err := h.reg.ListRentals(c.Request.Context(), h.session(c), rentalFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := report.Spreadsheet("Locações", report.RentalColumns, report.RentalRows(rentals))
	if err != nil {
		h.fail(c, err)
		return
	}
	sendFile(c, exportName("locacoes", h.session(c), "xlsx"),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) ExportRentalsPDF(c *gin.Context) {
	sess := h.session(c)
	rentals, err := h.reg.ListRentals(c.Request.Context(), sess, rentalFilter(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := report.PDF(reportTitle("Relatório de Locações", sess), report.RentalColumns, report.RentalRows(rentals))
	if err != nil {
		h.fail(c, err)
		return
	}
	sendFile(c, exportName("locacoes", sess, "pdf"), "application/pdf", data)
}
