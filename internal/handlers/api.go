package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"obra-patrimonio/internal/models"
	"obra-patrimonio/internal/registry"
	"obra-patrimonio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type apiLoginRequest struct {
	Site     string `json:"site"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

// APILogin exchanges a site code, or the admin password, for a bearer token.
func (h *Handler) APILogin(c *gin.Context) {
	var req apiLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var (
		sess service.Session
		err  error
	)
	if req.Password != "" {
		sess, err = h.reg.AuthenticateAdmin(req.Password)
	} else {
		sess, err = h.reg.Authenticate(c.Request.Context(), strings.TrimSpace(req.Site), req.Code)
	}
	if err != nil {
		h.failJSON(c, err)
		return
	}

	token, exp, err := h.tokens.Issue(sess)
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp,
		"admin":      sess.Admin,
		"site":       sess.Site,
	})
}

type apiAssetRequest struct {
	Site          string          `json:"site"`
	Tag           string          `json:"tag"`
	Name          string          `json:"name"`
	Specification string          `json:"specification"`
	Notes         string          `json:"notes"`
	Location      string          `json:"location"`
	Custodian     string          `json:"custodian"`
	InvoiceNumber string          `json:"invoice_number"`
	Value         decimal.Decimal `json:"value"`
	Status        string          `json:"status"`
}

func (r apiAssetRequest) input() service.AssetInput {
	return service.AssetInput{
		Site:          strings.TrimSpace(r.Site),
		Tag:           r.Tag,
		Name:          r.Name,
		Specification: r.Specification,
		Notes:         r.Notes,
		Location:      r.Location,
		Custodian:     r.Custodian,
		InvoiceNumber: r.InvoiceNumber,
		Value:         r.Value,
		Status:        strings.TrimSpace(r.Status),
	}
}

func apiID(c *gin.Context) (uint, bool) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Registro não encontrado."})
		return 0, false
	}
	return id, true
}

func (h *Handler) APIListAssets(c *gin.Context) {
	assets, err := h.reg.ListAssets(c.Request.Context(), h.session(c), assetFilter(c))
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": assets, "count": len(assets)})
}

func (h *Handler) APIGetAsset(c *gin.Context) {
	id, ok := apiID(c)
	if !ok {
		return
	}
	a, err := h.reg.GetAsset(c.Request.Context(), h.session(c), id)
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) APICreateAsset(c *gin.Context) {
	var req apiAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	a, err := h.reg.RegisterAsset(c.Request.Context(), h.session(c), req.input(), service.Attachments{})
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) APIUpdateAsset(c *gin.Context) {
	id, ok := apiID(c)
	if !ok {
		return
	}
	var req apiAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	a, err := h.reg.UpdateAsset(c.Request.Context(), h.session(c), id, req.input(), service.Attachments{})
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// APIDeleteAsset requires ?confirm=true.
func (h *Handler) APIDeleteAsset(c *gin.Context) {
	id, ok := apiID(c)
	if !ok {
		return
	}
	yes, _ := strconv.ParseBool(c.Query("confirm"))
	if err := h.reg.DeleteAsset(c.Request.Context(), h.session(c), id, yes); err != nil {
		h.failJSON(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) APIListMovements(c *gin.Context) {
	id, ok := apiID(c)
	if !ok {
		return
	}
	history, err := h.reg.AssetHistory(c.Request.Context(), h.session(c), id)
	if err != nil {
		h.failJSON(c, err)
		return
	}
	if history == nil {
		history = []models.Movement{}
	}
	c.JSON(http.StatusOK, gin.H{"items": history, "count": len(history)})
}

type apiMovementRequest struct {
	Type      string `json:"type"`
	Custodian string `json:"custodian"`
	Notes     string `json:"notes"`
}

func (h *Handler) APICreateMovement(c *gin.Context) {
	id, ok := apiID(c)
	if !ok {
		return
	}
	var req apiMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	m, err := h.reg.RegisterMovement(c.Request.Context(), h.session(c), id, service.MovementInput{
		Type:      models.MovementType(strings.ToUpper(strings.TrimSpace(req.Type))),
		Custodian: req.Custodian,
		Notes:     req.Notes,
	})
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

type apiRentalRequest struct {
	Equipment   string          `json:"equipment"`
	Site        string          `json:"site"`
	Responsible string          `json:"responsible"`
	Quantity    int             `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitValue   decimal.Decimal `json:"unit_value"`
	Contract    string          `json:"contract"`
	Status      string          `json:"status"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
}

func (r apiRentalRequest) input() (service.RentalInput, error) {
	start, err := parseDate(r.StartDate)
	if err != nil {
		return service.RentalInput{}, &registry.ValidationError{Fields: []string{"start_date"}}
	}
	end, err := parseDate(r.EndDate)
	if err != nil {
		return service.RentalInput{}, &registry.ValidationError{Fields: []string{"end_date"}}
	}
	return service.RentalInput{
		Equipment:   r.Equipment,
		Site:        strings.TrimSpace(r.Site),
		Responsible: r.Responsible,
		Quantity:    r.Quantity,
		Unit:        r.Unit,
		UnitValue:   r.UnitValue,
		Contract:    r.Contract,
		Status:      models.RentalStatus(strings.ToUpper(strings.TrimSpace(r.Status))),
		StartDate:   start,
		EndDate:     end,
	}, nil
}

func (h *Handler) APIListRentals(c *gin.Context) {
	rentals, err := h.reg.ListRentals(c.Request.Context(), h.session(c), rentalFilter(c))
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rentals, "count": len(rentals)})
}

func (h *Handler) APICreateRental(c *gin.Context) {
	var req apiRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	in, err := req.input()
	if err != nil {
		h.failJSON(c, err)
		return
	}
	r, err := h.reg.RegisterRental(c.Request.Context(), h.session(c), in)
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) APIDashboard(c *gin.Context) {
	sum, err := h.reg.Dashboard(c.Request.Context(), h.session(c))
	if err != nil {
		h.failJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
