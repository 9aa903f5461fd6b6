package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"obra-patrimonio/internal/models"
	"obra-patrimonio/internal/registry"
	"obra-patrimonio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type assetForm struct {
	Site          string `form:"site" json:"site"`
	Tag           string `form:"tag" json:"tag"`
	Name          string `form:"name" json:"name"`
	Specification string `form:"specification" json:"specification"`
	Notes         string `form:"notes" json:"notes"`
	Location      string `form:"location" json:"location"`
	Custodian     string `form:"custodian" json:"custodian"`
	InvoiceNumber string `form:"invoice_number" json:"invoice_number"`
	Value         string `form:"value" json:"value"`
	Status        string `form:"status" json:"status"`
}

func assetFormFrom(a models.Asset) assetForm {
	return assetForm{
		Site:          a.Site,
		Tag:           a.Tag,
		Name:          a.Name,
		Specification: a.Specification,
		Notes:         a.Notes,
		Location:      a.Location,
		Custodian:     a.Custodian,
		InvoiceNumber: a.InvoiceNumber,
		Value:         a.Value.StringFixed(2),
		Status:        a.Status,
	}
}

func (f assetForm) input() (service.AssetInput, error) {
	value, err := parseMoney(f.Value)
	if err != nil {
		return service.AssetInput{}, &registry.ValidationError{Fields: []string{"value"}}
	}
	return service.AssetInput{
		Site:          strings.TrimSpace(f.Site),
		Tag:           f.Tag,
		Name:          f.Name,
		Specification: f.Specification,
		Notes:         f.Notes,
		Location:      f.Location,
		Custodian:     f.Custodian,
		InvoiceNumber: f.InvoiceNumber,
		Value:         value,
		Status:        strings.TrimSpace(f.Status),
	}, nil
}

type rentalForm struct {
	Equipment   string `form:"equipment" json:"equipment"`
	Site        string `form:"site" json:"site"`
	Responsible string `form:"responsible" json:"responsible"`
	Quantity    string `form:"quantity" json:"quantity"`
	Unit        string `form:"unit" json:"unit"`
	UnitValue   string `form:"unit_value" json:"unit_value"`
	Contract    string `form:"contract" json:"contract"`
	Status      string `form:"status" json:"status"`
	StartDate   string `form:"start_date" json:"start_date"`
	EndDate     string `form:"end_date" json:"end_date"`
}

func rentalFormFrom(r models.Rental) rentalForm {
	f := rentalForm{
		Equipment:   r.Equipment,
		Site:        r.Site,
		Responsible: r.Responsible,
		Quantity:    strconv.Itoa(r.Quantity),
		Unit:        r.Unit,
		UnitValue:   r.UnitValue.StringFixed(2),
		Contract:    r.Contract,
		Status:      string(r.Status),
	}
	if r.StartDate != nil {
		f.StartDate = r.StartDate.Format(dateLayout)
	}
	if r.EndDate != nil {
		f.EndDate = r.EndDate.Format(dateLayout)
	}
	return f
}

func (f rentalForm) input() (service.RentalInput, error) {
	var bad []string
	qty, err := strconv.Atoi(strings.TrimSpace(f.Quantity))
	if err != nil {
		bad = append(bad, "quantity")
	}
	unitValue, err := parseMoney(f.UnitValue)
	if err != nil {
		bad = append(bad, "unit_value")
	}
	start, err := parseDate(f.StartDate)
	if err != nil {
		bad = append(bad, "start_date")
	}
	end, err := parseDate(f.EndDate)
	if err != nil {
		bad = append(bad, "end_date")
	}
	if len(bad) > 0 {
		return service.RentalInput{}, &registry.ValidationError{Fields: bad}
	}
	return service.RentalInput{
		Equipment:   f.Equipment,
		Site:        strings.TrimSpace(f.Site),
		Responsible: f.Responsible,
		Quantity:    qty,
		Unit:        f.Unit,
		UnitValue:   unitValue,
		Contract:    f.Contract,
		Status:      models.RentalStatus(strings.TrimSpace(f.Status)),
		StartDate:   start,
		EndDate:     end,
	}, nil
}

// parseMoney accepts "1234.56", "1.234,56" and "R$ 1.234,56". Blank is zero.
func parseMoney(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, registry.ErrNotFound
	}
	return uint(id), nil
}

// readUpload returns the uploaded file in field, or nil when none was sent.
func readUpload(c *gin.Context, field string) (*service.Attachment, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size == 0 {
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &service.Attachment{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func readAttachments(c *gin.Context) (service.Attachments, error) {
	invoice, err := readUpload(c, "invoice_file")
	if err != nil {
		return service.Attachments{}, &registry.ValidationError{Fields: []string{"invoice_file"}}
	}
	photo, err := readUpload(c, "photo_file")
	if err != nil {
		return service.Attachments{}, &registry.ValidationError{Fields: []string{"photo_file"}}
	}
	return service.Attachments{Invoice: invoice, Photo: photo}, nil
}

func confirmed(c *gin.Context) bool {
	switch strings.ToLower(c.PostForm("confirm")) {
	case "on", "yes", "true", "1", "sim":
		return true
	}
	return false
}
