package report

import (
	"time"

	"obra-patrimonio/internal/models"

	"github.com/shopspring/decimal"
)

// Column is one report column. Width is in millimetres on the PDF page.
type Column struct {
	Header string
	Width  float64
}

// Row holds one value per column: strings, ints or decimals.
type Row []any

var AssetColumns = []Column{
	{"Tombamento", 25},
	{"Nome", 60},
	{"Obra", 35},
	{"Local de Uso", 35},
	{"Responsável", 35},
	{"Status", 25},
	{"Valor (R$)", 25},
	{"Nota Fiscal", 25},
}

var RentalColumns = []Column{
	{"Equipamento", 45},
	{"Obra", 30},
	{"Responsável", 30},
	{"Qtd", 12},
	{"Unidade", 16},
	{"Valor Unit. (R$)", 24},
	{"Total (R$)", 24},
	{"Contrato", 26},
	{"Status", 24},
	{"Início", 22},
	{"Prev. Fim", 22},
}

func AssetRows(assets []models.Asset) []Row {
	rows := make([]Row, 0, len(assets))
	for _, a := range assets {
		rows = append(rows, Row{a.Tag, a.Name, a.Site, a.Location, a.Custodian, a.Status, a.Value, a.InvoiceNumber})
	}
	return rows
}

func RentalRows(rentals []models.Rental) []Row {
	rows := make([]Row, 0, len(rentals))
	for _, r := range rentals {
		rows = append(rows, Row{
			r.Equipment, r.Site, r.Responsible, r.Quantity, r.Unit,
			r.UnitValue, r.Total, r.Contract, string(r.Status),
			formatDate(r.StartDate), formatDate(r.EndDate),
		})
	}
	return rows
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.StringFixed(2)
	case int:
		return decimal.NewFromInt(int64(x)).String()
	default:
		return ""
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}
