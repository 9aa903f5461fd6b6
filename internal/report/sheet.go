package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"obra-patrimonio/internal/models"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"
)

// AssetSheet renders the printable identification sheet of one asset with a
// QR code carrying its id, name, tag and site.
func AssetSheet(a models.Asset) ([]byte, error) {
	payload := fmt.Sprintf("ID: %d\nItem: %s\nTombamento: %s\nObra: %s", a.ID, a.Name, a.Tag, a.Site)
	png, err := qrcode.Encode(payload, qrcode.Medium, 512)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFillColor(227, 112, 38)
	pdf.Rect(0, 0, 210, 20, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(10, 14, tr("Ficha de Identificação de Ativo"))

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("qr", 130, 30, 60, 0, false, opts, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(10, 30)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.MultiCell(115, 8, tr("Produto: "+strings.ToUpper(a.Name)), "", "L", false)

	pdf.SetFont("Helvetica", "", 11)
	for _, f := range [][2]string{
		{"Tombamento", a.Tag},
		{"Obra", a.Site},
		{"Local de Uso", a.Location},
		{"Responsável", a.Custodian},
		{"Status", a.Status},
		{"Valor (R$)", a.Value.StringFixed(2)},
		{"Nota Fiscal", a.InvoiceNumber},
	} {
		pdf.SetX(10)
		pdf.CellFormat(115, 7, tr(f[0]+": "+f[1]), "", 1, "L", false, 0, "")
	}
	if a.Specification != "" {
		pdf.Ln(3)
		pdf.SetX(10)
		pdf.MultiCell(115, 6, tr("Especificações: "+a.Specification), "", "L", false)
	}

	pdf.SetY(-20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 6, "Emitido em "+time.Now().Format("02/01/2006 15:04"), "", 0, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render asset sheet: %w", err)
	}
	return buf.Bytes(), nil
}
