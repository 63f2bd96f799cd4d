package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Label describes the content printed on a service-order label.
type Label struct {
	OrderNumber string
	ClientName  string
	Contact     string
	Phone       string
	Equipment   string
	SerialNo    string
	Problem     string
	Status      string
	OpenedAt    string
	Analyst     string
}

// LabelExporter renders a service-order label as a small PDF.
type LabelExporter struct{}

// NewLabelExporter builds a label exporter.
func NewLabelExporter() *LabelExporter {
	return &LabelExporter{}
}

// Render produces a single-page A6 label PDF for one order.
func (e *LabelExporter) Render(label Label) ([]byte, error) {
	if label.OrderNumber == "" {
		return nil, fmt.Errorf("label requires an order number")
	}

	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.SetMargins(8, 8, 8)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "OS "+label.OrderNumber, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(0, 5, label.OpenedAt+"  /  "+label.Analyst, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	row := func(key, value string) {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(24, 6, key, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 6, value, "", "L", false)
	}

	row("Client", label.ClientName)
	row("Contact", label.Contact)
	row("Phone", label.Phone)
	row("Equipment", label.Equipment)
	row("Serial", label.SerialNo)
	row("Status", label.Status)
	pdf.Ln(2)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(0, 6, "Reported problem", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.MultiCell(0, 5, label.Problem, "", "L", false)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render label pdf: %w", err)
	}
	return buf.Bytes(), nil
}
