package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

var pdfColumnWidths = []float64{36, 22, 60, 26, 36, 38, 18}

// renderPDF serialises the statement as a landscape A4 table.
func (s *Service) renderPDF(statement Statement) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, fmt.Sprintf("Account Statement - %s", statement.Account.Number))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Currency: %s    Period: %s to %s",
		statement.Account.Currency, dateLabel(statement.From), dateLabel(statement.To)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range statementHeader {
		pdf.CellFormat(pdfColumnWidths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, record := range s.rows(statement) {
		for i, value := range record {
			align := "L"
			if i == 4 || i == 5 {
				align = "R"
			}
			pdf.CellFormat(pdfColumnWidths[i], 6, value, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
