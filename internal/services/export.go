package services

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/barangay-portal/resident-gateway/internal/logger"
	"github.com/barangay-portal/resident-gateway/internal/metrics"
	"github.com/barangay-portal/resident-gateway/internal/models"
)

// ErrUnsupportedFormat is returned for export formats other than pdf and xlsx.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"

	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Export is a rendered file ready to be written to the response.
type Export struct {
	FileName    string
	ContentType string
	Body        []byte
}

type exportTable struct {
	kind    string
	title   string
	headers []string
	widths  []float64
	align   []string
	rows    [][]string
}

// ExportRequests renders the document requests table.
func ExportRequests(rows []models.DocumentRequestRow, format string, now time.Time) (*Export, error) {
	table := exportTable{
		kind:    "requests",
		title:   "Document Requests",
		headers: []string{"#", "Document Type", "Purpose", "Status", "Date Requested"},
		widths:  []float64{12, 70, 105, 40, 50},
		align:   []string{"C", "L", "L", "C", "C"},
	}
	for i, r := range rows {
		table.rows = append(table.rows, []string{strconv.Itoa(i + 1), r.DocumentType, r.Purpose, r.Status, r.DateRequested})
	}
	return renderExport(table, format, now)
}

// ExportTransactions renders the financial transactions table.
func ExportTransactions(rows []models.TransactionRow, format string, now time.Time) (*Export, error) {
	table := exportTable{
		kind:    "transactions",
		title:   "Financial Transactions",
		headers: []string{"#", "Date", "Description", "Payment Method", "Amount"},
		widths:  []float64{12, 40, 115, 60, 50},
		align:   []string{"C", "C", "L", "L", "R"},
	}
	for i, r := range rows {
		table.rows = append(table.rows, []string{strconv.Itoa(i + 1), r.Date, r.Description, r.PaymentMethod, r.Amount})
	}
	return renderExport(table, format, now)
}

func renderExport(table exportTable, format string, now time.Time) (*Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case FormatPDF:
		body, err = buildPDF(table, now)
		contentType = contentTypePDF
	case FormatXLSX:
		body, err = buildXLSX(table, now)
		contentType = contentTypeXLSX
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	metrics.ObserveExport(table.kind, format, err)
	if err != nil {
		logger.L.Error("export failed", "kind", table.kind, "format", format, "rows", len(table.rows), "err", err)
		return nil, err
	}
	return &Export{
		FileName:    fmt.Sprintf("%s-%s.%s", table.kind, now.Format("20060102-150405"), format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func buildPDF(table exportTable, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	encode := cp1252Encoder(pdf)
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, encode(table.title))
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", now.Format("1/2/2006 3:04 PM")))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range table.headers {
		pdf.CellFormat(table.widths[i], 7, encode(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	if len(table.rows) == 0 {
		total := 0.0
		for _, w := range table.widths {
			total += w
		}
		pdf.CellFormat(total, 7, "No records found.", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	for _, row := range table.rows {
		for i, cell := range row {
			pdf.CellFormat(table.widths[i], 6, fitCell(pdf, encode(cell), table.widths[i]), "1", 0, table.align[i], false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitCell truncates text that would overflow a cell of width w. text must
// already be encoded for the core fonts.
func fitCell(pdf *gofpdf.Fpdf, text string, w float64) string {
	limit := w - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+"...") > limit {
		text = text[:len(text)-1]
	}
	return text + "..."
}

// cp1252Encoder converts UTF-8 into the cp1252 bytes the core fonts use.
// Runes cp1252 cannot represent become '?'.
func cp1252Encoder(pdf *gofpdf.Fpdf) func(string) string {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	return func(s string) string {
		var b strings.Builder
		for _, r := range s {
			if r < 0x80 {
				b.WriteRune(r)
				continue
			}
			enc := tr(string(r))
			if len(enc) != 1 || enc == "." {
				b.WriteByte('?')
				continue
			}
			b.WriteString(enc)
		}
		return b.String()
	}
}

func buildXLSX(table exportTable, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := table.title
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(sheet, "A1", table.title)
	_ = f.SetCellValue(sheet, "A2", fmt.Sprintf("Generated: %s", now.Format("1/2/2006 3:04 PM")))

	header := make([]interface{}, len(table.headers))
	for i, h := range table.headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A4", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, _ := excelize.CoordinatesToCellName(len(table.headers), 4)
	_ = f.SetCellStyle(sheet, "A4", last, bold)

	for i, row := range table.rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+5)
		values := make([]interface{}, len(row))
		values[0] = i + 1
		for j := 1; j < len(row); j++ {
			values[j] = row[j]
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}
	for i, w := range table.widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, w/3)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
