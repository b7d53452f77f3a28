package services

import (
	"bytes"
	"compress/zlib"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/barangay-portal/resident-gateway/internal/models"
)

var exportTime = time.Date(2024, time.May, 2, 14, 5, 0, 0, manila)

func TestExportTransactionsPDF(t *testing.T) {
	rows := []models.TransactionRow{
		{ID: "t1", Date: "5/1/2024", Description: "Garbage fee ₱", PaymentMethod: "GCash", Amount: "PHP 1,234.56"},
	}
	export, err := ExportTransactions(rows, "PDF", exportTime)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.HasPrefix(export.Body, []byte("%PDF")) {
		t.Fatalf("body is not a pdf")
	}
	if export.ContentType != "application/pdf" || !strings.HasSuffix(export.FileName, ".pdf") {
		t.Fatalf("unexpected export meta: %q %q", export.ContentType, export.FileName)
	}
}

func TestExportRequestsPDFWithoutRows(t *testing.T) {
	export, err := ExportRequests(nil, FormatPDF, exportTime)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.HasPrefix(export.Body, []byte("%PDF")) {
		t.Fatalf("body is not a pdf")
	}
}

func TestExportRequestsXLSX(t *testing.T) {
	rows := []models.DocumentRequestRow{
		{ID: "r1", DocumentType: "Barangay Clearance", Purpose: "Employment", Status: "Pending", DateRequested: "2/1/2024"},
		{ID: "r2", DocumentType: "Business Clearance", Purpose: "", Status: "Approved", DateRequested: "3/4/2024"},
	}
	export, err := ExportRequests(rows, FormatXLSX, exportTime)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(export.Body))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	sheet := "Document Requests"
	got, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	header := got[3]
	want := []string{"#", "Document Type", "Purpose", "Status", "Date Requested"}
	for i := range want {
		if header[i] != want[i] {
			t.Fatalf("header = %v", header)
		}
	}
	if got[4][0] != "1" || got[4][1] != "Barangay Clearance" || got[5][4] != "3/4/2024" {
		t.Fatalf("unexpected data rows: %v", got[4:])
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	_, err := ExportTransactions(nil, "csv", exportTime)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

// pdfContent inflates every stream in a generated PDF.
func pdfContent(t *testing.T, body []byte) string {
	t.Helper()
	var out bytes.Buffer
	rest := body
	for {
		start := bytes.Index(rest, []byte("stream\n"))
		if start < 0 {
			break
		}
		rest = rest[start+len("stream\n"):]
		end := bytes.Index(rest, []byte("\nendstream"))
		if end < 0 {
			break
		}
		if r, err := zlib.NewReader(bytes.NewReader(rest[:end])); err == nil {
			_, _ = io.Copy(&out, r)
		}
		rest = rest[end+len("\nendstream"):]
	}
	return out.String()
}

func TestExportPDFKeepsFilipinoLetters(t *testing.T) {
	rows := []models.DocumentRequestRow{
		{ID: "r1", DocumentType: "Barangay Clearance", Purpose: "Trabaho sa Parañaque", Status: "Pending", DateRequested: "2/1/2024"},
	}
	export, err := ExportRequests(rows, FormatPDF, exportTime)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	content := pdfContent(t, export.Body)
	if !strings.Contains(content, "Trabaho sa Para\xf1aque") {
		t.Fatalf("purpose not encoded as cp1252 in page content")
	}
	if strings.Contains(content, "Para?aque") {
		t.Fatalf("n with tilde was replaced")
	}
}

func TestCP1252Encoder(t *testing.T) {
	encode := cp1252Encoder(gofpdf.New("L", "mm", "A4", ""))
	tests := map[string]string{
		"Dasmariñas Niño": "Dasmari\xf1as Ni\xf1o",
		"Peñafrancia €5":  "Pe\xf1afrancia \x805",
		"₱100.00":         "?100.00",
		"plain.":          "plain.",
	}
	for in, want := range tests {
		if got := encode(in); got != want {
			t.Errorf("encode(%q) = %q, want %q", in, got, want)
		}
	}
}
