package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/barangay-portal/resident-gateway/internal/models"
)

func sampleViews(t *testing.T) []models.PaymentView {
	t.Helper()
	raw := json.RawMessage(`{
		"garbagePayments":[
			{"month":"2024-04","totalCharge":100,"amountPaid":100},
			{"month":"2024-05","totalCharge":100,"amountPaid":30},
			{"month":"2024-06","totalCharge":100}
		],
		"streetlightPayments":[
			{"month":"2024-07","totalCharge":"1,500"}
		]
	}`)
	today := time.Date(2024, time.June, 10, 8, 0, 0, 0, manila)
	records := BuildRecords(NormalizePayments(raw), today)
	txns := decodeTxns(t, `[{"description":"Garbage","createdAt":"2024-04-28"}]`)
	views := MarkVerified(records, txns, manila)
	SortPaymentViews(views)
	return views
}

func TestSummarizeUtilities(t *testing.T) {
	summary := SummarizeUtilities(sampleViews(t))

	if summary.Counts[models.StatusPaid] != 1 ||
		summary.Counts[models.StatusOverdue] != 1 ||
		summary.Counts[models.StatusPending] != 1 ||
		summary.Counts[models.StatusUpcoming] != 1 {
		t.Fatalf("unexpected counts: %v", summary.Counts)
	}
	if !summary.Outstanding.Equal(decimal.NewFromInt(1670)) {
		t.Fatalf("outstanding = %s", summary.Outstanding)
	}
	if summary.OutstandingLabel != "₱1,670.00" {
		t.Fatalf("outstanding label = %q", summary.OutstandingLabel)
	}
	if summary.NextDue == nil || summary.NextDue.MonthKey != "2024-05" {
		t.Fatalf("next due = %+v", summary.NextDue)
	}
	if summary.VerifiedPaid != 1 {
		t.Fatalf("verified paid = %d", summary.VerifiedPaid)
	}
}

func TestSummarizeByTypeListsBothTypes(t *testing.T) {
	summaries := SummarizeByType(sampleViews(t))
	if len(summaries) != 2 || summaries[0].Type != models.FeeGarbage || summaries[1].Type != models.FeeStreetlight {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
	if summaries[0].Records != 3 || !summaries[0].TotalPaid.Equal(decimal.NewFromInt(130)) {
		t.Fatalf("garbage summary = %+v", summaries[0])
	}
	if summaries[1].OutstandingLabel != "₱1,500.00" {
		t.Fatalf("streetlight summary = %+v", summaries[1])
	}

	empty := SummarizeByType(nil)
	if len(empty) != 2 || empty[0].Records != 0 || empty[0].OutstandingLabel != "₱0.00" {
		t.Fatalf("unexpected empty summaries: %+v", empty)
	}
}

func TestFilterPaymentViews(t *testing.T) {
	views := sampleViews(t)
	if views[0].MonthKey != "2024-07" {
		t.Fatalf("expected newest first, got %s", views[0].MonthKey)
	}

	tests := []struct {
		name   string
		filter PaymentFilter
		want   int
	}{
		{"no filter", PaymentFilter{}, 4},
		{"all", PaymentFilter{Status: "all", Type: "all"}, 4},
		{"overdue", PaymentFilter{Status: "Overdue"}, 1},
		{"streetlight", PaymentFilter{Type: "streetlight"}, 1},
		{"garbage", PaymentFilter{Type: "Garbage Fee"}, 3},
		{"search period", PaymentFilter{Search: "may 2024"}, 1},
		{"search status label", PaymentFilter{Search: "due this month"}, 1},
		{"no match", PaymentFilter{Search: "water"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterPaymentViews(views, tt.filter)
			if got == nil || len(got) != tt.want {
				t.Fatalf("expected %d views, got %d", tt.want, len(got))
			}
		})
	}
}

func TestBuildTransactionRows(t *testing.T) {
	txns := decodeTxns(t, `[
		{"_id":"t1","description":"Garbage fee","paymentMethod":"Cash","amount":"1234.5","createdAt":"2024-01-05T09:00:00+08:00"},
		{"_id":"t2","description":"Streetlight fee","paymentMethod":"GCash","amount":75,"createdAt":"2024-03-02T09:00:00+08:00"},
		{"_id":"t3","description":"Refund","amount":-10}
	]`)
	rows := BuildTransactionRows(txns, manila)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].ID != "t2" || rows[1].ID != "t1" || rows[2].ID != "t3" {
		t.Fatalf("unexpected order: %+v", rows)
	}
	if rows[1].Amount != "PHP 1,234.50" || rows[1].Date != "1/5/2024" {
		t.Fatalf("unexpected row: %+v", rows[1])
	}
	if rows[2].Amount != "PHP 0.00" || rows[2].Date != "" {
		t.Fatalf("unexpected undated row: %+v", rows[2])
	}

	if got := FilterTransactionRows(rows, "gcash"); len(got) != 1 || got[0].ID != "t2" {
		t.Fatalf("search gcash: %+v", got)
	}
	if got := FilterTransactionRows(rows, ""); len(got) != 3 {
		t.Fatalf("empty search dropped rows: %d", len(got))
	}
}

func TestBuildRequestRows(t *testing.T) {
	var requests []models.DocumentRequest
	if err := json.Unmarshal([]byte(`[
		{"_id":"r1","documentType":"Barangay Clearance","purpose":"Employment","status":"pending","createdAt":"2024-02-01"},
		{"_id":"r2","documentType":"Certificate of Residency","purpose":"School","status":"in_progress","createdAt":"2024-03-10"},
		{"documentType":"Business Clearance","status":"approved"}
	]`), &requests); err != nil {
		t.Fatalf("decode requests: %v", err)
	}
	var chain []models.BlockchainRequest
	if err := json.Unmarshal([]byte(`[{"requestId":"r1","transactionHash":"0xabc"}]`), &chain); err != nil {
		t.Fatalf("decode chain: %v", err)
	}

	rows := BuildRequestRows(requests, chain, manila)
	if rows[0].ID != "r2" || rows[0].Status != "In Progress" || rows[0].DateRequested != "3/10/2024" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if !rows[1].OnChain || rows[0].OnChain || rows[2].OnChain {
		t.Fatalf("unexpected on-chain flags: %+v", rows)
	}

	if got := FilterRequestRows(rows, "in_progress", ""); len(got) != 1 || got[0].ID != "r2" {
		t.Fatalf("status filter: %+v", got)
	}
	if got := FilterRequestRows(rows, "all", "employ"); len(got) != 1 || got[0].ID != "r1" {
		t.Fatalf("search filter: %+v", got)
	}
}
