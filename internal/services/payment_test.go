package services

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/barangay-portal/resident-gateway/internal/models"
)

var manila = time.FixedZone("PHT", 8*60*60)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 30, 0, 0, manila)
}

func decodeEntry(t *testing.T, raw string) models.RawPaymentEntry {
	t.Helper()
	var entry models.RawPaymentEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	return entry
}

func TestNormalizePaymentsShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"null", `null`, 0},
		{"empty object", `{}`, 0},
		{"empty body", ``, 0},
		{"scalar", `42`, 0},
		{"not json", `<html>`, 0},
		{"flat list", `[{"month":"2024-01"},{"month":"2024-02"}]`, 2},
		{"containers", `{"garbagePayments":[{"month":"2024-01"}],"streetlightPayments":[{"month":"2024-01"},{"month":"2024-02"}]}`, 3},
		{"nested payments", `{"garbage":{"payments":[{"month":"2024-01"}]},"records":[{"month":"2024-05"}]}`, 2},
		{"unknown keys ignored", `{"totals":[{"month":"2024-01"}]}`, 0},
		{"non-array container", `{"data":"oops","utilityPayments":[{}]}`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePayments(json.RawMessage(tt.raw))
			if got == nil {
				t.Fatalf("expected non-nil slice")
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d entries, got %d", tt.want, len(got))
			}
		})
	}
}

func TestNormalizePaymentsListIsIdentity(t *testing.T) {
	raw := json.RawMessage(`[{"_id":"a"},{"_id":"b"},{"_id":"c"}]`)
	items := NormalizePaymentsRaw(raw)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	entries := NormalizePayments(raw)
	for i, want := range []string{"a", "b", "c"} {
		if entries[i].MongoID.String() != want {
			t.Fatalf("entry %d: expected id %s, got %q", i, want, entries[i].MongoID.String())
		}
	}
}

func TestNormalizePaymentsContainerOrder(t *testing.T) {
	raw := json.RawMessage(`{
		"data":[{"_id":"d"}],
		"streetlight":[{"_id":"s"}],
		"garbage":[{"_id":"g"}],
		"gasPayments":[{"_id":"gas"}]
	}`)
	entries := NormalizePayments(raw)
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.MongoID.String())
	}
	want := []string{"g", "s", "gas", "d"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ids)
		}
	}
}

func TestBuildRecordLeapFebruary(t *testing.T) {
	entry := decodeEntry(t, `{"type":"garbage","month":"2024-02","totalCharge":100,"amountPaid":40}`)
	rec := BuildRecord(entry, day(2024, time.March, 10))

	if rec.Type != models.FeeGarbage {
		t.Fatalf("type = %s", rec.Type)
	}
	if rec.MonthKey != "2024-02" {
		t.Fatalf("month key = %s", rec.MonthKey)
	}
	if y, m, d := rec.DueDate.Date(); y != 2024 || m != time.February || d != 29 {
		t.Fatalf("due date = %v", rec.DueDate)
	}
	if !rec.Balance.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("balance = %s", rec.Balance)
	}
	if rec.Status != models.StatusOverdue {
		t.Fatalf("status = %s", rec.Status)
	}
	if rec.ID != "Garbage Fee-2024-02" {
		t.Fatalf("id = %q", rec.ID)
	}
}

func TestBuildRecordNegativeBalanceIsPaid(t *testing.T) {
	entry := decodeEntry(t, `{"utilityType":"Streetlight","billingMonth":"March 2024","amount":"₱50.00","balance":"-5"}`)
	rec := BuildRecord(entry, day(2024, time.March, 1))

	if rec.Type != models.FeeStreetlight {
		t.Fatalf("type = %s", rec.Type)
	}
	if rec.MonthKey != "2024-03" {
		t.Fatalf("month key = %s", rec.MonthKey)
	}
	if !rec.Balance.IsZero() {
		t.Fatalf("balance = %s", rec.Balance)
	}
	if rec.Status != models.StatusPaid {
		t.Fatalf("status = %s", rec.Status)
	}
	if !rec.Amount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("amount = %s", rec.Amount)
	}
}

func TestBuildRecordStatusByDueDate(t *testing.T) {
	today := day(2024, time.June, 15)
	tests := []struct {
		month string
		want  models.PaymentStatus
	}{
		{"2024-05", models.StatusOverdue},
		{"2024-06", models.StatusPending},
		{"2024-07", models.StatusUpcoming},
	}
	for _, tt := range tests {
		entry := decodeEntry(t, `{"month":"`+tt.month+`","totalCharge":"30"}`)
		if got := BuildRecord(entry, today).Status; got != tt.want {
			t.Errorf("month %s: status = %s, want %s", tt.month, got, tt.want)
		}
	}
}

func TestBuildRecordFallbacks(t *testing.T) {
	today := day(2024, time.April, 2)
	rec := BuildRecord(models.RawPaymentEntry{}, today)

	if rec.Type != models.FeeGarbage {
		t.Fatalf("type = %s", rec.Type)
	}
	if y, m, d := rec.DueDate.Date(); y != 2024 || m != time.April || d != 30 {
		t.Fatalf("due date = %v", rec.DueDate)
	}
	if rec.MonthKey != "2024-04" {
		t.Fatalf("month key = %s", rec.MonthKey)
	}
	if !rec.Amount.IsZero() || !rec.Balance.IsZero() || rec.Status != models.StatusPaid {
		t.Fatalf("unexpected zero record: %+v", rec)
	}
	if rec.PaymentDate != nil {
		t.Fatalf("expected no payment date")
	}
	if rec.ID == "" {
		t.Fatalf("expected synthesized id")
	}
}

func TestBuildRecordUsesDueDateWhenNoMonth(t *testing.T) {
	entry := decodeEntry(t, `{"feeType":"streetlight fee","dueDate":{"$date":"2024-08-20T00:00:00Z"},"charge":25}`)
	rec := BuildRecord(entry, day(2024, time.August, 1))
	if rec.MonthKey != "2024-08" {
		t.Fatalf("month key = %s", rec.MonthKey)
	}
	if y, m, d := rec.DueDate.Date(); y != 2024 || m != time.August || d != 31 {
		t.Fatalf("due date = %v", rec.DueDate)
	}
	if rec.Status != models.StatusPending {
		t.Fatalf("status = %s", rec.Status)
	}
}

func TestBuildRecordPaymentDate(t *testing.T) {
	entry := decodeEntry(t, `{
		"_id":{"$oid":"65f0c0ffee"},
		"month":"2024-01",
		"totalCharge":100,
		"amountPaid":100,
		"payments":[{"paidAt":"2024-01-05T10:00:00+08:00"},{"paidAt":"2024-01-20T10:00:00+08:00"}],
		"completedAt":"2024-02-01T00:00:00+08:00"
	}`)
	rec := BuildRecord(entry, day(2024, time.March, 1))
	if rec.ID != "65f0c0ffee" {
		t.Fatalf("id = %q", rec.ID)
	}
	if rec.PaymentDate == nil || rec.PaymentDate.Day() != 20 {
		t.Fatalf("payment date = %v", rec.PaymentDate)
	}

	noInstallments := decodeEntry(t, `{"month":"2024-01","payments":"n/a","updatedAt":1706745600000}`)
	rec = BuildRecord(noInstallments, day(2024, time.March, 1))
	if rec.PaymentDate == nil || rec.PaymentDate.Year() != 2024 {
		t.Fatalf("payment date = %v", rec.PaymentDate)
	}
}

func TestBuildRecordKeepsUnparseablePeriod(t *testing.T) {
	entry := decodeEntry(t, `{"period":"Q1 dues","totalCharge":10}`)
	rec := BuildRecord(entry, day(2024, time.May, 5))
	if rec.MonthKey != "Q1 dues" {
		t.Fatalf("month key = %q", rec.MonthKey)
	}
	if y, m, d := rec.DueDate.Date(); y != 2024 || m != time.May || d != 31 {
		t.Fatalf("due date = %v", rec.DueDate)
	}
}

func TestBuildRecordNullBalanceDerivesFromAmounts(t *testing.T) {
	entry := decodeEntry(t, `{"month":"2024-02","totalCharge":"1,200.50","amountPaid":200,"balance":null}`)
	rec := BuildRecord(entry, day(2024, time.February, 10))
	if !rec.Balance.Equal(decimal.RequireFromString("1000.50")) {
		t.Fatalf("balance = %s", rec.Balance)
	}
}

func TestBuildRecordIsDeterministic(t *testing.T) {
	entry := decodeEntry(t, `{"month":"2024-02","totalCharge":100}`)
	today := day(2024, time.February, 3)
	a, b := BuildRecord(entry, today), BuildRecord(entry, today)
	if a.ID != b.ID || a.Status != b.Status || !a.DueDate.Equal(b.DueDate) {
		t.Fatalf("records differ: %+v vs %+v", a, b)
	}
}

func TestParseMonthKey(t *testing.T) {
	tests := map[string]string{
		"2024-3":        "2024-03",
		"2024/11":       "2024-11",
		"January 2025":  "2025-01",
		"Feb 2024":      "2024-02",
		"12/2023":       "2023-12",
		"2024-03-15":    "2024-03",
		"March 5, 2024": "2024-03",
	}
	for in, want := range tests {
		got, ok := ParseMonthKey(in, manila)
		if !ok || got != want {
			t.Errorf("ParseMonthKey(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseMonthKey("soon", manila); ok {
		t.Errorf("expected failure for free text")
	}
}

func TestRecordBalanceInvariants(t *testing.T) {
	charges := []string{``, `"totalCharge":null`, `"totalCharge":150`, `"totalCharge":-40`, `"amount":"₱1,200.50"`, `"charge":"n/a"`, `"totalCharge":0`}
	paid := []string{``, `"amountPaid":null`, `"amountPaid":150`, `"amountPaid":-25`, `"amountPaid":"75.25"`, `"amountPaid":9999`, `"amountPaid":{}`}
	balances := []string{``, `"balance":null`, `"balance":0`, `"balance":-10`, `"balance":"30"`, `"balance":"PHP  0.00"`, `"balance":"unknown"`, `"balance":12.5`}
	periods := []string{``, `"month":"2024-05"`, `"month":"2024-07"`, `"billingMonth":"someday"`}
	today := day(2024, time.June, 10)

	for _, c := range charges {
		for _, p := range paid {
			for _, b := range balances {
				for _, m := range periods {
					fields := []string{`"type":"garbage"`}
					for _, f := range []string{c, p, b, m} {
						if f != "" {
							fields = append(fields, f)
						}
					}
					raw := "{" + strings.Join(fields, ",") + "}"
					rec := BuildRecord(decodeEntry(t, raw), today)

					if rec.Balance.IsNegative() {
						t.Errorf("%s: negative balance %s", raw, rec.Balance)
					}
					if rec.Amount.IsNegative() || rec.AmountPaid.IsNegative() {
						t.Errorf("%s: negative amounts %s/%s", raw, rec.Amount, rec.AmountPaid)
					}
					settled := rec.Balance.LessThanOrEqual(decimal.Zero)
					if (rec.Status == models.StatusPaid) != settled {
						t.Errorf("%s: status %s with balance %s", raw, rec.Status, rec.Balance)
					}
				}
			}
		}
	}
}
