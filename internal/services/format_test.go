package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFormatAmounts(t *testing.T) {
	tests := []struct {
		in   string
		peso string
		php  string
	}{
		{"0", "₱0.00", "PHP 0.00"},
		{"5.5", "₱5.50", "PHP 5.50"},
		{"999.999", "₱1,000.00", "PHP 1,000.00"},
		{"1234567.8", "₱1,234,567.80", "PHP 1,234,567.80"},
		{"-1200", "₱-1,200.00", "PHP -1,200.00"},
	}
	for _, tt := range tests {
		d := decimal.RequireFromString(tt.in)
		if got := FormatPeso(d); got != tt.peso {
			t.Errorf("FormatPeso(%s) = %q, want %q", tt.in, got, tt.peso)
		}
		if got := FormatPHP(d); got != tt.php {
			t.Errorf("FormatPHP(%s) = %q, want %q", tt.in, got, tt.php)
		}
	}
}

func TestFormatDateUsesLocation(t *testing.T) {
	utc := time.Date(2024, time.March, 31, 20, 0, 0, 0, time.UTC)
	if got := FormatDate(utc, manila); got != "4/1/2024" {
		t.Fatalf("FormatDate = %q", got)
	}
	if got := FormatDate(time.Time{}, manila); got != "" {
		t.Fatalf("zero time = %q", got)
	}
}

func TestFormatPeriodAndStatus(t *testing.T) {
	if got := FormatPeriod("2024-03"); got != "March 2024" {
		t.Fatalf("FormatPeriod = %q", got)
	}
	if got := FormatPeriod("Q1 dues"); got != "Q1 dues" {
		t.Fatalf("FormatPeriod passthrough = %q", got)
	}
	for in, want := range map[string]string{
		"in_progress":      "In Progress",
		"READY-FOR-PICKUP": "Ready For Pickup",
		"":                 "Unknown",
	} {
		if got := titleStatus(in); got != want {
			t.Errorf("titleStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
