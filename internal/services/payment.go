package services

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/barangay-portal/resident-gateway/internal/models"
)

// PayloadKind tags the shapes the payments endpoint is known to return.
type PayloadKind int

const (
	// PayloadEmpty is null, missing, scalar or non-JSON input.
	PayloadEmpty PayloadKind = iota
	// PayloadList is an already flat array of entries.
	PayloadList
	// PayloadContainers is an object keyed by utility containers.
	PayloadContainers
)

// containerKeys is the order entries are collected in from keyed payloads.
var containerKeys = []string{
	"garbage",
	"garbagePayments",
	"streetlight",
	"streetlightPayments",
	"utilityPayments",
	"gasPayments",
	"records",
	"data",
}

// PaymentsPayload is the decoded payments response.
type PaymentsPayload struct {
	Kind       PayloadKind
	List       []json.RawMessage
	Containers map[string]json.RawMessage
}

// ParsePaymentsPayload classifies a raw payments response. It never fails;
// anything unrecognized is PayloadEmpty.
func ParsePaymentsPayload(raw json.RawMessage) PaymentsPayload {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return PaymentsPayload{Kind: PayloadEmpty}
	}
	switch raw[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return PaymentsPayload{Kind: PayloadEmpty}
		}
		return PaymentsPayload{Kind: PayloadList, List: list}
	case '{':
		var containers map[string]json.RawMessage
		if err := json.Unmarshal(raw, &containers); err != nil {
			return PaymentsPayload{Kind: PayloadEmpty}
		}
		return PaymentsPayload{Kind: PayloadContainers, Containers: containers}
	default:
		return PaymentsPayload{Kind: PayloadEmpty}
	}
}

// Entries flattens the payload into raw entries, preserving source order.
func (p PaymentsPayload) Entries() []json.RawMessage {
	switch p.Kind {
	case PayloadList:
		out := make([]json.RawMessage, len(p.List))
		copy(out, p.List)
		return out
	case PayloadContainers:
		return flattenContainers(p.Containers)
	default:
		return []json.RawMessage{}
	}
}

func flattenContainers(containers map[string]json.RawMessage) []json.RawMessage {
	out := []json.RawMessage{}
	for _, key := range containerKeys {
		value, ok := containers[key]
		if !ok {
			continue
		}
		value = bytes.TrimSpace(value)
		if len(value) == 0 {
			continue
		}
		switch value[0] {
		case '[':
			var items []json.RawMessage
			if err := json.Unmarshal(value, &items); err == nil {
				out = append(out, items...)
			}
		case '{':
			var nested struct {
				Payments json.RawMessage `json:"payments"`
			}
			if err := json.Unmarshal(value, &nested); err != nil {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(nested.Payments, &items); err == nil {
				out = append(out, items...)
			}
		}
	}
	return out
}

// NormalizePaymentsRaw flattens any payments payload into its raw entries.
func NormalizePaymentsRaw(raw json.RawMessage) []json.RawMessage {
	return ParsePaymentsPayload(raw).Entries()
}

// NormalizePayments flattens any payments payload into entries. Elements
// that are not objects decode to zero-valued entries.
func NormalizePayments(raw json.RawMessage) []models.RawPaymentEntry {
	items := NormalizePaymentsRaw(raw)
	entries := make([]models.RawPaymentEntry, len(items))
	for i, item := range items {
		_ = json.Unmarshal(item, &entries[i])
	}
	return entries
}

// BuildRecord maps one raw entry onto a canonical record. It is total: every
// field has a fallback, and status is a function of balance, due date and
// today only. today also fixes the location used for calendar comparisons.
func BuildRecord(entry models.RawPaymentEntry, today time.Time) models.PaymentRecord {
	loc := today.Location()

	rawType, _ := models.FirstPresent(entry.Type, entry.UtilityType, entry.FeeType)
	feeType := ClassifyFeeType(rawType)

	monthKey, hasMonth := resolveMonthKey(entry, loc)
	dueDate := resolveDueDate(monthKey, entry.DueDate, today)

	var amount decimal.Decimal
	if n, ok := models.FirstNumber(entry.TotalCharge, entry.Amount, entry.Charge); ok {
		amount = clampZero(n.Value)
	}
	amountPaid := clampZero(entry.AmountPaid.Or(decimal.Zero))

	var balance decimal.Decimal
	if entry.Balance.Valid {
		balance = clampZero(entry.Balance.Value)
	} else {
		balance = clampZero(amount.Sub(amountPaid))
	}

	record := models.PaymentRecord{
		ID:          resolveRecordID(entry, feeType, monthKey, hasMonth, today),
		Type:        feeType,
		MonthKey:    monthKey,
		DueDate:     dueDate,
		Amount:      amount,
		AmountPaid:  amountPaid,
		Balance:     balance,
		Status:      DeriveStatus(balance, dueDate, today),
		PaymentDate: resolvePaymentDate(entry, loc),
	}
	if !hasMonth {
		record.MonthKey = dueDate.Format("2006-01")
	}
	return record
}

// BuildRecords maps every entry with the same today.
func BuildRecords(entries []models.RawPaymentEntry, today time.Time) []models.PaymentRecord {
	records := make([]models.PaymentRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, BuildRecord(entry, today))
	}
	return records
}

// ClassifyFeeType maps a raw type label onto a fee type. Anything that does
// not mention "street" is billed as garbage.
func ClassifyFeeType(raw string) models.FeeType {
	if strings.Contains(strings.ToLower(raw), "street") {
		return models.FeeStreetlight
	}
	return models.FeeGarbage
}

// DeriveStatus evaluates, in order: paid, overdue, pending (due this
// calendar month), upcoming. Dates compare at day granularity in today's
// location.
func DeriveStatus(balance decimal.Decimal, dueDate, today time.Time) models.PaymentStatus {
	if balance.LessThanOrEqual(decimal.Zero) {
		return models.StatusPaid
	}
	due := startOfDay(dueDate.In(today.Location()))
	now := startOfDay(today)
	switch {
	case due.Before(now):
		return models.StatusOverdue
	case due.Year() == now.Year() && due.Month() == now.Month():
		return models.StatusPending
	default:
		return models.StatusUpcoming
	}
}

var monthLayouts = []string{"2006-1", "2006/1", "January 2006", "Jan 2006", "1/2006"}

// ParseMonthKey reads a billing period and returns it as YYYY-MM.
func ParseMonthKey(raw string, loc *time.Location) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range monthLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts.Format("2006-01"), true
		}
	}
	if ts, ok := models.ParseTime(raw, loc); ok {
		return ts.Format("2006-01"), true
	}
	return "", false
}

// resolveMonthKey returns the billing period and whether the entry supplied
// one, directly or through its due date. Unparseable period text is kept
// verbatim.
func resolveMonthKey(entry models.RawPaymentEntry, loc *time.Location) (string, bool) {
	if raw, ok := models.FirstPresent(entry.Month, entry.Period, entry.BillingMonth); ok {
		if key, ok := ParseMonthKey(raw, loc); ok {
			return key, true
		}
		return raw, true
	}
	if due, ok := entry.DueDate.In(loc); ok {
		return due.Format("2006-01"), true
	}
	return "", false
}

func resolveDueDate(monthKey string, rawDue models.FlexTime, today time.Time) time.Time {
	loc := today.Location()
	if ts, err := time.ParseInLocation("2006-01", monthKey, loc); err == nil {
		return endOfMonth(ts)
	}
	if due, ok := rawDue.In(loc); ok {
		return startOfDay(due)
	}
	return endOfMonth(today)
}

func resolvePaymentDate(entry models.RawPaymentEntry, loc *time.Location) *time.Time {
	if n := len(entry.Payments); n > 0 {
		if ts, ok := entry.Payments[n-1].PaidAt.In(loc); ok {
			return &ts
		}
	}
	if ts, ok := models.FirstTime(loc, entry.CompletedAt, entry.CompletedDate, entry.UpdatedAt, entry.TransactionDate); ok {
		return &ts
	}
	return nil
}

func resolveRecordID(entry models.RawPaymentEntry, feeType models.FeeType, monthKey string, hasMonth bool, today time.Time) string {
	if id, ok := models.FirstPresent(entry.MongoID, entry.ID); ok {
		return id
	}
	if hasMonth {
		return string(feeType) + "-" + monthKey
	}
	return string(feeType) + "-" + strconv.FormatInt(today.UnixMilli(), 10)
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfMonth is day 0 of the following month.
func endOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}
