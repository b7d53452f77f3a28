package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// FeeType is the utility a billing period belongs to.
type FeeType string

const (
	FeeGarbage     FeeType = "Garbage Fee"
	FeeStreetlight FeeType = "Streetlight Fee"
)

// PaymentStatus is derived from balance and due date at build time.
type PaymentStatus string

const (
	StatusPaid     PaymentStatus = "paid"
	StatusOverdue  PaymentStatus = "overdue"
	StatusPending  PaymentStatus = "pending"
	StatusUpcoming PaymentStatus = "upcoming"
)

// Label is the human-readable status shown in tables and cards.
func (s PaymentStatus) Label() string {
	switch s {
	case StatusPaid:
		return "Paid"
	case StatusOverdue:
		return "Overdue"
	case StatusPending:
		return "Due this month"
	case StatusUpcoming:
		return "Upcoming"
	default:
		return "Unknown"
	}
}

// SubPayment is one installment recorded against a billing period.
type SubPayment struct {
	Amount FlexNumber `json:"amount"`
	PaidAt FlexTime   `json:"paidAt"`
	Method FlexString `json:"method"`
}

// SubPayments tolerates a non-array "payments" field by treating it as empty.
type SubPayments []SubPayment

func (p *SubPayments) UnmarshalJSON(b []byte) error {
	*p = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '[' {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nil
	}
	out := make(SubPayments, 0, len(items))
	for _, item := range items {
		var sp SubPayment
		_ = json.Unmarshal(item, &sp)
		out = append(out, sp)
	}
	*p = out
	return nil
}

// RawPaymentEntry is a utility billing entry as the backend sends it. Every
// field is optional and no two backend variants populate the same subset.
type RawPaymentEntry struct {
	MongoID FlexString `json:"_id"`
	ID      FlexString `json:"id"`

	Type        FlexString `json:"type"`
	UtilityType FlexString `json:"utilityType"`
	FeeType     FlexString `json:"feeType"`

	Month        FlexString `json:"month"`
	Period       FlexString `json:"period"`
	BillingMonth FlexString `json:"billingMonth"`
	DueDate      FlexTime   `json:"dueDate"`

	TotalCharge FlexNumber `json:"totalCharge"`
	Amount      FlexNumber `json:"amount"`
	Charge      FlexNumber `json:"charge"`
	AmountPaid  FlexNumber `json:"amountPaid"`
	Balance     FlexNumber `json:"balance"`

	Payments SubPayments `json:"payments"`

	CompletedAt     FlexTime `json:"completedAt"`
	CompletedDate   FlexTime `json:"completedDate"`
	UpdatedAt       FlexTime `json:"updatedAt"`
	TransactionDate FlexTime `json:"transactionDate"`
}

// PaymentRecord is the canonical billing period built from a raw entry. It is
// rebuilt on every fetch and never mutated.
type PaymentRecord struct {
	ID          string          `json:"id"`
	Type        FeeType         `json:"type"`
	MonthKey    string          `json:"monthKey"`
	DueDate     time.Time       `json:"dueDate"`
	Amount      decimal.Decimal `json:"amount"`
	AmountPaid  decimal.Decimal `json:"amountPaid"`
	Balance     decimal.Decimal `json:"balance"`
	Status      PaymentStatus   `json:"status"`
	PaymentDate *time.Time      `json:"paymentDate,omitempty"`
}

// PaymentView is a record plus its display strings. VerifiedPaid is an
// advisory keyword/date match against ledger transactions, not proof of
// payment.
type PaymentView struct {
	PaymentRecord
	VerifiedPaid     bool   `json:"verifiedPaid"`
	StatusLabel      string `json:"statusLabel"`
	PeriodLabel      string `json:"periodLabel"`
	AmountLabel      string `json:"amountLabel"`
	AmountPaidLabel  string `json:"amountPaidLabel"`
	BalanceLabel     string `json:"balanceLabel"`
	DueDateLabel     string `json:"dueDateLabel"`
	PaymentDateLabel string `json:"paymentDateLabel,omitempty"`
}

// TypeSummary totals one fee type's records.
type TypeSummary struct {
	Type             FeeType         `json:"type"`
	Records          int             `json:"records"`
	TotalCharged     decimal.Decimal `json:"totalCharged"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	OutstandingLabel string          `json:"outstandingLabel"`
}

// UtilitySummary is the dashboard card over all records.
type UtilitySummary struct {
	Counts           map[PaymentStatus]int `json:"counts"`
	Outstanding      decimal.Decimal       `json:"outstanding"`
	OutstandingLabel string                `json:"outstandingLabel"`
	NextDue          *PaymentView          `json:"nextDue,omitempty"`
	VerifiedPaid     int                   `json:"verifiedPaid"`
}
