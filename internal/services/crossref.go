package services

import (
	"strings"
	"time"

	"github.com/barangay-portal/resident-gateway/internal/models"
)

// VerifiedKeys is the set of "{fee type}|{YYYY-MM}" periods that have a
// matching ledger transaction.
//
// The match is a heuristic: a transaction counts when its description or
// payment method mentions the utility and its date falls in the period.
// There is no link between a ledger entry and a specific bill, so callers
// must present the result as advisory, never as proof of payment.
type VerifiedKeys map[string]struct{}

// VerifiedKey formats the set key for a fee type and billing period.
func VerifiedKey(feeType models.FeeType, monthKey string) string {
	return string(feeType) + "|" + monthKey
}

// BuildVerifiedKeys derives the verified set from ledger transactions.
// Transactions without a utility hint or a parseable date contribute nothing.
func BuildVerifiedKeys(txns []models.FinancialTransaction, loc *time.Location) VerifiedKeys {
	keys := make(VerifiedKeys)
	for _, txn := range txns {
		ts, ok := models.FirstTime(loc, txn.CreatedAt, txn.UpdatedAt, txn.Timestamp)
		if !ok {
			continue
		}
		feeType, ok := transactionFeeType(txn)
		if !ok {
			continue
		}
		keys[VerifiedKey(feeType, ts.Format("2006-01"))] = struct{}{}
	}
	return keys
}

func transactionFeeType(txn models.FinancialTransaction) (models.FeeType, bool) {
	hint := strings.ToLower(txn.Description.Value) + " " + strings.ToLower(txn.PaymentMethod.Value)
	switch {
	case strings.Contains(hint, "street"):
		return models.FeeStreetlight, true
	case strings.Contains(hint, "garbage"):
		return models.FeeGarbage, true
	default:
		return "", false
	}
}

// Has reports whether the key is in the set.
func (k VerifiedKeys) Has(key string) bool {
	_, ok := k[key]
	return ok
}

// IsVerifiedPaid reports whether a paid record's period is corroborated on
// the ledger. Unpaid records are never verified, whatever the ledger says.
func (k VerifiedKeys) IsVerifiedPaid(rec models.PaymentRecord) bool {
	if rec.Status != models.StatusPaid {
		return false
	}
	return k.Has(VerifiedKey(rec.Type, rec.MonthKey))
}

// VerifiedPaidRecords returns the subset of records that are verified paid.
func (k VerifiedKeys) VerifiedPaidRecords(records []models.PaymentRecord) []models.PaymentRecord {
	out := []models.PaymentRecord{}
	for _, rec := range records {
		if k.IsVerifiedPaid(rec) {
			out = append(out, rec)
		}
	}
	return out
}
