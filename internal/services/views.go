package services

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/barangay-portal/resident-gateway/internal/models"
)

// BuildPaymentView attaches display strings and the advisory verified flag.
func BuildPaymentView(rec models.PaymentRecord, verified bool, loc *time.Location) models.PaymentView {
	view := models.PaymentView{
		PaymentRecord:   rec,
		VerifiedPaid:    verified,
		StatusLabel:     rec.Status.Label(),
		PeriodLabel:     FormatPeriod(rec.MonthKey),
		AmountLabel:     FormatPeso(rec.Amount),
		AmountPaidLabel: FormatPeso(rec.AmountPaid),
		BalanceLabel:    FormatPeso(rec.Balance),
		DueDateLabel:    FormatDate(rec.DueDate, loc),
	}
	if rec.PaymentDate != nil {
		view.PaymentDateLabel = FormatDate(*rec.PaymentDate, loc)
	}
	return view
}

// BuildPaymentViews builds views for every record against one verified set.
func BuildPaymentViews(records []models.PaymentRecord, keys VerifiedKeys, loc *time.Location) []models.PaymentView {
	views := make([]models.PaymentView, 0, len(records))
	for _, rec := range records {
		views = append(views, BuildPaymentView(rec, keys.IsVerifiedPaid(rec), loc))
	}
	return views
}

// MarkVerified cross-references records with ledger transactions in one step.
func MarkVerified(records []models.PaymentRecord, txns []models.FinancialTransaction, loc *time.Location) []models.PaymentView {
	return BuildPaymentViews(records, BuildVerifiedKeys(txns, loc), loc)
}

// SortPaymentViews orders views newest billing period first.
func SortPaymentViews(views []models.PaymentView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].DueDate.After(views[j].DueDate)
	})
}

// PaymentFilter narrows the payments table.
type PaymentFilter struct {
	Status string
	Type   string
	Search string
}

// FilterPaymentViews applies status, fee type and free-text filters.
func FilterPaymentViews(views []models.PaymentView, f PaymentFilter) []models.PaymentView {
	status := strings.ToLower(strings.TrimSpace(f.Status))
	feeType := strings.TrimSpace(f.Type)
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := []models.PaymentView{}
	for _, v := range views {
		if status != "" && status != "all" && string(v.Status) != status {
			continue
		}
		if feeType != "" && !strings.EqualFold(feeType, "all") && ClassifyFeeType(feeType) != v.Type {
			continue
		}
		if search != "" && !containsAny(search, string(v.Type), v.PeriodLabel, v.MonthKey, v.StatusLabel, v.AmountLabel, v.DueDateLabel) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// SummarizeByType totals records per fee type; both types are always listed.
func SummarizeByType(views []models.PaymentView) []models.TypeSummary {
	order := []models.FeeType{models.FeeGarbage, models.FeeStreetlight}
	byType := map[models.FeeType]*models.TypeSummary{}
	for _, t := range order {
		byType[t] = &models.TypeSummary{Type: t}
	}
	for _, v := range views {
		s := byType[v.Type]
		s.Records++
		s.TotalCharged = s.TotalCharged.Add(v.Amount)
		s.TotalPaid = s.TotalPaid.Add(v.AmountPaid)
		s.Outstanding = s.Outstanding.Add(v.Balance)
	}
	out := make([]models.TypeSummary, 0, len(order))
	for _, t := range order {
		s := byType[t]
		s.OutstandingLabel = FormatPeso(s.Outstanding)
		out = append(out, *s)
	}
	return out
}

// SummarizeUtilities builds the dashboard card. NextDue is the unpaid record
// with the earliest due date.
func SummarizeUtilities(views []models.PaymentView) models.UtilitySummary {
	summary := models.UtilitySummary{
		Counts: map[models.PaymentStatus]int{
			models.StatusPaid:     0,
			models.StatusOverdue:  0,
			models.StatusPending:  0,
			models.StatusUpcoming: 0,
		},
		Outstanding: decimal.Zero,
	}
	for i := range views {
		v := views[i]
		summary.Counts[v.Status]++
		summary.Outstanding = summary.Outstanding.Add(v.Balance)
		if v.VerifiedPaid {
			summary.VerifiedPaid++
		}
		if v.Status == models.StatusPaid {
			continue
		}
		if summary.NextDue == nil || v.DueDate.Before(summary.NextDue.DueDate) {
			summary.NextDue = &v
		}
	}
	summary.OutstandingLabel = FormatPeso(summary.Outstanding)
	return summary
}

// BuildTransactionRows flattens ledger transactions into table rows, newest
// first.
func BuildTransactionRows(txns []models.FinancialTransaction, loc *time.Location) []models.TransactionRow {
	type dated struct {
		row models.TransactionRow
		at  time.Time
	}
	items := make([]dated, 0, len(txns))
	for _, txn := range txns {
		at, _ := models.FirstTime(loc, txn.CreatedAt, txn.UpdatedAt, txn.Timestamp)
		items = append(items, dated{
			at: at,
			row: models.TransactionRow{
				ID:            txn.Key(),
				Date:          FormatDate(at, loc),
				Description:   txn.Description.String(),
				PaymentMethod: txn.PaymentMethod.String(),
				Amount:        FormatPHP(clampZero(txn.Amount.Value)),
				Status:        txn.Status.String(),
				TxHash:        txn.TxHash.String(),
			},
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].at.After(items[j].at) })
	rows := make([]models.TransactionRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, item.row)
	}
	return rows
}

// FilterTransactionRows keeps rows matching search in any visible column.
func FilterTransactionRows(rows []models.TransactionRow, search string) []models.TransactionRow {
	search = strings.ToLower(strings.TrimSpace(search))
	out := []models.TransactionRow{}
	for _, r := range rows {
		if search != "" && !containsAny(search, r.Date, r.Description, r.PaymentMethod, r.Amount, r.Status, r.TxHash) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// BuildRequestRows flattens document requests into table rows, newest first.
// A row is on-chain when a ledger record references its id.
func BuildRequestRows(requests []models.DocumentRequest, chain []models.BlockchainRequest, loc *time.Location) []models.DocumentRequestRow {
	onChain := map[string]bool{}
	for _, c := range chain {
		if id, ok := models.FirstPresent(c.RequestID, c.MongoID); ok {
			onChain[id] = true
		}
	}

	type dated struct {
		row models.DocumentRequestRow
		at  time.Time
	}
	items := make([]dated, 0, len(requests))
	for _, req := range requests {
		at, _ := models.FirstTime(loc, req.CreatedAt, req.UpdatedAt)
		id := req.Key()
		items = append(items, dated{
			at: at,
			row: models.DocumentRequestRow{
				ID:            id,
				DocumentType:  strings.TrimSpace(req.DocumentType),
				Purpose:       strings.TrimSpace(req.Purpose),
				Status:        titleStatus(req.Status),
				DateRequested: FormatDate(at, loc),
				OnChain:       id != "" && onChain[id],
			},
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].at.After(items[j].at) })
	rows := make([]models.DocumentRequestRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, item.row)
	}
	return rows
}

// FilterRequestRows applies a status filter and a free-text search.
func FilterRequestRows(rows []models.DocumentRequestRow, status, search string) []models.DocumentRequestRow {
	status = strings.TrimSpace(status)
	search = strings.ToLower(strings.TrimSpace(search))
	out := []models.DocumentRequestRow{}
	for _, r := range rows {
		if status != "" && !strings.EqualFold(status, "all") && !strings.EqualFold(titleStatus(status), r.Status) {
			continue
		}
		if search != "" && !containsAny(search, r.ID, r.DocumentType, r.Purpose, r.Status, r.DateRequested) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func containsAny(needle string, haystack ...string) bool {
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}
