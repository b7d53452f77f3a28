package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Display formats shared by the JSON views and the exports. Dates follow the
// en-US short form residents already see in the browser (M/D/YYYY).
const (
	displayDateLayout = "1/2/2006"
	periodLayout      = "January 2006"
)

// FormatPeso renders an amount as "₱1,234.56".
func FormatPeso(d decimal.Decimal) string {
	return "₱" + groupThousands(d.StringFixed(2))
}

// FormatPHP renders an amount as "PHP 1,234.56" for fonts without the peso
// sign.
func FormatPHP(d decimal.Decimal) string {
	return "PHP " + groupThousands(d.StringFixed(2))
}

func groupThousands(fixed string) string {
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i:]
	}
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}

// FormatDate renders a date as M/D/YYYY in loc. The zero time is blank.
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(displayDateLayout)
}

// FormatPeriod renders "2024-03" as "March 2024"; other text is returned as is.
func FormatPeriod(monthKey string) string {
	ts, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return monthKey
	}
	return ts.Format(periodLayout)
}

// titleStatus turns backend status codes ("in_progress") into labels
// ("In Progress").
func titleStatus(s string) string {
	s = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(s))
	if s == "" {
		return "Unknown"
	}
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
