package report

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatCurrency renders a whole-unit amount. INR uses Indian digit grouping
// (₹12,34,567); other codes group in thousands. Codes without a known symbol
// are prefixed with the code itself ("AED 1,234,567").
func FormatCurrency(v float64, code string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "INR"
	}
	digits := decimal.NewFromFloat(v).Round(0).StringFixed(0)
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")
	if digits == "0" {
		neg = false
	}

	var grouped string
	if code == "INR" {
		grouped = groupIndian(digits)
	} else {
		grouped = groupThousands(digits)
	}
	sym, ok := currencySymbols[code]
	if !ok {
		sym = code + " "
	}
	if neg {
		return "-" + sym + grouped
	}
	return sym + grouped
}

// SignedCurrency is FormatCurrency with an explicit "+" for positive amounts.
func SignedCurrency(v float64, code string) string {
	s := FormatCurrency(v, code)
	if v > 0 && s != FormatCurrency(0, code) && s != "n/a" {
		return "+" + s
	}
	return s
}

func groupThousands(d string) string {
	if len(d) <= 3 {
		return d
	}
	var b strings.Builder
	head := len(d) % 3
	if head > 0 {
		b.WriteString(d[:head])
	}
	for i := head; i < len(d); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(d[i : i+3])
	}
	return b.String()
}

// groupIndian keeps the last three digits together and groups the rest in
// pairs: 1234567 -> 12,34,567.
func groupIndian(d string) string {
	if len(d) <= 3 {
		return d
	}
	head, tail := d[:len(d)-3], d[len(d)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}
