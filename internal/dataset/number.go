package dataset

import (
	"math"
	"strconv"
	"strings"
)

var currencyStripper = strings.NewReplacer(
	"₹", "", "$", "", "€", "", "£", "",
	"rs.", "", "rs", "", "inr", "", "usd", "", "eur", "", "gbp", "",
	"sq.ft.", "", "sq.ft", "", "sq ft", "", "sqft", "", "ft²", "",
)

var multipliers = []struct {
	word   string
	factor float64
}{
	{"crores", 1e7}, {"crore", 1e7}, {"cr", 1e7},
	{"lakhs", 1e5}, {"lakh", 1e5}, {"lacs", 1e5}, {"lac", 1e5},
	{"k", 1e3},
}

// ParseNumber reads a human-formatted number such as "1,200", "1.200,50",
// "₹ 45,00,000" or "45 lakh". A zero DecimalSeparator auto-detects the
// separators per value. Non-finite results are rejected.
func ParseNumber(s string, opt Options) (float64, bool) {
	raw := strings.ToLower(strings.TrimSpace(s))
	raw = strings.ReplaceAll(raw, "\u00a0", " ")

	factor := 1.0
	for _, m := range multipliers {
		if strings.HasSuffix(raw, m.word) {
			raw = strings.TrimSpace(strings.TrimSuffix(raw, m.word))
			factor = m.factor
			break
		}
	}
	raw = strings.TrimSpace(currencyStripper.Replace(raw))
	if raw == "" {
		return 0, false
	}

	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		dec, thou = detectSeparators(raw)
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f * factor, true
}

// detectSeparators guesses the decimal and thousands separators of a single
// value. A lone comma followed by exactly three digits is a thousands
// separator, since sizes and prices are rarely written with three decimals.
func detectSeparators(raw string) (dec, thou rune) {
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			return ',', '.'
		}
		return '.', ','
	case cpos >= 0:
		if strings.Count(raw, ",") > 1 || len(raw)-cpos-1 == 3 {
			return '.', ','
		}
		return ',', 0
	case dpos >= 0:
		if strings.Count(raw, ".") > 1 {
			return ',', '.'
		}
		return '.', 0
	}
	return '.', 0
}
