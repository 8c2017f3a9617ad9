package valuation

import (
	"fmt"
	"strings"
)

// DefaultComparables is how many comparable sales are requested per valuation.
const DefaultComparables = 25

var currencyNames = map[string]string{
	"INR": "Indian Rupees (INR)",
	"USD": "US Dollars (USD)",
	"EUR": "Euros (EUR)",
	"GBP": "British Pounds (GBP)",
}

var currencyMarkets = map[string]string{
	"INR": "the Indian market",
	"USD": "the US market",
	"GBP": "the UK market",
}

const systemPrompt = "You are a real estate data scientist. You answer with a single JSON object and nothing else."

// BuildPrompt renders the instruction asking for comparables and an expert
// valuation of h, priced in currency.
func BuildPrompt(h HouseInput, count int, currency string) string {
	if count <= 0 {
		count = DefaultComparables
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "INR"
	}
	curName, ok := currencyNames[currency]
	if !ok {
		curName = currency
	}
	market, ok := currencyMarkets[currency]
	if !ok {
		market = "the local market"
	}

	var b strings.Builder
	b.WriteString("You are a real estate data scientist.\n")
	fmt.Fprintf(&b, "1. Generate a realistic dataset of %d \"comparable sales\" (SqFt vs Price) for a %s in %s.\n",
		count, h.PropertyType, h.Location)
	fmt.Fprintf(&b, "   The target property is a %d built %s with %d beds and %s baths.\n",
		h.YearBuilt, h.PropertyType, h.Bedrooms, trimFloat(h.Bathrooms))
	fmt.Fprintf(&b, "   The target property condition is rated: %d/5 (%s).\n", h.Condition, ConditionLabel(h.Condition))
	fmt.Fprintf(&b, "   The target size is %s sqft.\n", trimFloat(h.SqFt))
	fmt.Fprintf(&b, "   The generated comparables should reflect the property type (%q) and condition.\n", string(h.PropertyType))
	b.WriteString("   For example, a \"Villa\" is generally more expensive per sqft than an \"Apartment\", and a condition rating of 5/5 should command a premium over the average.\n")
	b.WriteString("   The dataset should be scattered reasonably to form a linear trend suitable for linear regression analysis.\n\n")
	b.WriteString("2. Provide an expert analysis and price estimate considering non-linear factors (location specific nuances, market heat, condition implied by year built).\n\n")
	fmt.Fprintf(&b, "All prices must be in %s and realistic for %s.\n\n", curName, market)
	b.WriteString("Return strict JSON with exactly this shape:\n")
	b.WriteString(`{
  "comparables": [{"sqFt": number, "price": number}],
  "aiAnalysis": {
    "estimatedPrice": number,
    "priceRangeLow": number,
    "priceRangeHigh": number,
    "reasoning": "short paragraph explaining the valuation",
    "marketTrend": "Up" | "Down" | "Stable",
    "locationQuality": "short descriptor of the area, e.g. High Demand Urban"
  }
}`)
	b.WriteString("\n")
	return b.String()
}

func trimFloat(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}
