package valuation

import (
	"fmt"
	"math"
)

// Divergence compares the AI estimate with the regression estimate.
type Divergence struct {
	Difference   float64 `json:"difference"`
	Percent      float64 `json:"percent"`
	PercentKnown bool    `json:"percent_known"`
	Direction    string  `json:"direction"` // higher|lower|equal
	Narrative    string  `json:"narrative"`
}

const (
	premiumNote = "This suggests the property has premium features (location quality, condition) that simple square footage analysis misses."
	discountNote = "This suggests the raw square footage might be overvalued by a simple linear model, likely due to market cooling or specific location drawbacks."
)

// Compare measures how far the AI estimate sits from the regression line's
// prediction. Percent is relative to the regression estimate and is unknown
// when that estimate is zero.
func Compare(aiEstimate, regressionEstimate float64) Divergence {
	d := Divergence{Difference: aiEstimate - regressionEstimate}
	switch {
	case d.Difference > 0:
		d.Direction = "higher"
	case d.Difference < 0:
		d.Direction = "lower"
	default:
		d.Direction = "equal"
	}
	if regressionEstimate != 0 {
		d.Percent = d.Difference / regressionEstimate * 100
		d.PercentKnown = !math.IsNaN(d.Percent) && !math.IsInf(d.Percent, 0)
	}

	switch {
	case d.Direction == "equal":
		d.Narrative = "The AI model and the strict linear regression line agree on the price."
	case d.PercentKnown:
		d.Narrative = fmt.Sprintf("The AI model is predicting a price %.1f%% %s than the strict linear regression line. %s",
			math.Abs(d.Percent), d.Direction, note(d.Direction))
	default:
		d.Narrative = fmt.Sprintf("The AI model is predicting a price %s than the strict linear regression line, which is zero at this size, so no percentage applies. %s",
			d.Direction, note(d.Direction))
	}
	return d
}

func note(direction string) string {
	if direction == "higher" {
		return premiumNote
	}
	return discountNote
}
