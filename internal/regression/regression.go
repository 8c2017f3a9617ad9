// Package regression fits an ordinary least-squares line of price against
// size and evaluates it at a query size.
//
// Fit is pure: it performs no I/O, keeps no state and never mutates its
// input, so it may be called concurrently without coordination.
package regression

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Observation is one comparable sale.
type Observation struct {
	Size  float64 `json:"size"`
	Price float64 `json:"price"`
}

// Model is the fitted line together with its goodness of fit and the
// prediction at the query size. Formula is for display only.
type Model struct {
	Slope          float64 `json:"slope"`
	Intercept      float64 `json:"intercept"`
	RSquared       float64 `json:"r_squared"`
	PredictedPrice float64 `json:"predicted_price"`
	Formula        string  `json:"formula"`
}

// At evaluates the fitted line at size. No clamping to the observed range.
func (m Model) At(size float64) float64 {
	return m.Slope*size + m.Intercept
}

// Fit computes the OLS line price = slope*size + intercept over obs and
// evaluates it at querySize.
//
// RSquared is reported as 0 when every observed price is identical, and is
// not clamped otherwise; a fit worse than the mean yields a negative value.
func Fit(obs []Observation, querySize float64) (Model, error) {
	n := len(obs)
	if n == 0 {
		return Model{}, invalid("empty dataset")
	}
	if !finite(querySize) {
		return Model{}, invalid("non-finite query size")
	}

	var sumX, sumY, sumXY, sumXX float64
	sameSize := true
	for i, o := range obs {
		if !finite(o.Size) || !finite(o.Price) {
			return Model{}, invalid("non-finite value at observation " + strconv.Itoa(i))
		}
		if o.Size != obs[0].Size {
			sameSize = false
		}
		sumX += o.Size
		sumY += o.Price
		sumXY += o.Size * o.Price
		sumXX += o.Size * o.Size
	}

	if n == 1 || sameSize {
		return Model{}, degenerate("zero variance in size")
	}
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if !(denom > 0) {
		return Model{}, degenerate("zero variance in size")
	}

	slope := (nf*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / nf
	if !finite(slope) || !finite(intercept) {
		return Model{}, degenerate("size variance too small for a stable slope")
	}

	meanY := sumY / nf
	var ssTot, ssRes float64
	for _, o := range obs {
		dm := o.Price - meanY
		dr := o.Price - (slope*o.Size + intercept)
		ssTot += dm * dm
		ssRes += dr * dr
	}
	r2 := 0.0
	if ssTot != 0 {
		r2 = 1 - ssRes/ssTot
	}

	return Model{
		Slope:          slope,
		Intercept:      intercept,
		RSquared:       r2,
		PredictedPrice: slope*querySize + intercept,
		Formula:        FormatFormula(slope, intercept),
	}, nil
}

// FormatFormula renders "Price = <slope> * Size <+|-> <|intercept|>" with two
// decimals, rounding half away from zero on the shortest decimal form.
func FormatFormula(slope, intercept float64) string {
	sign := "+"
	if intercept < 0 {
		sign = "-"
	}
	return "Price = " + fixed2(slope) + " * Size " + sign + " " + fixed2(math.Abs(intercept))
}

func fixed2(v float64) string {
	if !finite(v) {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// SizeRange returns the smallest and largest size in obs. ok is false for an
// empty slice.
func SizeRange(obs []Observation) (lo, hi float64, ok bool) {
	if len(obs) == 0 {
		return 0, 0, false
	}
	lo, hi = obs[0].Size, obs[0].Size
	for _, o := range obs[1:] {
		if o.Size < lo {
			lo = o.Size
		}
		if o.Size > hi {
			hi = o.Size
		}
	}
	return lo, hi, true
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
