package valuation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/prophecy-cli/internal/regression"
)

var (
	// ErrEmptyResponse means the runtime answered with no content.
	ErrEmptyResponse = errors.New("no data returned from the AI runtime")
	// ErrMalformedResponse means the content was not the expected JSON object.
	ErrMalformedResponse = errors.New("malformed AI response")
)

// MarketTrend is the direction the AI believes prices are moving.
type MarketTrend string

const (
	TrendUp     MarketTrend = "Up"
	TrendDown   MarketTrend = "Down"
	TrendStable MarketTrend = "Stable"
)

// Analysis is the AI's narrative valuation.
type Analysis struct {
	EstimatedPrice  float64     `json:"estimatedPrice"`
	PriceRangeLow   float64     `json:"priceRangeLow"`
	PriceRangeHigh  float64     `json:"priceRangeHigh"`
	Reasoning       string      `json:"reasoning"`
	MarketTrend     MarketTrend `json:"marketTrend"`
	LocationQuality string      `json:"locationQuality"`
}

// Reply is a decoded runtime answer.
type Reply struct {
	Comparables []regression.Observation
	Analysis    Analysis
	Warnings    []string
}

type wirePoint struct {
	SqFt  *float64 `json:"sqFt"`
	Size  *float64 `json:"size"`
	Price *float64 `json:"price"`
}

type wireReply struct {
	Comparables []wirePoint `json:"comparables"`
	AIAnalysis  struct {
		EstimatedPrice  float64 `json:"estimatedPrice"`
		PriceRangeLow   float64 `json:"priceRangeLow"`
		PriceRangeHigh  float64 `json:"priceRangeHigh"`
		Reasoning       string  `json:"reasoning"`
		MarketTrend     string  `json:"marketTrend"`
		LocationQuality string  `json:"locationQuality"`
	} `json:"aiAnalysis"`
}

// Decode parses the runtime's text into comparables and analysis.
//
// Comparables whose size or price is missing, non-finite or not positive are
// dropped and reported in Warnings; the regression engine itself does not
// check positivity. Order of the surviving comparables is preserved.
func Decode(text string) (*Reply, error) {
	body := stripFences(text)
	if body == "" {
		return nil, ErrEmptyResponse
	}
	var w wireReply
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	out := &Reply{Comparables: make([]regression.Observation, 0, len(w.Comparables))}
	for i, p := range w.Comparables {
		size := p.SqFt
		if size == nil {
			size = p.Size
		}
		if size == nil || p.Price == nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("comparable %d dropped: missing sqFt or price", i+1))
			continue
		}
		if !positive(*size) || !positive(*p.Price) {
			out.Warnings = append(out.Warnings, fmt.Sprintf("comparable %d dropped: sqFt=%v price=%v must be positive", i+1, *size, *p.Price))
			continue
		}
		out.Comparables = append(out.Comparables, regression.Observation{Size: *size, Price: *p.Price})
	}

	a := w.AIAnalysis
	trend, known := ParseTrend(a.MarketTrend)
	if !known {
		out.Warnings = append(out.Warnings, fmt.Sprintf("unrecognised market trend %q treated as Stable", a.MarketTrend))
	}
	out.Analysis = Analysis{
		EstimatedPrice:  a.EstimatedPrice,
		PriceRangeLow:   a.PriceRangeLow,
		PriceRangeHigh:  a.PriceRangeHigh,
		Reasoning:       strings.TrimSpace(a.Reasoning),
		MarketTrend:     trend,
		LocationQuality: strings.TrimSpace(a.LocationQuality),
	}
	if !positive(a.EstimatedPrice) {
		out.Warnings = append(out.Warnings, "AI estimate is missing or not positive")
	}
	if a.PriceRangeLow > a.PriceRangeHigh {
		out.Warnings = append(out.Warnings, "AI price range is inverted")
	}
	return out, nil
}

// ParseTrend normalises a free-form trend label. known is false when the
// label was not recognised and Stable was assumed.
func ParseTrend(s string) (MarketTrend, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "rising", "increasing", "bullish":
		return TrendUp, true
	case "down", "falling", "declining", "bearish":
		return TrendDown, true
	case "stable", "flat", "steady":
		return TrendStable, true
	}
	return TrendStable, false
}

// stripFences removes a surrounding ``` or ```json block that some models add
// even in JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func positive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
