package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/prophecy-cli/internal/regression"
	"github.com/KaramelBytes/prophecy-cli/internal/valuation"
)

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		v    float64
		code string
		want string
	}{
		{1234567, "INR", "₹12,34,567"},
		{123, "INR", "₹123"},
		{1000, "", "₹1,000"},
		{100000, "inr", "₹1,00,000"},
		{12345678.5, "INR", "₹1,23,45,679"},
		{-4500000, "INR", "-₹45,00,000"},
		{-0.4, "INR", "₹0"},
		{1234567, "USD", "$1,234,567"},
		{999.5, "EUR", "€1,000"},
		{1234567, "AED", "AED 1,234,567"},
	}
	for _, c := range cases {
		if got := FormatCurrency(c.v, c.code); got != c.want {
			t.Fatalf("FormatCurrency(%v, %q) = %q, want %q", c.v, c.code, got, c.want)
		}
	}
	if got := SignedCurrency(12000, "INR"); got != "+₹12,000" {
		t.Fatalf("SignedCurrency = %q", got)
	}
	if got := SignedCurrency(-12000, "INR"); got != "-₹12,000" {
		t.Fatalf("SignedCurrency = %q", got)
	}
}

func samplePrediction() *valuation.Prediction {
	obs := []regression.Observation{{Size: 1000, Price: 100000}, {Size: 1500, Price: 150000}, {Size: 2000, Price: 200000}}
	m, _ := regression.Fit(obs, 1200)
	return &valuation.Prediction{
		ID:          "abc",
		CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Provider:    "openrouter",
		Model:       "google/gemini-2.5-flash",
		RequestID:   "req-9",
		Currency:    "INR",
		Input:       valuation.DefaultHouse(),
		Comparables: obs,
		Regression:  m,
		AIAnalysis: valuation.Analysis{
			EstimatedPrice: 132000, PriceRangeLow: 125000, PriceRangeHigh: 140000,
			Reasoning: "Near the metro.", MarketTrend: valuation.TrendUp, LocationQuality: "High Demand Urban",
		},
		Divergence: valuation.Compare(132000, m.PredictedPrice),
		Warnings:   []string{"comparable 4 dropped"},
	}
}

func TestValuationText(t *testing.T) {
	out := Valuation(samplePrediction())
	for _, want := range []string{
		"Apartment in Bangalore, KA",
		"Regression estimate  ₹1,20,000",
		"Price = 100.00 * Size + 0.00",
		"R² = 1.000",
		"AI estimate          ₹1,32,000",
		"range ₹1,25,000 to ₹1,40,000, market Up, High Demand Urban",
		"Divergence: +₹12,000 (+10.0%)",
		"10.0% higher",
		"comparable 4 dropped",
		"request req-9",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestValuationMarkdownAndJSON(t *testing.T) {
	p := samplePrediction()
	md, err := RenderValuation(p, Markdown)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(md, "# Valuation: Apartment") || !strings.Contains(md, "| 1500 | ₹1,50,000 |") {
		t.Fatalf("unexpected markdown:\n%s", md)
	}
	js, err := RenderValuation(p, JSON)
	if err != nil {
		t.Fatal(err)
	}
	var back valuation.Prediction
	if err := json.Unmarshal([]byte(js), &back); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if back.Regression.Formula != p.Regression.Formula || back.Divergence.Direction != "higher" {
		t.Fatalf("json lost fields: %+v", back)
	}
}

func TestFitReportLineAndExtrapolation(t *testing.T) {
	obs := []regression.Observation{{Size: 1000, Price: 100000}, {Size: 2000, Price: 200000}}
	m, err := regression.Fit(obs, 2500)
	if err != nil {
		t.Fatal(err)
	}
	r := NewFitResult("comps.csv", "INR", 2500, 3, obs, m, []string{"line 3: cannot parse size \"x\""})
	if len(r.Line) != 2 || r.Line[0].Size != 1000 || r.Line[1].Price != 200000 {
		t.Fatalf("unexpected line: %+v", r.Line)
	}
	out := Fit(r)
	for _, want := range []string{"comps.csv (2 of 3 rows used)", "Predicted price at 2500 sqft: ₹2,50,000", "extrapolation", "line 3:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("fit report missing %q:\n%s", want, out)
		}
	}
	md, _ := RenderFit(r, Markdown)
	if !strings.Contains(md, "| R² | 1.000 |") {
		t.Fatalf("unexpected markdown:\n%s", md)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": Text, "TEXT": Text, "md": Markdown, "json": JSON} {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q,%v", in, got, err)
		}
	}
	if _, err := ParseFormat("html"); err == nil {
		t.Fatalf("expected error for html")
	}
	if FormatFromPath("out/report.md", Text) != Markdown || FormatFromPath("x.json", Text) != JSON || FormatFromPath("x.out", Markdown) != Markdown {
		t.Fatalf("FormatFromPath mismatch")
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sub", "report.md")
	if err := Write(p, []byte("one")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := Write(p, []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "two" {
		t.Fatalf("read back %q, %v", b, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(p))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestWrap(t *testing.T) {
	got := wrap("aaa bbb ccc", 9, "  ")
	if got != "  aaa bbb\n  ccc\n" {
		t.Fatalf("wrap = %q", got)
	}
}
