// Package report renders valuations and offline fits for terminals and files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/prophecy-cli/internal/regression"
	"github.com/KaramelBytes/prophecy-cli/internal/valuation"
)

// Format selects an output rendering.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// ParseFormat accepts text, markdown (md) or json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("unknown format %q (use text, markdown or json)", s)
}

// FormatFromPath infers a format from an output file extension, falling
// back to def.
func FormatFromPath(path string, def Format) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return Markdown
	case ".json":
		return JSON
	case ".txt":
		return Text
	}
	return def
}

// FitResult is an offline regression over a loaded dataset.
type FitResult struct {
	Source       string                   `json:"source,omitempty"`
	Currency     string                   `json:"currency"`
	QuerySize    float64                  `json:"query_size"`
	Rows         int                      `json:"rows"`
	Observations []regression.Observation `json:"observations"`
	Model        regression.Model         `json:"model"`
	Line         []regression.Observation `json:"line,omitempty"`
	Warnings     []string                 `json:"warnings,omitempty"`
}

// NewFitResult fills Line with the fitted endpoints across the observed
// size range, which is what a chart draws.
func NewFitResult(source, currency string, query float64, rows int, obs []regression.Observation, m regression.Model, warnings []string) *FitResult {
	fr := &FitResult{
		Source:       source,
		Currency:     currency,
		QuerySize:    query,
		Rows:         rows,
		Observations: obs,
		Model:        m,
		Warnings:     warnings,
	}
	if lo, hi, ok := regression.SizeRange(obs); ok {
		fr.Line = []regression.Observation{{Size: lo, Price: m.At(lo)}, {Size: hi, Price: m.At(hi)}}
	}
	return fr
}

// RenderValuation renders p in format f.
func RenderValuation(p *valuation.Prediction, f Format) (string, error) {
	switch f {
	case JSON:
		return toJSON(p)
	case Markdown:
		return ValuationMarkdown(p), nil
	default:
		return Valuation(p), nil
	}
}

// RenderFit renders r in format f.
func RenderFit(r *FitResult, f Format) (string, error) {
	switch f {
	case JSON:
		return toJSON(r)
	case Markdown:
		return FitMarkdown(r), nil
	default:
		return Fit(r), nil
	}
}

// Valuation is the plain-text report for a terminal.
func Valuation(p *valuation.Prediction) string {
	cur := p.Currency
	h := p.Input
	a := p.AIAnalysis
	var b strings.Builder

	fmt.Fprintf(&b, "Valuation: %s in %s\n", h.PropertyType, h.Location)
	fmt.Fprintf(&b, "  %s sqft, %d bed, %s bath, built %d, condition %d/5 (%s)\n\n",
		num(h.SqFt), h.Bedrooms, num(h.Bathrooms), h.YearBuilt, h.Condition, valuation.ConditionLabel(h.Condition))

	fmt.Fprintf(&b, "Regression estimate  %s\n", FormatCurrency(p.Regression.PredictedPrice, cur))
	fmt.Fprintf(&b, "  %s  (R² = %.3f, %d comparables)\n", p.Regression.Formula, p.Regression.RSquared, len(p.Comparables))
	fmt.Fprintf(&b, "AI estimate          %s\n", FormatCurrency(a.EstimatedPrice, cur))
	fmt.Fprintf(&b, "  range %s to %s, market %s", FormatCurrency(a.PriceRangeLow, cur), FormatCurrency(a.PriceRangeHigh, cur), a.MarketTrend)
	if a.LocationQuality != "" {
		fmt.Fprintf(&b, ", %s", a.LocationQuality)
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Divergence: %s", SignedCurrency(p.Divergence.Difference, cur))
	if p.Divergence.PercentKnown {
		fmt.Fprintf(&b, " (%+.1f%%)", p.Divergence.Percent)
	}
	b.WriteString("\n")
	b.WriteString(wrap(p.Divergence.Narrative, 78, "  "))

	if a.Reasoning != "" {
		b.WriteString("\nReasoning:\n")
		b.WriteString(wrap(a.Reasoning, 78, "  "))
	}
	writeWarnings(&b, p.Warnings, "\nWarnings:\n", "  - ")
	fmt.Fprintf(&b, "\n%s via %s", p.Model, p.Provider)
	if p.RequestID != "" {
		fmt.Fprintf(&b, ", request %s", p.RequestID)
	}
	fmt.Fprintf(&b, ", id %s\n", p.ID)
	return b.String()
}

// ValuationMarkdown renders p as a markdown document.
func ValuationMarkdown(p *valuation.Prediction) string {
	cur := p.Currency
	h := p.Input
	a := p.AIAnalysis
	var b strings.Builder

	fmt.Fprintf(&b, "# Valuation: %s in %s\n\n", h.PropertyType, h.Location)
	fmt.Fprintf(&b, "- Size: %s sqft\n- Bedrooms: %d\n- Bathrooms: %s\n- Year built: %d\n- Condition: %d/5 (%s)\n\n",
		num(h.SqFt), h.Bedrooms, num(h.Bathrooms), h.YearBuilt, h.Condition, valuation.ConditionLabel(h.Condition))

	b.WriteString("| Estimate | Price | Detail |\n|---|---:|---|\n")
	fmt.Fprintf(&b, "| Regression | %s | `%s`, R² = %.3f, n = %d |\n",
		FormatCurrency(p.Regression.PredictedPrice, cur), p.Regression.Formula, p.Regression.RSquared, len(p.Comparables))
	fmt.Fprintf(&b, "| AI | %s | %s to %s, market %s |\n\n",
		FormatCurrency(a.EstimatedPrice, cur), FormatCurrency(a.PriceRangeLow, cur), FormatCurrency(a.PriceRangeHigh, cur), a.MarketTrend)

	b.WriteString("## Divergence\n\n")
	b.WriteString(p.Divergence.Narrative + "\n")
	if a.Reasoning != "" {
		b.WriteString("\n## Reasoning\n\n")
		b.WriteString(a.Reasoning + "\n")
	}
	if a.LocationQuality != "" {
		fmt.Fprintf(&b, "\nLocation quality: %s\n", a.LocationQuality)
	}

	b.WriteString("\n## Comparables\n\n| Size (sqft) | Price |\n|---:|---:|\n")
	for _, o := range p.Comparables {
		fmt.Fprintf(&b, "| %s | %s |\n", num(o.Size), FormatCurrency(o.Price, cur))
	}
	writeWarnings(&b, p.Warnings, "\n## Warnings\n\n", "- ")
	fmt.Fprintf(&b, "\n_Model %s via %s, id %s, %s_\n", p.Model, p.Provider, p.ID, p.CreatedAt.Format("2006-01-02 15:04 MST"))
	return b.String()
}

// Fit is the plain-text report for an offline fit.
func Fit(r *FitResult) string {
	var b strings.Builder
	m := r.Model
	if r.Source != "" {
		fmt.Fprintf(&b, "Dataset: %s (%d of %d rows used)\n", r.Source, len(r.Observations), r.Rows)
	}
	fmt.Fprintf(&b, "%s\n", m.Formula)
	fmt.Fprintf(&b, "R² = %.3f\n", m.RSquared)
	fmt.Fprintf(&b, "Predicted price at %s sqft: %s\n", num(r.QuerySize), FormatCurrency(m.PredictedPrice, r.Currency))
	if len(r.Line) == 2 {
		lo, hi := r.Line[0], r.Line[1]
		fmt.Fprintf(&b, "Observed sizes %s to %s sqft; line runs %s to %s\n",
			num(lo.Size), num(hi.Size), FormatCurrency(lo.Price, r.Currency), FormatCurrency(hi.Price, r.Currency))
		if r.QuerySize < lo.Size || r.QuerySize > hi.Size {
			b.WriteString("Note: the query size is outside the observed range; the prediction is an extrapolation.\n")
		}
	}
	writeWarnings(&b, r.Warnings, "Warnings:\n", "  - ")
	return b.String()
}

// FitMarkdown renders r as markdown.
func FitMarkdown(r *FitResult) string {
	var b strings.Builder
	m := r.Model
	b.WriteString("# Linear fit\n\n")
	if r.Source != "" {
		fmt.Fprintf(&b, "Dataset `%s`: %d of %d rows used.\n\n", r.Source, len(r.Observations), r.Rows)
	}
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Formula | `%s` |\n", m.Formula)
	fmt.Fprintf(&b, "| Slope | %.4f |\n| Intercept | %.4f |\n| R² | %.3f |\n", m.Slope, m.Intercept, m.RSquared)
	fmt.Fprintf(&b, "| Predicted at %s sqft | %s |\n", num(r.QuerySize), FormatCurrency(m.PredictedPrice, r.Currency))
	if len(r.Line) == 2 {
		fmt.Fprintf(&b, "| Observed range | %s to %s sqft |\n", num(r.Line[0].Size), num(r.Line[1].Size))
	}
	writeWarnings(&b, r.Warnings, "\n## Warnings\n\n", "- ")
	return b.String()
}

// Write saves content to path atomically: it writes a temp file in the same
// directory and renames it into place.
func Write(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("atomic rename: %w", err)
	}
	return nil
}

func toJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json: %w", err)
	}
	return string(b) + "\n", nil
}

func writeWarnings(b *strings.Builder, warnings []string, title, bullet string) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString(title)
	for _, w := range warnings {
		b.WriteString(bullet + w + "\n")
	}
}

func num(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

// wrap breaks s on spaces so lines stay within width, prefixing each line.
func wrap(s string, width int, indent string) string {
	var b strings.Builder
	line := indent
	for _, w := range strings.Fields(s) {
		if len(line) > len(indent) && len(line)+1+len(w) > width {
			b.WriteString(line + "\n")
			line = indent
		}
		if len(line) > len(indent) {
			line += " "
		}
		line += w
	}
	if len(line) > len(indent) {
		b.WriteString(line + "\n")
	}
	return b.String()
}
