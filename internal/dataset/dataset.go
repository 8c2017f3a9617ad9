// Package dataset loads comparable sales from local files so a trend can be
// fitted without calling an AI runtime.
package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/KaramelBytes/prophecy-cli/internal/regression"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no reader.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	// ErrMissingColumns means no size or no price column could be found.
	ErrMissingColumns = errors.New("dataset needs a size column (size, sqft, area) and a price column (price, value)")
)

// Options tunes parsing. The zero value auto-detects everything.
type Options struct {
	// Delimiter for CSV. If 0, uses '\t' for .tsv and sniffs ',' vs ';' otherwise.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune // optional; if 0, strip common separators (',' '.' space)
	// Sheet selects an .xlsx worksheet by name; empty means the first sheet.
	Sheet string
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
}

// Result holds the usable observations and everything that was skipped.
type Result struct {
	Name         string
	SizeColumn   string
	PriceColumn  string
	Rows         int
	Observations []regression.Observation
	Warnings     []string
}

// Skipped is the number of rows that did not become observations.
func (r *Result) Skipped() int { return r.Rows - len(r.Observations) }

var (
	sizeAliases  = []string{"sqft", "size", "area", "squarefeet", "sqfeet", "carpetarea", "builtuparea"}
	priceAliases = []string{"price", "value", "saleprice", "amount", "cost"}
	unitSuffix   = regexp.MustCompile(`^(.*?)\s*[\(\[][^)\]]*[\)\]]\s*$`)
)

// LoadFile reads comparables from a .json, .csv, .tsv or .xlsx file.
func LoadFile(path string, opt Options) (*Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var res *Result
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		res, err = ReadJSON(bytes.NewReader(b), opt)
	case ".csv", ".tsv", ".txt":
		if opt.Delimiter == 0 {
			opt.Delimiter = sniffDelimiter(ext, b)
		}
		res, err = ReadCSV(bytes.NewReader(b), opt)
	case ".xlsx":
		res, err = readXLSX(b, opt)
	default:
		return nil, fmt.Errorf("%w: %q (use .json, .csv, .tsv or .xlsx)", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	res.Name = filepath.Base(path)
	return res, nil
}

// ReadCSV reads a delimited table with a header row.
func ReadCSV(r io.Reader, opt Options) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.Comma = ','
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Result{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t, err := newTable(header)
	if err != nil {
		return nil, err
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				t.warnf(pe.Line, "unreadable row: %v", pe.Err)
				t.res.Rows++
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if !t.add(line, rec, opt) {
			break
		}
	}
	return t.res, nil
}

// ReadJSON accepts an array of points, or an object with a "comparables"
// array. Points use sqFt, size or area for the size and price or value for
// the price; values may be numbers or formatted strings.
func ReadJSON(r io.Reader, opt Options) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return &Result{}, nil
	}
	var points []map[string]any
	if raw[0] == '{' {
		var wrapped struct {
			Comparables []map[string]any `json:"comparables"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		points = wrapped.Comparables
	} else if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	res := &Result{SizeColumn: "sqFt", PriceColumn: "price"}
	for i, p := range points {
		if opt.MaxRows > 0 && res.Rows >= opt.MaxRows {
			break
		}
		res.Rows++
		keys := make(map[string]any, len(p))
		for k, v := range p {
			keys[normalizeHeader(k)] = v
		}
		size, sok := pick(keys, sizeAliases, opt)
		price, pok := pick(keys, priceAliases, opt)
		if !sok || !pok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("entry %d: missing or unreadable size/price", i+1))
			continue
		}
		if size <= 0 || price <= 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("entry %d: size %v and price %v must be positive", i+1, size, price))
			continue
		}
		res.Observations = append(res.Observations, regression.Observation{Size: size, Price: price})
	}
	return res, nil
}

func pick(m map[string]any, aliases []string, opt Options) (float64, bool) {
	for _, a := range aliases {
		v, ok := m[a]
		if !ok {
			continue
		}
		switch x := v.(type) {
		case float64:
			return x, true
		case string:
			return ParseNumber(x, opt)
		}
		return 0, false
	}
	return 0, false
}

// table maps a header row onto size/price columns and collects rows.
type table struct {
	sizeIdx, priceIdx int
	res               *Result
}

func newTable(header []string) (*table, error) {
	t := &table{sizeIdx: -1, priceIdx: -1, res: &Result{}}
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = normalizeHeader(h)
	}
	t.sizeIdx = findColumn(norm, sizeAliases)
	t.priceIdx = findColumn(norm, priceAliases)
	if t.sizeIdx < 0 || t.priceIdx < 0 {
		return nil, fmt.Errorf("%w; header is %q", ErrMissingColumns, strings.Join(header, ", "))
	}
	t.res.SizeColumn = strings.TrimSpace(header[t.sizeIdx])
	t.res.PriceColumn = strings.TrimSpace(header[t.priceIdx])
	return t, nil
}

// add records one data row. It returns false once MaxRows is reached.
func (t *table) add(line int, rec []string, opt Options) bool {
	if opt.MaxRows > 0 && t.res.Rows >= opt.MaxRows {
		return false
	}
	if blank(rec) {
		return true
	}
	t.res.Rows++
	if t.sizeIdx >= len(rec) || t.priceIdx >= len(rec) {
		t.warnf(line, "expected at least %d fields, got %d", max(t.sizeIdx, t.priceIdx)+1, len(rec))
		return true
	}
	size, ok := ParseNumber(rec[t.sizeIdx], opt)
	if !ok {
		t.warnf(line, "cannot parse size %q", rec[t.sizeIdx])
		return true
	}
	price, ok := ParseNumber(rec[t.priceIdx], opt)
	if !ok {
		t.warnf(line, "cannot parse price %q", rec[t.priceIdx])
		return true
	}
	if size <= 0 || price <= 0 {
		t.warnf(line, "size %v and price %v must be positive", size, price)
		return true
	}
	t.res.Observations = append(t.res.Observations, regression.Observation{Size: size, Price: price})
	return true
}

func (t *table) warnf(line int, format string, args ...any) {
	t.res.Warnings = append(t.res.Warnings, fmt.Sprintf("line %d: ", line)+fmt.Sprintf(format, args...))
}

// normalizeHeader drops a trailing unit such as "(INR)" or "[sq ft]" and
// keeps only lower-case letters and digits, so "Sq_Ft" and "sqFt" match.
func normalizeHeader(h string) string {
	s := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	if m := unitSuffix.FindStringSubmatch(s); len(m) == 2 && strings.TrimSpace(m[1]) != "" {
		s = m[1]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func findColumn(norm []string, aliases []string) int {
	for _, a := range aliases {
		for i, n := range norm {
			if n == a {
				return i
			}
		}
	}
	return -1
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// sniffDelimiter picks '\t' for .tsv, otherwise ';' when the header has more
// semicolons than commas (common in locales with a decimal comma).
func sniffDelimiter(ext string, b []byte) rune {
	if ext == ".tsv" {
		return '\t'
	}
	first := b
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		first = b[:i]
	}
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		return ';'
	}
	if bytes.Count(first, []byte("\t")) > bytes.Count(first, []byte(",")) {
		return '\t'
	}
	return ','
}
