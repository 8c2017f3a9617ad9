package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// readXLSX reads the first worksheet (or opt.Sheet) of a workbook. The first
// non-empty row is the header.
func readXLSX(b []byte, opt Options) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	sheets := parseWorkbook(readZipFile(zr, "xl/workbook.xml"))
	rels := parseRelationships(readZipFile(zr, "xl/_rels/workbook.xml.rels"))

	target := ""
	if opt.Sheet != "" {
		names := make([]string, 0, len(sheets))
		for _, s := range sheets {
			names = append(names, s.name)
			if strings.EqualFold(s.name, opt.Sheet) {
				target = relPath(rels[s.rid])
			}
		}
		if target == "" {
			return nil, fmt.Errorf("sheet %q not found (available: %s)", opt.Sheet, strings.Join(names, ", "))
		}
	} else if len(sheets) > 0 {
		target = relPath(rels[sheets[0].rid])
	}
	if target == "" || target == "xl" {
		target = "xl/worksheets/sheet1.xml"
	}
	sheetXML := readZipFile(zr, target)
	if sheetXML == nil {
		return nil, fmt.Errorf("worksheet %s missing from workbook", target)
	}

	rows := newRowReader(sheetXML, parseSharedStrings(readZipFile(zr, "xl/sharedStrings.xml")))
	var t *table
	for {
		line, rec, ok := rows.next()
		if !ok {
			break
		}
		if t == nil {
			if blank(rec) {
				continue
			}
			if t, err = newTable(rec); err != nil {
				return nil, err
			}
			continue
		}
		if !t.add(line, rec, opt) {
			break
		}
	}
	if t == nil {
		return &Result{}, nil
	}
	return t.res, nil
}

type sheetRef struct {
	name string
	rid  string
}

func parseWorkbook(data []byte) []sheetRef {
	var out []sheetRef
	eachStart(data, func(se xml.StartElement) {
		if se.Name.Local != "sheet" {
			return
		}
		var s sheetRef
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.name = a.Value
			case "id":
				s.rid = a.Value
			}
		}
		out = append(out, s)
	})
	return out
}

func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	eachStart(data, func(se xml.StartElement) {
		if se.Name.Local != "Relationship" {
			return
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	})
	return out
}

func eachStart(data []byte, fn func(xml.StartElement)) {
	if len(data) == 0 {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		if se, ok := tok.(xml.StartElement); ok {
			fn(se)
		}
	}
}

// relPath turns a relationship target into a zip entry name. Targets are
// relative to xl/ unless they start with a slash.
func relPath(rel string) string {
	if strings.HasPrefix(rel, "/") {
		return strings.TrimPrefix(rel, "/")
	}
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}

func readZipFile(zr *zip.Reader, name string) []byte {
	f, err := zr.Open(name)
	if err != nil {
		return nil
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil
	}
	return b
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	inT := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "si":
				out = append(out, buf.String())
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

// rowReader streams <row> elements as string slices indexed by column.
type rowReader struct {
	dec    *xml.Decoder
	shared []string
	seen   int
}

func newRowReader(data []byte, shared []string) *rowReader {
	return &rowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// next returns the sheet row number and cells of the next row.
func (r *rowReader) next() (int, []string, bool) {
	var (
		cells []string
		line  int
		inRow bool
	)
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return 0, nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Local == "row":
				inRow = true
				r.seen++
				line = r.seen
				if n, err := strconv.Atoi(attr(se, "r")); err == nil {
					line = n
				}
			case inRow && se.Name.Local == "c":
				col := colIndex(attr(se, "r"), len(cells))
				val, err := r.cellValue(attr(se, "t"))
				if err != nil {
					return 0, nil, false
				}
				for len(cells) <= col {
					cells = append(cells, "")
				}
				cells[col] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				return line, cells, true
			}
		}
	}
}

// cellValue reads up to </c>, taking the text of <v> or an inline <t>.
func (r *rowReader) cellValue(typ string) (string, error) {
	var val strings.Builder
	capture := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return "", err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				capture = true
			}
		case xml.CharData:
			if capture {
				val.Write(se)
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "v", "t":
				capture = false
			case "c":
				if typ == "s" {
					idx, err := strconv.Atoi(strings.TrimSpace(val.String()))
					if err != nil || idx < 0 || idx >= len(r.shared) {
						return "", errors.New("bad shared string index")
					}
					return r.shared[idx], nil
				}
				return val.String(), nil
			}
		}
	}
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// colIndex converts a cell reference like "C12" to 2. Cells without a
// reference take the next position.
func colIndex(ref string, next int) int {
	idx := 0
	n := 0
	for _, c := range strings.ToUpper(ref) {
		if c < 'A' || c > 'Z' {
			break
		}
		idx = idx*26 + int(c-'A'+1)
		n++
	}
	if n == 0 {
		return next
	}
	return idx - 1
}
