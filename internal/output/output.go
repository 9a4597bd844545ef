// Package output renders command results for the terminal: aligned text
// tables by default, pretty-printed JSON when the caller asked for it.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Formatter writes command results in one of the two output modes.
type Formatter struct {
	Writer   io.Writer
	JSONMode bool
}

// New returns a Formatter writing to w.
func New(w io.Writer, jsonMode bool) *Formatter {
	return &Formatter{Writer: w, JSONMode: jsonMode}
}

// Print writes data as indented JSON in JSON mode, or its plain string
// representation otherwise.
func (f *Formatter) Print(data any) error {
	if f.JSONMode {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	_, err := fmt.Fprintf(f.Writer, "%v\n", data)
	return err
}

// Table writes rows under headers. Text mode pads every column to its
// widest cell and right-aligns columns whose cells are all numbers, so
// prices and quantities line up; JSON mode emits one object per row keyed
// by header.
func (f *Formatter) Table(headers []string, rows [][]string) error {
	if f.JSONMode {
		return f.Print(rowObjects(headers, rows))
	}

	widths := columnWidths(headers, rows)
	numeric := numericColumns(headers, rows)

	rule := make([]string, len(headers))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}

	var b strings.Builder
	writeRow(&b, headers, widths, numeric)
	writeRow(&b, rule, widths, numeric)
	for _, row := range rows {
		writeRow(&b, row, widths, numeric)
	}
	_, err := io.WriteString(f.Writer, b.String())
	return err
}

func rowObjects(headers []string, rows [][]string) []map[string]string {
	out := make([]map[string]string, len(rows))
	for ri, row := range rows {
		obj := make(map[string]string, len(headers))
		for ci, h := range headers {
			var cell string
			if ci < len(row) {
				cell = row[ci]
			}
			obj[h] = cell
		}
		out[ri] = obj
	}
	return out
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}
	return widths
}

// numericColumns marks columns where every populated cell parses as a
// number once money and percent decoration is stripped. An empty column
// stays left-aligned.
func numericColumns(headers []string, rows [][]string) []bool {
	out := make([]bool, len(headers))
	for i := range out {
		populated := false
		numeric := true
		for _, row := range rows {
			if i >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[i])
			if cell == "" || cell == "-" {
				continue
			}
			populated = true
			if !looksNumeric(cell) {
				numeric = false
				break
			}
		}
		out[i] = populated && numeric
	}
	return out
}

func looksNumeric(s string) bool {
	s = strings.TrimLeft(s, "+-$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func writeRow(b *strings.Builder, cells []string, widths []int, numeric []bool) {
	for i, w := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		pad := w - utf8.RuneCountInString(cell)
		if pad < 0 {
			pad = 0
		}
		switch {
		case numeric[i]:
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(cell)
		case i == len(widths)-1:
			// Last column carries no trailing padding.
			b.WriteString(cell)
		default:
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", pad))
		}
	}
	b.WriteByte('\n')
}
