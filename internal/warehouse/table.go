package warehouse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Table is a fully fetched tabular result.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Value returns the cell at (row, col).
func (t *Table) Value(row, col int) (any, bool) {
	if t == nil || row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return nil, false
	}
	return t.Rows[row][col], true
}

// String renders the table as aligned plain text with a leading row index,
// right-aligned cells and one header line.
func (t *Table) String() string {
	if t == nil {
		return "Empty result"
	}
	if len(t.Rows) == 0 {
		return fmt.Sprintf("Empty result\nColumns: [%s]\nIndex: []", strings.Join(t.Columns, ", "))
	}

	cells := make([][]string, len(t.Rows)+1)
	cells[0] = append([]string{""}, t.Columns...)
	for i, row := range t.Rows {
		line := make([]string, 0, len(t.Columns)+1)
		line = append(line, strconv.Itoa(i))
		for c := range t.Columns {
			var v any
			if c < len(row) {
				v = row[c]
			}
			line = append(line, FormatValue(v))
		}
		cells[i+1] = line
	}

	widths := make([]int, len(cells[0]))
	for _, line := range cells {
		for c, s := range line {
			if n := utf8.RuneCountInString(s); n > widths[c] {
				widths[c] = n
			}
		}
	}

	var sb strings.Builder
	for r, line := range cells {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for c, s := range line {
			if c > 0 {
				sb.WriteString("  ")
			}
			pad := widths[c] - utf8.RuneCountInString(s)
			if c == 0 {
				// index column is left aligned
				sb.WriteString(s)
				sb.WriteString(strings.Repeat(" ", pad))
				continue
			}
			sb.WriteString(strings.Repeat(" ", pad))
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// FormatValue renders one cell.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		return x.Format("2006-01-02 15:04:05.000")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}
