// Package rows defines the row model shared by every input source: a header
// of column labels followed by a lazy sequence of positional rows whose cells
// are empty, textual or numeric scalars.
package rows

import (
	"io"
	"math"
	"strconv"
	"strings"
)

// Kind classifies a cell value.
type Kind int

const (
	// Empty is a blank cell (or a cell beyond the end of a short row).
	Empty Kind = iota
	// String is a textual cell.
	String
	// Number is a numeric cell.
	Number
)

// Cell is one scalar value of a row.
type Cell struct {
	Kind Kind
	Str  string
	Num  float64
}

// Text returns a text cell. Blank text is reported as Empty.
func Text(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: String, Str: s}
}

// Num returns a numeric cell.
func Num(f float64) Cell {
	return Cell{Kind: Number, Num: f}
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == Empty
}

// Text renders the cell as trimmed text. Integral numbers have no fraction.
func (c Cell) Text() string {
	switch c.Kind {
	case String:
		return strings.TrimSpace(c.Str)
	case Number:
		if c.Num == math.Trunc(c.Num) && math.Abs(c.Num) < 1e15 {
			return strconv.FormatInt(int64(c.Num), 10)
		}
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns the numeric value of the cell. Text cells are parsed, with a
// decimal comma accepted ("0,5"). ok is false for empty or non-numeric cells.
func (c Cell) Float() (f float64, ok bool) {
	switch c.Kind {
	case Number:
		return c.Num, true
	case String:
		s := strings.TrimSpace(c.Str)
		if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
			s = strings.Replace(s, ",", ".", 1)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// Int returns the cell as an integer when it holds an integral number.
func (c Cell) Int() (int, bool) {
	f, ok := c.Float()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// Row is one data row, positionally aligned to the source header.
type Row []Cell

// At returns the cell at index i, or an empty cell when i is negative or
// beyond the end of the row.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// IsBlank reports whether every cell of the row is empty.
func (r Row) IsBlank() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Source is a lazy, sequential row iterator. Next returns io.EOF after the
// last row. Implementations block only at read boundaries.
type Source interface {
	// Header returns the column labels.
	Header() []string

	// Next returns the next row, or io.EOF when the source is exhausted.
	Next() (Row, error)

	// Close releases the underlying resources.
	Close() error
}

// SliceSource serves an in-memory header and rows. It is used by tests and by
// callers that already hold decoded rows.
type SliceSource struct {
	header []string
	rows   []Row
	pos    int
}

// NewSliceSource creates a Source over the given header and rows.
func NewSliceSource(header []string, rows []Row) *SliceSource {
	return &SliceSource{header: header, rows: rows}
}

// Header returns the column labels.
func (s *SliceSource) Header() []string { return s.header }

// Next returns the next row or io.EOF.
func (s *SliceSource) Next() (Row, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	r := s.rows[s.pos]
	s.pos++
	return r, nil
}

// Close is a no-op.
func (s *SliceSource) Close() error { return nil }
