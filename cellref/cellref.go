// Package cellref converts between A1-style cell references and 1-based
// row/column numbers.
//
// Column letters use bijective base-26: A=1 … Z=26, AA=27 … XFD=16384.
// Every function in this package is pure and safe for concurrent use.
package cellref

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Worksheet limits for the SpreadsheetML grid.
const (
	MaxRows    = 1048576
	MaxColumns = 16384
)

// ErrInvalidRef is returned by Parse and ParseRange when a reference lacks a
// row or a column component.
var ErrInvalidRef = errors.New("cellref: invalid cell reference")

// Ref is a parsed cell reference.  Row and Col are 1-based.
type Ref struct {
	Row int
	Col int
}

// String returns the A1-style form of the reference.
func (r Ref) String() string {
	return Format(r.Row, r.Col)
}

// Before reports whether r precedes o in row-major order.
func (r Ref) Before(o Ref) bool {
	if r.Row != o.Row {
		return r.Row < o.Row
	}
	return r.Col < o.Col
}

// ColumnIndex converts column letters to a 1-based column number.  Letters
// are matched case-insensitively and non-letters are ignored; an empty string
// yields 0.
func ColumnIndex(letters string) int {
	n := 0
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			continue
		}
		n = n*26 + int(c-'A'+1)
	}
	return n
}

// ColumnLetters converts a 1-based column number to its letters.  Values
// below 1 yield "".
func ColumnLetters(index int) string {
	if index < 1 {
		return ""
	}
	var buf [8]byte
	i := len(buf)
	for index > 0 {
		rem := (index - 1) % 26
		i--
		buf[i] = byte('A' + rem)
		index = (index - 1) / 26
	}
	return string(buf[i:])
}

// RowOf returns the row number of addr.  The digit run is taken regardless of
// where it sits relative to the letters, so "B3", "b3" and "3B" all give 3.
// An address without digits yields 0.
func RowOf(addr string) int {
	_, digits := split(addr)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

// ColumnOf returns the column number of addr.  Like RowOf it splits by
// character class, so "3B" and "b3" both give 2.
func ColumnOf(addr string) int {
	letters, _ := split(addr)
	return ColumnIndex(letters)
}

// Format builds an A1-style reference from a 1-based row and column.
func Format(row, col int) string {
	return ColumnLetters(col) + strconv.Itoa(row)
}

// Parse splits addr into a Ref.  Absolute markers such as "$B$3" are
// accepted.
func Parse(addr string) (Ref, error) {
	letters, digits := split(addr)
	if letters == "" || digits == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, addr)
	}
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, addr)
	}
	return Ref{Row: row, Col: ColumnIndex(letters)}, nil
}

// split partitions addr into its letter run and its digit run.
func split(addr string) (letters, digits string) {
	var l, d strings.Builder
	for i := 0; i < len(addr); i++ {
		c := addr[i]
		switch {
		case c >= '0' && c <= '9':
			d.WriteByte(c)
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
			l.WriteByte(c)
		}
	}
	return l.String(), d.String()
}

// ── ranges ───────────────────────────────────────────────────────────────────

// Range is a rectangular block of cells such as "A1:D7".
type Range struct {
	TopLeft     Ref
	BottomRight Ref
}

// ParseRange parses "A1:D7".  A single reference such as "D7" is taken as the
// bottom-right corner of a range anchored at A1, which is how single-cell
// dimension elements are interpreted.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	first, last, found := strings.Cut(s, ":")
	if !found {
		br, err := Parse(first)
		if err != nil {
			return Range{}, err
		}
		return Range{TopLeft: Ref{Row: 1, Col: 1}, BottomRight: br}, nil
	}
	tl, err := Parse(first)
	if err != nil {
		return Range{}, err
	}
	br, err := Parse(last)
	if err != nil {
		return Range{}, err
	}
	return Range{TopLeft: tl, BottomRight: br}, nil
}

// FullScanRange returns the A1-anchored range whose bottom-right corner is
// (maxRow, maxCol).
func FullScanRange(maxRow, maxCol int) Range {
	return Range{
		TopLeft:     Ref{Row: 1, Col: 1},
		BottomRight: Ref{Row: maxRow, Col: maxCol},
	}
}

// Rows is the number of rows a dense reader yields: the bottom-right row,
// since records always start at row 1.
func (r Range) Rows() int { return r.BottomRight.Row }

// Columns is the record width: the bottom-right column.
func (r Range) Columns() int { return r.BottomRight.Col }

// String renders the range as "A1:D7".
func (r Range) String() string {
	return r.TopLeft.String() + ":" + Format(r.BottomRight.Row, r.BottomRight.Col)
}
