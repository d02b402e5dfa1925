// Package stringtable holds the workbook's shared strings.
//
// [Table] is the read side, loaded from xl/sharedStrings.xml.  [Pool] is the
// write side: it deduplicates strings while cells are written and emits the
// part once the workbook is closed.
package stringtable

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/TsubasaBE/go-xlsxstream/internal/rels"
	"github.com/TsubasaBE/go-xlsxstream/internal/xmlstream"
)

// Table holds the shared strings parsed from xl/sharedStrings.xml.
type Table struct {
	strings []string
}

// Load streams the sst part from r.  Each string item contributes the
// concatenated text of its runs; phonetic runs (rPh) are skipped.
func Load(r io.Reader) (*Table, error) {
	st := &Table{}
	dec := xmlstream.NewDecoder(r)
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return st, nil
		}
		if err != nil {
			return nil, fmt.Errorf("stringtable: %w", err)
		}
		if !ev.Is("si") {
			continue
		}
		s, err := ReadItem(dec, "si")
		if err != nil {
			return nil, fmt.Errorf("stringtable: item %d: %w", len(st.strings), err)
		}
		st.strings = append(st.strings, s)
	}
}

// ReadItem collects the text of a string item whose start element (si, or
// is for inline strings) was just consumed from dec.  The text of every t
// element is concatenated; phonetic runs are skipped.  It returns after
// consuming the end element named end.
func ReadItem(dec *xmlstream.Decoder, end string) (string, error) {
	var sb strings.Builder
	for {
		ev, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		switch {
		case ev.Is("rPh"):
			if err := dec.Skip(); err != nil {
				return "", err
			}
		case ev.Is("t"):
			text, err := dec.ReadText()
			if err != nil {
				return "", err
			}
			sb.WriteString(text)
		case ev.Kind == xmlstream.EndElement && ev.Name == end:
			return sb.String(), nil
		}
	}
}

// New returns a Table over the given strings, in index order.
func New(values ...string) *Table {
	return &Table{strings: values}
}

// Get returns the string at idx.  It reports false when idx is out of range.
func (st *Table) Get(idx int) (string, bool) {
	if st == nil || idx < 0 || idx >= len(st.strings) {
		return "", false
	}
	return st.strings[idx], true
}

// Lookup resolves raw, the decimal text of a shared-string cell.  It reports
// false when raw is not an integer or the index is out of range.
func (st *Table) Lookup(raw string) (string, bool) {
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return st.Get(idx)
}

// Len returns the number of strings loaded.
func (st *Table) Len() int {
	if st == nil {
		return 0
	}
	return len(st.strings)
}

// ── write side ───────────────────────────────────────────────────────────────

// Pool assigns shared-string indices during writing.  An index, once handed
// out, always refers to the same string.
type Pool struct {
	values []string
	index  map[string]int
	refs   int
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{index: make(map[string]int)}
}

// Intern returns the index of s, appending it if it has not been seen.
// Matching is exact: case and surrounding whitespace are significant.
func (p *Pool) Intern(s string) int {
	p.refs++
	if i, ok := p.index[s]; ok {
		return i
	}
	i := len(p.values)
	p.values = append(p.values, s)
	p.index[s] = i
	return i
}

// Len returns the number of unique strings.
func (p *Pool) Len() int { return len(p.values) }

// Refs returns the total number of Intern calls, the sst count attribute.
func (p *Pool) Refs() int { return p.refs }

// All yields index and string pairs in index order.
func (p *Pool) All() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for i, s := range p.values {
			if !yield(i, s) {
				return
			}
		}
	}
}

// WriteTo emits xl/sharedStrings.xml.
func (p *Pool) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	xw := xmlstream.NewWriter(cw)
	xw.Header()
	xw.Start("sst",
		xmlstream.Attr{Name: "xmlns", Value: rels.NamespaceMain},
		xmlstream.Attr{Name: "count", Value: strconv.Itoa(p.refs)},
		xmlstream.Attr{Name: "uniqueCount", Value: strconv.Itoa(len(p.values))},
	)
	for _, s := range p.All() {
		xw.Start("si")
		if NeedsPreserve(s) {
			xw.Element("t", s, xmlstream.Attr{Name: "xml:space", Value: "preserve"})
		} else {
			xw.Element("t", s)
		}
		xw.End()
	}
	xw.CloseAll()
	err := xw.Flush()
	return cw.n, err
}

// NeedsPreserve reports whether s must be written with xml:space="preserve"
// to keep its leading or trailing whitespace or embedded line breaks.
func NeedsPreserve(s string) bool {
	if s == "" {
		return false
	}
	return s[0] == ' ' || s[len(s)-1] == ' ' ||
		strings.ContainsAny(s, "\t\n\r") ||
		strings.Contains(s, "  ")
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
