// Package worksheet streams the cells of one worksheet part and assembles
// them into dense records.
//
// [CellReader] walks the part element by element and exposes one cell at a
// time together with its resolved display value.  [RowReader] consumes any
// [CellSource] and produces fixed-width records, one per row, including rows
// that hold no cells at all.
package worksheet

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/TsubasaBE/go-xlsxstream/cellref"
	"github.com/TsubasaBE/go-xlsxstream/internal/xmlstream"
	"github.com/TsubasaBE/go-xlsxstream/numfmt"
	"github.com/TsubasaBE/go-xlsxstream/stringtable"
)

// ErrNoDimension is returned in trust-dimension mode when the worksheet
// declares no dimension element before its cell data.
var ErrNoDimension = errors.New("worksheet: no dimension element")

// date1904Offset converts a 1904-system serial to the 1900 system.
const date1904Offset = 1462

// Opener opens the worksheet part from its first byte.  It is called again
// each time the reader has to restart the stream.
type Opener func() (io.ReadCloser, error)

// Config controls how a CellReader determines the used range and resolves
// values.
type Config struct {
	// FullScan computes the used range from the cells themselves instead of
	// trusting the declared dimension.
	FullScan bool
	// RowStart excludes rows before it from the full-scan computation.
	RowStart int
	// RenderNumbers formats non-date numeric cells through their number
	// format.  Off, such cells resolve to their stored text.
	RenderNumbers bool
	// Date1904 shifts date serials from the 1904 date system.
	Date1904 bool
	// Logger receives debug events; nil uses slog.Default.
	Logger *slog.Logger
}

// CellReader is a forward-only cursor over the cells of a worksheet.
//
// Its states are before-start, scanning, at-cell and exhausted: Advance
// moves to the next cell and Current returns it, or nil once the stream is
// exhausted.
type CellReader struct {
	name    string
	open    Opener
	strings *stringtable.Table
	catalog *numfmt.Catalog
	cfg     Config
	log     *slog.Logger

	rc  io.ReadCloser
	dec *xmlstream.Decoder

	used cellref.Range
	cur  *RawCell
	done bool

	// position context for cells without an r attribute
	row int
	col int
}

// New opens the worksheet through open and determines its used range.
// strings and catalog may be nil when the workbook has no shared strings or
// stylesheet.
func New(name string, open Opener, strings *stringtable.Table, catalog *numfmt.Catalog, cfg Config) (*CellReader, error) {
	cr := &CellReader{
		name:    name,
		open:    open,
		strings: strings,
		catalog: catalog,
		cfg:     cfg,
		log:     cfg.Logger,
	}
	if cr.log == nil {
		cr.log = slog.Default()
	}
	if err := cr.Reset(); err != nil {
		return nil, err
	}

	if cfg.FullScan {
		if err := cr.scanUsedRange(); err != nil {
			_ = cr.Close()
			return nil, err
		}
		if err := cr.Reset(); err != nil {
			return nil, err
		}
	} else if err := cr.readDimension(); err != nil {
		_ = cr.Close()
		return nil, err
	}
	cr.log.Debug("worksheet used range",
		slog.String("sheet", name),
		slog.String("range", cr.used.String()),
		slog.Bool("full_scan", cfg.FullScan))
	return cr, nil
}

// Name returns the worksheet name.
func (cr *CellReader) Name() string { return cr.name }

// UsedRange returns the range computed at construction.
func (cr *CellReader) UsedRange() cellref.Range { return cr.used }

// RowCount is the number of records a dense read yields.
func (cr *CellReader) RowCount() int { return cr.used.Rows() }

// ColumnCount is the width of every record.
func (cr *CellReader) ColumnCount() int { return cr.used.Columns() }

// Current returns the cell Advance last moved to, or nil.
func (cr *CellReader) Current() *RawCell { return cr.cur }

// Reset reopens the worksheet part at its start.  The used range is kept.
func (cr *CellReader) Reset() error {
	if err := cr.Close(); err != nil {
		return err
	}
	rc, err := cr.open()
	if err != nil {
		return fmt.Errorf("worksheet: open %q: %w", cr.name, err)
	}
	cr.rc = rc
	cr.dec = xmlstream.NewDecoder(rc)
	cr.cur = nil
	cr.done = false
	cr.row, cr.col = 0, 0
	return nil
}

// Close releases the underlying part stream.
func (cr *CellReader) Close() error {
	if cr.rc == nil {
		return nil
	}
	err := cr.rc.Close()
	cr.rc = nil
	cr.dec = nil
	return err
}

// Advance skips every element that is not a cell and stops on the next
// cell.  It reports false once the stream is exhausted, after which Current
// returns nil.
func (cr *CellReader) Advance() (bool, error) {
	if cr.done || cr.dec == nil {
		cr.cur = nil
		return false, nil
	}
	for {
		ev, err := cr.dec.Next()
		if errors.Is(err, io.EOF) {
			cr.cur = nil
			cr.done = true
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("worksheet %q: %w", cr.name, err)
		}
		if ev.Kind != xmlstream.StartElement {
			continue
		}
		switch ev.Name {
		case "row":
			if n, err := strconv.Atoi(attr(ev, "r")); err == nil && n > 0 {
				cr.row = n
			} else {
				cr.row++
			}
			cr.col = 0
		case "c":
			c, err := cr.readCell(ev)
			if err != nil {
				return false, fmt.Errorf("worksheet %q: %w", cr.name, err)
			}
			cr.cur = c
			return true, nil
		}
	}
}

// Resolve returns the display value of c.  The rules apply in order:
//
//  1. a numeric value whose style applies a date format becomes an
//     OLE-date rendered as M/d/yyyy;
//  2. a shared-string cell becomes the referenced string (an unparsable
//     or out-of-range index leaves the stored text);
//  3. a boolean cell becomes "FALSE" for "0" and "TRUE" otherwise;
//  4. anything else is its stored text.
//
// A nil cell resolves to "".
func (cr *CellReader) Resolve(c *RawCell) string {
	if c == nil {
		return ""
	}
	value := c.Text

	code, formatted := "", false
	if c.HasStyle {
		code, formatted = cr.catalog.FormatFor(c.Style)
	}
	if formatted && c.Type != TypeSharedString {
		if serial, err := strconv.ParseFloat(value, 64); err == nil {
			if numfmt.IsDateFormat(code) {
				if cr.cfg.Date1904 {
					serial += date1904Offset
				}
				if s, err := numfmt.FormatDate(serial); err == nil {
					return s
				}
				return value
			}
			if cr.cfg.RenderNumbers && c.IsNumeric() {
				return numfmt.Render(value, code)
			}
		}
	}

	switch c.Type {
	case TypeSharedString:
		if s, ok := cr.strings.Lookup(value); ok {
			return s
		}
	case TypeBoolean:
		if value == "0" {
			return "FALSE"
		}
		return "TRUE"
	}
	return value
}

// ── internal ─────────────────────────────────────────────────────────────────

// readDimension consumes the stream up to the dimension element.  Cell data
// starting first means the worksheet declares none.
func (cr *CellReader) readDimension() error {
	for {
		ev, err := cr.dec.Next()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w in %q", ErrNoDimension, cr.name)
		}
		if err != nil {
			return fmt.Errorf("worksheet %q: %w", cr.name, err)
		}
		switch {
		case ev.Is("dimension"):
			ref, _ := ev.Attr("ref")
			rng, err := cellref.ParseRange(ref)
			if err != nil {
				return fmt.Errorf("worksheet %q: dimension: %w", cr.name, err)
			}
			cr.used = rng
			return nil
		case ev.Is("sheetData"):
			return fmt.Errorf("%w in %q", ErrNoDimension, cr.name)
		}
	}
}

// scanUsedRange visits every cell and keeps the bottom-right corner of the
// non-empty values at or below RowStart.
func (cr *CellReader) scanUsedRange() error {
	maxRow, maxCol := 0, 0
	for {
		ok, err := cr.Advance()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		c := cr.cur
		if c.Row < cr.cfg.RowStart || cr.Resolve(c) == "" {
			continue
		}
		maxRow = max(maxRow, c.Row)
		maxCol = max(maxCol, c.Col)
	}
	cr.used = cellref.FullScanRange(maxRow, maxCol)
	return nil
}

// readCell builds a RawCell from a c start element and its children.
func (cr *CellReader) readCell(start xmlstream.Event) (*RawCell, error) {
	c := &RawCell{Type: TypeNumber}

	if ref, ok := start.Attr("r"); ok && ref != "" {
		c.Row, c.Col = cellref.RowOf(ref), cellref.ColumnOf(ref)
	}
	if c.Row == 0 {
		c.Row = max(cr.row, 1)
	}
	if c.Col == 0 {
		c.Col = cr.col + 1
	}
	c.Address = cellref.Format(c.Row, c.Col)
	cr.row, cr.col = c.Row, c.Col

	if t, ok := start.Attr("t"); ok && t != "" {
		c.Type = CellType(t)
	}
	if s, ok := start.Attr("s"); ok {
		if n, err := strconv.Atoi(s); err == nil {
			c.Style, c.HasStyle = n, true
		}
	}

	for {
		ev, err := cr.dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		switch ev.Kind {
		case xmlstream.EndElement:
			if ev.Name == "c" {
				return c, nil
			}
		case xmlstream.StartElement:
			switch ev.Name {
			case "v":
				text, err := cr.dec.ReadText()
				if err != nil {
					return nil, err
				}
				c.Text = text
			case "is":
				text, err := stringtable.ReadItem(cr.dec, "is")
				if err != nil {
					return nil, err
				}
				c.Text = text
			default:
				if err := cr.dec.Skip(); err != nil {
					return nil, err
				}
			}
		}
	}
}

func attr(ev xmlstream.Event, name string) string {
	v, _ := ev.Attr(name)
	return v
}
