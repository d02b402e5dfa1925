// Package writer produces .xlsx workbooks as a forward-only stream of cells.
//
// Cells are written left to right and top to bottom through a cursor that
// each worksheet keeps for itself, so several worksheets can be filled in
// any interleaving.  Worksheet rows are spooled to temporary files while the
// workbook is open; Close assembles the ZIP package, one part at a time.
//
//	w, err := writer.Create("out.xlsx")
//	if err != nil { ... }
//	defer w.Close()
//
//	w.Write("name")
//	w.Write(12.5)
//	w.NewRow()
//	w.WriteStyled("total", styles.Yellow)
package writer

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TsubasaBE/go-xlsxstream/cellref"
	"github.com/TsubasaBE/go-xlsxstream/internal/rels"
	"github.com/TsubasaBE/go-xlsxstream/internal/xmlstream"
	"github.com/TsubasaBE/go-xlsxstream/numfmt"
	"github.com/TsubasaBE/go-xlsxstream/stringtable"
	"github.com/TsubasaBE/go-xlsxstream/styles"
)

// DefaultSheet is created when the first write happens before any
// SelectWorksheet call.
const DefaultSheet = "Sheet1"

var (
	// ErrFinished is returned by writes, worksheet selection and a second
	// Finish once Finish has been called.
	ErrFinished = errors.New("writer: already finished")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("writer: closed")
	// ErrBackwardJump is returned when JumpForwardTo targets a cell before
	// the cursor.
	ErrBackwardJump = errors.New("writer: jump target is behind the cursor")
	// ErrUnsupportedValue is returned for values Write cannot encode.
	ErrUnsupportedValue = errors.New("writer: unsupported value")
)

// Option configures a Writer.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	tempDir string
}

// WithLogger sets the logger for worksheet lifecycle events.  The default
// is slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTempDir sets the directory worksheet rows are spooled to.  The
// default is os.TempDir.
func WithTempDir(dir string) Option {
	return func(o *options) { o.tempDir = dir }
}

// sheetState is one worksheet's cursor and spool.
type sheetState struct {
	name  string
	id    int
	spool *os.File
	xw    *xmlstream.Writer

	row  int // row currently open, 1-based
	col  int // column the next write lands in, 1-based
	rows int // NewRow calls

	maxRow int
	maxCol int
}

func (s *sheetState) part() string {
	return "xl/worksheets/sheet" + strconv.Itoa(s.id) + ".xml"
}

// Writer streams cells into a new workbook.  It is not safe for concurrent
// use.
type Writer struct {
	out  *os.File
	opts options
	log  *slog.Logger

	sheets []*sheetState
	byName map[string]*sheetState
	cur    *sheetState
	pool   *stringtable.Pool

	finished  bool
	finishErr error // first flush failure of Finish; Close returns it
	closed    bool
}

// Create creates the file at path and returns a Writer for it.  Nothing but
// the empty file is written until Close.
func Create(path string, opts ...Option) (*Writer, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("writer: create %q: %w", path, err)
	}
	return &Writer{
		out:    out,
		opts:   o,
		log:    o.logger,
		byName: make(map[string]*sheetState),
		pool:   stringtable.NewPool(),
	}, nil
}

// SelectWorksheet makes name the worksheet subsequent writes go to,
// creating it after the existing ones if needed.  An existing worksheet
// resumes at its own cursor.
func (w *Writer) SelectWorksheet(name string) error {
	if err := w.usable(); err != nil {
		return err
	}
	if s, ok := w.byName[name]; ok {
		w.cur = s
		return nil
	}
	if name == "" {
		return errors.New("writer: empty worksheet name")
	}
	return w.newSheet(name)
}

// newSheet creates a worksheet, opens its first row and makes it active.
func (w *Writer) newSheet(name string) error {
	spool, err := os.CreateTemp(w.opts.tempDir, "xlsxstream-sheet-*.xml")
	if err != nil {
		return fmt.Errorf("writer: worksheet %q: %w", name, err)
	}
	s := &sheetState{
		name:  name,
		id:    len(w.sheets) + 1,
		spool: spool,
		xw:    xmlstream.NewWriter(spool),
		row:   1,
		col:   1,
	}
	s.xw.Start("row", xmlstream.Attr{Name: "r", Value: "1"})
	w.sheets = append(w.sheets, s)
	w.byName[name] = s
	w.cur = s
	w.log.Debug("worksheet created",
		slog.String("sheet", name),
		slog.Int("sheet_id", s.id),
		slog.String("spool", spool.Name()))
	return nil
}

// Worksheets returns the worksheet names in creation order.
func (w *Writer) Worksheets() []string {
	names := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		names[i] = s.name
	}
	return names
}

// RowsWritten returns how many times NewRow has been called on the active
// worksheet, directly or through JumpForwardTo.
func (w *Writer) RowsWritten() int {
	if w.cur == nil {
		return 0
	}
	return w.cur.rows
}

// Write writes v to the cell at the cursor with the default style and
// returns the cell's address.  See WriteStyled for the accepted types.
func (w *Writer) Write(v any) (string, error) {
	return w.WriteStyled(v, styles.Default)
}

// WriteStyled writes v to the cell at the cursor and advances the cursor one
// column.
//
// Strings go to the shared-string table.  Integers, floats and
// decimal.Decimal are written as exact decimals.  A bool becomes a boolean
// cell.  A time.Time becomes a date serial and uses styles.Date when st is
// styles.Default.  nil leaves the cell blank but still advances the cursor.
// Any other type is rejected with ErrUnsupportedValue and the cursor does
// not move.
func (w *Writer) WriteStyled(v any, st styles.Style) (string, error) {
	if err := w.ensureSheet(); err != nil {
		return "", err
	}
	if !st.Valid() {
		return "", fmt.Errorf("writer: %v: %w", st, ErrUnsupportedValue)
	}

	var (
		typ  string
		text string
	)
	switch x := v.(type) {
	case nil:
		return w.skip()
	case string:
		typ, text = "s", strconv.Itoa(w.pool.Intern(x))
	case bool:
		typ, text = "b", "0"
		if x {
			text = "1"
		}
	case time.Time:
		if st == styles.Default {
			st = styles.Date
		}
		text = decimal.NewFromFloat(numfmt.ToOADate(x)).String()
	case decimal.Decimal:
		text = x.String()
	case float64:
		d, err := fromFloat(x)
		if err != nil {
			return "", err
		}
		text = d.String()
	case float32:
		if _, err := fromFloat(float64(x)); err != nil {
			return "", err
		}
		text = decimal.NewFromFloat32(x).String()
	case int:
		text = decimal.NewFromInt(int64(x)).String()
	case int8:
		text = decimal.NewFromInt(int64(x)).String()
	case int16:
		text = decimal.NewFromInt(int64(x)).String()
	case int32:
		text = decimal.NewFromInt32(x).String()
	case int64:
		text = decimal.NewFromInt(x).String()
	case uint:
		text = decimal.NewFromUint64(uint64(x)).String()
	case uint8:
		text = decimal.NewFromUint64(uint64(x)).String()
	case uint16:
		text = decimal.NewFromUint64(uint64(x)).String()
	case uint32:
		text = decimal.NewFromUint64(uint64(x)).String()
	case uint64:
		text = decimal.NewFromUint64(x).String()
	default:
		return "", fmt.Errorf("writer: %T: %w", v, ErrUnsupportedValue)
	}
	return w.cell(typ, st, func(xw *xmlstream.Writer) {
		xw.Element("v", text)
	})
}

// WriteInline writes text as an inline string, bypassing the shared-string
// table.
func (w *Writer) WriteInline(text string) (string, error) {
	return w.WriteInlineStyled(text, styles.Default)
}

// WriteInlineStyled is WriteInline with a style.
func (w *Writer) WriteInlineStyled(text string, st styles.Style) (string, error) {
	if err := w.ensureSheet(); err != nil {
		return "", err
	}
	if !st.Valid() {
		return "", fmt.Errorf("writer: %v: %w", st, ErrUnsupportedValue)
	}
	return w.cell("inlineStr", st, func(xw *xmlstream.Writer) {
		xw.Start("is")
		if stringtable.NeedsPreserve(text) {
			xw.Element("t", text, xmlstream.Attr{Name: "xml:space", Value: "preserve"})
		} else {
			xw.Element("t", text)
		}
		xw.End()
	})
}

// NewRow closes the current row of the active worksheet and opens the next
// one.  The cursor returns to column A.
func (w *Writer) NewRow() error {
	if err := w.ensureSheet(); err != nil {
		return err
	}
	s := w.cur
	if s.row >= cellref.MaxRows {
		return fmt.Errorf("writer: row %d: %w", s.row+1, cellref.ErrInvalidRef)
	}
	s.xw.End()
	s.row++
	s.col = 1
	s.rows++
	s.xw.Start("row", xmlstream.Attr{Name: "r", Value: strconv.Itoa(s.row)})
	return nil
}

// JumpForwardTo moves the cursor to addr, opening new rows as needed.
// Targets before the cursor fail with ErrBackwardJump.
func (w *Writer) JumpForwardTo(addr string) error {
	if err := w.ensureSheet(); err != nil {
		return err
	}
	ref, err := cellref.Parse(addr)
	if err != nil {
		return fmt.Errorf("writer: jump: %w", err)
	}
	s := w.cur
	if ref.Row < s.row || (ref.Row == s.row && ref.Col < s.col) {
		return fmt.Errorf("writer: %s from %s: %w", addr, cellref.Format(s.row, s.col), ErrBackwardJump)
	}
	for s.row < ref.Row {
		if err := w.NewRow(); err != nil {
			return err
		}
	}
	s.col = ref.Col
	return nil
}

// Finish closes every open worksheet.  Nothing can be written afterwards;
// a second call returns ErrFinished.
func (w *Writer) Finish() error {
	if w.closed {
		return ErrClosed
	}
	if w.finished {
		return ErrFinished
	}
	w.finished = true
	for _, s := range w.sheets {
		s.xw.CloseAll()
		if err := s.xw.Flush(); err != nil {
			w.finishErr = fmt.Errorf("writer: worksheet %q: %w", s.name, err)
			return w.finishErr
		}
	}
	return nil
}

// Close finishes the workbook if needed, writes the package and removes the
// spool files.  If Finish failed, no package is written and Close returns
// that error.  A second call is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	err := w.finishErr
	if !w.finished {
		err = w.Finish()
	}
	if err == nil {
		err = w.writePackage()
	}
	w.closed = true

	for _, s := range w.sheets {
		_ = s.spool.Close()
		if rmErr := os.Remove(s.spool.Name()); rmErr != nil && err == nil {
			err = fmt.Errorf("writer: remove spool: %w", rmErr)
		}
	}
	if cerr := w.out.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("writer: close: %w", cerr)
	}
	return err
}

// ── internal ─────────────────────────────────────────────────────────────────

func (w *Writer) usable() error {
	if w.closed {
		return ErrClosed
	}
	if w.finished {
		return ErrFinished
	}
	return nil
}

// ensureSheet checks the writer state and creates DefaultSheet when nothing
// has been selected yet.
func (w *Writer) ensureSheet() error {
	if err := w.usable(); err != nil {
		return err
	}
	if w.cur == nil {
		return w.SelectWorksheet(DefaultSheet)
	}
	return nil
}

// cell writes one c element at the cursor and advances it.
func (w *Writer) cell(typ string, st styles.Style, body func(*xmlstream.Writer)) (string, error) {
	s := w.cur
	if s.col > cellref.MaxColumns {
		return "", fmt.Errorf("writer: column %d: %w", s.col, cellref.ErrInvalidRef)
	}
	ref := cellref.Format(s.row, s.col)
	attrs := []xmlstream.Attr{{Name: "r", Value: ref}}
	if st != styles.Default {
		attrs = append(attrs, xmlstream.Attr{Name: "s", Value: strconv.Itoa(int(st))})
	}
	if typ != "" {
		attrs = append(attrs, xmlstream.Attr{Name: "t", Value: typ})
	}
	s.xw.Start("c", attrs...)
	body(s.xw)
	s.xw.End()

	s.maxRow = max(s.maxRow, s.row)
	s.maxCol = max(s.maxCol, s.col)
	s.col++
	return ref, nil
}

// skip advances the cursor over a blank cell.
func (w *Writer) skip() (string, error) {
	s := w.cur
	if s.col > cellref.MaxColumns {
		return "", fmt.Errorf("writer: column %d: %w", s.col, cellref.ErrInvalidRef)
	}
	ref := cellref.Format(s.row, s.col)
	s.col++
	return ref, nil
}

func fromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, fmt.Errorf("writer: %v: %w", f, ErrUnsupportedValue)
	}
	return decimal.NewFromFloat(f), nil
}

// writePackage assembles the ZIP container.
func (w *Writer) writePackage() error {
	if len(w.sheets) == 0 {
		// A workbook needs at least one worksheet.
		if err := w.createEmptyDefault(); err != nil {
			return err
		}
	}

	zw := zip.NewWriter(w.out)
	parts := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"[Content_Types].xml", w.writeContentTypes},
		{"_rels/.rels", func(out io.Writer) error {
			return rels.Write(out, []rels.Relationship{
				{ID: "rId1", Type: rels.TypeOfficeDocument, Target: "xl/workbook.xml"},
			})
		}},
		{"xl/workbook.xml", w.writeWorkbook},
		{"xl/_rels/workbook.xml.rels", w.writeWorkbookRels},
		{"xl/styles.xml", styles.WriteStylesheet},
		{"xl/sharedStrings.xml", func(out io.Writer) error {
			_, err := w.pool.WriteTo(out)
			return err
		}},
	}
	for _, p := range parts {
		if err := writePart(zw, p.name, p.write); err != nil {
			return err
		}
	}
	for _, s := range w.sheets {
		if err := writePart(zw, s.part(), s.writeWorksheet); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("writer: zip: %w", err)
	}
	w.log.Debug("workbook written",
		slog.String("path", w.out.Name()),
		slog.Int("sheets", len(w.sheets)),
		slog.Int("shared_strings", w.pool.Len()))
	return nil
}

func writePart(zw *zip.Writer, name string, write func(io.Writer) error) error {
	out, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("writer: %s: %w", name, err)
	}
	if err := write(out); err != nil {
		return fmt.Errorf("writer: %s: %w", name, err)
	}
	return nil
}

func (w *Writer) createEmptyDefault() error {
	if err := w.newSheet(DefaultSheet); err != nil {
		return err
	}
	s := w.cur
	s.xw.CloseAll()
	return s.xw.Flush()
}

func (w *Writer) writeContentTypes(out io.Writer) error {
	overrides := []rels.Override{
		{PartName: "/xl/workbook.xml", ContentType: rels.ContentTypeWorkbook},
		{PartName: "/xl/styles.xml", ContentType: rels.ContentTypeStyles},
		{PartName: "/xl/sharedStrings.xml", ContentType: rels.ContentTypeSharedStrings},
	}
	for _, s := range w.sheets {
		overrides = append(overrides, rels.Override{PartName: "/" + s.part(), ContentType: rels.ContentTypeWorksheet})
	}
	return rels.WriteContentTypes(out, overrides)
}

func (w *Writer) writeWorkbook(out io.Writer) error {
	xw := xmlstream.NewWriter(out)
	xw.Header()
	xw.Start("workbook",
		xmlstream.Attr{Name: "xmlns", Value: rels.NamespaceMain},
		xmlstream.Attr{Name: "xmlns:r", Value: rels.NamespaceOfficeRels},
	)
	xw.Start("sheets")
	for _, s := range w.sheets {
		xw.Empty("sheet",
			xmlstream.Attr{Name: "name", Value: s.name},
			xmlstream.Attr{Name: "sheetId", Value: strconv.Itoa(s.id)},
			xmlstream.Attr{Name: "r:id", Value: "rId" + strconv.Itoa(s.id)},
		)
	}
	xw.CloseAll()
	return xw.Flush()
}

// writeWorkbookRels numbers worksheet relationships by sheet id and puts
// styles and shared strings after them.
func (w *Writer) writeWorkbookRels(out io.Writer) error {
	rs := make([]rels.Relationship, 0, len(w.sheets)+2)
	for _, s := range w.sheets {
		rs = append(rs, rels.Relationship{
			ID:     "rId" + strconv.Itoa(s.id),
			Type:   rels.TypeWorksheet,
			Target: "worksheets/sheet" + strconv.Itoa(s.id) + ".xml",
		})
	}
	n := len(w.sheets)
	rs = append(rs,
		rels.Relationship{ID: "rId" + strconv.Itoa(n+1), Type: rels.TypeStyles, Target: "styles.xml"},
		rels.Relationship{ID: "rId" + strconv.Itoa(n+2), Type: rels.TypeSharedStrings, Target: "sharedStrings.xml"},
	)
	return rels.Write(out, rs)
}

// writeWorksheet wraps the spooled rows in the worksheet envelope.  The
// dimension covers A1 to the bottom-right written cell.
func (s *sheetState) writeWorksheet(out io.Writer) error {
	dim := "A1"
	if s.maxRow > 0 {
		dim = cellref.FullScanRange(s.maxRow, s.maxCol).String()
	}

	xw := xmlstream.NewWriter(out)
	xw.Header()
	xw.Start("worksheet", xmlstream.Attr{Name: "xmlns", Value: rels.NamespaceMain})
	xw.Empty("dimension", xmlstream.Attr{Name: "ref", Value: dim})
	xw.Start("sheetData")
	if err := xw.Flush(); err != nil {
		return err
	}

	if _, err := s.spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind spool: %w", err)
	}
	if _, err := io.Copy(out, s.spool); err != nil {
		return fmt.Errorf("copy spool: %w", err)
	}

	xw.CloseAll()
	return xw.Flush()
}
