// Package xlsxstream provides a pure-Go, forward-only reader and writer for
// Office Open XML spreadsheets (.xlsx).  Memory use is bounded by one row
// plus the shared-string table; worksheet parts are never loaded whole.
//
// # Reading
//
//	r, err := xlsxstream.Open("Book1.xlsx", "Sheet1")
//	if err != nil { ... }
//	defer r.Close()
//
//	for {
//	    rec, ok, err := r.ReadNextRecord()
//	    if err != nil { ... }
//	    if !ok {
//	        break
//	    }
//	    fmt.Println(rec) // always r.ColumnCount() values
//	}
//
// Every record has the width of the worksheet's used range.  Rows without
// cells come back as records of empty strings, so record n is always row n.
// The used range is taken from the worksheet's dimension element unless
// [WithUsedRange]([FullScan]) is given.
//
// Values are display strings: shared strings are resolved, booleans become
// TRUE or FALSE, and numbers whose style applies a date format are rendered
// as M/d/yyyy.  [WithNumberFormatting] additionally renders other numbers
// through their format.
//
// # Writing
//
//	w, err := xlsxstream.Create("out.xlsx")
//	if err != nil { ... }
//	defer w.Close()
//
//	w.Write("name")
//	w.Write(decimal.RequireFromString("12.50"))
//	w.NewRow()
//
// See package [writer] for the full writing API.
package xlsxstream

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"time"

	"github.com/TsubasaBE/go-xlsxstream/cellref"
	"github.com/TsubasaBE/go-xlsxstream/numfmt"
	"github.com/TsubasaBE/go-xlsxstream/workbook"
	"github.com/TsubasaBE/go-xlsxstream/worksheet"
	"github.com/TsubasaBE/go-xlsxstream/writer"
)

// Version is the current version of the go-xlsxstream library.
const Version = "0.1.0"

// DefaultSheet is read when Open is given an empty sheet name.
const DefaultSheet = "Sheet1"

// Reader reads dense records from one worksheet at a time.
type Reader struct {
	wb   *workbook.Workbook
	opts options
	log  *slog.Logger

	cells *worksheet.CellReader
	rows  *worksheet.RowReader
}

// Open opens the named .xlsx file positioned at the start of sheet.  A
// missing sheet is an error wrapping workbook.ErrSheetNotFound.
func Open(path, sheet string, opts ...Option) (*Reader, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	return newReader(wb, sheet, opts)
}

// OpenReader is Open over an in-memory archive of size bytes.
func OpenReader(ra io.ReaderAt, size int64, sheet string, opts ...Option) (*Reader, error) {
	wb, err := workbook.OpenReader(ra, size)
	if err != nil {
		return nil, err
	}
	return newReader(wb, sheet, opts)
}

func newReader(wb *workbook.Workbook, sheet string, opts []Option) (*Reader, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if sheet == "" {
		sheet = DefaultSheet
	}
	if err := wb.StylesError(); err != nil {
		o.logger.Warn("stylesheet unreadable, number formats ignored", slog.Any("error", err))
	}
	r := &Reader{wb: wb, opts: o, log: o.logger}
	if err := r.load(sheet); err != nil {
		_ = wb.Close()
		return nil, err
	}
	return r, nil
}

// ReadNextRecord returns the next row of the active worksheet.  It reports
// false once the used range or the cell stream is exhausted.
func (r *Reader) ReadNextRecord() ([]string, bool, error) {
	return r.rows.ReadNextRecord()
}

// ReadNextCells returns the next row as raw cells, nil where the row has no
// cell.
func (r *Reader) ReadNextCells() ([]*worksheet.RawCell, bool, error) {
	return r.rows.ReadNextCells()
}

// Records iterates the remaining records of the active worksheet.
func (r *Reader) Records() iter.Seq2[[]string, error] {
	return r.rows.Records()
}

// Resolve returns the display value of a cell from ReadNextCells.
func (r *Reader) Resolve(c *worksheet.RawCell) string {
	return r.cells.Resolve(c)
}

// SelectWorksheet switches to the worksheet named exactly name and restarts
// at its first row.  When there is no such worksheet a warning is logged,
// the active worksheet stays as it is and false is returned.
func (r *Reader) SelectWorksheet(name string) (bool, error) {
	if !r.wb.HasSheet(name) {
		r.log.Warn("worksheet not found, keeping current worksheet",
			slog.String("requested", name),
			slog.String("current", r.Sheet()))
		return false, nil
	}
	if err := r.load(name); err != nil {
		return false, err
	}
	return true, nil
}

// Sheet returns the name of the active worksheet.
func (r *Reader) Sheet() string {
	return r.cells.Name()
}

// Sheets returns all worksheet names in workbook order.
func (r *Reader) Sheets() []string {
	return r.wb.Sheets()
}

// UsedRange returns the used range of the active worksheet.
func (r *Reader) UsedRange() cellref.Range {
	return r.cells.UsedRange()
}

// RowCount returns the number of records the active worksheet yields at
// most.
func (r *Reader) RowCount() int {
	return r.rows.RowCount()
}

// ColumnCount returns the width of every record.
func (r *Reader) ColumnCount() int {
	return r.rows.ColumnCount()
}

// Workbook exposes the underlying workbook.
func (r *Reader) Workbook() *workbook.Workbook {
	return r.wb
}

// Close releases the worksheet stream and the file.
func (r *Reader) Close() error {
	var err error
	if r.cells != nil {
		err = r.cells.Close()
	}
	if cerr := r.wb.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// load opens name and makes it active.  The previous worksheet stays
// active if anything fails.
func (r *Reader) load(name string) error {
	cells, err := r.wb.OpenSheet(name, worksheet.Config{
		FullScan:      r.opts.usedRange == FullScan,
		RowStart:      r.opts.rowStart,
		RenderNumbers: r.opts.renderNumbers,
		Logger:        r.log,
	})
	if err != nil {
		return fmt.Errorf("xlsxstream: %w", err)
	}
	rows, err := worksheet.NewRowReader(cells, cells.RowCount(), cells.ColumnCount())
	if err != nil {
		_ = cells.Close()
		return fmt.Errorf("xlsxstream: %w", err)
	}
	if r.cells != nil {
		_ = r.cells.Close()
	}
	r.cells, r.rows = cells, rows
	return nil
}

// Create creates an .xlsx file at path for streaming writes.
func Create(path string, opts ...writer.Option) (*writer.Writer, error) {
	return writer.Create(path, opts...)
}

// ConvertDate converts an OLE Automation date serial, the representation
// spreadsheet dates are stored in, to a time.Time in UTC.
func ConvertDate(serial float64) (time.Time, error) {
	return numfmt.FromOADate(serial)
}

// ConvertDateEx is ConvertDate for workbooks in either date system.  Pass
// the workbook's Date1904 flag.
func ConvertDateEx(serial float64, date1904 bool) (time.Time, error) {
	if date1904 {
		serial += 1462
	}
	return numfmt.FromOADate(serial)
}

// ToOADate converts t to an OLE Automation date serial.
func ToOADate(t time.Time) float64 {
	return numfmt.ToOADate(t)
}
