// Package workbook opens an .xlsx workbook (a ZIP archive) and hands out
// streaming readers for its worksheets.
//
// Opening a workbook reads the package metadata only: the sheet list from
// the workbook part, the shared-string table and the number formats of the
// stylesheet.  Worksheet parts are never loaded; [Workbook.OpenSheet] returns
// a reader that streams the part straight from the archive.
package workbook

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"

	"github.com/TsubasaBE/go-xlsxstream/internal/rels"
	"github.com/TsubasaBE/go-xlsxstream/internal/xmlstream"
	"github.com/TsubasaBE/go-xlsxstream/numfmt"
	"github.com/TsubasaBE/go-xlsxstream/stringtable"
	"github.com/TsubasaBE/go-xlsxstream/styles"
	"github.com/TsubasaBE/go-xlsxstream/worksheet"
)

// ErrSheetNotFound is returned when no worksheet has the requested name.
var ErrSheetNotFound = errors.New("workbook: sheet not found")

// Sheet visibility levels, as stored in the state attribute of a sheet
// element.  Use these constants with SheetVisibility.
const (
	// SheetVisible indicates the sheet tab is visible (no state or
	// state="visible").
	SheetVisible = 0
	// SheetHidden indicates the sheet is hidden but can be unhidden from
	// the spreadsheet UI.
	SheetHidden = 1
	// SheetVeryHidden indicates the sheet can only be unhidden
	// programmatically.
	SheetVeryHidden = 2
)

// Conventional part locations, used when a relationship is missing.
const (
	defaultWorkbookPart      = "xl/workbook.xml"
	defaultSharedStringsPart = "xl/sharedStrings.xml"
	defaultStylesPart        = "xl/styles.xml"
)

// sheetEntry holds the display name and the ZIP entry of one worksheet.
type sheetEntry struct {
	name       string
	id         int
	part       string // e.g. "xl/worksheets/sheet1.xml"
	visibility int
}

// Workbook represents an open .xlsx workbook.
type Workbook struct {
	zr    *zip.ReadCloser // non-nil when opened by file name
	files map[string]*zip.File

	part    string
	sheets  []sheetEntry
	strings *stringtable.Table
	catalog *numfmt.Catalog

	stylesErr error

	// Date1904 is true when the workbook uses the 1904 date system.
	// Worksheet readers opened through OpenSheet apply it automatically.
	Date1904 bool
}

// Open opens the named .xlsx file and parses its workbook metadata.
// The caller must call Close on the returned Workbook when done to release
// the underlying file handle.
func Open(name string) (*Workbook, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("workbook: open %q: %w", name, err)
	}
	wb := newWorkbook(&rc.Reader)
	wb.zr = rc
	if err := wb.parse(); err != nil {
		_ = rc.Close()
		return nil, err
	}
	return wb, nil
}

// OpenReader parses an .xlsx workbook from an in-memory ReaderAt.
// size must be the total byte size of the ZIP data.
func OpenReader(r io.ReaderAt, size int64) (*Workbook, error) {
	zf, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("workbook: open reader: %w", err)
	}
	wb := newWorkbook(zf)
	if err := wb.parse(); err != nil {
		return nil, err
	}
	return wb, nil
}

func newWorkbook(zf *zip.Reader) *Workbook {
	files := make(map[string]*zip.File, len(zf.File))
	for _, f := range zf.File {
		files[f.Name] = f
	}
	return &Workbook{files: files}
}

// Sheets returns the display names of all worksheets in workbook order.
func (wb *Workbook) Sheets() []string {
	names := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		names[i] = s.name
	}
	return names
}

// HasSheet reports whether a worksheet is named exactly name.
func (wb *Workbook) HasSheet(name string) bool {
	_, ok := wb.lookup(name)
	return ok
}

// SheetVisibility returns the visibility level of the named sheet:
// SheetVisible, SheetHidden or SheetVeryHidden.  It returns -1 if no sheet
// with that name exists.
func (wb *Workbook) SheetVisibility(name string) int {
	s, ok := wb.lookup(name)
	if !ok {
		return -1
	}
	return s.visibility
}

// Strings returns the shared-string table, nil when the workbook has none.
func (wb *Workbook) Strings() *stringtable.Table { return wb.strings }

// Catalog returns the number-format catalog, nil when the workbook has no
// readable stylesheet.
func (wb *Workbook) Catalog() *numfmt.Catalog { return wb.catalog }

// OpenSheet returns a streaming reader over the worksheet named exactly
// name.  The workbook's date system is applied on top of cfg.  The reader
// must be closed before the workbook.
func (wb *Workbook) OpenSheet(name string, cfg worksheet.Config) (*worksheet.CellReader, error) {
	s, ok := wb.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
	}
	if _, ok := wb.files[s.part]; !ok {
		return nil, fmt.Errorf("workbook: sheet %q: part %q not found in archive", name, s.part)
	}
	cfg.Date1904 = cfg.Date1904 || wb.Date1904
	return worksheet.New(s.name, func() (io.ReadCloser, error) {
		return wb.openEntry(s.part)
	}, wb.strings, wb.catalog, cfg)
}

// StylesError reports why the stylesheet could not be used, or nil.  When
// it is non-nil the workbook opened without number formats, so date cells
// read as their serial numbers.
func (wb *Workbook) StylesError() error { return wb.stylesErr }

// Close releases the underlying ZIP file handle.
// It is a no-op when the workbook was opened via OpenReader.
func (wb *Workbook) Close() error {
	if wb.zr != nil {
		return wb.zr.Close()
	}
	return nil
}

// ── internal ─────────────────────────────────────────────────────────────────

func (wb *Workbook) lookup(name string) (sheetEntry, bool) {
	for _, s := range wb.sheets {
		if s.name == name {
			return s, true
		}
	}
	return sheetEntry{}, false
}

// parse locates the workbook part and reads its sheet list, then the
// shared strings and styles it refers to.
func (wb *Workbook) parse() error {
	wb.part = defaultWorkbookPart
	pkgRels, err := wb.readRels(rels.PartPath(""))
	if err != nil {
		return err
	}
	if r, ok := rels.FindType(pkgRels, rels.TypeOfficeDocument); ok {
		wb.part = rels.ResolveTarget("", r.Target)
	}

	wbRels, err := wb.readRels(rels.PartPath(wb.part))
	if err != nil {
		return err
	}
	if err := wb.parseWorkbook(rels.ByID(wbRels)); err != nil {
		return err
	}
	if err := wb.parseSharedStrings(wb.target(wbRels, rels.TypeSharedStrings, defaultSharedStringsPart)); err != nil {
		return err
	}
	wb.parseStyles(wb.target(wbRels, rels.TypeStyles, defaultStylesPart))
	return nil
}

// parseWorkbook streams the workbook part for the workbook properties and
// the sheet list.
func (wb *Workbook) parseWorkbook(byID map[string]rels.Relationship) error {
	rc, err := wb.openEntry(wb.part)
	if err != nil {
		return fmt.Errorf("workbook: read %s: %w", wb.part, err)
	}
	defer rc.Close()

	dec := xmlstream.NewDecoder(rc)
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("workbook: %s: %w", wb.part, err)
		}
		switch {
		case ev.Is("workbookPr"):
			v, _ := ev.Attr("date1904")
			wb.Date1904 = v == "1" || v == "true"
		case ev.Is("sheet"):
			entry, err := wb.parseSheet(ev, byID)
			if err != nil {
				return fmt.Errorf("workbook: parse sheet element: %w", err)
			}
			wb.sheets = append(wb.sheets, entry)
		case ev.Kind == xmlstream.EndElement && ev.Name == "sheets":
			return nil
		}
	}
}

// parseSheet decodes one sheet element.  The r:id attribute is matched by
// its local name.
func (wb *Workbook) parseSheet(ev xmlstream.Event, byID map[string]rels.Relationship) (sheetEntry, error) {
	name, ok := ev.Attr("name")
	if !ok {
		return sheetEntry{}, errors.New("missing name")
	}
	entry := sheetEntry{name: name}
	if v, ok := ev.Attr("sheetId"); ok {
		entry.id, _ = strconv.Atoi(v)
	}
	switch v, _ := ev.Attr("state"); v {
	case "hidden":
		entry.visibility = SheetHidden
	case "veryHidden":
		entry.visibility = SheetVeryHidden
	}

	relID, _ := ev.Attr("id")
	r, ok := byID[relID]
	if !ok {
		return sheetEntry{}, fmt.Errorf("no relationship found for sheet %q (r:id %q)", name, relID)
	}
	entry.part = rels.ResolveTarget(wb.part, r.Target)
	return entry, nil
}

// target returns the part the first relationship of typ points at, or
// fallback when the workbook declares none.
func (wb *Workbook) target(rs []rels.Relationship, typ, fallback string) string {
	if r, ok := rels.FindType(rs, typ); ok {
		return rels.ResolveTarget(wb.part, r.Target)
	}
	return fallback
}

// parseSharedStrings loads the shared-string table if the part exists.
func (wb *Workbook) parseSharedStrings(part string) error {
	rc, err := wb.openEntry(part)
	if errors.Is(err, fs.ErrNotExist) {
		// Optional: workbooks with only numbers and inline strings have none.
		return nil
	}
	if err != nil {
		return fmt.Errorf("workbook: shared strings: %w", err)
	}
	defer rc.Close()
	st, err := stringtable.Load(rc)
	if err != nil {
		return fmt.Errorf("workbook: shared strings: %w", err)
	}
	wb.strings = st
	return nil
}

// parseStyles loads the number-format catalog.  A missing or malformed
// stylesheet leaves the catalog nil so the workbook still opens; values then
// resolve without date conversion.  Anything but a missing part is kept for
// StylesError.
func (wb *Workbook) parseStyles(part string) {
	rc, err := wb.openEntry(part)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		wb.stylesErr = err
		return
	}
	defer rc.Close()
	cat, err := styles.Parse(rc)
	if err != nil {
		wb.stylesErr = fmt.Errorf("workbook: %s: %w", part, err)
		return
	}
	wb.catalog = cat
}

// readRels parses a relationship part.  A missing part yields no
// relationships.
func (wb *Workbook) readRels(name string) ([]rels.Relationship, error) {
	rc, err := wb.openEntry(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("workbook: %s: %w", name, err)
	}
	defer rc.Close()
	rs, err := rels.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("workbook: %s: %w", name, err)
	}
	return rs, nil
}

// openEntry opens a named entry of the ZIP archive for streaming.
func (wb *Workbook) openEntry(name string) (io.ReadCloser, error) {
	f, ok := wb.files[name]
	if !ok {
		return nil, fmt.Errorf("%q not found in archive: %w", name, fs.ErrNotExist)
	}
	return f.Open()
}
