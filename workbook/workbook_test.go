package workbook

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/TsubasaBE/go-xlsxstream/worksheet"
)

// zipAddFile writes data as a new entry named name into zw.
// It calls t.Fatalf on any error.
func zipAddFile(t *testing.T, zw *zip.Writer, name string, data []byte) {
	t.Helper()
	f, err := zw.Create(name)
	if err != nil {
		t.Fatalf("zip create %s: %v", name, err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("zip write %s: %v", name, err)
	}
}

// openParts zips parts in the given order and opens the result.
func openParts(t *testing.T, parts ...[2]string) (*Workbook, error) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		zipAddFile(t, zw, p[0], []byte(p[1]))
	}
	require.NoError(t, zw.Close())
	return OpenReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
}

const (
	pkgRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>
</Relationships>`

	wbRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="/xl/worksheets/data.xml"/>
<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet3.xml"/>
<Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings" Target="strings.xml"/>
<Relationship Id="rId5" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

	wbXML = `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<workbookPr date1904="1"/>
<sheets>
<sheet name="First" sheetId="1" r:id="rId1"/>
<sheet name="Data" sheetId="4" state="hidden" r:id="rId2"/>
<sheet name="Secret" sheetId="5" state="veryHidden" r:id="rId3"/>
</sheets>
</workbook>`

	sstXML = `<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="2" uniqueCount="2">
<si><t>hello</t></si><si><t>world</t></si></sst>`

	stylesXML = `<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<numFmts count="1"><numFmt numFmtId="164" formatCode="yyyy-mm-dd"/></numFmts>
<cellXfs count="2"><xf numFmtId="0"/><xf numFmtId="164" applyNumberFormat="1"/></cellXfs>
</styleSheet>`

	sheet1XML = `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<dimension ref="A1:B2"/><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
<row r="2"><c r="B2" s="1"><v>42735</v></c></row>
</sheetData></worksheet>`

	dataXML = `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<dimension ref="A1"/><sheetData><row r="1"><c r="A1"><v>7</v></c></row></sheetData></worksheet>`
)

func fullWorkbook(t *testing.T) *Workbook {
	t.Helper()
	wb, err := openParts(t,
		[2]string{"_rels/.rels", pkgRels},
		[2]string{"xl/_rels/workbook.xml.rels", wbRels},
		[2]string{"xl/workbook.xml", wbXML},
		[2]string{"xl/strings.xml", sstXML},
		[2]string{"xl/styles.xml", stylesXML},
		[2]string{"xl/worksheets/sheet1.xml", sheet1XML},
		[2]string{"xl/worksheets/data.xml", dataXML},
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestOpenReaderMetadata(t *testing.T) {
	wb := fullWorkbook(t)

	assert.Equal(t, []string{"First", "Data", "Secret"}, wb.Sheets())
	assert.True(t, wb.Date1904)
	assert.Equal(t, 2, wb.Strings().Len())
	code, ok := wb.Catalog().FormatFor(1)
	require.True(t, ok)
	assert.Equal(t, "yyyy-mm-dd", code)

	assert.Equal(t, SheetVisible, wb.SheetVisibility("First"))
	assert.Equal(t, SheetHidden, wb.SheetVisibility("Data"))
	assert.Equal(t, SheetVeryHidden, wb.SheetVisibility("Secret"))
	assert.Equal(t, -1, wb.SheetVisibility("first"))
}

func TestOpenSheetResolvesTargets(t *testing.T) {
	wb := fullWorkbook(t)

	cr, err := wb.OpenSheet("First", worksheet.Config{})
	require.NoError(t, err)
	defer cr.Close()
	rr, err := worksheet.NewRowReader(cr, cr.RowCount(), cr.ColumnCount())
	require.NoError(t, err)

	var got [][]string
	for rec, err := range rr.Records() {
		require.NoError(t, err)
		got = append(got, rec)
	}
	// 42735 in the 1904 system is 2021-01-01.
	assert.Equal(t, [][]string{{"hello", "world"}, {"", "1/1/2021"}}, got)

	// Absolute target.
	data, err := wb.OpenSheet("Data", worksheet.Config{})
	require.NoError(t, err)
	defer data.Close()
	ok, err := data.Advance()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "7", data.Resolve(data.Current()))
}

func TestOpenSheetNotFound(t *testing.T) {
	wb := fullWorkbook(t)

	_, err := wb.OpenSheet("first", worksheet.Config{})
	assert.ErrorIs(t, err, ErrSheetNotFound, "names match exactly")
	assert.False(t, wb.HasSheet("first"))
	assert.True(t, wb.HasSheet("First"))

	// Declared but the part is absent from the archive.
	_, err = wb.OpenSheet("Secret", worksheet.Config{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSheetNotFound)
}

func TestOpenReaderFallbacks(t *testing.T) {
	// No package rels and no workbook-level string or style relationships:
	// conventional locations are used.
	wb, err := openParts(t,
		[2]string{"xl/_rels/workbook.xml.rels", `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
</Relationships>`},
		[2]string{"xl/workbook.xml", `<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets></workbook>`},
		[2]string{"xl/sharedStrings.xml", sstXML},
		[2]string{"xl/worksheets/sheet1.xml", sheet1XML},
	)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Sheet1"}, wb.Sheets())
	assert.False(t, wb.Date1904)
	assert.Equal(t, 2, wb.Strings().Len())
	assert.Nil(t, wb.Catalog())
}

func TestOpenReaderErrors(t *testing.T) {
	_, err := OpenReader(bytes.NewReader([]byte("not a zip")), 9)
	assert.Error(t, err)

	_, err = openParts(t, [2]string{"_rels/.rels", pkgRels})
	assert.Error(t, err, "workbook part missing")

	_, err = openParts(t,
		[2]string{"xl/workbook.xml", `<workbook><sheets><sheet name="A" sheetId="1" id="rId9"/></sheets></workbook>`},
	)
	assert.Error(t, err, "dangling relationship id")

	_, err = openParts(t,
		[2]string{"xl/_rels/workbook.xml.rels", `<Relationships`},
		[2]string{"xl/workbook.xml", `<workbook/>`},
	)
	assert.Error(t, err, "malformed rels")
}

func TestMalformedStylesDegrade(t *testing.T) {
	wb, err := openParts(t,
		[2]string{"xl/workbook.xml", `<workbook><sheets/></workbook>`},
		[2]string{"xl/styles.xml", `<styleSheet><cellXfs>`},
	)
	require.NoError(t, err)
	assert.Nil(t, wb.Catalog())
	assert.Empty(t, wb.Sheets())
	require.Error(t, wb.StylesError())
	assert.Contains(t, wb.StylesError().Error(), "xl/styles.xml")
}

func TestMissingStylesIsNotAnError(t *testing.T) {
	wb, err := openParts(t,
		[2]string{"xl/workbook.xml", `<workbook><sheets/></workbook>`},
	)
	require.NoError(t, err)
	assert.Nil(t, wb.Catalog())
	assert.NoError(t, wb.StylesError())
}

func TestOpenExcelizeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "name"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", 12.5))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", true))
	require.NoError(t, f.SetSheetDimension("Sheet1", "A1:B2"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	wb, err := Open(path)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Sheet1", "Other"}, wb.Sheets())

	cr, err := wb.OpenSheet("Sheet1", worksheet.Config{})
	require.NoError(t, err)
	defer cr.Close()
	assert.Equal(t, "A1:B2", cr.UsedRange().String())

	rr, err := worksheet.NewRowReader(cr, cr.RowCount(), cr.ColumnCount())
	require.NoError(t, err)
	var got [][]string
	for rec, err := range rr.Records() {
		require.NoError(t, err)
		got = append(got, rec)
	}
	assert.Equal(t, [][]string{{"name", "12.5"}, {"TRUE", ""}}, got)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
