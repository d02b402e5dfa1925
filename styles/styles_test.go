package styles

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <numFmts count="2">
    <numFmt numFmtId="164" formatCode="yyyy\-mm\-dd"/>
    <numFmt numFmtId="2" formatCode="0.000"/>
  </numFmts>
  <cellStyleXfs count="2">
    <xf numFmtId="14" applyNumberFormat="1"/>
    <xf numFmtId="0"/>
  </cellStyleXfs>
  <cellXfs count="5">
    <xf numFmtId="0" fontId="0"/>
    <xf numFmtId="14" applyNumberFormat="1"/>
    <xf numFmtId="164" applyNumberFormat="true"/>
    <xf numFmtId="4" applyNumberFormat="0"/>
    <xf numFmtId="2" applyNumberFormat="1"/>
  </cellXfs>
</styleSheet>`

func TestParse(t *testing.T) {
	cat, err := Parse(strings.NewReader(stylesXML))
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())

	tests := []struct {
		style  int
		want   string
		wantOK bool
	}{
		{0, "", false},
		{1, "d/m/yyyy", true},
		{2, `yyyy\-mm\-dd`, true},
		{3, "", false}, // applyNumberFormat="0"
		{4, "0.000", true},
	}
	for _, tc := range tests {
		got, ok := cat.FormatFor(tc.style)
		assert.Equal(t, tc.wantOK, ok, "style %d", tc.style)
		assert.Equal(t, tc.want, got, "style %d", tc.style)
	}
}

func TestParseIgnoresDifferentialFormats(t *testing.T) {
	doc := `<styleSheet>
  <numFmts count="1"><numFmt numFmtId="164" formatCode="0.000"/></numFmts>
  <cellXfs count="2">
    <xf numFmtId="0"/>
    <xf numFmtId="164" applyNumberFormat="1"/>
  </cellXfs>
  <dxfs count="1">
    <dxf><numFmt numFmtId="164" formatCode="yyyy-mm-dd"/></dxf>
  </dxfs>
</styleSheet>`
	cat, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	code, ok := cat.FormatFor(1)
	require.True(t, ok)
	assert.Equal(t, "0.000", code)
	assert.Equal(t, 1, cat.Len())
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`<styleSheet><cellXfs><xf></cellXfs>`))
	assert.Error(t, err)
}

func TestStyleNames(t *testing.T) {
	assert.Equal(t, "yellow", Yellow.String())
	assert.Equal(t, "Style(9)", Style(9).String())
	assert.True(t, Date.Valid())
	assert.False(t, Style(-1).Valid())
	assert.False(t, Style(6).Valid())

	s, err := ParseStyle("green")
	require.NoError(t, err)
	assert.Equal(t, Green, s)
	_, err = ParseStyle("purple")
	assert.Error(t, err)
}

func TestWriteStylesheetParsesBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStylesheet(&buf))
	out := buf.String()

	assert.Contains(t, out, `<fonts count="2">`)
	assert.Contains(t, out, `<fills count="6">`)
	assert.Contains(t, out, `<fgColor rgb="FFFFFF00"/>`)
	assert.Contains(t, out, `<cellXfs count="6">`)
	assert.Contains(t, out, `<xf numFmtId="0" fontId="0" fillId="2" borderId="0" xfId="0" applyFill="1"/>`)

	cat, err := Parse(&buf)
	require.NoError(t, err)
	code, ok := cat.FormatFor(int(Date))
	require.True(t, ok)
	assert.Equal(t, "d/m/yyyy", code)
	_, ok = cat.FormatFor(int(Yellow))
	assert.False(t, ok)
}
