package xmlstream

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderEvents(t *testing.T) {
	src := `<?xml version="1.0"?><!-- note --><root a="1"><c r="A1"><v>42</v></c></root>`
	dec := NewDecoder(strings.NewReader(src))

	var kinds []Kind
	var names []string
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		kinds = append(kinds, ev.Kind)
		if ev.Kind == Text {
			names = append(names, "#"+string(ev.Data))
		} else {
			names = append(names, ev.Name)
		}
	}
	assert.Equal(t, []Kind{StartElement, StartElement, StartElement, Text, EndElement, EndElement, EndElement}, kinds)
	assert.Equal(t, []string{"root", "c", "v", "#42", "v", "c", "root"}, names)
}

func TestEventAttr(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`<c r="B2" s="3" t="s"/>`))
	ev, err := dec.Next()
	require.NoError(t, err)
	require.True(t, ev.Is("c"))

	r, ok := ev.Attr("r")
	assert.True(t, ok)
	assert.Equal(t, "B2", r)
	_, ok = ev.Attr("missing")
	assert.False(t, ok)
}

func TestReadTextConcatenatesDescendants(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`<is><r><t>Hello</t></r><r><t xml:space="preserve"> world</t></r></is><after/>`))
	ev, err := dec.Next()
	require.NoError(t, err)
	require.True(t, ev.Is("is"))

	text, err := dec.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)

	ev, err = dec.Next()
	require.NoError(t, err)
	assert.True(t, ev.Is("after"))
}

func TestReadTextTruncated(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`<v>12`))
	_, err := dec.Next()
	require.NoError(t, err)
	_, err = dec.ReadText()
	assert.Error(t, err)
}

func TestSkip(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`<a><b><c/></b><d/></a>`))
	_, _ = dec.Next() // a
	ev, _ := dec.Next()
	require.True(t, ev.Is("b"))
	require.NoError(t, dec.Skip())
	ev, err := dec.Next()
	require.NoError(t, err)
	assert.True(t, ev.Is("d"))
}

func TestWriterNestingAndEscaping(t *testing.T) {
	var buf bytes.Buffer
	xw := NewWriter(&buf)
	xw.Header()
	xw.Start("worksheet", Attr{Name: "xmlns", Value: "urn:x"})
	xw.Start("sheetData")
	xw.Empty("row", Attr{Name: "r", Value: "1"})
	xw.Element("t", `a<b & "c"`)
	assert.Equal(t, 2, xw.Depth())
	xw.CloseAll()
	require.NoError(t, xw.Flush())

	want := Header + `<worksheet xmlns="urn:x"><sheetData><row r="1"/><t>a&lt;b &amp; &#34;c&#34;</t></sheetData></worksheet>`
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 0, xw.Depth())
}

func TestWriterEndOnEmptyStack(t *testing.T) {
	var buf bytes.Buffer
	xw := NewWriter(&buf)
	xw.End()
	require.NoError(t, xw.Flush())
	assert.Empty(t, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterStickyError(t *testing.T) {
	xw := NewWriter(failingWriter{})
	xw.Start("a")
	xw.Text(strings.Repeat("x", 8192))
	xw.End()
	err := xw.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	xw := NewWriter(&buf)
	xw.Start("si")
	xw.Element("t", "line1\nline2 <&>", Attr{Name: "xml:space", Value: "preserve"})
	xw.End()
	require.NoError(t, xw.Flush())

	dec := NewDecoder(&buf)
	ev, err := dec.Next()
	require.NoError(t, err)
	require.True(t, ev.Is("si"))
	text, err := dec.ReadText()
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2 <&>", text)
}
