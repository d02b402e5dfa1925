// Package xmlstream is the element-event layer shared by the reader and the
// writer.  Parts are consumed as a forward-only sequence of tagged events
// (start element, end element, text) and produced through a stack-tracking
// element writer, so neither side ever materializes a whole part in memory.
package xmlstream

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/valyala/bytebufferpool"
)

// Kind discriminates the variants of Event.
type Kind uint8

const (
	StartElement Kind = iota + 1
	EndElement
	Text
)

func (k Kind) String() string {
	switch k {
	case StartElement:
		return "StartElement"
	case EndElement:
		return "EndElement"
	case Text:
		return "Text"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Attr is a single attribute.  Names are local names; namespace prefixes are
// dropped on read and written verbatim on write.
type Attr struct {
	Name  string
	Value string
}

// Event is one element-level event.  Name and Attrs are set for
// StartElement, Name for EndElement, Data for Text.
type Event struct {
	Kind  Kind
	Name  string
	Attrs []Attr
	Data  []byte
}

// Attr returns the value of the named attribute on a StartElement event.
func (e Event) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Is reports whether e is a start of the named element.
func (e Event) Is(name string) bool {
	return e.Kind == StartElement && e.Name == name
}

// ── decoding ─────────────────────────────────────────────────────────────────

// Decoder pulls events from an XML stream.  Comments, processing
// instructions and directives are skipped.
type Decoder struct {
	d *xml.Decoder
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{d: xml.NewDecoder(r)}
}

// Next returns the next event.  It returns io.EOF once the stream is
// exhausted.  Text data is copied and stays valid after later calls.
func (dec *Decoder) Next() (Event, error) {
	for {
		tok, err := dec.d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, fmt.Errorf("xmlstream: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			ev := Event{Kind: StartElement, Name: t.Name.Local}
			if len(t.Attr) > 0 {
				ev.Attrs = make([]Attr, len(t.Attr))
				for i, a := range t.Attr {
					ev.Attrs[i] = Attr{Name: a.Name.Local, Value: a.Value}
				}
			}
			return ev, nil
		case xml.EndElement:
			return Event{Kind: EndElement, Name: t.Name.Local}, nil
		case xml.CharData:
			return Event{Kind: Text, Data: t.Copy()}, nil
		}
	}
}

// ReadText consumes events up to and including the end of the element whose
// StartElement was just returned by Next, and returns the concatenated text
// of that element and all its descendants.
func (dec *Decoder) ReadText() (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	depth := 1
	for depth > 0 {
		ev, err := dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf.String(), io.ErrUnexpectedEOF
			}
			return buf.String(), err
		}
		switch ev.Kind {
		case StartElement:
			depth++
		case EndElement:
			depth--
		case Text:
			_, _ = buf.Write(ev.Data)
		}
	}
	return buf.String(), nil
}

// Skip consumes events up to and including the end of the element whose
// StartElement was just returned by Next.
func (dec *Decoder) Skip() error {
	if err := dec.d.Skip(); err != nil {
		return fmt.Errorf("xmlstream: skip: %w", err)
	}
	return nil
}

// ── encoding ─────────────────────────────────────────────────────────────────

// Header is the XML declaration written at the top of every part.
const Header = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Writer emits elements to an underlying stream, tracking the open-element
// stack so that End and CloseAll always produce well-formed output.  The
// first write error is sticky: later calls are no-ops and Flush reports it.
type Writer struct {
	w     *bufio.Writer
	stack []string
	err   error
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Header writes the XML declaration.
func (xw *Writer) Header() {
	xw.writeString(Header)
}

// Start opens element name with the given attributes.
func (xw *Writer) Start(name string, attrs ...Attr) {
	xw.open(name, attrs, false)
	xw.stack = append(xw.stack, name)
}

// Empty writes a self-closing element.
func (xw *Writer) Empty(name string, attrs ...Attr) {
	xw.open(name, attrs, true)
}

// End closes the innermost open element.  It is a no-op when nothing is
// open.
func (xw *Writer) End() {
	n := len(xw.stack)
	if n == 0 {
		return
	}
	name := xw.stack[n-1]
	xw.stack = xw.stack[:n-1]
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.WriteString("</")
	_, _ = buf.WriteString(name)
	_ = buf.WriteByte('>')
	xw.write(buf.B)
}

// Text writes escaped character data inside the current element.
func (xw *Writer) Text(s string) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_ = xml.EscapeText(buf, []byte(s))
	xw.write(buf.B)
}

// Element writes a complete element holding only text.
func (xw *Writer) Element(name, text string, attrs ...Attr) {
	xw.Start(name, attrs...)
	xw.Text(text)
	xw.End()
}

// Raw writes s verbatim.  The caller is responsible for well-formedness.
func (xw *Writer) Raw(s string) {
	xw.writeString(s)
}

// CloseAll closes every open element, innermost first.
func (xw *Writer) CloseAll() {
	for len(xw.stack) > 0 {
		xw.End()
	}
}

// Depth returns the number of currently open elements.
func (xw *Writer) Depth() int {
	return len(xw.stack)
}

// Flush writes any buffered data to the underlying stream and returns the
// first error encountered since the Writer was created.
func (xw *Writer) Flush() error {
	if xw.err != nil {
		return xw.err
	}
	if err := xw.w.Flush(); err != nil {
		xw.err = fmt.Errorf("xmlstream: flush: %w", err)
	}
	return xw.err
}

func (xw *Writer) open(name string, attrs []Attr, selfClose bool) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_ = buf.WriteByte('<')
	_, _ = buf.WriteString(name)
	for _, a := range attrs {
		_ = buf.WriteByte(' ')
		_, _ = buf.WriteString(a.Name)
		_, _ = buf.WriteString(`="`)
		_ = xml.EscapeText(buf, []byte(a.Value))
		_ = buf.WriteByte('"')
	}
	if selfClose {
		_, _ = buf.WriteString("/>")
	} else {
		_ = buf.WriteByte('>')
	}
	xw.write(buf.B)
}

func (xw *Writer) write(b []byte) {
	if xw.err != nil {
		return
	}
	if _, err := xw.w.Write(b); err != nil {
		xw.err = fmt.Errorf("xmlstream: write: %w", err)
	}
}

func (xw *Writer) writeString(s string) {
	if xw.err != nil {
		return
	}
	if _, err := xw.w.WriteString(s); err != nil {
		xw.err = fmt.Errorf("xmlstream: write: %w", err)
	}
}
