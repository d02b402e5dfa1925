package styles

import (
	"fmt"
	"io"
	"strconv"

	"github.com/TsubasaBE/go-xlsxstream/internal/rels"
	"github.com/TsubasaBE/go-xlsxstream/internal/xmlstream"
)

// Style is a cell style index into the stylesheet the writer emits.
type Style int

// The writer's fixed styles.  Their values are the cellXfs indices.
const (
	Default Style = iota
	Yellow
	Blue
	Red
	Green
	// Date applies built-in number format 14 so that date serials read back
	// as dates.
	Date
)

var styleNames = [...]string{"default", "yellow", "blue", "red", "green", "date"}

func (s Style) String() string {
	if s >= 0 && int(s) < len(styleNames) {
		return styleNames[s]
	}
	return "Style(" + strconv.Itoa(int(s)) + ")"
}

// Valid reports whether s is one of the fixed styles.
func (s Style) Valid() bool {
	return s >= Default && s <= Date
}

// ParseStyle looks up a fixed style by name.
func ParseStyle(name string) (Style, error) {
	for i, n := range styleNames {
		if n == name {
			return Style(i), nil
		}
	}
	return Default, fmt.Errorf("styles: unknown style %q", name)
}

// fills lists the solid fill colours in fill-id order after the two
// mandatory pattern fills (none, gray125).
var fills = []string{"FFFFFF00", "FFE5E5FF", "FFFF5555", "FFC6E0B4"}

type xf struct {
	numFmtID int
	fillID   int
}

// cellXfs is indexed by Style.
var cellXfs = []xf{
	Default: {},
	Yellow:  {fillID: 2},
	Blue:    {fillID: 3},
	Red:     {fillID: 4},
	Green:   {fillID: 5},
	Date:    {numFmtID: 14},
}

// WriteStylesheet emits xl/styles.xml: a regular and a bold font, the fill
// palette, one empty border and one cellXfs entry per Style.
func WriteStylesheet(w io.Writer) error {
	xw := xmlstream.NewWriter(w)
	a := func(name, value string) xmlstream.Attr { return xmlstream.Attr{Name: name, Value: value} }

	xw.Header()
	xw.Start("styleSheet", a("xmlns", rels.NamespaceMain))

	xw.Start("fonts", a("count", "2"))
	xw.Start("font")
	xw.Empty("sz", a("val", "11"))
	xw.Empty("name", a("val", "Calibri"))
	xw.End()
	xw.Start("font")
	xw.Empty("b")
	xw.Empty("sz", a("val", "11"))
	xw.Empty("name", a("val", "Calibri"))
	xw.End()
	xw.End()

	xw.Start("fills", a("count", strconv.Itoa(len(fills)+2)))
	for _, pattern := range []string{"none", "gray125"} {
		xw.Start("fill")
		xw.Empty("patternFill", a("patternType", pattern))
		xw.End()
	}
	for _, rgb := range fills {
		xw.Start("fill")
		xw.Start("patternFill", a("patternType", "solid"))
		xw.Empty("fgColor", a("rgb", rgb))
		xw.Empty("bgColor", a("indexed", "64"))
		xw.End()
		xw.End()
	}
	xw.End()

	xw.Start("borders", a("count", "1"))
	xw.Start("border")
	for _, side := range []string{"left", "right", "top", "bottom", "diagonal"} {
		xw.Empty(side)
	}
	xw.End()
	xw.End()

	xw.Start("cellStyleXfs", a("count", "1"))
	xw.Empty("xf", a("numFmtId", "0"), a("fontId", "0"), a("fillId", "0"), a("borderId", "0"))
	xw.End()

	xw.Start("cellXfs", a("count", strconv.Itoa(len(cellXfs))))
	for _, x := range cellXfs {
		attrs := []xmlstream.Attr{
			a("numFmtId", strconv.Itoa(x.numFmtID)),
			a("fontId", "0"),
			a("fillId", strconv.Itoa(x.fillID)),
			a("borderId", "0"),
			a("xfId", "0"),
		}
		if x.fillID != 0 {
			attrs = append(attrs, a("applyFill", "1"))
		}
		if x.numFmtID != 0 {
			attrs = append(attrs, a("applyNumberFormat", "1"))
		}
		xw.Empty("xf", attrs...)
	}
	xw.End()

	xw.Start("cellStyles", a("count", "1"))
	xw.Empty("cellStyle", a("name", "Normal"), a("xfId", "0"), a("builtinId", "0"))
	xw.End()

	xw.CloseAll()
	if err := xw.Flush(); err != nil {
		return fmt.Errorf("styles: write stylesheet: %w", err)
	}
	return nil
}
