// Package styles reads the number-format metadata of xl/styles.xml and
// writes the fixed stylesheet used by the writer.
//
// Only the parts of the stylesheet that influence how values are read are
// parsed: custom numFmt definitions and, for each cellXfs entry, whether it
// applies a number format.  cellStyleXfs entries are not cell style indices
// and are ignored.
package styles

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/TsubasaBE/go-xlsxstream/internal/xmlstream"
	"github.com/TsubasaBE/go-xlsxstream/numfmt"
)

// Parse streams a stylesheet from r and returns its number-format catalog.
func Parse(r io.Reader) (*numfmt.Catalog, error) {
	cat := numfmt.NewCatalog()
	dec := xmlstream.NewDecoder(r)
	// numFmt also appears under dxfs; only the numFmts list defines codes.
	inNumFmts, inCellXfs := false, false
	xfIndex := 0
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return cat, nil
		}
		if err != nil {
			return nil, fmt.Errorf("styles: %w", err)
		}

		switch ev.Kind {
		case xmlstream.StartElement:
			switch ev.Name {
			case "numFmts":
				inNumFmts = true
			case "numFmt":
				if !inNumFmts {
					continue
				}
				id, ok := intAttr(ev, "numFmtId")
				if !ok {
					continue
				}
				code, _ := ev.Attr("formatCode")
				cat.AddCustom(id, code)
			case "cellXfs":
				inCellXfs = true
			case "xf":
				if !inCellXfs {
					continue
				}
				if isTrue(ev, "applyNumberFormat") {
					id, _ := intAttr(ev, "numFmtId")
					cat.SetStyle(xfIndex, id)
				}
				xfIndex++
			}
		case xmlstream.EndElement:
			switch ev.Name {
			case "numFmts":
				inNumFmts = false
			case "cellXfs":
				inCellXfs = false
			}
		}
	}
}

func intAttr(ev xmlstream.Event, name string) (int, bool) {
	v, ok := ev.Attr(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isTrue reads an xsd:boolean attribute.
func isTrue(ev xmlstream.Event, name string) bool {
	v, _ := ev.Attr(name)
	return v == "1" || v == "true"
}
