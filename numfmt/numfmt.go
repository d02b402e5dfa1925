// Package numfmt resolves cell style indices to number-format codes and
// classifies those codes.
//
// A [Catalog] is built once per workbook from the stylesheet: it records which
// cell-format (xf) indices apply a number format, and which custom format
// codes the workbook defines.  The built-in table holds the codes the reader
// recognises without a custom definition.
package numfmt

import "strings"

// General is the code of built-in format 0.
const General = "General"

// builtin maps the built-in numFmtId values recognised by the reader to their
// format codes.  Ids outside this table are only resolvable through a custom
// definition in the stylesheet.
var builtin = map[int]string{
	0:  General,
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "d/m/yyyy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm tt",
	19: "h:mm:ss tt",
	20: "H:mm",
	21: "H:mm:ss",
	22: "m/d/yyyy H:mm",
	37: "#,##0;(#,##0)",
	38: "#,##0;[Red](#,##0)",
	39: "#,##0.00;(#,##0.00)",
	40: "#,##0.00;[Red](#,##0.00)",
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	48: "##0.0E+0",
	49: "@",
}

// Builtin returns the code of a built-in format id.
func Builtin(id int) (string, bool) {
	s, ok := builtin[id]
	return s, ok
}

// Catalog maps cell style indices to format codes for one workbook.
// The zero value is an empty catalog in which no style applies a format.
type Catalog struct {
	styles map[int]int    // xf index → numFmtId, only for xfs applying a number format
	custom map[int]string // numFmtId → code
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		styles: make(map[int]int),
		custom: make(map[int]string),
	}
}

// SetStyle records that cell style index style applies number format id.
func (c *Catalog) SetStyle(style, id int) {
	if c.styles == nil {
		c.styles = make(map[int]int)
	}
	c.styles[style] = id
}

// AddCustom registers a workbook-defined format.  A custom definition for an
// id that also appears in the built-in table takes precedence.
func (c *Catalog) AddCustom(id int, code string) {
	if c.custom == nil {
		c.custom = make(map[int]string)
	}
	c.custom[id] = code
}

// NumFmtID returns the number format id applied by style.
func (c *Catalog) NumFmtID(style int) (int, bool) {
	if c == nil {
		return 0, false
	}
	id, ok := c.styles[style]
	return id, ok
}

// FormatFor returns the format code applied by style.  It reports false when
// the style applies no number format or when the id is neither custom nor
// built in.
func (c *Catalog) FormatFor(style int) (string, bool) {
	id, ok := c.NumFmtID(style)
	if !ok {
		return "", false
	}
	if code, ok := c.custom[id]; ok {
		return code, true
	}
	return Builtin(id)
}

// Len returns the number of styles that apply a number format.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.styles)
}

// IsDateFormat reports whether code is treated as a date format: it must
// contain a lowercase 'y', 'm' and 'd'.  The test is deliberately literal.
// Time-only codes and uppercase codes are not dates, and a custom code that
// merely contains those letters (for example inside a quoted literal) is.
func IsDateFormat(code string) bool {
	return strings.IndexByte(code, 'y') >= 0 &&
		strings.IndexByte(code, 'm') >= 0 &&
		strings.IndexByte(code, 'd') >= 0
}
