package worksheet

// CellType is the value of a cell's t attribute.
type CellType string

// Cell types.  An absent t attribute means TypeNumber.
const (
	TypeNumber        CellType = "n"
	TypeSharedString  CellType = "s"
	TypeInlineString  CellType = "inlineStr"
	TypeBoolean       CellType = "b"
	TypeFormulaString CellType = "str"
	TypeError         CellType = "e"
	TypeDate          CellType = "d"
)

// RawCell is one cell as stored in the worksheet part.
type RawCell struct {
	// Address is the A1-style reference, inferred from position when the
	// cell element carries none.
	Address string
	// Row and Col are 1-based.
	Row int
	Col int
	// Text is the stored value: the v element, or the text of an inline
	// string.  Formulas are not included.
	Text string
	// Type is TypeNumber when the cell has no t attribute.
	Type CellType
	// Style is the cellXfs index; HasStyle reports whether the s attribute
	// was present.
	Style    int
	HasStyle bool
}

// IsNumeric reports whether the cell stores a number.
func (c *RawCell) IsNumeric() bool {
	return c.Type == TypeNumber || c.Type == ""
}
