package worksheet

import "iter"

// CellSource is the cell stream a RowReader consumes.  *CellReader
// implements it.
type CellSource interface {
	// Advance moves to the next cell and reports whether there was one.
	Advance() (bool, error)
	// Current returns the cell Advance moved to, or nil.
	Current() *RawCell
	// Resolve returns the display value of a cell.
	Resolve(*RawCell) string
}

// RowReader turns a sparse, row-major cell stream into dense records of a
// fixed width.  Rows without cells come out as records of empty strings,
// and cells beyond the width are dropped.
type RowReader struct {
	src       CellSource
	rowCount  int
	colCount  int
	target    int
	look      *RawCell
	exhausted bool
}

// NewRowReader primes a one-cell lookahead from src.  rowCount and
// columnCount normally come from the worksheet's used range.
func NewRowReader(src CellSource, rowCount, columnCount int) (*RowReader, error) {
	rr := &RowReader{}
	if err := rr.Reset(src, rowCount, columnCount); err != nil {
		return nil, err
	}
	return rr, nil
}

// Reset points rr at a new source and starts again from row 1.  Any
// lookahead from the previous source is discarded.
func (rr *RowReader) Reset(src CellSource, rowCount, columnCount int) error {
	*rr = RowReader{
		src:      src,
		rowCount: rowCount,
		colCount: max(columnCount, 0),
	}
	return rr.pull()
}

// RowCount returns the number of rows the reader yields.
func (rr *RowReader) RowCount() int { return rr.rowCount }

// ColumnCount returns the record width.
func (rr *RowReader) ColumnCount() int { return rr.colCount }

// Row returns the number of the row last returned, 0 before the first
// read.
func (rr *RowReader) Row() int { return rr.target }

// ReadNextRecord returns the next row as resolved values.  It reports false
// with a blank record once the used range is exhausted or the cell stream
// ended on an earlier call; a row whose cells are the last in the stream is
// still returned with true.
func (rr *RowReader) ReadNextRecord() ([]string, bool, error) {
	rec := make([]string, rr.colCount)
	ok, err := rr.fill(func(c *RawCell) {
		rec[c.Col-1] = rr.src.Resolve(c)
	})
	return rec, ok, err
}

// ReadNextCells is ReadNextRecord without value resolution.  Columns the row
// has no cell for are nil.
func (rr *RowReader) ReadNextCells() ([]*RawCell, bool, error) {
	cells := make([]*RawCell, rr.colCount)
	ok, err := rr.fill(func(c *RawCell) {
		cells[c.Col-1] = c
	})
	return cells, ok, err
}

// Records yields every record until ReadNextRecord reports false.  A read
// error is yielded once and ends the sequence.
func (rr *RowReader) Records() iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		for {
			rec, ok, err := rr.ReadNextRecord()
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok || !yield(rec, nil) {
				return
			}
		}
	}
}

// fill advances to the next target row and hands every in-width cell of
// that row to place.
func (rr *RowReader) fill(place func(*RawCell)) (bool, error) {
	rr.target++
	if rr.target > rr.rowCount || rr.exhausted {
		return false, nil
	}
	for rr.look != nil && rr.look.Row <= rr.target {
		c := rr.look
		if c.Row == rr.target && c.Col >= 1 && c.Col <= rr.colCount {
			place(c)
		}
		if err := rr.pull(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// pull loads the next cell into the lookahead, marking the reader exhausted
// at the end of the stream.
func (rr *RowReader) pull() error {
	ok, err := rr.src.Advance()
	if err != nil {
		return err
	}
	if !ok {
		rr.look = nil
		rr.exhausted = true
		return nil
	}
	rr.look = rr.src.Current()
	return nil
}
