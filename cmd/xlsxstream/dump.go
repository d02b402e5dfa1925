package main

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/TsubasaBE/go-xlsxstream"
	"github.com/TsubasaBE/go-xlsxstream/workbook"
)

var visibilityNames = map[int]string{
	workbook.SheetVisible:    "visible",
	workbook.SheetHidden:     "hidden",
	workbook.SheetVeryHidden: "very hidden",
}

func newDumpCmd(a *app) *cobra.Command {
	var (
		rf     readerFlags
		list   bool
		limit  int
		header bool
	)

	cmd := &cobra.Command{
		Use:   "dump <file.xlsx>",
		Short: "Print the records of a worksheet as tab-separated values",
		Long: `Print the records of one worksheet, one line per row, tab separated.

Every line has the width of the worksheet's used range; rows without cells
print as empty fields.

Example: xlsxstream dump book.xlsx --sheet Orders --full-scan --limit 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := encodeOutput(cmd.OutOrStdout(), rf.encoding)
			if err != nil {
				return err
			}
			if list {
				return listSheets(out, args[0])
			}

			r, err := xlsxstream.Open(args[0], rf.sheet, a.readerOptions(&rf)...)
			if err != nil {
				return err
			}
			defer r.Close()

			if header {
				fmt.Fprintf(out, "# %s %s (%d rows x %d columns)\n",
					r.Sheet(), r.UsedRange(), r.RowCount(), r.ColumnCount())
			}
			tw := csv.NewWriter(out)
			tw.Comma = '\t'
			n := 0
			for rec, err := range r.Records() {
				if err != nil {
					return err
				}
				if limit > 0 && n >= limit {
					break
				}
				if err := tw.Write(rec); err != nil {
					return err
				}
				n++
			}
			tw.Flush()
			if err := tw.Error(); err != nil {
				return err
			}
			return flushEncoder(out)
		},
	}

	a.bindReaderFlags(cmd, &rf)
	cmd.Flags().BoolVar(&list, "list", false, "List worksheets and their visibility instead of dumping")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Stop after this many records (0 = all)")
	cmd.Flags().BoolVar(&header, "header", false, "Print the used range before the records")
	return cmd
}

// listSheets prints every worksheet of the workbook at path with its
// visibility.  No worksheet is opened.
func listSheets(out io.Writer, path string) error {
	wb, err := workbook.Open(path)
	if err != nil {
		return err
	}
	defer wb.Close()

	for _, name := range wb.Sheets() {
		fmt.Fprintf(out, "%s\t%s\n", name, visibilityNames[wb.SheetVisibility(name)])
	}
	return flushEncoder(out)
}
