package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/TsubasaBE/go-xlsxstream"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		rf     readerFlags
		outDir string
		jobs   int
	)

	cmd := &cobra.Command{
		Use:   "convert <file.xlsx>...",
		Short: "Convert one worksheet of each workbook to CSV",
		Long: `Convert the selected worksheet of every given workbook to a CSV file
named after the workbook.  Workbooks are converted concurrently.

Example: xlsxstream convert q1.xlsx q2.xlsx --out-dir csv --encoding windows-1252`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
			}
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(jobs, 1))
			for _, src := range args {
				g.Go(func() error {
					return a.convertFile(ctx, src, csvPath(src, outDir), &rf)
				})
			}
			return g.Wait()
		},
	}

	a.bindReaderFlags(cmd, &rf)
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Directory for the CSV files (default: next to each workbook)")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Workbooks converted at the same time")
	return cmd
}

// csvPath replaces the extension of src with .csv, in dir when given.
func csvPath(src, dir string) string {
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)) + ".csv"
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, base)
}

// convertFile streams one worksheet of src into dst.  It stops between
// records once ctx is cancelled.
func (a *app) convertFile(ctx context.Context, src, dst string, rf *readerFlags) (err error) {
	r, err := xlsxstream.Open(src, rf.sheet, a.readerOptions(rf)...)
	if err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	defer r.Close()

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	out, err := encodeOutput(f, rf.encoding)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(out)
	n := 0
	for rec, err := range r.Records() {
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
		n++
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if err := flushEncoder(out); err != nil {
		return err
	}
	a.log.Debug("converted",
		slog.String("src", src),
		slog.String("dst", dst),
		slog.String("sheet", r.Sheet()),
		slog.Int("records", n))
	return nil
}
