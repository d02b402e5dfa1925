package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/TsubasaBE/go-xlsxstream"
	"github.com/TsubasaBE/go-xlsxstream/styles"
	"github.com/TsubasaBE/go-xlsxstream/writer"
)

func newDemoWriteCmd(a *app) *cobra.Command {
	var (
		rows        int
		headerStyle string
		tempDir     string
	)

	cmd := &cobra.Command{
		Use:   "demo-write <out.xlsx>",
		Short: "Write a sample workbook with two interleaved worksheets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hs, err := styles.ParseStyle(headerStyle)
			if err != nil {
				return err
			}
			opts := []writer.Option{writer.WithLogger(a.log)}
			if tempDir != "" {
				opts = append(opts, writer.WithTempDir(tempDir))
			}
			w, err := xlsxstream.Create(args[0], opts...)
			if err != nil {
				return err
			}
			defer w.Close()

			if err := writeDemo(w, rows, hs); err != nil {
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			a.log.Info("workbook written", slog.String("path", args[0]), slog.Int("rows", rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "r", 10, "Data rows on the Orders sheet")
	cmd.Flags().StringVar(&headerStyle, "header-style", styles.Yellow.String(), "Header fill: default, yellow, blue, red, green")
	cmd.Flags().StringVar(&tempDir, "temp-dir", "", "Directory for worksheet spool files")
	return cmd
}

// writeDemo fills an Orders sheet and a Notes sheet, switching between
// them while the orders are written.
func writeDemo(w *writer.Writer, rows int, header styles.Style) error {
	if err := w.SelectWorksheet("Orders"); err != nil {
		return err
	}
	for _, h := range []string{"id", "customer", "amount", "paid", "date"} {
		if _, err := w.WriteStyled(h, header); err != nil {
			return err
		}
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := decimal.RequireFromString("19.99")
	for i := 1; i <= rows; i++ {
		if err := w.SelectWorksheet("Orders"); err != nil {
			return err
		}
		if err := w.NewRow(); err != nil {
			return err
		}
		amount := price.Mul(decimal.NewFromInt(int64(i)))
		paid := i%3 != 0
		for _, v := range []any{i, fmt.Sprintf("customer-%02d", i%4), amount, paid, start.AddDate(0, 0, i)} {
			if _, err := w.Write(v); err != nil {
				return err
			}
		}
		if paid {
			continue
		}

		if err := w.SelectWorksheet("Notes"); err != nil {
			return err
		}
		if _, err := w.WriteStyled(fmt.Sprintf("order %d unpaid", i), styles.Red); err != nil {
			return err
		}
		if _, err := w.WriteInline("follow up"); err != nil {
			return err
		}
		if err := w.NewRow(); err != nil {
			return err
		}
	}

	if err := w.SelectWorksheet("Orders"); err != nil {
		return err
	}
	if err := w.JumpForwardTo(fmt.Sprintf("B%d", rows+3)); err != nil {
		return err
	}
	if _, err := w.WriteStyled("total", styles.Green); err != nil {
		return err
	}
	total := price.Mul(decimal.NewFromInt(int64(rows * (rows + 1) / 2)))
	_, err := w.WriteStyled(total, styles.Green)
	return err
}
