// Command xlsxstream dumps, converts and generates .xlsx workbooks with the
// streaming reader and writer.
//
// Flag defaults can be set through the environment or a .env file in the
// working directory:
//
//	XLSXSTREAM_SHEET     worksheet to read (default Sheet1)
//	XLSXSTREAM_FULLSCAN  true to compute used ranges by scanning cells
//	XLSXSTREAM_ENCODING  output character set for dump and convert (default utf-8)
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/TsubasaBE/go-xlsxstream"
)

// env holds flag defaults taken from the environment.
type env struct {
	sheet    string
	fullScan bool
	encoding string
}

func loadEnv() env {
	e := env{sheet: xlsxstream.DefaultSheet, encoding: "utf-8"}
	if v := os.Getenv("XLSXSTREAM_SHEET"); v != "" {
		e.sheet = v
	}
	if v, err := strconv.ParseBool(os.Getenv("XLSXSTREAM_FULLSCAN")); err == nil {
		e.fullScan = v
	}
	if v := os.Getenv("XLSXSTREAM_ENCODING"); v != "" {
		e.encoding = v
	}
	return e
}

// app carries state shared by every subcommand.
type app struct {
	env     env
	verbose bool
	log     *slog.Logger
}

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if err := newRootCmd(loadEnv()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(e env) *cobra.Command {
	a := &app{env: e, log: slog.Default()}

	rootCmd := &cobra.Command{
		Use:           "xlsxstream",
		Short:         "Stream rows out of and into .xlsx workbooks",
		Version:       xlsxstream.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug events to stderr")

	rootCmd.AddCommand(
		newDumpCmd(a),
		newConvertCmd(a),
		newDemoWriteCmd(a),
	)
	return rootCmd
}

// readerFlags are the reading options shared by dump and convert.
type readerFlags struct {
	sheet         string
	fullScan      bool
	rowStart      int
	formatNumbers bool
	encoding      string
}

func (a *app) bindReaderFlags(cmd *cobra.Command, f *readerFlags) {
	cmd.Flags().StringVarP(&f.sheet, "sheet", "s", a.env.sheet, "Worksheet to read")
	cmd.Flags().BoolVar(&f.fullScan, "full-scan", a.env.fullScan, "Compute the used range by scanning every cell")
	cmd.Flags().IntVar(&f.rowStart, "row-start", 1, "First row counted by --full-scan")
	cmd.Flags().BoolVar(&f.formatNumbers, "format-numbers", false, "Render numbers through their number format")
	cmd.Flags().StringVar(&f.encoding, "encoding", a.env.encoding, "Output character set (WHATWG label, e.g. utf-8, windows-1252, shift_jis)")
}

func (a *app) readerOptions(f *readerFlags) []xlsxstream.Option {
	mode := xlsxstream.TrustDimension
	if f.fullScan {
		mode = xlsxstream.FullScan
	}
	return []xlsxstream.Option{
		xlsxstream.WithUsedRange(mode),
		xlsxstream.WithRowStart(f.rowStart),
		xlsxstream.WithNumberFormatting(f.formatNumbers),
		xlsxstream.WithLogger(a.log),
	}
}

// encodeOutput wraps w so that text written to it is encoded in the named
// character set.  UTF-8 output is passed through.
func encodeOutput(w io.Writer, charset string) (io.Writer, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", charset, err)
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return w, nil
	}
	return transform.NewWriter(w, enc.NewEncoder()), nil
}

// flushEncoder completes a writer returned by encodeOutput.
func flushEncoder(w io.Writer) error {
	if tw, ok := w.(*transform.Writer); ok {
		return tw.Close()
	}
	return nil
}
