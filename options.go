package xlsxstream

import "log/slog"

// UsedRangeMode selects how a Reader determines the extent of a worksheet.
type UsedRangeMode int

const (
	// TrustDimension takes the range from the worksheet's dimension element.
	// Opening fails with worksheet.ErrNoDimension when there is none.
	TrustDimension UsedRangeMode = iota
	// FullScan reads every cell once to find the bottom-right non-empty
	// cell, then restarts the worksheet stream.
	FullScan
)

func (m UsedRangeMode) String() string {
	if m == FullScan {
		return "full-scan"
	}
	return "trust-dimension"
}

type options struct {
	usedRange     UsedRangeMode
	rowStart      int
	logger        *slog.Logger
	renderNumbers bool
}

func defaultOptions() options {
	return options{
		usedRange: TrustDimension,
		rowStart:  1,
	}
}

// Option configures a Reader.
type Option func(*options)

// WithUsedRange sets the used-range mode (default: TrustDimension).
func WithUsedRange(mode UsedRangeMode) Option {
	return func(o *options) { o.usedRange = mode }
}

// WithRowStart excludes rows before row from the full-scan range
// computation (default: 1).  It has no effect in TrustDimension mode and
// does not skip records.
func WithRowStart(row int) Option {
	return func(o *options) { o.rowStart = row }
}

// WithLogger sets the logger for warnings and debug events (default:
// slog.Default).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithNumberFormatting renders numeric cells through their number format
// ("0.00", "#,##0", percentages and so on).  Dates are always rendered; other
// numbers are returned as stored unless this is enabled.
func WithNumberFormatting(enabled bool) Option {
	return func(o *options) { o.renderNumbers = enabled }
}
