package numfmt

import (
	"math"
	"strconv"
	"strings"

	"github.com/xuri/nfp"
)

// Render formats a numeric cell value through its number-format code for
// display.  Date formats (see IsDateFormat) render as FormatDate does.
// Numeric formats honour sections, percent scaling, fixed and optional
// decimals, thousands separators and quoted literals.
//
// raw is returned unchanged for the text format "@", for values that are not
// numbers and for date serials out of range.  Codes with tokens this renderer
// does not lay out (time of day, fractions, exponents) fall back to General.
func Render(raw, code string) string {
	if code == "@" {
		return raw
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	if code == "" || strings.EqualFold(code, General) {
		return general(val)
	}
	if IsDateFormat(code) {
		s, err := FormatDate(val)
		if err != nil {
			return raw
		}
		return s
	}

	ps := nfp.NumberFormatParser()
	sections := ps.Parse(code)
	if len(sections) == 0 {
		return general(val)
	}
	sec, ownSign := pickSection(sections, val)
	l, ok := scanLayout(sec)
	if !ok {
		return general(val)
	}
	return l.render(val, ownSign)
}

// pickSection returns the section that applies to val and whether that
// section draws the sign of a negative value itself.
//
//	1 section  → all values
//	2 sections → positive and zero; negative
//	3+         → positive; negative; zero (a fourth is the text section)
func pickSection(sections []nfp.Section, val float64) (nfp.Section, bool) {
	switch {
	case len(sections) == 1:
		return sections[0], false
	case val < 0:
		return sections[1], true
	case val == 0 && len(sections) > 2:
		return sections[2], false
	}
	return sections[0], false
}

// general renders val the way the General format does: integers without a
// decimal point, everything else in shortest form.
func general(val float64) string {
	if val == math.Trunc(val) && math.Abs(val) < 1e15 {
		return strconv.FormatInt(int64(val), 10)
	}
	return strconv.FormatFloat(val, 'G', -1, 64)
}

// layout is the digit shape of one numeric section.
type layout struct {
	items     []nfp.Token
	intMin    int // '0' places before the point
	fracMin   int // '0' places after the point
	fracMax   int // '0' and '#' places after the point
	point     bool
	percent   bool
	thousands bool
	signed    bool // a literal + or - in the section
}

func scanLayout(sec nfp.Section) (layout, bool) {
	l := layout{items: sec.Items}
	digits := false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeDateTimes, nfp.TokenTypeElapsedDateTimes,
			nfp.TokenTypeExponential, nfp.TokenTypeFraction, nfp.TokenTypeDenominator:
			return layout{}, false
		case nfp.TokenTypeZeroPlaceHolder:
			digits = true
			if l.point {
				l.fracMin += len(tok.TValue)
				l.fracMax += len(tok.TValue)
			} else {
				l.intMin += len(tok.TValue)
			}
		case nfp.TokenTypeHashPlaceHolder:
			digits = true
			if l.point {
				l.fracMax += len(tok.TValue)
			}
		case nfp.TokenTypeDecimalPoint:
			l.point = true
		case nfp.TokenTypePercent:
			l.percent = true
		case nfp.TokenTypeThousandsSeparator:
			l.thousands = true
		case nfp.TokenTypeLiteral:
			if tok.TValue == "+" || tok.TValue == "-" {
				l.signed = true
			}
		}
	}
	return l, digits
}

func (l layout) render(val float64, ownSign bool) string {
	abs := math.Abs(val)
	if l.percent {
		abs *= 100
	}
	whole, frac, _ := strings.Cut(strconv.FormatFloat(abs, 'f', l.fracMax, 64), ".")
	for len(frac) > l.fracMin && frac[len(frac)-1] == '0' {
		frac = frac[:len(frac)-1]
	}
	if len(whole) < l.intMin {
		whole = strings.Repeat("0", l.intMin-len(whole)) + whole
	}
	if l.intMin == 0 && whole == "0" && l.point {
		whole = ""
	}
	if l.thousands {
		whole = insertThousandsSep(whole)
	}

	var sb strings.Builder
	if val < 0 && !ownSign && !l.signed {
		sb.WriteByte('-')
	}
	// The first placeholder on each side of the point carries all its digits.
	wroteWhole, wroteFrac, afterPoint := false, false, false
	for _, tok := range l.items {
		switch tok.TType {
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		case nfp.TokenTypePercent:
			sb.WriteByte('%')
		case nfp.TokenTypeDecimalPoint:
			afterPoint = true
			if frac != "" {
				sb.WriteByte('.')
			}
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder:
			switch {
			case afterPoint && !wroteFrac:
				sb.WriteString(frac)
				wroteFrac = true
			case !afterPoint && !wroteWhole:
				sb.WriteString(whole)
				wroteWhole = true
			}
		}
	}
	return sb.String()
}

// insertThousandsSep groups a run of digits in threes from the right.
func insertThousandsSep(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/3)
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
