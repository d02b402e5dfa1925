package numfmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── catalog ──────────────────────────────────────────────────────────────────

func TestCatalogFormatFor(t *testing.T) {
	c := NewCatalog()
	c.SetStyle(1, 14)
	c.SetStyle(2, 164)
	c.SetStyle(3, 4)
	c.SetStyle(4, 23) // neither built in nor custom
	c.AddCustom(164, "yyyy-mm-dd")
	c.AddCustom(4, "0.0000") // overrides the built-in id

	tests := []struct {
		style  int
		want   string
		wantOK bool
	}{
		{0, "", false},
		{1, "d/m/yyyy", true},
		{2, "yyyy-mm-dd", true},
		{3, "0.0000", true},
		{4, "", false},
		{99, "", false},
	}
	for _, tc := range tests {
		got, ok := c.FormatFor(tc.style)
		assert.Equal(t, tc.wantOK, ok, "style %d", tc.style)
		assert.Equal(t, tc.want, got, "style %d", tc.style)
	}
	assert.Equal(t, 4, c.Len())
}

func TestNilAndZeroCatalog(t *testing.T) {
	var nilCat *Catalog
	_, ok := nilCat.FormatFor(0)
	assert.False(t, ok)
	assert.Equal(t, 0, nilCat.Len())

	var zero Catalog
	zero.SetStyle(0, 2)
	code, ok := zero.FormatFor(0)
	assert.True(t, ok)
	assert.Equal(t, "0.00", code)
}

func TestBuiltin(t *testing.T) {
	code, ok := Builtin(49)
	assert.True(t, ok)
	assert.Equal(t, "@", code)

	_, ok = Builtin(5)
	assert.False(t, ok)
}

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"d/m/yyyy", true},
		{"m/d/yyyy H:mm", true},
		{"d-mmm-yy", true},
		{"yyyy-mm-dd", true},
		{"d-mmm", false},
		{"mmm-yy", false},
		{"H:mm:ss", false},
		{"DD/MM/YYYY", false},
		{"0.00", false},
		{General, false},
		// Accepted false positive: the letters only appear in a literal.
		{`0 "days, mm, yy"`, true},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, IsDateFormat(tc.code), "IsDateFormat(%q)", tc.code)
	}
}

// ── OLE dates ────────────────────────────────────────────────────────────────

func TestFromOADate(t *testing.T) {
	tests := []struct {
		serial float64
		want   time.Time
	}{
		{0, time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)},
		{0.5, time.Date(1899, 12, 30, 12, 0, 0, 0, time.UTC)},
		{1, time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)},
		{60, time.Date(1900, 2, 28, 0, 0, 0, 0, time.UTC)},
		{61, time.Date(1900, 3, 1, 0, 0, 0, 0, time.UTC)},
		{44197, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
		{44197.75, time.Date(2021, 1, 1, 18, 0, 0, 0, time.UTC)},
		{-1, time.Date(1899, 12, 29, 0, 0, 0, 0, time.UTC)},
		{-1.25, time.Date(1899, 12, 29, 6, 0, 0, 0, time.UTC)},
		{2958465, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		got, err := FromOADate(tc.serial)
		require.NoError(t, err, "serial %v", tc.serial)
		assert.True(t, tc.want.Equal(got), "FromOADate(%v) = %v, want %v", tc.serial, got, tc.want)
	}
}

func TestFromOADateOutOfRange(t *testing.T) {
	for _, s := range []float64{2958466, -657435, 1e12} {
		_, err := FromOADate(s)
		assert.Error(t, err, "serial %v", s)
	}
}

func TestToOADate(t *testing.T) {
	assert.Equal(t, 44197.0, ToOADate(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 44197.75, ToOADate(time.Date(2021, 1, 1, 18, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1.25, ToOADate(time.Date(1899, 12, 29, 6, 0, 0, 0, time.UTC)))

	in := time.Date(2024, 2, 29, 13, 45, 30, 0, time.UTC)
	back, err := FromOADate(ToOADate(in))
	require.NoError(t, err)
	assert.True(t, in.Equal(back), "round trip gave %v", back)
}

func TestFormatDate(t *testing.T) {
	s, err := FormatDate(44197)
	require.NoError(t, err)
	assert.Equal(t, "1/1/2021", s)

	s, err = FormatDate(45412.6)
	require.NoError(t, err)
	assert.Equal(t, "4/30/2024", s)

	_, err = FormatDate(-700000)
	assert.Error(t, err)
}

// ── display rendering ────────────────────────────────────────────────────────

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code string
		want string
	}{
		{"general integer", "42", General, "42"},
		{"general fraction", "3.14", General, "3.14"},
		{"empty code", "7", "", "7"},
		{"text format", "00123", "@", "00123"},
		{"not a number", "abc", "0.00", "abc"},
		{"fixed decimals", "303.6", "0.00", "303.60"},
		{"fixed zero", "0", "0.00", "0.00"},
		{"optional decimals", "1.5", "0.##", "1.5"},
		{"integer rounding", "42.9", "0", "43"},
		{"quoted prefix", "40013205", `"E"0`, "E40013205"},
		{"quoted suffix", "18000", `0" kg"`, "18000 kg"},
		{"percent", "0.75", "0%", "75%"},
		{"percent decimals", "0.1234", "0.00%", "12.34%"},
		{"positive section", "42.5", "0.00;(0.00)", "42.50"},
		{"negative section", "-42.5", "0.00;(0.00)", "(42.50)"},
		{"single section negative", "-3", "0", "-3"},
		{"zero section", "0", "0.00;(0.00);0", "0"},
		{"thousands", "1234567.891", "#,##0.00", "1,234,567.89"},
		{"currency literal", "-1234", `"$"#,##0;[Red]\-"$"#,##0`, "-$1,234"},
		{"leading point", "0.5", ".00", ".50"},
		{"date format", "44197", "d/m/yyyy", "1/1/2021"},
		{"date out of range", "9999999", "m/d/yyyy", "9999999"},
		{"time of day is general", "0.25", "h:mm", "0.25"},
		{"elapsed is general", "1.5", "[h]:mm:ss", "1.5"},
		{"fraction is general", "2", "# ?/?", "2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Render(tc.raw, tc.code))
		})
	}
}

func TestRenderNeverDropsValue(t *testing.T) {
	assert.NotEmpty(t, Render("42.5", "[Red]"))
	assert.NotEmpty(t, Render("45285", "[Red]D"))
}

func TestInsertThousandsSep(t *testing.T) {
	assert.Equal(t, "1", insertThousandsSep("1"))
	assert.Equal(t, "999", insertThousandsSep("999"))
	assert.Equal(t, "1,000", insertThousandsSep("1000"))
	assert.Equal(t, "1,234,567", insertThousandsSep("1234567"))
}
