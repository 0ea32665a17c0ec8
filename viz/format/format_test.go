package format

import (
	"testing"
	"time"

	"github.com/chartdata/go-datasource/viz"
	"github.com/stretchr/testify/require"
)

func formatNumber(t *testing.T, pattern string, n float64) string {
	t.Helper()
	f, err := New(pattern, viz.TypeNumber)
	require.NoError(t, err)
	return f.Format(viz.NewNumber(n))
}

func TestNumberPatterns(t *testing.T) {
	testCases := []struct {
		pattern string
		value   float64
		want    string
	}{
		{"'$'#'k'", 100, "$100k"},
		{"#,##0.00", 1234567.891, "1,234,567.89"},
		{"#,##0.00", -42, "-42.00"},
		{"#,##0", 999, "999"},
		{"#,##0", 1000, "1,000"},
		{"0000", 42, "0042"},
		{"#.##", 0.5, ".5"},
		{"#.##", 0, "0"},
		{"0.##", 0.5, "0.5"},
		{"#%", 0.421, "42%"},
		{"#;(#)", 5, "5"},
		{"#;(#)", -5, "(5)"},
		{"#' o''clock'", 5, "5 o'clock"},
	}

	for _, tt := range testCases {
		t.Run(tt.pattern, func(t *testing.T) {
			require.Equal(t, tt.want, formatNumber(t, tt.pattern, tt.value))
		})
	}
}

func TestNumberPatternNull(t *testing.T) {
	require := require.New(t)

	f, err := New("#,##0.00", viz.TypeNumber)
	require.NoError(err)
	require.Equal("", f.Format(viz.NewNull(viz.TypeNumber)))
}

func TestNumberPatternErrors(t *testing.T) {
	for _, pattern := range []string{
		"0#",      // optional digit after a required one
		"#.#.#",   // two decimal separators
		"#'k",     // unterminated quote
		",##",     // grouping before any digit
		"#.#0",    // required fraction digit after an optional one
		"0.0'x'0", // digits after the suffix
	} {
		t.Run(pattern, func(t *testing.T) {
			_, err := New(pattern, viz.TypeNumber)
			require.Error(t, err)
			require.True(t, ErrBadPattern.Is(err))
		})
	}
}

func TestDatePatterns(t *testing.T) {
	require := require.New(t)

	d := viz.NewDateOf(2009, time.February, 5)

	for pattern, want := range map[string]string{
		"yyyy-MM-dd":  "2009-02-05",
		"MMM d, yyyy": "Feb 5, 2009",
		"MMMM yyyy":   "February 2009",
		"EEEE":        "Thursday",
		"dd/MM/yy":    "05/02/09",
		"'day' d":     "day 5",
	} {
		f, err := New(pattern, viz.TypeDate)
		require.NoError(err)
		require.Equal(want, f.Format(d), "pattern %q", pattern)
	}
}

func TestDateTimePatterns(t *testing.T) {
	require := require.New(t)

	dt := viz.NewDateTimeOf(2009, time.February, 5, 14, 30, 45, 120)

	f, err := New("yyyy-MM-dd HH:mm:ss.SSS", viz.TypeDateTime)
	require.NoError(err)
	require.Equal("2009-02-05 14:30:45.120", f.Format(dt))

	f, err = New("h:mm a", viz.TypeDateTime)
	require.NoError(err)
	require.Equal("2:30 PM", f.Format(dt))
}

func TestTimeOfDayPatterns(t *testing.T) {
	require := require.New(t)

	tod, err := viz.NewTimeOfDay(9, 5, 0, 0)
	require.NoError(err)

	f, err := New("HH:mm", viz.TypeTimeOfDay)
	require.NoError(err)
	require.Equal("09:05", f.Format(tod))
}

func TestTimePatternErrors(t *testing.T) {
	require := require.New(t)

	_, err := New("QQQ yyyy", viz.TypeDate)
	require.Error(err)
	require.True(ErrBadPattern.Is(err))

	_, err = New("yyyy 'unterminated", viz.TypeDate)
	require.Error(err)
}

func TestBooleanPatterns(t *testing.T) {
	require := require.New(t)

	f, err := New("yes:no", viz.TypeBoolean)
	require.NoError(err)
	require.Equal("yes", f.Format(viz.NewBool(true)))
	require.Equal("no", f.Format(viz.NewBool(false)))
	require.Equal("", f.Format(viz.NewNull(viz.TypeBoolean)))

	_, err = New("yesno", viz.TypeBoolean)
	require.Error(err)
	require.True(ErrBadPattern.Is(err))
}

func TestTextPatternIgnored(t *testing.T) {
	require := require.New(t)

	f, err := New("anything", viz.TypeText)
	require.NoError(err)
	require.Equal("Aye-aye", f.Format(viz.NewText("Aye-aye")))
}

func TestDefaultFormatters(t *testing.T) {
	require := require.New(t)

	require.Equal("12.5", Default(viz.TypeNumber).Format(viz.NewNumber(12.5)))
	require.Equal("100", Default(viz.TypeNumber).Format(viz.NewNumber(100)))
	require.Equal("true", Default(viz.TypeBoolean).Format(viz.NewBool(true)))
	require.Equal("Sloth", Default(viz.TypeText).Format(viz.NewText("Sloth")))
	require.Equal("2009-02-05", Default(viz.TypeDate).Format(viz.NewDateOf(2009, time.February, 5)))
	require.Equal("", Default(viz.TypeNumber).Format(viz.NewNull(viz.TypeNumber)))
}
