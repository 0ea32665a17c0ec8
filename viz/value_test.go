package viz

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleValues() []Value {
	tod, _ := NewTimeOfDay(12, 30, 45, 123)
	return []Value{
		NewText("pokeberry"),
		NewNumber(3.25),
		NewBool(true),
		NewDateOf(2020, time.January, 15),
		NewDateTimeOf(2020, time.January, 15, 13, 14, 15, 0),
		tod,
	}
}

func TestValueEqualsAndHashReflexive(t *testing.T) {
	require := require.New(t)

	for _, v := range sampleValues() {
		require.True(v.Equals(v), "value %s must equal itself", v)
		require.Equal(v.Hash(), v.Hash())
	}
}

func TestValueCompareAntisymmetric(t *testing.T) {
	require := require.New(t)

	tod1, _ := NewTimeOfDay(1, 2, 3, 0)
	tod2, _ := NewTimeOfDay(23, 0, 0, 999)
	pairs := [][2]Value{
		{NewText("aardvark"), NewText("zebu")},
		{NewNumber(-1), NewNumber(2)},
		{NewBool(false), NewBool(true)},
		{NewDateOf(2019, time.December, 31), NewDateOf(2020, time.January, 1)},
		{tod1, tod2},
	}
	for _, p := range pairs {
		ab, err := p[0].Compare(p[1])
		require.NoError(err)
		ba, err := p[1].Compare(p[0])
		require.NoError(err)
		require.Equal(-1, ab)
		require.Equal(1, ba)
	}
}

func TestValueNullOrdering(t *testing.T) {
	require := require.New(t)

	for _, v := range sampleValues() {
		null := NewNull(v.Type())
		require.True(null.IsNull())
		require.Equal(uint64(0), null.Hash())

		c, err := null.Compare(v)
		require.NoError(err)
		require.Equal(-1, c)

		c, err = v.Compare(null)
		require.NoError(err)
		require.Equal(1, c)

		c, err = null.Compare(NewNull(v.Type()))
		require.NoError(err)
		require.Equal(0, c)
	}
}

func TestValueCrossTypeCompareFails(t *testing.T) {
	require := require.New(t)

	_, err := NewNumber(1).Compare(NewText("1"))
	require.Error(err)
	require.True(ErrTypeMismatch.Is(err))

	require.False(NewNumber(1).Equals(NewBool(true)))
	require.False(NewNull(TypeNumber).Equals(NewNull(TypeText)))
}

func TestEmptyTextIsNull(t *testing.T) {
	require := require.New(t)

	require.True(NewText("").IsNull())
	require.True(NewText("").Equals(NewNull(TypeText)))
	require.False(NewText(" ").IsNull())
}

func TestNumberHashNormalizesZero(t *testing.T) {
	require := require.New(t)

	negZero := NewNumber(math.Copysign(0, -1))
	require.True(negZero.Equals(NewNumber(0)))
	require.Equal(NewNumber(0).Hash(), negZero.Hash())
	require.Equal(NewNumber(1).Hash(), NewNumber(1.0).Hash())
}

func TestCalendarValuesRequireUTC(t *testing.T) {
	require := require.New(t)

	paris := time.FixedZone("CET", 3600)
	_, err := NewDate(time.Date(2020, time.January, 15, 0, 0, 0, 0, paris))
	require.Error(err)
	require.True(ErrNotUTC.Is(err))

	_, err = NewDateTime(time.Date(2020, time.January, 15, 0, 0, 0, 0, paris))
	require.True(ErrNotUTC.Is(err))

	v, err := NewDate(time.Date(2020, time.January, 15, 23, 59, 0, 0, time.UTC))
	require.NoError(err)
	require.Equal(NewDateOf(2020, time.January, 15), v)
}

func TestTimeOfDayValidation(t *testing.T) {
	require := require.New(t)

	_, err := NewTimeOfDay(24, 0, 0, 0)
	require.True(ErrBadTimeOfDay.Is(err))
	_, err = NewTimeOfDay(0, 60, 0, 0)
	require.True(ErrBadTimeOfDay.Is(err))
	_, err = NewTimeOfDay(0, 0, 0, 1000)
	require.True(ErrBadTimeOfDay.Is(err))

	v, err := NewTimeOfDay(23, 59, 59, 999)
	require.NoError(err)
	h, m, s, ms := v.Clock()
	require.Equal([4]int{23, 59, 59, 999}, [4]int{h, m, s, ms})
}

func TestQueryLiteralForms(t *testing.T) {
	require := require.New(t)

	tod, _ := NewTimeOfDay(13, 14, 15, 0)
	todMs, _ := NewTimeOfDay(13, 14, 15, 120)
	cases := []struct {
		value   Value
		literal string
	}{
		{NewText("banteng"), `"banteng"`},
		{NewText(`say "hi"`), `'say "hi"'`},
		{NewNumber(100), "100"},
		{NewNumber(-2.5), "-2.5"},
		{NewBool(true), "true"},
		{NewDateOf(2020, time.January, 15), `date "2020-01-15"`},
		{NewDateTimeOf(2020, time.January, 15, 13, 14, 15, 0), `datetime "2020-01-15 13:14:15"`},
		{NewDateTimeOf(2020, time.January, 15, 13, 14, 15, 120), `datetime "2020-01-15 13:14:15.120"`},
		{tod, `timeofday "13:14:15"`},
		{todMs, `timeofday "13:14:15.120"`},
	}
	for _, tt := range cases {
		got, err := tt.value.QueryLiteral()
		require.NoError(err)
		require.Equal(tt.literal, got)
	}

	_, err := NewNull(TypeNumber).QueryLiteral()
	require.True(ErrNullLiteral.Is(err))

	_, err = NewText(`both " and '`).QueryLiteral()
	require.True(ErrUnquotableText.Is(err))
}
