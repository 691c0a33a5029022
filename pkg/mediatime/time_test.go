package mediatime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Time
	}{
		{"2", Time{2, 1}},
		{"2.05", Time{41, 20}},
		{"1001/30000", Time{1001, 30000}},
		{"4/2", Time{2, 1}},
		{"-0.5", Time{-1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "abc", "1/0", "1/x"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidTime, bad)
	}
}

func TestArithmeticIsExact(t *testing.T) {
	third := New(1, 3)
	sum := Zero
	for i := 0; i < 3000; i++ {
		sum = sum.Add(third)
	}
	assert.True(t, sum.Equal(Seconds(1000)))

	frame := New(1001, 30000)
	assert.Equal(t, int64(30), Seconds(1).Add(frame).Sub(Seconds(1)).Mul(30000, 1001).Round(30))
}

func TestCheckedArithmeticReportsOverflow(t *testing.T) {
	near := Time{Value: math.MaxInt64 - 1, Scale: 1}

	_, err := near.CheckedAdd(Seconds(2))
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = near.Neg().CheckedSub(Seconds(3))
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = near.CheckedMul(60, 1)
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = near.CheckedMul(1, 0)
	assert.ErrorIs(t, err, ErrInvalidTime)
	assert.PanicsWithValue(t, ErrOverflow, func() { near.Add(Seconds(2)) })

	got, err := near.CheckedAdd(Seconds(1))
	require.NoError(t, err)
	assert.Equal(t, Time{math.MaxInt64, 1}, got)
	got, err = Seconds(90).CheckedMul(1, 60)
	require.NoError(t, err)
	assert.True(t, got.Equal(MustParse("1.5")))
}

func TestCompareAndMinMax(t *testing.T) {
	a := MustParse("1.5")
	b := New(3, 2)
	c := Seconds(2)

	assert.Equal(t, 0, a.Cmp(b))
	assert.Equal(t, -1, a.Cmp(c))
	assert.Equal(t, 1, c.Cmp(a))
	assert.True(t, Max(a, c, b).Equal(c))
	assert.True(t, Min(c, a).Equal(a))
	assert.True(t, Max().IsZero())
}

func TestZeroValueIsUsable(t *testing.T) {
	var z Time
	assert.True(t, z.IsZero())
	assert.True(t, z.Add(Seconds(2)).Equal(Seconds(2)))
	assert.Equal(t, "0", z.String())
}

func TestRoundAndFloor(t *testing.T) {
	v := MustParse("2.05")
	assert.Equal(t, int64(62), v.Round(30))
	assert.Equal(t, int64(61), v.Floor(30))
	assert.Equal(t, int64(2050), v.Round(1000))
	assert.Equal(t, int64(-2), MustParse("-1.5").Round(1))
}

func TestTextRoundTrip(t *testing.T) {
	for _, v := range []Time{Seconds(3), MustParse("0.125"), New(1, 3)} {
		b, err := v.MarshalText()
		require.NoError(t, err)
		var got Time
		require.NoError(t, got.UnmarshalText(b))
		assert.True(t, got.Equal(v), "%s", b)
	}
}

func TestClamp(t *testing.T) {
	r := Range{Start: Seconds(2), Duration: Seconds(3)}
	assert.True(t, Seconds(1).Clamp(r).Equal(Seconds(2)))
	assert.True(t, Seconds(9).Clamp(r).Equal(Seconds(5)))
	assert.True(t, Seconds(4).Clamp(r).Equal(Seconds(4)))
}
