// Package mediatime implements exact rational time points and ranges for
// timeline arithmetic. Values never pass through floating point, so any
// sequence of splits, trims and sums stays frame accurate.
package mediatime

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// DefaultScale is the timescale used when converting from floating seconds.
// 600 divides evenly by 24, 25, 30 and 60 fps.
const DefaultScale = 600

var (
	ErrInvalidTime = errors.New("invalid time value")
	ErrOverflow    = errors.New("mediatime: value overflows int64")
)

// Time is a point (or length) in seconds expressed as Value/Scale.
// The zero value is zero seconds.
type Time struct {
	Value int64
	Scale int64
}

// Zero is zero seconds.
var Zero = Time{0, 1}

// New returns value/scale seconds in lowest terms. It panics if scale is zero.
func New(value, scale int64) Time {
	if scale == 0 {
		panic("mediatime: zero scale")
	}
	return fromRat(big.NewRat(value, scale))
}

// Seconds returns n whole seconds.
func Seconds(n int64) Time {
	return Time{n, 1}
}

// Milliseconds returns n milliseconds.
func Milliseconds(n int64) Time {
	return New(n, 1000)
}

// FromSeconds converts floating seconds, rounding to the nearest 1/scale.
func FromSeconds(s float64, scale int64) Time {
	if scale <= 0 {
		scale = DefaultScale
	}
	r := new(big.Rat)
	if r.SetFloat64(s*float64(scale)) == nil {
		return Zero
	}
	return New(roundRat(r), scale)
}

// Parse reads "num/den", an integer or a decimal ("2.05") exactly.
func Parse(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("%w: empty string", ErrInvalidTime)
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
		d, err2 := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return Zero, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		return New(n, d), nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return Zero, fmt.Errorf("%w: %q out of range", ErrInvalidTime, s)
	}
	return fromRat(r), nil
}

// MustParse is Parse that panics on error. Intended for tests and constants.
func MustParse(s string) Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Time) scale() int64 {
	if t.Scale == 0 {
		return 1
	}
	return t.Scale
}

func (t Time) rat() *big.Rat {
	return big.NewRat(t.Value, t.scale())
}

func fromRat(r *big.Rat) Time {
	t, err := checkedRat(r)
	if err != nil {
		panic(err)
	}
	return t
}

func checkedRat(r *big.Rat) (Time, error) {
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return Zero, ErrOverflow
	}
	return Time{Value: r.Num().Int64(), Scale: r.Denom().Int64()}, nil
}

// roundRat rounds half away from zero.
func roundRat(r *big.Rat) int64 {
	num := new(big.Int).Set(r.Num())
	den := r.Denom()
	neg := num.Sign() < 0
	num.Abs(num)
	q, m := new(big.Int).QuoRem(num, den, new(big.Int))
	if m.Lsh(m, 1).Cmp(den) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	if neg {
		q.Neg(q)
	}
	if !q.IsInt64() {
		panic(ErrOverflow)
	}
	return q.Int64()
}

// Add returns t+u.
func (t Time) Add(u Time) Time {
	return fromRat(new(big.Rat).Add(t.rat(), u.rat()))
}

// CheckedAdd is Add returning ErrOverflow instead of panicking.
func (t Time) CheckedAdd(u Time) (Time, error) {
	return checkedRat(new(big.Rat).Add(t.rat(), u.rat()))
}

// CheckedSub is Sub returning ErrOverflow instead of panicking.
func (t Time) CheckedSub(u Time) (Time, error) {
	return checkedRat(new(big.Rat).Sub(t.rat(), u.rat()))
}

// CheckedMul is Mul returning ErrOverflow instead of panicking.
func (t Time) CheckedMul(num, den int64) (Time, error) {
	if den == 0 {
		return Zero, fmt.Errorf("%w: zero denominator", ErrInvalidTime)
	}
	return checkedRat(new(big.Rat).Mul(t.rat(), big.NewRat(num, den)))
}

// Sub returns t-u.
func (t Time) Sub(u Time) Time {
	return fromRat(new(big.Rat).Sub(t.rat(), u.rat()))
}

// Mul returns t scaled by num/den.
func (t Time) Mul(num, den int64) Time {
	if den == 0 {
		panic("mediatime: zero denominator")
	}
	return fromRat(new(big.Rat).Mul(t.rat(), big.NewRat(num, den)))
}

// Div returns t/u as a float ratio. It returns 0 when u is zero.
func (t Time) Div(u Time) float64 {
	if u.Value == 0 {
		return 0
	}
	f, _ := new(big.Rat).Quo(t.rat(), u.rat()).Float64()
	return f
}

// Neg returns -t.
func (t Time) Neg() Time {
	return Time{-t.Value, t.scale()}
}

// Cmp compares t and u exactly and returns -1, 0 or +1.
func (t Time) Cmp(u Time) int {
	return t.rat().Cmp(u.rat())
}

// Equal reports whether t and u denote the same instant.
func (t Time) Equal(u Time) bool { return t.Cmp(u) == 0 }

// Before reports whether t < u.
func (t Time) Before(u Time) bool { return t.Cmp(u) < 0 }

// After reports whether t > u.
func (t Time) After(u Time) bool { return t.Cmp(u) > 0 }

// Sign returns -1, 0 or +1.
func (t Time) Sign() int {
	switch {
	case t.Value < 0:
		return -1
	case t.Value > 0:
		return 1
	}
	return 0
}

// IsZero reports whether t is zero seconds.
func (t Time) IsZero() bool { return t.Value == 0 }

// Abs returns |t|.
func (t Time) Abs() Time {
	if t.Value < 0 {
		return t.Neg()
	}
	return t
}

// Seconds returns t as floating seconds. Use only for display and encoder arguments.
func (t Time) Seconds() float64 {
	f, _ := t.rat().Float64()
	return f
}

// Duration converts t to a time.Duration, rounding to the nearest nanosecond.
func (t Time) Duration() time.Duration {
	return time.Duration(t.Round(int64(time.Second)))
}

// Round returns t expressed in units of 1/scale, rounded half away from zero.
// Round(30) on 2.05s yields frame 62 at 30 fps.
func (t Time) Round(scale int64) int64 {
	return roundRat(new(big.Rat).Mul(t.rat(), big.NewRat(scale, 1)))
}

// Floor returns t expressed in whole units of 1/scale, rounded down.
func (t Time) Floor(scale int64) int64 {
	r := new(big.Rat).Mul(t.rat(), big.NewRat(scale, 1))
	q := new(big.Int).Div(r.Num(), r.Denom())
	if !q.IsInt64() {
		panic(ErrOverflow)
	}
	return q.Int64()
}

// Max returns the later of the given times. It returns Zero with no arguments.
func Max(ts ...Time) Time {
	if len(ts) == 0 {
		return Zero
	}
	m := ts[0]
	for _, t := range ts[1:] {
		if t.After(m) {
			m = t
		}
	}
	return m
}

// Min returns the earlier of the given times. It returns Zero with no arguments.
func Min(ts ...Time) Time {
	if len(ts) == 0 {
		return Zero
	}
	m := ts[0]
	for _, t := range ts[1:] {
		if t.Before(m) {
			m = t
		}
	}
	return m
}

// Sum adds all given times.
func Sum(ts ...Time) Time {
	acc := new(big.Rat)
	for _, t := range ts {
		acc.Add(acc, t.rat())
	}
	return fromRat(acc)
}

// Clamp limits t to [r.Start, r.End()].
func (t Time) Clamp(r Range) Time {
	if t.Before(r.Start) {
		return r.Start
	}
	if end := r.End(); t.After(end) {
		return end
	}
	return t
}

// String renders t as decimal seconds when exact, else as num/den.
func (t Time) String() string {
	r := t.rat()
	if r.IsInt() {
		return r.Num().String()
	}
	// exact decimal when the denominator only has factors 2 and 5
	d := new(big.Int).Set(r.Denom())
	for _, f := range []int64{2, 5} {
		bf := big.NewInt(f)
		for new(big.Int).Mod(d, bf).Sign() == 0 {
			d.Quo(d, bf)
		}
	}
	if d.Cmp(big.NewInt(1)) == 0 {
		s := r.FloatString(9)
		s = strings.TrimRight(s, "0")
		return strings.TrimSuffix(s, ".")
	}
	return r.String()
}

// MarshalText encodes t in the form accepted by Parse.
func (t Time) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes the forms accepted by Parse.
func (t *Time) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
