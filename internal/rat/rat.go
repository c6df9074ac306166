// Package rat implements exact rational arithmetic for time and
// duration math (spec §4.A). Every Rat is kept reduced to lowest terms
// with a strictly positive denominator.
//
// No rational-number library is imported anywhere in the example pack
// this repo was built from, and the magnitudes involved (bar/beat/tick
// offsets within a score) are far below the range int64 safely covers,
// so this package is plain int64 arithmetic with overflow checks rather
// than a big.Rat-backed implementation.
package rat

import "fmt"

// Rat is an exact reduced rational number n/d, d > 0.
type Rat struct {
	N int64
	D int64
}

// Zero is the additive identity 0/1.
var Zero = Rat{N: 0, D: 1}

// New constructs a reduced Rat. It fails if d == 0.
func New(n, d int64) (Rat, error) {
	if d == 0 {
		return Rat{}, fmt.Errorf("rat: zero denominator")
	}
	if d < 0 {
		n, d = -n, -d
	}
	g := gcd(abs(n), d)
	if g == 0 {
		g = 1
	}
	return Rat{N: n / g, D: d / g}, nil
}

// MustNew is New but panics on error; for literal construction in
// tests and table-driven fixtures where d is a known-good constant.
func MustNew(n, d int64) Rat {
	r, err := New(n, d)
	if err != nil {
		panic(err)
	}
	return r
}

// FromInt builds the rational n/1.
func FromInt(n int64) Rat {
	return Rat{N: n, D: 1}
}

// IsZero reports whether r is exactly 0.
func (r Rat) IsZero() bool {
	return r.N == 0
}

// Add returns r + o, reduced.
func (r Rat) Add(o Rat) (Rat, error) {
	n, err := addOverflow(mulOverflowChecked(r.N, o.D), mulOverflowChecked(o.N, r.D))
	if err != nil {
		return Rat{}, err
	}
	d := mulOverflowChecked(r.D, o.D)
	return New(n, d)
}

// Sub returns r - o, reduced.
func (r Rat) Sub(o Rat) (Rat, error) {
	return r.Add(Rat{N: -o.N, D: o.D})
}

// Mul returns r * o, reduced.
func (r Rat) Mul(o Rat) (Rat, error) {
	return New(mulOverflowChecked(r.N, o.N), mulOverflowChecked(r.D, o.D))
}

// Div returns r / o, reduced. Fails if o is zero.
func (r Rat) Div(o Rat) (Rat, error) {
	if o.N == 0 {
		return Rat{}, fmt.Errorf("rat: division by zero")
	}
	return New(mulOverflowChecked(r.N, o.D), mulOverflowChecked(r.D, o.N))
}

// Neg returns -r.
func (r Rat) Neg() Rat {
	return Rat{N: -r.N, D: r.D}
}

// Compare returns -1, 0, or 1 as r is less than, equal to, or greater
// than o. Cross-multiplication keeps the comparison exact; the same
// overflow-checked helper Mul/Div use guards it, for consistency.
func (r Rat) Compare(o Rat) int {
	lhs := mulOverflowChecked(r.N, o.D)
	rhs := mulOverflowChecked(o.N, r.D)
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	default:
		return 0
	}
}

// Less reports whether r < o.
func (r Rat) Less(o Rat) bool { return r.Compare(o) < 0 }

// Equal reports whether r == o (both already reduced, so field equality works).
func (r Rat) Equal(o Rat) bool { return r.N == o.N && r.D == o.D }

// ToFloat64 is a lossy conversion for diagnostics/display only — never
// used in the resolution algorithm itself.
func (r Rat) ToFloat64() float64 {
	return float64(r.N) / float64(r.D)
}

// String renders "n/d", or the bare integer when d == 1.
func (r Rat) String() string {
	if r.D == 1 {
		return fmt.Sprintf("%d", r.N)
	}
	return fmt.Sprintf("%d/%d", r.N, r.D)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// mulOverflowChecked and addOverflow are internal helpers that detect
// int64 overflow. Every cross-multiplication in this package (Add,
// Mul, Div, Compare) goes through mulOverflowChecked so none of the
// four is quietly exempt from the guard the others rely on; it panics
// (a programming error: spec's own magnitudes never approach this)
// while addOverflow returns an error since it composes
// user-controlled durations instead.
func mulOverflowChecked(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	result := a * b
	if result/b != a {
		panic(fmt.Sprintf("rat: overflow multiplying %d * %d", a, b))
	}
	return result
}

func addOverflow(a, b int64) (int64, error) {
	result := a + b
	if (b > 0 && result < a) || (b < 0 && result > a) {
		return 0, fmt.Errorf("rat: overflow adding %d + %d", a, b)
	}
	return result, nil
}
