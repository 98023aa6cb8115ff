package evaluator

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/nukata/goarith"
)

type numKind int

const (
	kindInteger numKind = iota
	kindRational
	kindReal
	kindComplex
)

// Number is a Scheme number. Integers are arbitrary precision, rationals
// are exact fractions in lowest terms, reals are float64 and complex
// numbers use complex128. Exactness follows the kind: integers and
// rationals are exact, the rest inexact.
type Number struct {
	kind numKind
	i    *big.Int
	r    *big.Rat
	f    float64
	c    complex128
}

func (Number) schemeValue() {}

// NewInteger creates an exact integer.
func NewInteger(n int64) Number {
	return Number{kind: kindInteger, i: big.NewInt(n)}
}

// NewBigInteger creates an exact integer from a big.Int. The argument is
// not copied.
func NewBigInteger(n *big.Int) Number {
	return Number{kind: kindInteger, i: n}
}

// NewRational creates an exact rational, collapsing to an integer when the
// denominator is one.
func NewRational(r *big.Rat) Number {
	if r.IsInt() {
		return Number{kind: kindInteger, i: new(big.Int).Set(r.Num())}
	}
	return Number{kind: kindRational, r: r}
}

// NewReal creates an inexact real.
func NewReal(f float64) Number {
	return Number{kind: kindReal, f: f}
}

// NewComplex creates a complex number. A zero imaginary part yields a real.
func NewComplex(c complex128) Number {
	if imag(c) == 0 {
		return NewReal(real(c))
	}
	return Number{kind: kindComplex, c: c}
}

var (
	intPattern      = regexp.MustCompile(`^[+-]?\d+$`)
	rationalPattern = regexp.MustCompile(`^[+-]?\d+/\d+$`)
	realPattern     = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	complexPattern  = regexp.MustCompile(`^([+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)?([+-](?:\d+\.?\d*|\.\d+)?(?:[eE][+-]?\d+)?)i$`)
)

// ParseNumber converts numeric literal text into a Number.
func ParseNumber(text string) (Number, error) {
	switch {
	case intPattern.MatchString(text):
		n, ok := new(big.Int).SetString(text, 10)
		if ok {
			return NewBigInteger(n), nil
		}
	case rationalPattern.MatchString(text):
		r, ok := new(big.Rat).SetString(text)
		if ok {
			return NewRational(r), nil
		}
	case realPattern.MatchString(text):
		return NewReal(parseReal(text)), nil
	default:
		if m := complexPattern.FindStringSubmatch(text); m != nil {
			re := 0.0
			if m[1] != "" {
				re = parseReal(m[1])
			}
			var im float64
			switch m[2] {
			case "+":
				im = 1
			case "-":
				im = -1
			default:
				im = parseReal(m[2])
			}
			return Number{kind: kindComplex, c: complex(re, im)}, nil
		}
	}
	return Number{}, fmt.Errorf("invalid number literal '%s'", text)
}

// parseReal reads text already matched by a literal pattern. Out of range
// values saturate to an infinity.
func parseReal(text string) float64 {
	f, _ := strconv.ParseFloat(text, 64)
	return f
}

// IsExact reports whether the number is an exact integer or rational.
func (n Number) IsExact() bool {
	return n.kind == kindInteger || n.kind == kindRational
}

// IsInteger reports whether the number is an exact integer.
func (n Number) IsInteger() bool {
	return n.kind == kindInteger
}

// IsComplex reports whether the number has a non-zero imaginary part.
func (n Number) IsComplex() bool {
	return n.kind == kindComplex
}

// BigInt returns the integer value. Only valid when IsInteger is true.
func (n Number) BigInt() *big.Int {
	return n.i
}

// IsZero reports whether the number equals zero.
func (n Number) IsZero() bool {
	switch n.kind {
	case kindInteger:
		return n.i.Sign() == 0
	case kindRational:
		return n.r.Sign() == 0
	case kindReal:
		return n.f == 0
	default:
		return n.c == 0
	}
}

func (n Number) rat() *big.Rat {
	if n.kind == kindRational {
		return n.r
	}
	return new(big.Rat).SetInt(n.i)
}

func (n Number) float() float64 {
	switch n.kind {
	case kindInteger:
		f, _ := new(big.Float).SetInt(n.i).Float64()
		return f
	case kindRational:
		f, _ := n.r.Float64()
		return f
	case kindReal:
		return n.f
	default:
		return real(n.c)
	}
}

func (n Number) complex() complex128 {
	if n.kind == kindComplex {
		return n.c
	}
	return complex(n.float(), 0)
}

// arith returns the goarith view of an integer or real operand.
func (n Number) arith() goarith.Number {
	if n.kind == kindInteger {
		return goarith.AsNumber(n.i)
	}
	return goarith.AsNumber(n.float())
}

// fromArith converts a goarith result back by its concrete type.
func fromArith(res goarith.Number) Number {
	switch x := res.(type) {
	case goarith.Int32:
		return NewInteger(int64(x))
	case goarith.Int64:
		return NewInteger(int64(x))
	case *goarith.BigInt:
		return NewBigInteger(new(big.Int).Set((*big.Int)(x)))
	case goarith.Float64:
		return NewReal(float64(x))
	}
	return NewReal(math.NaN())
}

func maxKind(a, b Number) numKind {
	if a.kind > b.kind {
		return a.kind
	}
	return b.kind
}

// Add returns a + b.
func Add(a, b Number) Number {
	switch maxKind(a, b) {
	case kindComplex:
		return NewComplex(a.complex() + b.complex())
	case kindRational:
		return NewRational(new(big.Rat).Add(a.rat(), b.rat()))
	default:
		return fromArith(a.arith().Add(b.arith()))
	}
}

// Sub returns a - b.
func Sub(a, b Number) Number {
	switch maxKind(a, b) {
	case kindComplex:
		return NewComplex(a.complex() - b.complex())
	case kindRational:
		return NewRational(new(big.Rat).Sub(a.rat(), b.rat()))
	default:
		return fromArith(a.arith().Sub(b.arith()))
	}
}

// Mul returns a * b.
func Mul(a, b Number) Number {
	switch maxKind(a, b) {
	case kindComplex:
		return NewComplex(a.complex() * b.complex())
	case kindRational:
		return NewRational(new(big.Rat).Mul(a.rat(), b.rat()))
	default:
		return fromArith(a.arith().Mul(b.arith()))
	}
}

// Div returns a / b. Exact operands give an exact quotient, so (/ 1 2) is
// 1/2. Dividing by exact zero is an error; inexact zero follows IEEE 754.
func Div(a, b Number) (Number, error) {
	if b.IsExact() && b.IsZero() {
		return Number{}, fmt.Errorf("division by zero")
	}
	switch maxKind(a, b) {
	case kindComplex:
		return NewComplex(a.complex() / b.complex()), nil
	case kindReal:
		return NewReal(a.float() / b.float()), nil
	default:
		return NewRational(new(big.Rat).Quo(a.rat(), b.rat())), nil
	}
}

// Quotient, Remainder and Modulo implement the R7RS truncate/floor integer
// divisions. Both operands must be exact integers.
func Quotient(a, b Number) (Number, error) {
	if err := checkIntegerDivision(a, b); err != nil {
		return Number{}, err
	}
	return NewBigInteger(new(big.Int).Quo(a.i, b.i)), nil
}

func Remainder(a, b Number) (Number, error) {
	if err := checkIntegerDivision(a, b); err != nil {
		return Number{}, err
	}
	return NewBigInteger(new(big.Int).Rem(a.i, b.i)), nil
}

func Modulo(a, b Number) (Number, error) {
	if err := checkIntegerDivision(a, b); err != nil {
		return Number{}, err
	}
	m := new(big.Int).Rem(a.i, b.i)
	if m.Sign() != 0 && m.Sign() != b.i.Sign() {
		m.Add(m, b.i)
	}
	return NewBigInteger(m), nil
}

func checkIntegerDivision(a, b Number) error {
	if !a.IsInteger() || !b.IsInteger() {
		return fmt.Errorf("expected exact integers")
	}
	if b.i.Sign() == 0 {
		return fmt.Errorf("division by zero")
	}
	return nil
}

// Compare orders two real numbers. Complex operands are an error.
func Compare(a, b Number) (int, error) {
	if a.kind == kindComplex || b.kind == kindComplex {
		return 0, fmt.Errorf("cannot order complex numbers")
	}
	switch maxKind(a, b) {
	case kindRational:
		return a.rat().Cmp(b.rat()), nil
	case kindReal:
		if a.kind == kindRational || b.kind == kindRational {
			x, y := a.float(), b.float()
			switch {
			case x < y:
				return -1, nil
			case x > y:
				return 1, nil
			}
			return 0, nil
		}
		return a.arith().Cmp(b.arith()), nil
	default:
		return a.i.Cmp(b.i), nil
	}
}

// NumEqual reports numeric equality, ignoring exactness.
func NumEqual(a, b Number) bool {
	if a.kind == kindComplex || b.kind == kindComplex {
		return a.complex() == b.complex()
	}
	c, _ := Compare(a, b)
	return c == 0
}

// Neg returns -n.
func (n Number) Neg() Number {
	return Sub(NewInteger(0), n)
}

// String renders the number the way write prints it.
func (n Number) String() string {
	switch n.kind {
	case kindInteger:
		return n.i.String()
	case kindRational:
		return n.r.RatString()
	case kindReal:
		return formatReal(n.f)
	default:
		im := formatReal(imag(n.c))
		if !strings.HasPrefix(im, "-") && !strings.HasPrefix(im, "+") {
			im = "+" + im
		}
		return formatReal(real(n.c)) + im + "i"
	}
}

func formatReal(f float64) string {
	switch {
	case math.IsNaN(f):
		return "+nan.0"
	case math.IsInf(f, 1):
		return "+inf.0"
	case math.IsInf(f, -1):
		return "-inf.0"
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e21) {
		format = 'g'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if mant, exp, ok := strings.Cut(s, "e"); ok {
		sign := ""
		if exp[0] == '-' {
			sign = "-"
		}
		s = mant + "e" + sign + strings.TrimLeft(exp[1:], "0")
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
