package evaluator_test

import (
	"math/big"
	"testing"

	"github.com/thomasrohde/scheval/pkg/evaluator"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		text  string
		want  string
		exact bool
	}{
		{"0", "0", true},
		{"-456", "-456", true},
		{"+7", "7", true},
		{"123456789012345678901234567890", "123456789012345678901234567890", true},
		{"1/2", "1/2", true},
		{"-2/3", "-2/3", true},
		{"6/3", "2", true},
		{"7.8901", "7.8901", false},
		{"1.", "1.0", false},
		{".5", "0.5", false},
		{"1e3", "1000.0", false},
		{"1e30", "1e30", false},
		{"1e300", "1e300", false},
		{"-2.5e-7", "-2.5e-7", false},
		{"1e-10", "1e-10", false},
		{"6.78+9.0i", "6.78+9.0i", false},
		{"1-2i", "1.0-2.0i", false},
		{"+i", "0.0+1.0i", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			n, err := evaluator.ParseNumber(tt.text)
			if err != nil {
				t.Fatalf("ParseNumber(%q): %v", tt.text, err)
			}
			if n.String() != tt.want {
				t.Errorf("String() = %q, want %q", n.String(), tt.want)
			}
			if n.IsExact() != tt.exact {
				t.Errorf("IsExact() = %v, want %v", n.IsExact(), tt.exact)
			}
		})
	}
}

func TestParseNumberRejects(t *testing.T) {
	for _, text := range []string{"", "abc", "1/0", "1/2/3", "1..2", "--1", "1e", "i"} {
		if _, err := evaluator.ParseNumber(text); err == nil {
			t.Errorf("ParseNumber(%q) should fail", text)
		}
	}
}

func TestNumberOperations(t *testing.T) {
	half := evaluator.NewRational(big.NewRat(1, 2))
	three := evaluator.NewInteger(3)
	twoPointFive := evaluator.NewReal(2.5)

	tests := []struct {
		name string
		got  evaluator.Number
		want string
	}{
		{"int+int", evaluator.Add(three, three), "6"},
		{"int+rat", evaluator.Add(three, half), "7/2"},
		{"rat+rat collapses", evaluator.Add(half, half), "1"},
		{"int*real", evaluator.Mul(three, twoPointFive), "7.5"},
		{"real-int", evaluator.Sub(twoPointFive, three), "-0.5"},
		{"rat*real", evaluator.Mul(half, twoPointFive), "1.25"},
		{"neg", three.Neg(), "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.String() != tt.want {
				t.Errorf("got %s, want %s", tt.got.String(), tt.want)
			}
		})
	}
}

func TestBigIntegerPromotion(t *testing.T) {
	big1 := evaluator.NewInteger(1 << 62)
	sum := evaluator.Add(big1, big1)
	if sum.String() != "9223372036854775808" {
		t.Errorf("2^62 + 2^62 = %s", sum.String())
	}
	if !sum.IsExact() {
		t.Error("overflowing integer sum should stay exact")
	}
}

func TestArithmeticKeepsExactness(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	tests := []struct {
		name  string
		got   evaluator.Number
		want  string
		exact bool
	}{
		{"small ints", evaluator.Mul(evaluator.NewInteger(6), evaluator.NewInteger(7)), "42", true},
		{"big minus big", evaluator.Sub(evaluator.NewBigInteger(huge), evaluator.NewBigInteger(huge)), "0", true},
		{"big times int", evaluator.Mul(evaluator.NewBigInteger(huge), evaluator.NewInteger(10)), "1234567890123456789012345678900", true},
		{"int plus integral real", evaluator.Add(evaluator.NewInteger(1), evaluator.NewReal(2)), "3.0", false},
		{"real overflow", evaluator.Mul(evaluator.NewReal(1e200), evaluator.NewReal(1e200)), "+inf.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got.String() != tt.want {
				t.Errorf("got %s, want %s", tt.got.String(), tt.want)
			}
			if tt.got.IsExact() != tt.exact {
				t.Errorf("IsExact() = %v, want %v", tt.got.IsExact(), tt.exact)
			}
		})
	}
	if huge.String() != "123456789012345678901234567890" {
		t.Errorf("operands must not be mutated, got %s", huge)
	}
}

func TestDivision(t *testing.T) {
	q, err := evaluator.Div(evaluator.NewInteger(1), evaluator.NewInteger(3))
	if err != nil || q.String() != "1/3" {
		t.Errorf("1/3 = %v, %v", q, err)
	}
	if _, err := evaluator.Div(evaluator.NewInteger(1), evaluator.NewInteger(0)); err == nil {
		t.Error("exact division by zero should fail")
	}
	inf, err := evaluator.Div(evaluator.NewReal(1), evaluator.NewReal(0))
	if err != nil || inf.String() != "+inf.0" {
		t.Errorf("1.0/0.0 = %v, %v", inf, err)
	}
}

func TestCompare(t *testing.T) {
	third := evaluator.NewRational(big.NewRat(1, 3))
	tests := []struct {
		a, b evaluator.Number
		want int
	}{
		{evaluator.NewInteger(1), evaluator.NewInteger(2), -1},
		{evaluator.NewInteger(2), evaluator.NewReal(2), 0},
		{third, evaluator.NewReal(0.5), -1},
		{third, evaluator.NewRational(big.NewRat(2, 6)), 0},
		{evaluator.NewReal(3.5), evaluator.NewInteger(3), 1},
	}
	for i, tt := range tests {
		got, err := evaluator.Compare(tt.a, tt.b)
		if err != nil {
			t.Fatalf("test %d: %v", i, err)
		}
		if got != tt.want {
			t.Errorf("test %d: Compare(%s, %s) = %d, want %d", i, tt.a, tt.b, got, tt.want)
		}
	}

	if _, err := evaluator.Compare(evaluator.NewComplex(1+1i), evaluator.NewInteger(1)); err == nil {
		t.Error("ordering complex numbers should fail")
	}
	if !evaluator.NumEqual(evaluator.NewComplex(1+1i), evaluator.NewComplex(1+1i)) {
		t.Error("equal complex numbers should compare equal")
	}
}
