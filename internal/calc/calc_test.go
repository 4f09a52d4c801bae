package calc

import (
	"math"
	"testing"
)

func TestEvalArithmetic(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"1+2", 3},
		{"(100+200)*0.5", 150},
		{"500/2", 250},
		{"10-4-3", 3},
		{"2*3+4", 10},
		{"2+3*4", 14},
		{"2^10", 1024},
		{"2^3^2", 512}, // right associative
		{"10%3", 1},
		{"-5+3", -2},
		{"--4", 4},
		{"+7", 7},
		{"1.5e2", 150},
		{"  1 + 2 ", 3},
	}
	for _, tc := range cases {
		got, err := Eval(tc.expr)
		if err != nil {
			t.Errorf("Eval(%q) error: %v", tc.expr, err)
			continue
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Eval(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvalFunctions(t *testing.T) {
	cases := []struct {
		expr string
		want float64
	}{
		{"abs(-3)", 3},
		{"min(4, 2, 9)", 2},
		{"max(4, 2, 9)", 9},
		{"sum(1, 2, 3, 4)", 10},
		{"round(2.567)", 3},
		{"round(2.567, 2)", 2.57},
		{"sqrt(16)", 4},
		{"pow(2, 8)", 256},
		{"floor(2.9)", 2},
		{"ceil(2.1)", 3},
		{"SUM(1, 2)", 3}, // names are case-insensitive
		{"max(min(5, 3), 1+1)", 3},
	}
	for _, tc := range cases {
		got, err := Eval(tc.expr)
		if err != nil {
			t.Errorf("Eval(%q) error: %v", tc.expr, err)
			continue
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Eval(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	exprs := []string{
		"",
		"1/0",
		"10%0",
		"sqrt(-1)",
		"(1+2",
		"1+",
		"1 2",
		"foo(3)",
		"os.exit(1)",
		"sum()",
		"round(1, 2, 3)",
		"1..2",
		"@#$",
	}
	for _, expr := range exprs {
		if _, err := Eval(expr); err == nil {
			t.Errorf("Eval(%q) should fail", expr)
		}
	}
}
