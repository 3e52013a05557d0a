// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package mathexpr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval_Arithmetic(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2+2", 4},
		{"2 + 2", 4},
		{"(100/5)+2", 22},
		{"10-4*2", 2},
		{"(10-4)*2", 12},
		{"-5+3", -2},
		{"2^10", 1024},
		{"2^3^2", 512}, // right-associative
		{"3.5*2", 7},
		{"1/4", 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEval_FunctionsAndConstants(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"sqrt(16)", 4},
		{"abs(-3)", 3},
		{"log(1000)", 3},
		{"ln(e)", 1},
		{"exp(0)", 1},
		{"pow(2, 8)", 256},
		{"min(3, 7)", 3},
		{"max(3, 7)", 7},
		{"sin(0)", 0},
		{"cos(0)", 1},
		{"2*pi", 2 * math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEval_Rejects(t *testing.T) {
	exprs := []string{
		"",
		"2+",
		"(2+3",
		"2 2",
		"foo(2)",
		"x+1",
		"import os",
		"2;3",
		"pow(2)",  // wrong arity
		"sqrt(4,2)",
		"__builtins__",
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			_, err := Eval(expr)
			assert.Error(t, err)
		})
	}
}

func TestEval_DivisionByZero(t *testing.T) {
	_, err := Eval("1/0")
	assert.Error(t, err)
}

func TestEval_Deterministic(t *testing.T) {
	first, err := Eval("sqrt(2)*pi - ln(10)")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := Eval("sqrt(2)*pi - ln(10)")
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "4", Format(4))
	assert.Equal(t, "0.25", Format(0.25))
	assert.Equal(t, "-2", Format(-2))
	assert.Equal(t, "22", Format(22))
}
