// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agents

import (
	"context"
	"testing"

	"github.com/jinterlante1206/AleutianDesk/services/gateway/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMathAgent_SolvesEmbeddedExpressions(t *testing.T) {
	a := NewMathAgent()

	tests := []struct {
		query string
		want  string
	}{
		{"What is 2 + 2?", "4"},
		{"Calculate (100/5)+2", "22"},
		{"2+2", "4"},
		{"Quanto é 10 * 3?", "30"},
		{"please compute sqrt(16)", "4"},
		{"what is pow(2, 10)", "1024"},
		{"the total of 1.5 + 2.5 please", "4"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := a.Solve(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMathAgent_Deterministic(t *testing.T) {
	a := NewMathAgent()

	first, err := a.Solve(context.Background(), "What is 7 * 6?")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		got, err := a.Solve(context.Background(), "What is 7 * 6?")
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestMathAgent_RejectsNonExpressions(t *testing.T) {
	a := NewMathAgent()

	queries := []string{
		"How do I reset my password?",
		"",
		"tell me a joke",
		"what is the meaning of life",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			_, err := a.Solve(context.Background(), q)
			require.Error(t, err)
			assert.ErrorIs(t, err, datatypes.ErrInvalidExpression)
		})
	}
}

func TestMathAgent_RejectsDivisionByZero(t *testing.T) {
	a := NewMathAgent()

	_, err := a.Solve(context.Background(), "what is 1/0")
	require.Error(t, err)
	assert.ErrorIs(t, err, datatypes.ErrInvalidExpression)
}

func TestMathAgent_RejectsOversizedResults(t *testing.T) {
	a := NewMathAgent()

	_, err := a.Solve(context.Background(), "10^20")
	require.Error(t, err)
	assert.ErrorIs(t, err, datatypes.ErrInvalidExpression)
}

func TestExtractExpression(t *testing.T) {
	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"What is 2 + 2?", "2 + 2", true},
		{"Calculate (100/5)+2", "(100/5)+2", true},
		{"sqrt(16) please", "sqrt(16)", true},
		{"no numbers here", "", false},
		{"pi alone has no digit", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := extractExpression(tt.query)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
